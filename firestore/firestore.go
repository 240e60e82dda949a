package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/config"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const auditCollection = "prediction_audits"

type AuditDoc struct {
	PredictionID string    `json:"predictionID" firestore:"predictionID"`
	Request      string    `json:"request" firestore:"request"`
	Response     string    `json:"response" firestore:"response"`
	CreatedAt    time.Time `json:"createdAt" firestore:"createdAt"`
}

// AuditMirror copies audit records to Firestore. A nil mirror does nothing.
type AuditMirror struct {
	Client *firestore.Client
	log    *zap.SugaredLogger
}

// ProvideAuditMirror provides a firestore mirror when a project is configured.
func ProvideAuditMirror(lc fx.Lifecycle, cfg config.Config, log *zap.SugaredLogger) (*AuditMirror, error) {
	if cfg.FirestoreProjectID == "" {
		return nil, nil
	}

	client, err := firestore.NewClient(context.Background(), cfg.FirestoreProjectID)
	if err != nil {
		log.Errorw("Failed to create firestore client", "project", cfg.FirestoreProjectID, "error", err)
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return &AuditMirror{Client: client, log: log}, nil
}

var Options = ProvideAuditMirror

// MirrorAudit writes the record to prediction_audits/{id}. Records are
// write-once, so a document that already exists counts as mirrored.
func (m *AuditMirror) MirrorAudit(ctx context.Context, rec hitsong.AuditRecord) error {
	if m == nil || m.Client == nil {
		return nil
	}

	_, err := m.Client.Collection(auditCollection).Doc(rec.ID).Create(ctx, AuditDoc{
		PredictionID: rec.PredictionID,
		Request:      string(rec.Request),
		Response:     string(rec.Response),
		CreatedAt:    rec.CreatedAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		m.log.Infow("Audit already mirrored", "audit_id", rec.ID)
		return nil
	}
	return err
}
