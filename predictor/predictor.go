// Package predictor runs the prediction workflow: resolve the song, build the
// feature vector, classify, reconcile with the dataset and persist.
package predictor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/classifier"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/features"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/feed"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/firestore"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/reconcile"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/resolver"
	"go.uber.org/zap"
)

// DefaultTitle names manual predictions that carry no title.
const DefaultTitle = "Untitled Song"

type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) (*resolver.Resolution, error)
}

type Model interface {
	Predict(v features.Vector) (hitsong.RawPrediction, error)
	Version() string
}

type Recorder interface {
	RecordPrediction(
		ctx context.Context,
		song *hitsong.SongReference,
		result hitsong.PredictionResult,
		request []byte,
		respond func(database.Recorded) ([]byte, error),
	) (database.Recorded, error)
}

type Publisher interface {
	Broadcast(v any)
}

type AuditMirror interface {
	MirrorAudit(ctx context.Context, rec hitsong.AuditRecord) error
}

// Song is the song block of a prediction response.
type Song struct {
	TrackID    string `json:"track_id,omitempty"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album,omitempty"`
	AlbumImage string `json:"album_image,omitempty"`
	URL        string `json:"spotify_url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	Popularity *int   `json:"popularity,omitempty"`
	Genre      string `json:"genre,omitempty"`
}

// Response is the payload returned to the client and kept in the audit record.
type Response struct {
	Prediction        hitsong.Label      `json:"prediction"`
	Confidence        float64            `json:"confidence"`
	Song              Song               `json:"song"`
	Features          hitsong.FeatureSet `json:"features"`
	PredictionID      string             `json:"prediction_id"`
	SongID            string             `json:"song_id"`
	Source            hitsong.Source     `json:"source"`
	InDataset         bool               `json:"in_dataset"`
	ModelPrediction   hitsong.Label      `json:"model_prediction"`
	ModelConfidence   float64            `json:"model_confidence"`
	AdjustedByDataset bool               `json:"adjusted_by_dataset"`
	DatasetLabel      *hitsong.Label     `json:"dataset_label,omitempty"`
	DatasetPopularity *int               `json:"dataset_popularity,omitempty"`
	ModelVersion      string             `json:"model_version,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// Event is broadcast on the live feed for every stored prediction.
type Event struct {
	PredictionID string         `json:"prediction_id"`
	Title        string         `json:"title"`
	Artist       string         `json:"artist"`
	Prediction   hitsong.Label  `json:"prediction"`
	Confidence   float64        `json:"confidence"`
	Source       hitsong.Source `json:"source"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Service struct {
	resolver Resolver
	model    Model
	store    Recorder
	feed     Publisher
	mirror   AuditMirror
	log      *zap.SugaredLogger
}

// New builds the service. feed and mirror may be nil.
func New(res Resolver, model Model, store Recorder, feed Publisher, mirror AuditMirror, log *zap.SugaredLogger) *Service {
	return &Service{
		resolver: res,
		model:    model,
		store:    store,
		feed:     feed,
		mirror:   mirror,
		log:      log,
	}
}

func ProvidePredictor(
	res *resolver.Resolver,
	model *classifier.Classifier,
	store *database.Store,
	hub *feed.Hub,
	mirror *firestore.AuditMirror,
	log *zap.SugaredLogger,
) *Service {
	return New(res, model, store, hub, mirror, log)
}

var Options = ProvidePredictor

// PredictFromCatalog resolves a song by catalog reference or title and
// artist, then predicts and records it. payload is the verbatim request.
func (s *Service) PredictFromCatalog(ctx context.Context, req resolver.Request, payload []byte) (*Response, error) {
	res, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.predict(ctx, &res.Song, res.Reference, payload)
}

// PredictManual predicts from client-supplied features. Manual songs are
// never reconciled against the dataset.
func (s *Service) PredictManual(ctx context.Context, input map[string]any, title, artist string, payload []byte) (*Response, error) {
	fs, err := features.Decode(input)
	if err != nil {
		return nil, err
	}
	if title == "" {
		title = DefaultTitle
	}

	song := &hitsong.SongReference{
		Title:    title,
		Artist:   artist,
		Features: fs,
		Source:   hitsong.SourceManual,
	}
	return s.predict(ctx, song, nil, payload)
}

func (s *Service) predict(ctx context.Context, song *hitsong.SongReference, ref *hitsong.ReferenceLabel, payload []byte) (*Response, error) {
	raw, err := s.model.Predict(features.FromSet(song.Features))
	if err != nil {
		return nil, err
	}

	result := reconcile.Reconcile(raw, ref)
	result.ModelVersion = s.model.Version()
	s.logReconciliation(song, result)

	var (
		resp *Response
		body []byte
	)
	rec, err := s.store.RecordPrediction(ctx, song, result, payload, func(ids database.Recorded) ([]byte, error) {
		resp = newResponse(song, result, ids)
		var merr error
		body, merr = json.Marshal(resp)
		return body, merr
	})
	if err != nil {
		s.log.Errorw("Failed to record prediction", "title", song.Title, "error", err)
		return nil, err
	}

	s.log.Infow("Prediction recorded",
		"prediction_id", rec.PredictionID,
		"title", song.Title,
		"prediction", result.Label.String(),
		"confidence", result.Confidence,
		"source", song.Source,
	)

	if s.feed != nil {
		s.feed.Broadcast(Event{
			PredictionID: rec.PredictionID,
			Title:        song.Title,
			Artist:       song.Artist,
			Prediction:   result.Label,
			Confidence:   result.Confidence,
			Source:       song.Source,
			CreatedAt:    rec.CreatedAt,
		})
	}

	if s.mirror != nil {
		audit := hitsong.AuditRecord{
			ID:           rec.AuditID,
			PredictionID: rec.PredictionID,
			Request:      payload,
			Response:     body,
			CreatedAt:    rec.CreatedAt,
		}
		if err := s.mirror.MirrorAudit(ctx, audit); err != nil {
			s.log.Warnw("Failed to mirror audit record", "audit_id", rec.AuditID, "error", err)
		}
	}

	return resp, nil
}

func (s *Service) logReconciliation(song *hitsong.SongReference, result hitsong.PredictionResult) {
	if result.Reference == nil {
		return
	}
	if result.Adjusted {
		s.log.Warnw("Model disagrees with dataset label, using dataset label",
			"title", song.Title,
			"model_prediction", result.ModelLabel.String(),
			"model_confidence", result.ModelConfidence,
			"dataset_label", result.Reference.IsHit.String(),
			"dataset_popularity", result.Reference.Popularity,
		)
		return
	}
	s.log.Infow("Model prediction matches dataset label",
		"title", song.Title,
		"dataset_label", result.Reference.IsHit.String(),
	)
}

func newResponse(song *hitsong.SongReference, result hitsong.PredictionResult, ids database.Recorded) *Response {
	resp := &Response{
		Prediction: result.Label,
		Confidence: result.Confidence,
		Song: Song{
			TrackID:    song.ID,
			Title:      song.Title,
			Artist:     song.Artist,
			Album:      song.Album,
			AlbumImage: song.AlbumImage,
			URL:        song.URL,
			PreviewURL: song.PreviewURL,
			Popularity: song.Popularity,
			Genre:      song.Genre,
		},
		Features:          song.Features,
		PredictionID:      ids.PredictionID,
		SongID:            ids.SongID,
		Source:            song.Source,
		InDataset:         song.Source == hitsong.SourceDataset,
		ModelPrediction:   result.ModelLabel,
		ModelConfidence:   result.ModelConfidence,
		AdjustedByDataset: result.Adjusted,
		ModelVersion:      result.ModelVersion,
		CreatedAt:         ids.CreatedAt,
	}
	if result.Reference != nil {
		label := result.Reference.IsHit
		popularity := result.Reference.Popularity
		resp.DatasetLabel = &label
		resp.DatasetPopularity = &popularity
	}
	return resp
}
