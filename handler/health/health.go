package health

import (
	"context"
	"net/http"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/classifier"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/respond"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/spotify"
	"go.uber.org/zap"
)

type Catalog interface {
	Configured() bool
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type ModelInfo interface {
	Info() (classifier.Info, error)
}

// HealthHandler reports the state of the service and its dependencies.
type HealthHandler struct {
	log           *zap.SugaredLogger
	spotifyClient Catalog
	db            Pinger
	model         ModelInfo
}

func (*HealthHandler) Pattern() string {
	return "/api/health/"
}

func (*HealthHandler) Methods() []string {
	return []string{http.MethodGet}
}

// NewHealthHandler builds a new HealthHandler.
func NewHealthHandler(
	log *zap.SugaredLogger,
	spotifyClient *spotify.SpotifyClient,
	db *database.Store,
	model *classifier.Classifier,
) *HealthHandler {
	return &HealthHandler{
		log:           log,
		spotifyClient: spotifyClient,
		db:            db,
		model:         model,
	}
}

var endpoints = map[string]string{
	"predict_spotify": "/api/predict/spotify/",
	"search_spotify":  "/api/spotify/search/",
	"search_dataset":  "/api/dataset/search/",
	"predict_manual":  "/api/predict/manual/",
	"feed":            "/api/predictions/feed",
	"health":          "/api/health/",
}

type Response struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Server    bool              `json:"server"`
	Spotify   bool              `json:"spotify"`
	Database  bool              `json:"database"`
	Model     *classifier.Info  `json:"model,omitempty"`
	Endpoints map[string]string `json:"endpoints"`
}

// Health check
// @Summary Service health
// @Produce json
// @Success 200 {object} Response
// @Router /api/health/ [get]
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := Response{
		Status:    "ok",
		Service:   "hit-song-predictor",
		Server:    true,
		Endpoints: endpoints,
	}

	// Make sure Spotify client is set up properly
	resp.Spotify = h.spotifyClient.Configured()

	if err := h.db.Ping(r.Context()); err != nil {
		h.log.Warnw("Database ping failed", "error", err)
		resp.Status = "degraded"
	} else {
		resp.Database = true
	}

	info, err := h.model.Info()
	if err != nil {
		h.log.Errorw("Model unavailable", "error", err)
		resp.Status = "degraded"
	} else {
		resp.Model = &info
	}

	respond.JSON(w, http.StatusOK, resp)
}
