package predict

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/respond"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/predictor"
	"go.uber.org/zap"
)

// ManualHandler predicts from features supplied in the request body.
type ManualHandler struct {
	log     *zap.SugaredLogger
	service Service
	pattern string
}

func (h *ManualHandler) Pattern() string {
	return h.pattern
}

func (*ManualHandler) Methods() []string {
	return []string{http.MethodPost}
}

func NewManualHandler(log *zap.SugaredLogger, service *predictor.Service) *ManualHandler {
	return &ManualHandler{log: log, service: service, pattern: "/api/predict/manual/"}
}

// NewLegacyHandler serves manual predictions at the old /api/predict/ path.
func NewLegacyHandler(log *zap.SugaredLogger, service *predictor.Service) *ManualHandler {
	return &ManualHandler{log: log, service: service, pattern: "/api/predict/"}
}

// Predict from features
// @Summary Predict HIT or FLOP from the ten audio features
// @Description Body holds duration_ms, danceability, energy, valence, acousticness,
// @Description instrumentalness, explicit, loudness, tempo, mode and optional title and artist.
// @Accept json
// @Produce json
// @Success 200 {object} predictor.Response
// @Router /api/predict/manual/ [post]
func (h *ManualHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	var input map[string]any
	if err := json.Unmarshal(payload, &input); err != nil || input == nil {
		respond.Fail(w, http.StatusBadRequest, respond.InvalidJSON)
		return
	}

	title, _ := input["title"].(string)
	artist, _ := input["artist"].(string)

	resp, err := h.service.PredictManual(r.Context(), input, strings.TrimSpace(title), strings.TrimSpace(artist), payload)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}
