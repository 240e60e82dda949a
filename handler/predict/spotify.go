package predict

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/respond"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/predictor"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/resolver"
	"go.uber.org/zap"
)

// Service runs predictions.
type Service interface {
	PredictFromCatalog(ctx context.Context, req resolver.Request, payload []byte) (*predictor.Response, error)
	PredictManual(ctx context.Context, input map[string]any, title, artist string, payload []byte) (*predictor.Response, error)
}

// SpotifyHandler predicts a song identified by catalog reference or by title
// and artist.
type SpotifyHandler struct {
	log     *zap.SugaredLogger
	service Service
}

func (*SpotifyHandler) Pattern() string {
	return "/api/predict/spotify/"
}

func (*SpotifyHandler) Methods() []string {
	return []string{http.MethodPost}
}

func NewSpotifyHandler(log *zap.SugaredLogger, service *predictor.Service) *SpotifyHandler {
	return &SpotifyHandler{log: log, service: service}
}

type SpotifyRequest struct {
	TrackID    string `json:"track_id"`
	URL        string `json:"url"`
	TrackURL   string `json:"track_url"`
	SpotifyURL string `json:"spotify_url"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
}

// trackRef returns the first catalog reference given.
func (r SpotifyRequest) trackRef() string {
	for _, v := range []string{r.TrackID, r.URL, r.TrackURL, r.SpotifyURL} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var identityUsage = map[string]any{
	"option_1": map[string]string{
		"track_id": "5SuOikwiRyPMVoIQDJUgSV",
		"url":      "https://open.spotify.com/track/5SuOikwiRyPMVoIQDJUgSV",
	},
	"option_2": map[string]string{
		"title":  "Song Title",
		"artist": "Artist Name",
	},
}

// Predict from Spotify
// @Summary Predict HIT or FLOP for a Spotify track
// @Accept json
// @Produce json
// @Param request body SpotifyRequest true "track_id/url or title and artist"
// @Success 200 {object} predictor.Response
// @Router /api/predict/spotify/ [post]
func (h *SpotifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SpotifyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		respond.Fail(w, http.StatusBadRequest, respond.InvalidJSON)
		return
	}

	resp, err := h.service.PredictFromCatalog(r.Context(), resolver.Request{
		TrackRef: req.trackRef(),
		Title:    req.Title,
		Artist:   req.Artist,
	}, payload)
	if errors.Is(err, resolver.ErrNoIdentity) {
		respond.JSON(w, http.StatusBadRequest, respond.Body{
			Error: "Missing required information",
			Usage: identityUsage,
			Tip:   "Provide either track_id/url OR title+artist",
		})
		return
	}
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}
