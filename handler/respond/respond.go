// Package respond writes JSON bodies and maps domain errors to HTTP statuses.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"go.uber.org/zap"
)

const InvalidJSON = "Invalid JSON format"

// Body is an error response. Optional fields carry hints for the client.
type Body struct {
	Error          string             `json:"error"`
	Tip            string             `json:"tip,omitempty"`
	Suggestion     string             `json:"suggestion,omitempty"`
	Usage          any                `json:"usage,omitempty"`
	FoundOnSpotify bool               `json:"found_on_spotify,omitempty"`
	SpotifyResults []CandidateSummary `json:"spotify_results,omitempty"`
}

// CandidateSummary is a catalog search hit offered as a hint.
type CandidateSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Fail writes a plain error body.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Body{Error: msg})
}

// Error maps err onto a status and a body. Unexpected errors are logged and
// reported as 500.
func Error(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	status, body := Classify(err)
	if status >= http.StatusInternalServerError {
		log.Errorw("Request failed", "status", status, "error", err)
	} else {
		log.Infow("Request rejected", "status", status, "error", err)
	}
	JSON(w, status, body)
}

// Classify returns the status and body for err.
func Classify(err error) (int, Body) {
	var (
		missing     *hitsong.MissingFeatureError
		invalid     *hitsong.InvalidFeatureTypeError
		notTrained  *hitsong.NotInTrainingDataError
		unavailable *hitsong.FeaturesUnavailableError
		notFound    *hitsong.RemoteNotFoundError
		authErr     *hitsong.RemoteAuthError
		catalogDown *hitsong.CatalogUnavailableError
		noModel     *hitsong.ModelNotFoundError
	)

	switch {
	case errors.As(err, &missing):
		return http.StatusBadRequest, Body{
			Error: err.Error(),
			Tip:   "Use /api/predict/spotify/ with a Spotify URL instead",
		}
	case errors.As(err, &invalid):
		return http.StatusBadRequest, Body{Error: err.Error()}
	case errors.As(err, &notTrained):
		body := Body{
			Error:          err.Error(),
			Suggestion:     "Try searching for songs in our dataset using /api/dataset/search/",
			Tip:            "Songs in the dataset have full audio features available. For other songs the catalog does not expose audio features.",
			FoundOnSpotify: len(notTrained.Candidates) > 0,
		}
		for _, c := range notTrained.Candidates {
			body.SpotifyResults = append(body.SpotifyResults, CandidateSummary{ID: c.ID, Title: c.Title, Artist: c.Artist})
		}
		return http.StatusBadRequest, body
	case errors.As(err, &unavailable):
		return http.StatusBadRequest, Body{
			Error:      err.Error(),
			Suggestion: "Try searching for songs in our dataset using /api/dataset/search/",
		}
	case errors.As(err, &notFound):
		return http.StatusNotFound, Body{
			Error: err.Error(),
			Tip:   "Try searching on Spotify first to verify the exact title and artist name, or use a Spotify track URL",
		}
	case errors.As(err, &authErr):
		return http.StatusBadGateway, Body{Error: err.Error()}
	case errors.As(err, &catalogDown):
		return http.StatusGatewayTimeout, Body{Error: err.Error()}
	case errors.As(err, &noModel):
		return http.StatusInternalServerError, Body{Error: err.Error()}
	}
	return http.StatusInternalServerError, Body{Error: "Error: " + err.Error()}
}

type searchRequest struct {
	Query string `json:"query"`
}

// SearchQuery reads q from the URL on GET and query from the JSON body
// otherwise. It writes the error response itself when the body is malformed.
func SearchQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method == http.MethodGet {
		return strings.TrimSpace(r.URL.Query().Get("q")), true
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Fail(w, http.StatusBadRequest, InvalidJSON)
		return "", false
	}
	return strings.TrimSpace(req.Query), true
}
