package spotify

import (
	"context"
	"net/http"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/respond"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/spotify"
	"go.uber.org/zap"
)

// SearchLimit is how many catalog tracks a search returns.
const SearchLimit = 10

type Searcher interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]hitsong.Candidate, error)
}

// SearchHandler searches the catalog, listing dataset tracks first.
type SearchHandler struct {
	log           *zap.SugaredLogger
	spotifyClient Searcher
}

func (*SearchHandler) Pattern() string {
	return "/api/spotify/search/"
}

func (*SearchHandler) Methods() []string {
	return []string{http.MethodGet, http.MethodPost}
}

// NewSearchHandler builds a new SearchHandler.
func NewSearchHandler(log *zap.SugaredLogger, spotifyClient *spotify.SpotifyClient) *SearchHandler {
	return &SearchHandler{
		log:           log,
		spotifyClient: spotifyClient,
	}
}

type Response struct {
	Tracks []hitsong.Candidate `json:"tracks"`
	Query  string              `json:"query"`
}

var searchUsage = map[string]string{
	"q":     "search term (GET)",
	"query": "search term (POST)",
}

// Search Spotify
// @Summary Search Spotify tracks
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {object} Response
// @Router /api/spotify/search/ [get]
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query, ok := respond.SearchQuery(w, r)
	if !ok {
		return
	}
	if query == "" {
		respond.JSON(w, http.StatusBadRequest, respond.Body{Error: "Missing search query", Usage: searchUsage})
		return
	}

	tracks, err := h.spotifyClient.SearchTracks(r.Context(), query, SearchLimit)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if tracks == nil {
		tracks = []hitsong.Candidate{}
	}

	respond.JSON(w, http.StatusOK, Response{Tracks: tracks, Query: query})
}
