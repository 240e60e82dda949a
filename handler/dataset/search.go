package dataset

import (
	"context"
	"net/http"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/handler/respond"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"go.uber.org/zap"
)

// SearchLimit is how many reference tracks a search returns.
const SearchLimit = 20

type Searcher interface {
	SearchReferences(ctx context.Context, query string, limit int) ([]hitsong.ReferenceTrack, error)
}

// SearchHandler searches the reference dataset by title or artist.
type SearchHandler struct {
	log   *zap.SugaredLogger
	store Searcher
}

func (*SearchHandler) Pattern() string {
	return "/api/dataset/search/"
}

func (*SearchHandler) Methods() []string {
	return []string{http.MethodGet, http.MethodPost}
}

func NewSearchHandler(log *zap.SugaredLogger, store *database.Store) *SearchHandler {
	return &SearchHandler{log: log, store: store}
}

type Track struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Genre      string `json:"genre"`
	Popularity int    `json:"popularity"`
	IsHit      bool   `json:"is_hit"`
	InDataset  bool   `json:"in_dataset"`
}

type Response struct {
	Tracks []Track `json:"tracks"`
	Query  string  `json:"query"`
	Source string  `json:"source"`
	Note   string  `json:"note"`
}

// Search dataset
// @Summary Search the reference dataset
// @Description These tracks have full audio features available and always predict.
// @Produce json
// @Param q query string false "Search term"
// @Success 200 {object} Response
// @Router /api/dataset/search/ [get]
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query, ok := respond.SearchQuery(w, r)
	if !ok {
		return
	}
	if query == "" {
		respond.JSON(w, http.StatusBadRequest, respond.Body{
			Error: "Missing search query",
			Usage: map[string]string{"q": "search term"},
		})
		return
	}

	refs, err := h.store.SearchReferences(r.Context(), query, SearchLimit)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}

	resp := Response{
		Tracks: make([]Track, 0, len(refs)),
		Query:  query,
		Source: "dataset",
		Note:   "These tracks have full audio features available",
	}
	for _, ref := range refs {
		resp.Tracks = append(resp.Tracks, Track{
			ID:         ref.TrackID,
			Title:      ref.Title,
			Artist:     ref.Artist,
			Album:      ref.Album,
			Genre:      ref.Genre,
			Popularity: ref.Popularity,
			IsHit:      ref.IsHit,
			InDataset:  true,
		})
	}

	respond.JSON(w, http.StatusOK, resp)
}
