package feed

import (
	"net/http"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/feed"
	"go.uber.org/zap"
)

// FeedHandler upgrades to a websocket that streams every stored prediction.
type FeedHandler struct {
	log *zap.SugaredLogger
	hub *feed.Hub
}

func (*FeedHandler) Pattern() string {
	return "/api/predictions/feed"
}

func (*FeedHandler) Methods() []string {
	return []string{http.MethodGet}
}

func NewFeedHandler(log *zap.SugaredLogger, hub *feed.Hub) *FeedHandler {
	return &FeedHandler{log: log, hub: hub}
}

// Prediction feed
// @Summary Live prediction feed (websocket)
// @Router /api/predictions/feed [get]
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.Infow("Feed subscriber connecting", "remote", r.RemoteAddr)
	h.hub.Serve(w, r)
}
