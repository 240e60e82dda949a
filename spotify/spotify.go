package spotify

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/config"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/util"
	spot "github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DatasetIndex reports whether a title and artist belong to the reference dataset.
type DatasetIndex interface {
	ContainsReference(ctx context.Context, title, artist string) (bool, error)
}

// SpotifyClient is the catalog client. It authenticates with client
// credentials and shares one access token across requests.
type SpotifyClient struct {
	Client *spot.Client
	ID     string
	Secret string

	tokens *tokenCache
	index  DatasetIndex
	log    *zap.SugaredLogger
}

// New builds a SpotifyClient. index may be nil, in which case no search result
// is tagged as part of the dataset.
func New(cfg config.Config, index DatasetIndex, log *zap.SugaredLogger) *SpotifyClient {
	cc := &clientcredentials.Config{
		ClientID:     cfg.SpotifyID,
		ClientSecret: cfg.SpotifySecret,
		TokenURL:     cfg.SpotifyTokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokens := newTokenCache(cc, cfg.TokenRefreshMargin, cfg.RequestTimeout, log)

	httpClient := &http.Client{
		Timeout:   cfg.RequestTimeout,
		Transport: &bearerTransport{tokens: tokens, base: http.DefaultTransport},
	}

	return &SpotifyClient{
		Client: spot.New(httpClient, spot.WithBaseURL(cfg.SpotifyAPIURL)),
		ID:     cfg.SpotifyID,
		Secret: cfg.SpotifySecret,
		tokens: tokens,
		index:  index,
		log:    log,
	}
}

// ProvideSpotify provides a catalog client that tags search results against
// the reference dataset.
func ProvideSpotify(cfg config.Config, log *zap.SugaredLogger, store *database.Store) *SpotifyClient {
	c := New(cfg, store, log)
	if !c.Configured() {
		log.Warn("Spotify credentials missing, catalog lookups will fail")
	}
	return c
}

var Options = ProvideSpotify

// Configured reports whether credentials are present.
func (c *SpotifyClient) Configured() bool {
	return c.ID != "" && c.Secret != ""
}

// GetTrackInfo fetches the metadata of a track.
func (c *SpotifyClient) GetTrackInfo(ctx context.Context, id string) (*hitsong.TrackInfo, error) {
	t, err := c.Client.GetTrack(ctx, spot.ID(id))
	if err != nil {
		return nil, classify("get track", "track", id, err)
	}
	info := trackInfo(t)
	return &info, nil
}

// GetAudioFeatures fetches the catalog's audio features of a track. The
// endpoint carries no explicit flag, so Explicit is left at zero.
func (c *SpotifyClient) GetAudioFeatures(ctx context.Context, id string) (*hitsong.FeatureSet, error) {
	list, err := c.Client.GetAudioFeatures(ctx, spot.ID(id))
	if err != nil {
		return nil, classify("get audio features", "audio features", id, err)
	}
	if len(list) == 0 || list[0] == nil {
		return nil, &hitsong.RemoteNotFoundError{Resource: "audio features", ID: id}
	}

	af := list[0]
	return &hitsong.FeatureSet{
		DurationMs:       int(af.Duration),
		Danceability:     float64(af.Danceability),
		Energy:           float64(af.Energy),
		Valence:          float64(af.Valence),
		Acousticness:     float64(af.Acousticness),
		Instrumentalness: float64(af.Instrumentalness),
		Loudness:         float64(af.Loudness),
		Tempo:            float64(af.Tempo),
		Mode:             int(af.Mode),
	}, nil
}

// SearchTracks searches the catalog for tracks. Results that are in the
// reference dataset come first, then by popularity.
func (c *SpotifyClient) SearchTracks(ctx context.Context, query string, limit int) ([]hitsong.Candidate, error) {
	results, err := c.Client.Search(ctx, query, spot.SearchTypeTrack, spot.Limit(limit))
	if err != nil {
		return nil, classify("search", "search results", query, err)
	}
	if results.Tracks == nil {
		return nil, nil
	}

	candidates := make([]hitsong.Candidate, 0, len(results.Tracks.Tracks))
	for i := range results.Tracks.Tracks {
		info := trackInfo(&results.Tracks.Tracks[i])
		cand := hitsong.Candidate{TrackInfo: info}
		if c.index != nil {
			in, err := c.index.ContainsReference(ctx, info.Title, util.FirstArtist(info.Artist))
			if err != nil {
				return nil, err
			}
			cand.InDataset = in
		}
		candidates = append(candidates, cand)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].InDataset != candidates[j].InDataset {
			return candidates[i].InDataset
		}
		return candidates[i].Popularity > candidates[j].Popularity
	})
	return candidates, nil
}

func trackInfo(t *spot.FullTrack) hitsong.TrackInfo {
	info := hitsong.TrackInfo{
		ID:         string(t.ID),
		Title:      t.Name,
		Artist:     ConcatArtists(t.Artists),
		Album:      t.Album.Name,
		URL:        t.ExternalURLs["spotify"],
		PreviewURL: t.PreviewURL,
		ISRC:       t.ExternalIDs["isrc"],
		Popularity: int(t.Popularity),
		DurationMs: int(t.Duration),
		Explicit:   t.Explicit,
	}
	if len(t.Album.Images) > 0 {
		info.AlbumImage = t.Album.Images[0].URL
	}
	return info
}

func classify(op, resource, id string, err error) error {
	var authErr *hitsong.RemoteAuthError
	if errors.As(err, &authErr) {
		return authErr
	}
	var apiErr spot.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			return &hitsong.RemoteNotFoundError{Resource: resource, ID: id}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &hitsong.RemoteAuthError{Cause: err}
		}
	}
	return &hitsong.CatalogUnavailableError{Op: op, Cause: err}
}
