// Package resolver determines the features of a song from the reference
// dataset or, failing that, the catalog.
package resolver

import (
	"context"
	"errors"
	"strings"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/database"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/musicbrainz"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/spotify"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/util"
	"go.uber.org/zap"
)

const (
	// CandidateLimit is how many catalog results are checked for dataset membership.
	CandidateLimit = 5
	// HintLimit caps the candidates returned with NotInTrainingDataError.
	HintLimit = 3
)

// ErrNoIdentity is returned for a request with neither a track reference nor
// both title and artist.
var ErrNoIdentity = errors.New("provide either track_id/url or title and artist")

// Dataset is the reference dataset store.
type Dataset interface {
	FindReference(ctx context.Context, title, artist string) (*hitsong.ReferenceTrack, error)
	FindReferenceByTrackID(ctx context.Context, trackID string) (*hitsong.ReferenceTrack, error)
}

// Catalog is the remote catalog.
type Catalog interface {
	GetTrackInfo(ctx context.Context, id string) (*hitsong.TrackInfo, error)
	GetAudioFeatures(ctx context.Context, id string) (*hitsong.FeatureSet, error)
	SearchTracks(ctx context.Context, query string, limit int) ([]hitsong.Candidate, error)
}

// GenreLookup finds the genre of a recording by ISRC.
type GenreLookup interface {
	GenreForISRC(ctx context.Context, isrc string) (string, error)
}

// Request identifies a song either by catalog reference or by title and artist.
type Request struct {
	// TrackRef is a track ID, share URL or spotify:track URI.
	TrackRef string
	Title    string
	Artist   string
}

// Resolution is a resolved song and, when it came from the dataset, its
// reference label.
type Resolution struct {
	Song      hitsong.SongReference
	Reference *hitsong.ReferenceLabel
}

type Resolver struct {
	dataset Dataset
	catalog Catalog
	genres  GenreLookup
	log     *zap.SugaredLogger
}

// New builds a Resolver. genres may be nil.
func New(dataset Dataset, catalog Catalog, genres GenreLookup, log *zap.SugaredLogger) *Resolver {
	return &Resolver{dataset: dataset, catalog: catalog, genres: genres, log: log}
}

func ProvideResolver(store *database.Store, catalog *spotify.SpotifyClient, genres *musicbrainz.MusicbrainzClient, log *zap.SugaredLogger) *Resolver {
	return New(store, catalog, genres, log)
}

var Options = ProvideResolver

// Resolve runs one resolution. Failures are final; nothing is retried.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	if ref := strings.TrimSpace(req.TrackRef); ref != "" {
		return r.ResolveByID(ctx, spotify.ExtractTrackID(ref))
	}
	title, artist := strings.TrimSpace(req.Title), strings.TrimSpace(req.Artist)
	if title == "" || artist == "" {
		return nil, ErrNoIdentity
	}
	return r.ResolveByTitle(ctx, title, artist)
}

// ResolveByID resolves a catalog track. Dataset features win over the
// catalog's audio features.
func (r *Resolver) ResolveByID(ctx context.Context, id string) (*Resolution, error) {
	info, err := r.catalog.GetTrackInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	ref, err := r.dataset.FindReferenceByTrackID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		ref, err = r.dataset.FindReference(ctx, info.Title, util.FirstArtist(info.Artist))
		if err != nil {
			return nil, err
		}
	}
	if ref != nil {
		r.log.Infow("Found track in dataset", "track_id", id, "title", ref.Title)
		return fromDataset(ref, info), nil
	}

	fs, err := r.catalog.GetAudioFeatures(ctx, id)
	if err != nil {
		r.log.Warnw("Audio features unavailable", "track_id", id, "error", err)
		return nil, &hitsong.FeaturesUnavailableError{Title: info.Title, Artist: info.Artist, Cause: err}
	}

	song := songFromCatalog(info)
	song.Features = *fs
	song.Features.Explicit = 0
	if info.Explicit {
		song.Features.Explicit = 1
	}
	song.Source = hitsong.SourceSpotifyAPI
	song.Genre = r.genre(ctx, info.ISRC)
	return &Resolution{Song: song}, nil
}

// ResolveByTitle resolves a song by title and artist, dataset first.
func (r *Resolver) ResolveByTitle(ctx context.Context, title, artist string) (*Resolution, error) {
	query := title + " " + artist

	ref, err := r.dataset.FindReference(ctx, title, artist)
	if err != nil {
		return nil, err
	}
	if ref != nil {
		return fromDataset(ref, r.enrich(ctx, query, ref)), nil
	}

	candidates, err := r.catalog.SearchTracks(ctx, query, CandidateLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &hitsong.RemoteNotFoundError{Resource: "track", ID: query}
	}

	for _, c := range candidates {
		if !c.InDataset {
			continue
		}
		res, err := r.ResolveByID(ctx, c.ID)
		if err != nil {
			r.log.Warnw("Failed to resolve dataset candidate", "track_id", c.ID, "error", err)
			continue
		}
		return res, nil
	}

	return nil, &hitsong.NotInTrainingDataError{
		Title:      title,
		Artist:     artist,
		Candidates: candidates[:min(HintLimit, len(candidates))],
	}
}

// enrich fetches catalog metadata for a dataset match. It is best effort and
// returns nil when nothing could be fetched or the top hit is another song.
func (r *Resolver) enrich(ctx context.Context, query string, ref *hitsong.ReferenceTrack) *hitsong.TrackInfo {
	results, err := r.catalog.SearchTracks(ctx, query, 1)
	if err != nil {
		r.log.Warnw("Catalog enrichment failed", "query", query, "error", err)
		return nil
	}
	if len(results) == 0 {
		return nil
	}
	if !sameSong(&results[0].TrackInfo, ref) {
		r.log.Infow("Top catalog hit is a different song, skipping enrichment",
			"query", query, "track_id", results[0].ID, "title", results[0].Title, "artist", results[0].Artist)
		return nil
	}

	info, err := r.catalog.GetTrackInfo(ctx, results[0].ID)
	if err != nil {
		r.log.Warnw("Catalog enrichment failed", "track_id", results[0].ID, "error", err)
		return &results[0].TrackInfo
	}
	return info
}

// sameSong reports whether a catalog track has the title and lead artist of a
// dataset row, ignoring case.
func sameSong(info *hitsong.TrackInfo, ref *hitsong.ReferenceTrack) bool {
	return strings.EqualFold(strings.TrimSpace(info.Title), strings.TrimSpace(ref.Title)) &&
		strings.EqualFold(leadArtist(info.Artist), leadArtist(ref.Artist))
}

// leadArtist returns the first name of an artist list. The catalog joins names
// with commas and the dataset with semicolons.
func leadArtist(artists string) string {
	if i := strings.IndexAny(artists, ",;"); i >= 0 {
		artists = artists[:i]
	}
	return strings.TrimSpace(artists)
}

func (r *Resolver) genre(ctx context.Context, isrc string) string {
	if r.genres == nil || isrc == "" {
		return ""
	}
	genre, err := r.genres.GenreForISRC(ctx, isrc)
	if err != nil {
		r.log.Warnw("Genre lookup failed", "isrc", isrc, "error", err)
		return ""
	}
	return genre
}

// fromDataset builds a song from a reference row. Features, explicit flag,
// popularity, genre, title, artist and album come from the dataset; the
// identifier, artwork, links and ISRC come from the catalog when known.
func fromDataset(ref *hitsong.ReferenceTrack, info *hitsong.TrackInfo) *Resolution {
	popularity := ref.Popularity
	song := hitsong.SongReference{
		Title:      ref.Title,
		Artist:     ref.Artist,
		Album:      ref.Album,
		Popularity: &popularity,
		Genre:      ref.Genre,
		Features:   ref.Features,
		Source:     hitsong.SourceDataset,
	}
	if info != nil {
		song.ID = info.ID
		song.AlbumImage = info.AlbumImage
		song.URL = info.URL
		song.PreviewURL = info.PreviewURL
		song.ISRC = info.ISRC
	}

	label := hitsong.LabelFor(ref.Popularity)
	return &Resolution{Song: song, Reference: &label}
}

func songFromCatalog(info *hitsong.TrackInfo) hitsong.SongReference {
	popularity := info.Popularity
	return hitsong.SongReference{
		ID:         info.ID,
		Title:      info.Title,
		Artist:     info.Artist,
		Album:      info.Album,
		AlbumImage: info.AlbumImage,
		URL:        info.URL,
		PreviewURL: info.PreviewURL,
		ISRC:       info.ISRC,
		Popularity: &popularity,
	}
}
