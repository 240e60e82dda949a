package musicbrainz

import (
	"context"
	"errors"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/config"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/util"
	mb "github.com/mager/musicbrainz-go/musicbrainz"
	"go.uber.org/zap"
)

type MusicbrainzClient struct {
	Client *mb.MusicbrainzClient

	timeout time.Duration
	log     *zap.SugaredLogger
	// genreCounts returns genre name to vote count for a recording.
	genreCounts func(isrc string) (map[string]int, error)
}

func New(timeout time.Duration, log *zap.SugaredLogger) *MusicbrainzClient {
	c := &MusicbrainzClient{
		Client: mb.NewMusicbrainzClient().
			WithUserAgent("spotify-hit-song-predictor", "1.0.0", "https://github.com/Abdullah-shahzad/spotify-hit-song-predictor"),
		timeout: timeout,
		log:     log,
	}
	c.genreCounts = c.recordingGenreCounts
	return c
}

// ProvideMusicbrainz provides the genre lookup, or nil when disabled.
func ProvideMusicbrainz(cfg config.Config, log *zap.SugaredLogger) *MusicbrainzClient {
	if !cfg.MusicbrainzEnabled {
		log.Info("MusicBrainz genre lookup disabled")
		return nil
	}
	return New(cfg.RequestTimeout, log)
}

var Options = ProvideMusicbrainz

// GenreForISRC returns the most voted genre of the recording with the given
// ISRC, or "" when MusicBrainz knows none. A nil client knows none.
func (c *MusicbrainzClient) GenreForISRC(ctx context.Context, isrc string) (string, error) {
	if c == nil || isrc == "" {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		counts map[string]int
		err    error
	}
	// The client takes no context, so the call is raced against the deadline.
	done := make(chan result, 1)
	go func() {
		counts, err := c.genreCounts(isrc)
		done <- result{counts, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		ranked := util.RankByCount(r.counts)
		if len(ranked) == 0 {
			return "", nil
		}
		c.log.Infow("Found genre on MusicBrainz", "isrc", isrc, "genre", ranked[0])
		return ranked[0], nil
	}
}

// recordingGenreCounts looks the ISRC up and tallies the genres of the first
// recording, falling back to its artists' genres.
func (c *MusicbrainzClient) recordingGenreCounts(isrc string) (map[string]int, error) {
	recs, err := c.Client.SearchRecordingsByISRC(mb.SearchRecordingsByISRCRequest{
		ISRC: isrc,
	})
	if err != nil {
		return nil, err
	}
	if recs.Count == 0 || len(recs.Recordings) == 0 {
		return nil, nil
	}

	id := recs.Recordings[0].ID
	if id == "" {
		return nil, errors.New("recording without id")
	}
	recording, err := c.Client.GetRecording(mb.GetRecordingRequest{
		ID: id,
		Includes: []mb.Include{
			"artist-credits",
			"genres",
		},
	})
	if err != nil {
		return nil, err
	}
	rec := recording.Recording

	counts := make(map[string]int)
	if rec.Genres != nil {
		for _, g := range *rec.Genres {
			counts[g.Name] += g.Count
		}
	}
	if len(counts) == 0 && rec.ArtistCredits != nil {
		for _, credit := range *rec.ArtistCredits {
			if credit.Artist != nil && credit.Artist.Genres != nil {
				for _, g := range *credit.Artist.Genres {
					counts[g.Name] += g.Count
				}
			}
		}
	}
	return counts, nil
}
