package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/google/uuid"
)

// Recorded identifies the rows written for one prediction.
type Recorded struct {
	SongID       string    `json:"song_id"`
	PredictionID string    `json:"prediction_id"`
	AuditID      string    `json:"audit_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Counts is the number of rows per table.
type Counts struct {
	References  int `json:"references"`
	Songs       int `json:"songs"`
	Predictions int `json:"predictions"`
	Audits      int `json:"audits"`
}

// RecordPrediction stores a prediction in a single transaction: the song is
// upserted by catalog identifier, the prediction is appended, respond renders
// the response payload from the new ids and the audit record is appended
// last. If any step fails nothing is written.
func (s *Store) RecordPrediction(
	ctx context.Context,
	song *hitsong.SongReference,
	result hitsong.PredictionResult,
	request []byte,
	respond func(Recorded) ([]byte, error),
) (Recorded, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Recorded{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	ts := now.Format(time.RFC3339Nano)
	rec := Recorded{CreatedAt: now}

	rec.SongID, err = s.upsertSong(ctx, tx, song, ts)
	if err != nil {
		return Recorded{}, fmt.Errorf("upsert song: %w", err)
	}

	rec.PredictionID = uuid.NewString()
	var refPopularity any
	if result.Reference != nil {
		refPopularity = result.Reference.Popularity
	}
	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO predictions (
			id, song_id, model_label, model_confidence, label, confidence, adjusted,
			reference_popularity, model_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		rec.PredictionID, rec.SongID, bool(result.ModelLabel), result.ModelConfidence,
		bool(result.Label), result.Confidence, result.Adjusted,
		refPopularity, result.ModelVersion, ts,
	)
	if err != nil {
		return Recorded{}, fmt.Errorf("insert prediction: %w", err)
	}

	rec.AuditID = uuid.NewString()
	response, err := respond(rec)
	if err != nil {
		return Recorded{}, fmt.Errorf("render response: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO prediction_audits (
			id, prediction_id, request_payload, response_payload, created_at
		) VALUES (?, ?, ?, ?, ?)`),
		rec.AuditID, rec.PredictionID, string(request), string(response), ts,
	)
	if err != nil {
		return Recorded{}, fmt.Errorf("insert audit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Recorded{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// upsertSong updates the song with the same catalog identifier, or inserts a
// new one, in a single statement so parallel requests for a new track
// converge on one row. A NULL spotify_id never conflicts, so songs without an
// identifier are always inserted.
func (s *Store) upsertSong(ctx context.Context, tx *sql.Tx, song *hitsong.SongReference, ts string) (string, error) {
	fs := song.Features

	var id string
	err := tx.QueryRowContext(ctx, s.rebind(`INSERT INTO songs (
			id, spotify_id, title, artist, album, album_image, spotify_url, preview_url,
			isrc, popularity, genre, source,
			duration_ms, danceability, energy, valence, acousticness,
			instrumentalness, explicit, loudness, tempo, mode,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (spotify_id) DO UPDATE SET
			title = excluded.title, artist = excluded.artist, album = excluded.album,
			album_image = excluded.album_image, spotify_url = excluded.spotify_url,
			preview_url = excluded.preview_url, isrc = excluded.isrc,
			popularity = excluded.popularity, genre = excluded.genre, source = excluded.source,
			duration_ms = excluded.duration_ms, danceability = excluded.danceability,
			energy = excluded.energy, valence = excluded.valence,
			acousticness = excluded.acousticness, instrumentalness = excluded.instrumentalness,
			explicit = excluded.explicit, loudness = excluded.loudness,
			tempo = excluded.tempo, mode = excluded.mode,
			updated_at = excluded.updated_at
		RETURNING id`),
		uuid.NewString(), nullableString(song.ID), song.Title, song.Artist, song.Album, song.AlbumImage, song.URL, song.PreviewURL,
		song.ISRC, nullableInt(song.Popularity), song.Genre, string(song.Source),
		fs.DurationMs, fs.Danceability, fs.Energy, fs.Valence, fs.Acousticness,
		fs.Instrumentalness, fs.Explicit, fs.Loudness, fs.Tempo, fs.Mode,
		ts, ts,
	).Scan(&id)
	return id, err
}

// GetAudit returns the audit record of a prediction, or nil.
func (s *Store) GetAudit(ctx context.Context, predictionID string) (*hitsong.AuditRecord, error) {
	var (
		rec                hitsong.AuditRecord
		req, resp, created string
	)
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id, prediction_id, request_payload, response_payload, created_at
		FROM prediction_audits WHERE prediction_id = ?`), predictionID,
	).Scan(&rec.ID, &rec.PredictionID, &req, &resp, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get audit: %w", err)
	}
	rec.Request = []byte(req)
	rec.Response = []byte(resp)
	rec.CreatedAt = parseTimestamp(created)
	return &rec, nil
}

// CountPredictions returns how many predictions were made for a catalog track.
func (s *Store) CountPredictions(ctx context.Context, spotifyID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM predictions p
		JOIN songs s ON s.id = p.song_id WHERE s.spotify_id = ?`), spotifyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count predictions: %w", err)
	}
	return n, nil
}

// Counts returns the row count of every table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	targets := []struct {
		table string
		dest  *int
	}{
		{"reference_tracks", &c.References},
		{"songs", &c.Songs},
		{"predictions", &c.Predictions},
		{"prediction_audits", &c.Audits},
	}
	for _, t := range targets {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.table).Scan(t.dest); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", t.table, err)
		}
	}
	return c, nil
}

// ClearAll deletes every row, children before parents.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"prediction_audits", "predictions", "songs", "reference_tracks"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
