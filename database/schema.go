package database

import (
	"context"
	"fmt"
)

// The schema sticks to types both drivers understand. Timestamps are RFC 3339
// text and payloads are JSON text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS reference_tracks (
		id TEXT PRIMARY KEY,
		track_id TEXT NOT NULL,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL DEFAULT '',
		popularity INTEGER NOT NULL DEFAULT 0,
		genre TEXT NOT NULL DEFAULT '',
		is_hit BOOLEAN NOT NULL,
		duration_ms INTEGER NOT NULL,
		danceability DOUBLE PRECISION NOT NULL,
		energy DOUBLE PRECISION NOT NULL,
		valence DOUBLE PRECISION NOT NULL,
		acousticness DOUBLE PRECISION NOT NULL,
		instrumentalness DOUBLE PRECISION NOT NULL,
		explicit INTEGER NOT NULL,
		loudness DOUBLE PRECISION NOT NULL,
		tempo DOUBLE PRECISION NOT NULL,
		mode INTEGER NOT NULL,
		musical_key INTEGER,
		speechiness DOUBLE PRECISION,
		liveness DOUBLE PRECISION,
		time_signature INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reference_tracks_title ON reference_tracks (LOWER(title))`,
	`CREATE INDEX IF NOT EXISTS idx_reference_tracks_track_id ON reference_tracks (track_id)`,
	`CREATE TABLE IF NOT EXISTS songs (
		id TEXT PRIMARY KEY,
		spotify_id TEXT UNIQUE,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL DEFAULT '',
		album_image TEXT NOT NULL DEFAULT '',
		spotify_url TEXT NOT NULL DEFAULT '',
		preview_url TEXT NOT NULL DEFAULT '',
		isrc TEXT NOT NULL DEFAULT '',
		popularity INTEGER,
		genre TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		danceability DOUBLE PRECISION NOT NULL,
		energy DOUBLE PRECISION NOT NULL,
		valence DOUBLE PRECISION NOT NULL,
		acousticness DOUBLE PRECISION NOT NULL,
		instrumentalness DOUBLE PRECISION NOT NULL,
		explicit INTEGER NOT NULL,
		loudness DOUBLE PRECISION NOT NULL,
		tempo DOUBLE PRECISION NOT NULL,
		mode INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS predictions (
		id TEXT PRIMARY KEY,
		song_id TEXT NOT NULL REFERENCES songs (id),
		model_label BOOLEAN NOT NULL,
		model_confidence DOUBLE PRECISION NOT NULL,
		label BOOLEAN NOT NULL,
		confidence DOUBLE PRECISION NOT NULL,
		adjusted BOOLEAN NOT NULL,
		reference_popularity INTEGER,
		model_version TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_predictions_song_id ON predictions (song_id)`,
	`CREATE TABLE IF NOT EXISTS prediction_audits (
		id TEXT PRIMARY KEY,
		prediction_id TEXT NOT NULL UNIQUE REFERENCES predictions (id),
		request_payload TEXT NOT NULL,
		response_payload TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
}

func (s *Store) initSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
