package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/util"
	"github.com/google/uuid"
)

const referenceColumns = `track_id, title, artist, album, popularity, genre, is_hit,
	duration_ms, danceability, energy, valence, acousticness, instrumentalness,
	explicit, loudness, tempo, mode, musical_key, speechiness, liveness, time_signature`

// defaultImportBatch is the rows per insert transaction when none is given.
const defaultImportBatch = 1000

// Ties between several matching rows go to the most popular one.
const referenceOrder = ` ORDER BY popularity DESC, track_id LIMIT 1`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReference(row rowScanner) (*hitsong.ReferenceTrack, error) {
	var (
		ref          hitsong.ReferenceTrack
		key, timeSig sql.NullInt64
		speech, live sql.NullFloat64
	)
	fs := &ref.Features
	err := row.Scan(
		&ref.TrackID, &ref.Title, &ref.Artist, &ref.Album, &ref.Popularity, &ref.Genre, &ref.IsHit,
		&fs.DurationMs, &fs.Danceability, &fs.Energy, &fs.Valence, &fs.Acousticness, &fs.Instrumentalness,
		&fs.Explicit, &fs.Loudness, &fs.Tempo, &fs.Mode, &key, &speech, &live, &timeSig,
	)
	if err != nil {
		return nil, err
	}
	if key.Valid {
		v := int(key.Int64)
		ref.Key = &v
	}
	if timeSig.Valid {
		v := int(timeSig.Int64)
		ref.TimeSignature = &v
	}
	if speech.Valid {
		ref.Speechiness = &speech.Float64
	}
	if live.Valid {
		ref.Liveness = &live.Float64
	}
	return &ref, nil
}

// FindReference looks a song up in the reference dataset. The title is first
// matched exactly, then as a substring; the first listed artist is always
// matched as a substring. Both comparisons ignore case. It returns nil when
// nothing matches.
func (s *Store) FindReference(ctx context.Context, title, artist string) (*hitsong.ReferenceTrack, error) {
	artistPattern := likeContains(util.FirstArtist(artist))

	exact := `SELECT ` + referenceColumns + ` FROM reference_tracks
		WHERE LOWER(title) = LOWER(?) AND LOWER(artist) LIKE LOWER(?) ESCAPE '\'` + referenceOrder
	ref, err := s.queryReference(ctx, exact, strings.TrimSpace(title), artistPattern)
	if err != nil || ref != nil {
		return ref, err
	}

	fuzzy := `SELECT ` + referenceColumns + ` FROM reference_tracks
		WHERE LOWER(title) LIKE LOWER(?) ESCAPE '\' AND LOWER(artist) LIKE LOWER(?) ESCAPE '\'` + referenceOrder
	return s.queryReference(ctx, fuzzy, likeContains(strings.TrimSpace(title)), artistPattern)
}

// FindReferenceByTrackID returns the reference row with the given catalog
// identifier, or nil.
func (s *Store) FindReferenceByTrackID(ctx context.Context, trackID string) (*hitsong.ReferenceTrack, error) {
	q := `SELECT ` + referenceColumns + ` FROM reference_tracks WHERE track_id = ?` + referenceOrder
	return s.queryReference(ctx, q, trackID)
}

// ContainsReference reports whether a title and artist match the reference
// dataset exactly, as used to tag catalog search results.
func (s *Store) ContainsReference(ctx context.Context, title, artist string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM reference_tracks
		WHERE LOWER(title) = LOWER(?) AND LOWER(artist) LIKE LOWER(?) ESCAPE '\'`),
		strings.TrimSpace(title), likeContains(util.FirstArtist(artist)),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("contains reference: %w", err)
	}
	return n > 0, nil
}

// SearchReferences returns reference rows whose title or artist contains the
// query, most popular first.
func (s *Store) SearchReferences(ctx context.Context, query string, limit int) ([]hitsong.ReferenceTrack, error) {
	pattern := likeContains(strings.TrimSpace(query))
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+referenceColumns+` FROM reference_tracks
		WHERE LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(artist) LIKE LOWER(?) ESCAPE '\'
		ORDER BY popularity DESC, track_id LIMIT ?`),
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search references: %w", err)
	}
	defer rows.Close()

	var out []hitsong.ReferenceTrack
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		out = append(out, *ref)
	}
	return out, rows.Err()
}

func (s *Store) queryReference(ctx context.Context, query string, args ...any) (*hitsong.ReferenceTrack, error) {
	ref, err := scanReference(s.db.QueryRowContext(ctx, s.rebind(query), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reference: %w", err)
	}
	return ref, nil
}

// ImportReferences inserts rows into the reference dataset, one transaction
// per batch, keeping existing rows. progress is called after each batch.
func (s *Store) ImportReferences(ctx context.Context, refs []hitsong.ReferenceTrack, batchSize int, progress func(done int)) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultImportBatch
	}

	done := 0
	for start := 0; start < len(refs); start += batchSize {
		end := min(start+batchSize, len(refs))
		if err := s.insertBatch(ctx, refs[start:end]); err != nil {
			return done, fmt.Errorf("import batch at row %d: %w", start, err)
		}
		done = end
		if progress != nil {
			progress(done)
		}
	}
	return done, nil
}

// ReplaceReferences swaps the whole reference dataset for refs in a single
// transaction. On any failure the previous dataset is left untouched. It
// returns how many rows were removed.
func (s *Store) ReplaceReferences(ctx context.Context, refs []hitsong.ReferenceTrack, batchSize int, progress func(done int)) (int64, error) {
	if batchSize <= 0 {
		batchSize = defaultImportBatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM reference_tracks`)
	if err != nil {
		return 0, fmt.Errorf("clear references: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, s.insertReference())
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for start := 0; start < len(refs); start += batchSize {
		end := min(start+batchSize, len(refs))
		if err := insertReferences(ctx, stmt, refs[start:end]); err != nil {
			return 0, fmt.Errorf("import batch at row %d: %w", start, err)
		}
		if progress != nil {
			progress(end)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return removed, nil
}

func (s *Store) insertReference() string {
	return s.rebind(`INSERT INTO reference_tracks (id, ` + referenceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
}

func (s *Store) insertBatch(ctx context.Context, refs []hitsong.ReferenceTrack) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.insertReference())
	if err != nil {
		return err
	}
	defer stmt.Close()

	if err := insertReferences(ctx, stmt, refs); err != nil {
		return err
	}
	return tx.Commit()
}

func insertReferences(ctx context.Context, stmt *sql.Stmt, refs []hitsong.ReferenceTrack) error {
	for _, r := range refs {
		fs := r.Features
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(), r.TrackID, r.Title, r.Artist, r.Album, r.Popularity, r.Genre,
			r.Popularity >= hitsong.HitThreshold,
			fs.DurationMs, fs.Danceability, fs.Energy, fs.Valence, fs.Acousticness, fs.Instrumentalness,
			fs.Explicit, fs.Loudness, fs.Tempo, fs.Mode,
			nullableInt(r.Key), nullableFloat(r.Speechiness), nullableFloat(r.Liveness), nullableInt(r.TimeSignature),
		)
		if err != nil {
			return err
		}
	}
	return nil
}
