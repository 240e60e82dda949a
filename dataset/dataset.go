// Package dataset reads the reference dataset CSV export.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Abdullah-shahzad/spotify-hit-song-predictor/hitsong"
)

// RequiredColumns must all be present in the header.
var RequiredColumns = []string{
	"track_id", "track_name", "artists", "album_name", "popularity",
	"duration_ms", "danceability", "energy", "valence", "acousticness",
	"instrumentalness", "loudness", "tempo", "mode", "explicit",
}

// MissingColumnsError is returned when the header lacks required columns.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

// RowError reports a row that could not be read. The reader can continue
// past it.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Reader decodes reference tracks from CSV.
type Reader struct {
	csv   *csv.Reader
	index map[string]int
	line  int
}

// NewReader reads and validates the header.
func NewReader(r io.Reader) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	return &Reader{csv: cr, index: index, line: 1}, nil
}

// Next returns the next track, io.EOF at the end, or a *RowError for a row
// that could not be decoded.
func (r *Reader) Next() (hitsong.ReferenceTrack, error) {
	record, err := r.csv.Read()
	r.line++
	if err == io.EOF {
		return hitsong.ReferenceTrack{}, io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return hitsong.ReferenceTrack{}, &RowError{Line: r.line, Err: err}
	}
	if err != nil {
		return hitsong.ReferenceTrack{}, err
	}

	ref, err := r.decode(record)
	if err != nil {
		return hitsong.ReferenceTrack{}, &RowError{Line: r.line, Err: err}
	}
	return ref, nil
}

// ReadAll reads every row. Bad rows are skipped and returned alongside the
// tracks that were read.
func ReadAll(in io.Reader) ([]hitsong.ReferenceTrack, []*RowError, error) {
	r, err := NewReader(in)
	if err != nil {
		return nil, nil, err
	}

	var (
		refs    []hitsong.ReferenceTrack
		skipped []*RowError
	)
	for {
		ref, err := r.Next()
		if err == io.EOF {
			return refs, skipped, nil
		}
		var rowErr *RowError
		if errors.As(err, &rowErr) {
			skipped = append(skipped, rowErr)
			continue
		}
		if err != nil {
			return refs, skipped, err
		}
		refs = append(refs, ref)
	}
}

func (r *Reader) decode(record []string) (hitsong.ReferenceTrack, error) {
	d := decoder{record: record, index: r.index}

	ref := hitsong.ReferenceTrack{
		TrackID:    d.text("track_id"),
		Title:      d.text("track_name"),
		Artist:     d.text("artists"),
		Album:      d.text("album_name"),
		Popularity: d.integer("popularity"),
		Genre:      d.text("track_genre"),
		Features: hitsong.FeatureSet{
			DurationMs:       d.integer("duration_ms"),
			Danceability:     d.number("danceability"),
			Energy:           d.number("energy"),
			Valence:          d.number("valence"),
			Acousticness:     d.number("acousticness"),
			Instrumentalness: d.number("instrumentalness"),
			Explicit:         d.flag("explicit"),
			Loudness:         d.number("loudness"),
			Tempo:            d.number("tempo"),
			Mode:             d.integer("mode"),
		},
		Key:           d.optionalInt("key"),
		Speechiness:   d.optionalFloat("speechiness"),
		Liveness:      d.optionalFloat("liveness"),
		TimeSignature: d.optionalInt("time_signature"),
	}
	if d.err != nil {
		return hitsong.ReferenceTrack{}, d.err
	}
	ref.IsHit = ref.Popularity >= hitsong.HitThreshold
	return ref, nil
}

// decoder reads typed cells. Empty or absent numeric cells read as zero; the
// first malformed cell is kept in err.
type decoder struct {
	record []string
	index  map[string]int
	err    error
}

func (d *decoder) cell(col string) (string, bool) {
	i, ok := d.index[col]
	if !ok || i >= len(d.record) {
		return "", false
	}
	v := strings.TrimSpace(d.record[i])
	return v, v != ""
}

func (d *decoder) text(col string) string {
	v, _ := d.cell(col)
	return v
}

func (d *decoder) number(col string) float64 {
	v, ok := d.cell(col)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		d.fail(col, v)
		return 0
	}
	return f
}

// integer accepts float notation ("230666.0") as pandas writes it.
func (d *decoder) integer(col string) int {
	v, ok := d.cell(col)
	if !ok {
		return 0
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		d.fail(col, v)
		return 0
	}
	return int(f)
}

func (d *decoder) flag(col string) int {
	v, ok := d.cell(col)
	if !ok {
		return 0
	}
	switch strings.ToLower(v) {
	case "true", "1", "1.0", "yes":
		return 1
	case "false", "0", "0.0", "no":
		return 0
	}
	d.fail(col, v)
	return 0
}

func (d *decoder) optionalInt(col string) *int {
	if _, ok := d.cell(col); !ok {
		return nil
	}
	n := d.integer(col)
	return &n
}

func (d *decoder) optionalFloat(col string) *float64 {
	if _, ok := d.cell(col); !ok {
		return nil
	}
	f := d.number(col)
	return &f
}

func (d *decoder) fail(col, v string) {
	if d.err == nil {
		d.err = fmt.Errorf("column %s: invalid value %q", col, v)
	}
}
