package hitsong

import "time"

// HitThreshold is the popularity at or above which a reference track is a hit.
const HitThreshold = 50

// Label is the binary verdict of a prediction.
type Label bool

const (
	Flop Label = false
	Hit  Label = true
)

func (l Label) String() string {
	if l {
		return "HIT"
	}
	return "FLOP"
}

// MarshalText renders the label in its wire form ("HIT" / "FLOP").
func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Source is the provenance of a FeatureSet.
type Source string

const (
	SourceDataset    Source = "dataset"
	SourceSpotifyAPI Source = "spotify_api"
	SourceManual     Source = "manual"
)

// FeatureSet holds the ten inputs of the classifier.
type FeatureSet struct {
	// DurationMs is the duration of the track in milliseconds.
	// Example: 230666
	DurationMs int `json:"duration_ms"`
	// Danceability describes how suitable a track is for dancing based on a combination of
	// musical elements including tempo, rhythm stability, beat strength, and overall regularity.
	// Range: 0 - 1
	Danceability float64 `json:"danceability"`
	// Energy is a perceptual measure of intensity and activity.
	// Range: 0 - 1
	Energy float64 `json:"energy"`
	// Valence describes the musical positiveness conveyed by a track.
	// Range: 0 - 1
	Valence float64 `json:"valence"`
	// Acousticness is a confidence measure of whether the track is acoustic.
	// Range: 0 - 1
	Acousticness float64 `json:"acousticness"`
	// Instrumentalness predicts whether a track contains no vocals.
	// Range: 0 - 1
	Instrumentalness float64 `json:"instrumentalness"`
	// Explicit is 1 when the track has explicit lyrics, 0 otherwise.
	Explicit int `json:"explicit"`
	// Loudness is the overall loudness of a track in decibels (dB).
	// Values typically range between -60 and 0 db.
	Loudness float64 `json:"loudness"`
	// Tempo is the overall estimated tempo of a track in beats per minute (BPM).
	Tempo float64 `json:"tempo"`
	// Mode indicates the modality of a track. Major is represented by 1 and minor is 0.
	Mode int `json:"mode"`
}

// TrackInfo is catalog metadata for a single track.
type TrackInfo struct {
	ID         string `json:"track_id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	AlbumImage string `json:"album_image,omitempty"`
	URL        string `json:"spotify_url,omitempty"`
	PreviewURL string `json:"preview_url,omitempty"`
	ISRC       string `json:"isrc,omitempty"`
	Popularity int    `json:"popularity"`
	DurationMs int    `json:"duration_ms"`
	Explicit   bool   `json:"explicit"`
}

// Candidate is a catalog search hit, tagged with reference dataset membership.
type Candidate struct {
	TrackInfo
	InDataset bool `json:"in_dataset"`
}

// ReferenceTrack is a row of the reference dataset.
type ReferenceTrack struct {
	TrackID    string     `json:"id"`
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	Album      string     `json:"album"`
	Popularity int        `json:"popularity"`
	Genre      string     `json:"genre"`
	IsHit      bool       `json:"is_hit"`
	Features   FeatureSet `json:"features"`

	Key           *int     `json:"key,omitempty"`
	Speechiness   *float64 `json:"speechiness,omitempty"`
	Liveness      *float64 `json:"liveness,omitempty"`
	TimeSignature *int     `json:"time_signature,omitempty"`
}

// ReferenceLabel is the authoritative verdict of a known reference track.
type ReferenceLabel struct {
	IsHit      Label `json:"is_hit"`
	Popularity int   `json:"popularity"`
}

// LabelFor derives the reference label from a popularity score.
func LabelFor(popularity int) ReferenceLabel {
	return ReferenceLabel{
		IsHit:      Label(popularity >= HitThreshold),
		Popularity: popularity,
	}
}

// SongReference is a resolved song with its features and their provenance.
type SongReference struct {
	// ID is the catalog identifier; empty for manually entered songs.
	ID         string     `json:"track_id"`
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	Album      string     `json:"album"`
	AlbumImage string     `json:"album_image,omitempty"`
	URL        string     `json:"spotify_url,omitempty"`
	PreviewURL string     `json:"preview_url,omitempty"`
	ISRC       string     `json:"isrc,omitempty"`
	Popularity *int       `json:"popularity"`
	Genre      string     `json:"genre,omitempty"`
	Features   FeatureSet `json:"features"`
	Source     Source     `json:"source"`
}

// RawPrediction is the unreconciled output of the classifier.
type RawPrediction struct {
	Label      Label
	Confidence float64
}

// PredictionResult is the reconciled verdict for one request.
type PredictionResult struct {
	ModelLabel      Label           `json:"model_prediction"`
	ModelConfidence float64         `json:"model_confidence"`
	Label           Label           `json:"prediction"`
	Confidence      float64         `json:"confidence"`
	Adjusted        bool            `json:"adjusted_by_dataset"`
	Reference       *ReferenceLabel `json:"reference,omitempty"`
	ModelVersion    string          `json:"model_version,omitempty"`
}

// AuditRecord keeps the verbatim request and response of a prediction.
type AuditRecord struct {
	ID           string    `json:"id"`
	PredictionID string    `json:"prediction_id"`
	Request      []byte    `json:"request_payload"`
	Response     []byte    `json:"response_payload"`
	CreatedAt    time.Time `json:"created_at"`
}
