package hitsong

import (
	"fmt"
	"strings"
)

// MissingFeatureError reports required feature keys absent from an input.
type MissingFeatureError struct {
	Keys []string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing required features: %s", strings.Join(e.Keys, ", "))
}

// InvalidFeatureTypeError reports a feature value that is not a real number,
// or a flag that is neither 0 nor 1.
type InvalidFeatureTypeError struct {
	Key   string
	Value any
	// Reason defaults to "is not a number".
	Reason string
}

func (e *InvalidFeatureTypeError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "is not a number"
	}
	return fmt.Sprintf("invalid value for %s: %v %s", e.Key, e.Value, reason)
}

// ModelNotFoundError means the classifier artifact does not exist. It is fatal.
type ModelNotFoundError struct {
	Path string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model file not found at %s", e.Path)
}

// NotInTrainingDataError means neither the song nor any catalog candidate is a
// reference track.
type NotInTrainingDataError struct {
	Title      string
	Artist     string
	Candidates []Candidate
}

func (e *NotInTrainingDataError) Error() string {
	return fmt.Sprintf("song %q by %s is not in our training dataset", e.Title, e.Artist)
}

// FeaturesUnavailableError means the dataset has no match and the catalog
// feature endpoint could not serve the track.
type FeaturesUnavailableError struct {
	Title  string
	Artist string
	Cause  error
}

func (e *FeaturesUnavailableError) Error() string {
	return fmt.Sprintf("track %q by %s is not in our dataset and audio features are unavailable from the catalog", e.Title, e.Artist)
}

func (e *FeaturesUnavailableError) Unwrap() error { return e.Cause }

// RemoteAuthError is a catalog credential or token exchange failure.
type RemoteAuthError struct {
	Cause error
}

func (e *RemoteAuthError) Error() string {
	if e.Cause == nil {
		return "catalog authentication failed"
	}
	return fmt.Sprintf("catalog authentication failed: %v", e.Cause)
}

func (e *RemoteAuthError) Unwrap() error { return e.Cause }

// RemoteNotFoundError means the catalog has no such resource.
type RemoteNotFoundError struct {
	Resource string
	ID       string
}

func (e *RemoteNotFoundError) Error() string {
	return fmt.Sprintf("%s not found on catalog: %s", e.Resource, e.ID)
}

// CatalogUnavailableError is a catalog timeout or server failure.
type CatalogUnavailableError struct {
	Op    string
	Cause error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("catalog %s failed: %v", e.Op, e.Cause)
}

func (e *CatalogUnavailableError) Unwrap() error { return e.Cause }
