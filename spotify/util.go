package spotify

import (
	"strings"

	spot "github.com/zmb3/spotify/v2"
)

const (
	trackURLMarker = "open.spotify.com/track/"
	trackURIPrefix = "spotify:track:"
)

// ConcatArtists returns a comma-separated list of artist names
func ConcatArtists(artists []spot.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// ExtractTrackID returns the bare track ID of a share URL, a spotify:track URI
// or an ID.
func ExtractTrackID(input string) string {
	s := strings.TrimSpace(input)

	if _, after, ok := strings.Cut(s, trackURLMarker); ok {
		s = after
	} else if strings.HasPrefix(s, trackURIPrefix) {
		s = strings.TrimPrefix(s, trackURIPrefix)
	}

	s, _, _ = strings.Cut(s, "?")
	s, _, _ = strings.Cut(s, "/")
	return s
}
