package models

import "strings"

// Track is one normalized song entry from a source playlist.
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`

	// Source is the ID of the playlist this track came from.
	Source string `json:"source"`

	// DedupKey identifies the song independently of the source playlist.
	// Two tracks with the same key are duplicates, full stop.
	DedupKey string `json:"-"`

	// Raw keeps the full original export row (header column -> value) so the
	// Apple TSV writer can reproduce every source column, not just the three
	// we care about here.
	Raw map[string]string `json:"-"`
}

// NewTrack builds a Track with its dedup key computed from the normalized
// title and artist. Display fields keep their original casing.
func NewTrack(title, artist, album, source string, raw map[string]string) Track {
	return Track{
		Title:    title,
		Artist:   artist,
		Album:    album,
		Source:   source,
		DedupKey: DedupKey(title, artist),
		Raw:      raw,
	}
}

// DedupKey derives the duplicate-detection key for a title/artist pair.
func DedupKey(title, artist string) string {
	return NormalizeKey(title) + "|" + NormalizeKey(artist)
}

// NormalizeKey lower-cases and collapses all runs of whitespace to a single
// space, so "The  Cure " and "the cure" compare equal.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
