package models

// Playlist is a named, ordered collection of tracks plus its mixing weight.
// Track order is exactly the order of the source export file.
type Playlist struct {
	ID     string  `json:"id"`
	Tracks []Track `json:"tracks"`

	// Weight drives the proportional interleave. It must be positive to take
	// part in a mix; a playlist with weight <= 0 is excluded entirely, not
	// merely deprioritized.
	Weight float64 `json:"weight"`
}

// Len returns the number of tracks.
func (p Playlist) Len() int { return len(p.Tracks) }
