package mixer

import (
	"fmt"

	"github.com/etsabary/apple-playlist-mixer/internal/models"
)

// Reason labels why the policy turned a candidate down. Rejections are
// counted per reason so a run can report exactly what it dropped and why.
type Reason string

const (
	// ReasonDuplicate means the track's dedup key was already emitted.
	ReasonDuplicate Reason = "duplicate"
	// ReasonArtistCap means the artist already hit the per-artist limit.
	ReasonArtistCap Reason = "artist_cap"
)

// Policy holds the emission constraints for one mix run. The policy itself is
// stateless; all counting lives in the run state owned by the mixer.
type Policy struct {
	// MaxPerArtist caps how often one artist may appear in the output.
	// Zero means unlimited. Negative values are a configuration error.
	MaxPerArtist int

	// SuppressDuplicates drops any track whose dedup key was already emitted,
	// no matter which playlist it came from.
	SuppressDuplicates bool
}

// Validate rejects impossible constraint configurations before a run starts.
func (p Policy) Validate() error {
	if p.MaxPerArtist < 0 {
		return &ConfigError{Field: "max_per_artist", Detail: fmt.Sprintf("must be positive, got %d", p.MaxPerArtist)}
	}
	return nil
}

// Check is a pure query: it never mutates the run state. It evaluates the
// duplicate rule first and the artist cap second; the first failing rule is
// the reported reason, but either one alone blocks emission.
func (p Policy) Check(t models.Track, st *runState) (bool, Reason) {
	if p.SuppressDuplicates {
		if _, seen := st.emitted[t.DedupKey]; seen {
			return false, ReasonDuplicate
		}
	}
	if p.MaxPerArtist > 0 && st.artists[models.NormalizeKey(t.Artist)] >= p.MaxPerArtist {
		return false, ReasonArtistCap
	}
	return true, ""
}

// runState is the mutable bookkeeping for a single mix run. It is created
// fresh per invocation and never shared, so concurrent runs cannot interfere.
type runState struct {
	emitted map[string]struct{} // dedup keys already in the output
	artists map[string]int      // normalized artist -> emitted count
}

func newRunState() *runState {
	return &runState{
		emitted: make(map[string]struct{}),
		artists: make(map[string]int),
	}
}

// record updates the run state after a successful emission.
func (st *runState) record(t models.Track) {
	st.emitted[t.DedupKey] = struct{}{}
	st.artists[models.NormalizeKey(t.Artist)]++
}

// ConfigError marks a request that is invalid before any track is emitted.
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Detail)
}
