package mixer

import (
	"fmt"
	"math/rand"

	"github.com/etsabary/apple-playlist-mixer/internal/models"
)

// Options tunes a single mix run.
type Options struct {
	// Randomize draws candidates uniformly from each playlist's remaining
	// tracks instead of taking them in source order. Playlist selection
	// stays weight-driven either way.
	Randomize bool

	// Seed feeds the pseudo-random stream when Randomize is on. The same
	// seed with the same inputs reproduces the exact same output.
	Seed int64

	// MaxOutput stops the run after this many tracks. Zero means no limit.
	MaxOutput int
}

// Result is the sole artifact of a mix run.
type Result struct {
	// Tracks is the merged output sequence, in emission order.
	Tracks []models.Track `json:"tracks"`

	// Warnings lists non-fatal source problems (excluded playlists).
	Warnings []string `json:"warnings,omitempty"`

	// EarlyTermination is set when constraints retired at least one playlist
	// that still had unplayed tracks. This is deliberately broader than "every
	// playlist blocked at the same moment": the flag also fires when the
	// remaining playlists drained normally afterwards, because some source
	// material was left unreachable either way. Rejected carries the detail.
	// It is a defined terminal state, not an error.
	EarlyTermination bool `json:"early_termination"`

	// Rejected counts every constraint rejection by reason.
	Rejected map[Reason]int `json:"rejected,omitempty"`

	// PerSource counts emitted tracks per source playlist, useful for
	// checking that the weight proportions came out right.
	PerSource map[string]int `json:"per_source,omitempty"`
}

// source is the per-playlist cursor/credit bookkeeping for one run.
type source struct {
	id     string
	weight float64
	queue  []models.Track // not yet consumed, source order
	credit float64
	active bool

	// hadCandidates remembers whether the last takeNext call started with
	// tracks still in the queue, which distinguishes a playlist blocked by
	// constraints from one that simply ran out.
	hadCandidates bool
}

// Mix merges the given playlists into one output sequence using weighted
// proportional interleaving (deficit round robin): each round every active
// playlist earns its weight as credit, the highest credit wins the emission
// slot and pays the round quantum (the sum of active weights) back out of its
// balance. Higher weights therefore win proportionally more slots, with
// bounded unfairness per round rather than only statistical convergence. Ties
// go to the playlist declared first, which keeps the whole run deterministic
// for a fixed input.
//
// A playlist whose remaining tracks are all rejected by the policy is marked
// exhausted and the slot is re-awarded within the same round, so a blocked
// playlist can never stall the others.
func Mix(playlists []models.Playlist, policy Policy, opts Options) (*Result, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxOutput < 0 {
		return nil, &ConfigError{Field: "max_output", Detail: fmt.Sprintf("must be positive, got %d", opts.MaxOutput)}
	}
	if len(playlists) == 0 {
		return nil, &ConfigError{Field: "playlists", Detail: "empty playlist set"}
	}
	seen := make(map[string]struct{}, len(playlists))
	for _, pl := range playlists {
		if _, dup := seen[pl.ID]; dup {
			return nil, &ConfigError{Field: "playlists", Detail: fmt.Sprintf("duplicate playlist id %q", pl.ID)}
		}
		seen[pl.ID] = struct{}{}
	}

	res := &Result{
		Rejected:  make(map[Reason]int),
		PerSource: make(map[string]int),
	}

	// Build the run state. Playlists with non-positive weight or no tracks
	// are excluded up front; that is a warning, never a fatal error.
	var sources []*source
	for _, pl := range playlists {
		switch {
		case pl.Weight <= 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("playlist %q excluded: non-positive weight %g", pl.ID, pl.Weight))
		case len(pl.Tracks) == 0:
			res.Warnings = append(res.Warnings, fmt.Sprintf("playlist %q excluded: no tracks", pl.ID))
		default:
			queue := make([]models.Track, len(pl.Tracks))
			copy(queue, pl.Tracks)
			sources = append(sources, &source{id: pl.ID, weight: pl.Weight, queue: queue, active: true})
		}
	}

	var rng *rand.Rand
	if opts.Randomize {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	st := newRunState()
	blocked := false

	for anyActive(sources) {
		if opts.MaxOutput > 0 && len(res.Tracks) >= opts.MaxOutput {
			// Hitting the requested length is normal termination, even if a
			// playlist got blocked along the way.
			return res, nil
		}

		// Credit accumulation step: once per round, for every active playlist.
		for _, s := range sources {
			if s.active {
				s.credit += s.weight
			}
		}

		// Award the slot. If the winner turns out to be blocked, deactivate
		// it and re-select immediately without another credit round.
		for {
			sel := selectSource(sources)
			if sel == nil {
				break
			}

			t, ok := sel.takeNext(policy, st, rng, res.Rejected)
			if ok {
				res.Tracks = append(res.Tracks, t)
				res.PerSource[t.Source]++
				st.record(t)
				// The winner pays the whole round quantum, so its balance
				// drops below the others until its weight earns the slot back.
				sel.credit -= totalActiveWeight(sources)
				if len(sel.queue) == 0 {
					sel.active = false
				}
				break
			}

			// Everything left in this playlist was rejected by the policy.
			if sel.hadCandidates {
				blocked = true
			}
			sel.active = false
		}
	}

	res.EarlyTermination = blocked
	return res, nil
}

// takeNext consumes candidates until one passes the policy. Rejected tracks
// are consumed too: each track is looked at once and never retried, which is
// what bounds the whole run to O(total tracks). With a random stream the
// candidate is drawn uniformly from the remaining queue instead of taken
// from the front.
func (s *source) takeNext(p Policy, st *runState, rng *rand.Rand, rejected map[Reason]int) (models.Track, bool) {
	s.hadCandidates = len(s.queue) > 0
	for len(s.queue) > 0 {
		i := 0
		if rng != nil {
			i = rng.Intn(len(s.queue))
		}
		t := s.queue[i]
		s.queue = append(s.queue[:i], s.queue[i+1:]...)

		ok, reason := p.Check(t, st)
		if ok {
			return t, true
		}
		rejected[reason]++
	}
	return models.Track{}, false
}

func selectSource(sources []*source) *source {
	var sel *source
	for _, s := range sources {
		if !s.active {
			continue
		}
		// Strict greater-than: on equal credit the earlier declaration wins.
		if sel == nil || s.credit > sel.credit {
			sel = s
		}
	}
	return sel
}

func totalActiveWeight(sources []*source) float64 {
	var total float64
	for _, s := range sources {
		if s.active {
			total += s.weight
		}
	}
	return total
}

func anyActive(sources []*source) bool {
	for _, s := range sources {
		if s.active {
			return true
		}
	}
	return false
}
