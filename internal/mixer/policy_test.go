package mixer

import (
	"testing"

	"github.com/etsabary/apple-playlist-mixer/internal/models"
)

func TestPolicyValidate(t *testing.T) {
	if err := (Policy{MaxPerArtist: -1}).Validate(); err == nil {
		t.Error("negative max-per-artist must be rejected")
	}
	if err := (Policy{}).Validate(); err != nil {
		t.Errorf("zero value must be valid, got %v", err)
	}
}

func TestPolicyCheckOrder(t *testing.T) {
	// A track that is both a duplicate and over the artist cap must be
	// reported as a duplicate: that rule is evaluated first.
	policy := Policy{MaxPerArtist: 1, SuppressDuplicates: true}
	st := newRunState()

	first := models.NewTrack("Song", "Artist", "", "a", nil)
	st.record(first)

	again := models.NewTrack("song", "ARTIST", "", "b", nil)
	ok, reason := policy.Check(again, st)
	if ok {
		t.Fatal("expected rejection")
	}
	if reason != ReasonDuplicate {
		t.Errorf("reason = %q, want %q", reason, ReasonDuplicate)
	}

	// A different song by the same artist trips the cap instead.
	other := models.NewTrack("Other Song", "Artist", "", "b", nil)
	ok, reason = policy.Check(other, st)
	if ok {
		t.Fatal("expected rejection")
	}
	if reason != ReasonArtistCap {
		t.Errorf("reason = %q, want %q", reason, ReasonArtistCap)
	}
}

func TestPolicyCheckDoesNotMutateState(t *testing.T) {
	policy := Policy{MaxPerArtist: 2, SuppressDuplicates: true}
	st := newRunState()
	track := models.NewTrack("Song", "Artist", "", "a", nil)

	for i := 0; i < 5; i++ {
		if ok, _ := policy.Check(track, st); !ok {
			t.Fatal("repeated checks against untouched state must keep accepting")
		}
	}
	if len(st.emitted) != 0 || len(st.artists) != 0 {
		t.Error("Check mutated the run state")
	}
}

func TestRunStateIsPerRun(t *testing.T) {
	// Two runs over the same playlists must not see each other's dedup sets.
	pl := buildPlaylist("a", 1, [2]string{"Song", "Artist"})
	policy := Policy{SuppressDuplicates: true}

	for i := 0; i < 2; i++ {
		res, err := Mix([]models.Playlist{pl}, policy, Options{})
		if err != nil {
			t.Fatalf("Mix failed: %v", err)
		}
		if len(res.Tracks) != 1 {
			t.Fatalf("run %d emitted %d tracks, want 1", i, len(res.Tracks))
		}
	}
}
