package mixer

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/etsabary/apple-playlist-mixer/internal/models"
)

// Helper to build a playlist from (title, artist) pairs
func buildPlaylist(id string, weight float64, pairs ...[2]string) models.Playlist {
	pl := models.Playlist{ID: id, Weight: weight}
	for _, p := range pairs {
		pl.Tracks = append(pl.Tracks, models.NewTrack(p[0], p[1], "", id, nil))
	}
	return pl
}

// Helper to generate n tracks with unique titles by one artist per index
func generatePlaylist(id string, weight float64, n int) models.Playlist {
	pl := models.Playlist{ID: id, Weight: weight}
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s track %03d", id, i)
		artist := fmt.Sprintf("%s artist %03d", id, i)
		pl.Tracks = append(pl.Tracks, models.NewTrack(title, artist, "", id, nil))
	}
	return pl
}

func titles(tracks []models.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.Title
	}
	return out
}

func TestMixWorkedExample(t *testing.T) {
	// A = [T1 by X, T2 by X, T3 by Y] weight 2, B = [T4 by Z] weight 1,
	// max one track per artist, duplicates suppressed.
	a := buildPlaylist("a", 2, [2]string{"T1", "ArtistX"}, [2]string{"T2", "ArtistX"}, [2]string{"T3", "ArtistY"})
	b := buildPlaylist("b", 1, [2]string{"T4", "ArtistZ"})

	res, err := Mix([]models.Playlist{a, b}, Policy{MaxPerArtist: 1, SuppressDuplicates: true}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	want := []string{"T1", "T4", "T3"}
	if got := titles(res.Tracks); !reflect.DeepEqual(got, want) {
		t.Errorf("sequence = %v, want %v", got, want)
	}
	if res.Rejected[ReasonArtistCap] != 1 {
		t.Errorf("artist cap rejections = %d, want 1 (T2)", res.Rejected[ReasonArtistCap])
	}
}

func TestMixProportionality(t *testing.T) {
	// With weights 2:1, no constraints and plenty of material, the credit
	// scheme settles into an exact three-slot cycle with two A emissions.
	a := generatePlaylist("a", 2, 300)
	b := generatePlaylist("b", 1, 300)

	res, err := Mix([]models.Playlist{a, b}, Policy{}, Options{MaxOutput: 150})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	if len(res.Tracks) != 150 {
		t.Fatalf("emitted %d tracks, want 150", len(res.Tracks))
	}
	if res.PerSource["a"] != 100 || res.PerSource["b"] != 50 {
		t.Errorf("per-source counts = %v, want a:100 b:50", res.PerSource)
	}
}

func TestMixInterleavingOrder(t *testing.T) {
	// The winner pays the full round quantum, so with weights 2:1 the second
	// slot of every cycle goes to B. A reset-to-zero spend would collapse
	// this into A,A,B blocks and break the interleave.
	a := generatePlaylist("a", 2, 6)
	b := generatePlaylist("b", 1, 3)

	res, err := Mix([]models.Playlist{a, b}, Policy{}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	want := []string{"a", "b", "a", "a", "b", "a", "a", "b", "a"}
	got := make([]string, len(res.Tracks))
	for i, tr := range res.Tracks {
		got[i] = tr.Source
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("source sequence = %v, want %v", got, want)
	}
}

func TestMixProportionalityWithRandomize(t *testing.T) {
	// Randomize only changes which track is drawn from a playlist, never
	// which playlist wins the slot. The 2:1 split must hold exactly.
	a := generatePlaylist("a", 2, 300)
	b := generatePlaylist("b", 1, 300)

	res, err := Mix([]models.Playlist{a, b}, Policy{}, Options{Randomize: true, Seed: 7, MaxOutput: 150})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	if res.PerSource["a"] != 100 || res.PerSource["b"] != 50 {
		t.Errorf("per-source counts = %v, want a:100 b:50", res.PerSource)
	}
}

func TestMixSuppressesDuplicatesAcrossPlaylists(t *testing.T) {
	// The same song appears in both playlists with different casing.
	a := buildPlaylist("a", 1, [2]string{"Shared Song", "Some Artist"}, [2]string{"Only A", "Artist A"})
	b := buildPlaylist("b", 1, [2]string{"shared  song", "SOME ARTIST"}, [2]string{"Only B", "Artist B"})

	res, err := Mix([]models.Playlist{a, b}, Policy{SuppressDuplicates: true}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	seen := make(map[string]int)
	for _, tr := range res.Tracks {
		seen[tr.DedupKey]++
	}
	for key, n := range seen {
		if n > 1 {
			t.Errorf("dedup key %q emitted %d times", key, n)
		}
	}
	if len(res.Tracks) != 3 {
		t.Errorf("emitted %d tracks, want 3", len(res.Tracks))
	}
	if res.Rejected[ReasonDuplicate] != 1 {
		t.Errorf("duplicate rejections = %d, want 1", res.Rejected[ReasonDuplicate])
	}
}

func TestMixArtistCap(t *testing.T) {
	pl := buildPlaylist("a", 1,
		[2]string{"One", "Same Artist"},
		[2]string{"Two", "Same Artist"},
		[2]string{"Three", "Same Artist"},
		[2]string{"Four", "Other Artist"},
	)

	res, err := Mix([]models.Playlist{pl}, Policy{MaxPerArtist: 2}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	counts := make(map[string]int)
	for _, tr := range res.Tracks {
		counts[models.NormalizeKey(tr.Artist)]++
	}
	for artist, n := range counts {
		if n > 2 {
			t.Errorf("artist %q emitted %d times, cap is 2", artist, n)
		}
	}
	if len(res.Tracks) != 3 {
		t.Errorf("emitted %d tracks, want 3", len(res.Tracks))
	}
}

func TestMixDeterminism(t *testing.T) {
	run := func() []string {
		a := generatePlaylist("a", 3, 40)
		b := generatePlaylist("b", 2, 25)
		c := generatePlaylist("c", 1, 10)
		res, err := Mix([]models.Playlist{a, b, c}, Policy{SuppressDuplicates: true}, Options{})
		if err != nil {
			t.Fatalf("Mix failed: %v", err)
		}
		return titles(res.Tracks)
	}

	first := run()
	second := run()
	if !reflect.DeepEqual(first, second) {
		t.Error("two identical runs produced different sequences")
	}
}

func TestMixReproducibleRandomization(t *testing.T) {
	run := func(seed int64) []string {
		a := generatePlaylist("a", 2, 50)
		b := generatePlaylist("b", 1, 50)
		res, err := Mix([]models.Playlist{a, b}, Policy{}, Options{Randomize: true, Seed: seed})
		if err != nil {
			t.Fatalf("Mix failed: %v", err)
		}
		return titles(res.Tracks)
	}

	if !reflect.DeepEqual(run(42), run(42)) {
		t.Error("same seed produced different sequences")
	}
	if reflect.DeepEqual(run(42), run(43)) {
		t.Error("different seeds produced identical sequences (vanishingly unlikely)")
	}
	if reflect.DeepEqual(run(42), run(0)) {
		t.Error("seed 42 matched the zero-seed stream")
	}
}

func TestMixExcludesNonPositiveWeight(t *testing.T) {
	a := generatePlaylist("a", 1, 5)
	dead := generatePlaylist("dead", 0, 5)

	res, err := Mix([]models.Playlist{a, dead}, Policy{}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	if res.PerSource["dead"] != 0 {
		t.Errorf("zero-weight playlist contributed %d tracks", res.PerSource["dead"])
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", res.Warnings)
	}
}

func TestMixWarnsOnEmptyPlaylist(t *testing.T) {
	a := generatePlaylist("a", 1, 3)
	empty := models.Playlist{ID: "empty", Weight: 1}

	res, err := Mix([]models.Playlist{a, empty}, Policy{}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", res.Warnings)
	}
	if len(res.Tracks) != 3 {
		t.Errorf("emitted %d tracks, want 3", len(res.Tracks))
	}
}

func TestMixConfigurationErrors(t *testing.T) {
	valid := generatePlaylist("a", 1, 3)

	tests := []struct {
		name      string
		playlists []models.Playlist
		policy    Policy
		opts      Options
	}{
		{"Negative Max Per Artist", []models.Playlist{valid}, Policy{MaxPerArtist: -1}, Options{}},
		{"Negative Max Output", []models.Playlist{valid}, Policy{}, Options{MaxOutput: -5}},
		{"Empty Playlist Set", nil, Policy{}, Options{}},
		{"Duplicate Playlist IDs", []models.Playlist{valid, generatePlaylist("a", 2, 3)}, Policy{}, Options{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Mix(tt.playlists, tt.policy, tt.opts)
			if err == nil {
				t.Fatalf("expected configuration error, got result with %d tracks", len(res.Tracks))
			}
			if _, ok := err.(*ConfigError); !ok {
				t.Errorf("error type = %T, want *ConfigError", err)
			}
		})
	}
}

func TestMixEarlyTermination(t *testing.T) {
	// Everything is by the same artist and the cap is 1, so after the first
	// emission every playlist is blocked with tracks still in hand.
	a := buildPlaylist("a", 2, [2]string{"One", "Solo"}, [2]string{"Two", "Solo"})
	b := buildPlaylist("b", 1, [2]string{"Three", "Solo"})

	res, err := Mix([]models.Playlist{a, b}, Policy{MaxPerArtist: 1}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	if len(res.Tracks) != 1 {
		t.Fatalf("emitted %d tracks, want 1", len(res.Tracks))
	}
	if !res.EarlyTermination {
		t.Error("expected the early-termination flag to be set")
	}
	if res.Rejected[ReasonArtistCap] != 2 {
		t.Errorf("artist cap rejections = %d, want 2", res.Rejected[ReasonArtistCap])
	}
}

func TestMixTerminatesWhenFullyConstrained(t *testing.T) {
	// Three big playlists, one artist everywhere. The run must finish in
	// bounded time and emit exactly one track.
	var playlists []models.Playlist
	for i := 0; i < 3; i++ {
		pl := models.Playlist{ID: fmt.Sprintf("p%d", i), Weight: float64(i + 1)}
		for j := 0; j < 200; j++ {
			pl.Tracks = append(pl.Tracks, models.NewTrack(fmt.Sprintf("t%d-%d", i, j), "Monopoly", "", pl.ID, nil))
		}
		playlists = append(playlists, pl)
	}

	res, err := Mix(playlists, Policy{MaxPerArtist: 1}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}
	if len(res.Tracks) != 1 {
		t.Errorf("emitted %d tracks, want 1", len(res.Tracks))
	}
	if !res.EarlyTermination {
		t.Error("expected the early-termination flag to be set")
	}
}

func TestMixMaxOutput(t *testing.T) {
	a := generatePlaylist("a", 1, 100)

	res, err := Mix([]models.Playlist{a}, Policy{}, Options{MaxOutput: 10})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}
	if len(res.Tracks) != 10 {
		t.Errorf("emitted %d tracks, want 10", len(res.Tracks))
	}
	if res.EarlyTermination {
		t.Error("max-output stop must not be reported as early termination")
	}
}

func TestMixPreservesSourceOrderWithoutRandomize(t *testing.T) {
	a := generatePlaylist("a", 1, 20)

	res, err := Mix([]models.Playlist{a}, Policy{}, Options{})
	if err != nil {
		t.Fatalf("Mix failed: %v", err)
	}

	want := titles(a.Tracks)
	if got := titles(res.Tracks); !reflect.DeepEqual(got, want) {
		t.Errorf("single-playlist mix reordered tracks:\n got %v\nwant %v", got, want)
	}
}
