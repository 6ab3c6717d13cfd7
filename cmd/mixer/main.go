package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/etsabary/apple-playlist-mixer/internal/config"
	"github.com/etsabary/apple-playlist-mixer/internal/mixer"
	"github.com/etsabary/apple-playlist-mixer/internal/models"
	"github.com/etsabary/apple-playlist-mixer/internal/playlist"
)

func main() {
	// 1. Parse Flags
	// Flags override config.yaml / environment values
	input := flag.String("input", "", "Folder with source playlist exports (*.txt)")
	output := flag.String("output", "", "Folder for the mixed playlist files")
	ids := flag.String("playlists", "", "Comma-separated playlist ids to mix (default: all)")
	weights := flag.String("weights", "", "Per-playlist weights, e.g. 'road_trip=2,chill=1' (default: equal)")
	total := flag.Int("total", -1, "Total mix size (0 = no limit)")
	maxPerArtist := flag.Int("max-per-artist", -1, "Max tracks per artist (must be positive; omit to use the configured value)")
	allowDuplicates := flag.Bool("allow-duplicates", false, "Keep tracks that appear in several playlists")
	randomize := flag.Bool("randomize", false, "Draw tracks randomly within each playlist")
	seed := flag.Int64("seed", 0, "Seed for reproducible randomized runs")
	slice := flag.String("slice", "", "Top/Bottom slice per playlist, e.g. T500 or B500")
	maxPerPlaylist := flag.Int("max-per-playlist", 0, "Max tracks taken from each playlist (0 = all)")
	noShared := flag.Bool("no-shared", false, "Drop tracks that appear in more than one playlist")
	simulate := flag.Bool("simulate", false, "Dry run: print the mix to stdout without writing files")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// 2. Load Config
	cfg := config.Load()

	// 3. Apply Flag Overrides
	if *input != "" {
		cfg.Folders.Input = *input
	}
	if *output != "" {
		cfg.Folders.Output = *output
	}
	if *total >= 0 {
		cfg.Mix.TotalTracks = *total
	}
	if *maxPerArtist != -1 {
		if *maxPerArtist <= 0 {
			log.Fatalf("❌ -max-per-artist must be positive, got %d", *maxPerArtist)
		}
		cfg.Mix.MaxPerArtist = *maxPerArtist
	}
	if *allowDuplicates {
		cfg.Mix.SuppressDuplicates = false
	}
	if *randomize {
		cfg.Mix.Randomize = true
	}
	if *seed != 0 {
		cfg.Mix.Seed = *seed
	}

	// 4. Discover Sources
	files, err := playlist.ListFiles(cfg.Folders.Input)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	files = filterByID(files, *ids)
	if len(files) == 0 {
		log.Fatalf("❌ No .txt playlists found in %q", cfg.Folders.Input)
	}

	weightByID, err := parseWeights(*weights)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	readOpts := playlist.ReadOptions{Slice: *slice, MaxTracks: *maxPerPlaylist}

	var playlists []models.Playlist
	var header []string
	for _, f := range files {
		weight := 1.0
		if w, ok := weightByID[playlist.IDFromPath(f)]; ok {
			weight = w
		}

		pl, hdr, err := playlist.ReadFile(f, weight, readOpts)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		log.Printf("📄 Loaded %q: %d tracks (weight %g)", pl.ID, len(pl.Tracks), pl.Weight)

		playlists = append(playlists, pl)
		if header == nil {
			header = hdr
		}
	}

	if *noShared {
		shared := playlist.SharedKeys(playlists)
		playlists = playlist.DropShared(playlists, shared)
		log.Printf("🔀 Dropped %d shared tracks", len(shared))
	}

	// 5. Mix
	policy := mixer.Policy{
		MaxPerArtist:       cfg.Mix.MaxPerArtist,
		SuppressDuplicates: cfg.Mix.SuppressDuplicates,
	}
	opts := mixer.Options{
		Randomize: cfg.Mix.Randomize,
		Seed:      cfg.Mix.Seed,
		MaxOutput: cfg.Mix.TotalTracks,
	}

	res, err := mixer.Mix(playlists, policy, opts)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	for _, w := range res.Warnings {
		log.Printf("⚠️ %s", w)
	}
	for reason, n := range res.Rejected {
		log.Printf("🚫 Rejected %d tracks (%s)", n, reason)
	}
	if res.EarlyTermination {
		log.Println("⏹ Run ended early: remaining tracks were all blocked by constraints")
	}

	// 6. Output
	if *simulate {
		printSimulation(res)
		return
	}

	paths, err := playlist.WriteOutputs(cfg.Folders.Output, res.Tracks, header)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Printf("✓ Mixed playlist written (%d tracks):", len(res.Tracks))
	for _, p := range paths {
		log.Printf("   %s", p)
	}
}

// printSimulation renders the would-be mix as a table, without touching disk.
func printSimulation(res *mixer.Result) {
	fmt.Printf("\n--- 🧪 DRY MIX SIMULATION ---\n\n")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tSOURCE\tARTIST\tTITLE")
	fmt.Fprintln(w, "-\t------\t------\t-----")
	for i, t := range res.Tracks {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			i+1, t.Source, truncate(t.Artist, 25), truncate(t.Title, 35))
	}
	w.Flush()

	fmt.Printf("\nPer-source counts:\n")
	for id, n := range res.PerSource {
		fmt.Printf("  %-20s %d\n", id, n)
	}
	fmt.Printf("\n✅ Simulation complete: %d tracks.\n", len(res.Tracks))
}

// truncate shortens s to max characters, rune-aware so multi-byte titles and
// artists never get cut mid-character.
func truncate(s string, max int) string {
	if max < 4 {
		max = 4
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}

// filterByID keeps only the files whose playlist id is in the comma list.
func filterByID(files []string, list string) []string {
	if strings.TrimSpace(list) == "" {
		return files
	}

	want := make(map[string]struct{})
	for _, id := range strings.Split(list, ",") {
		if id = strings.TrimSpace(id); id != "" {
			want[id] = struct{}{}
		}
	}

	var kept []string
	for _, f := range files {
		if _, ok := want[playlist.IDFromPath(f)]; ok {
			kept = append(kept, f)
		}
	}
	return kept
}

// parseWeights turns "a=2,b=1.5" into a lookup map.
func parseWeights(arg string) (map[string]float64, error) {
	weights := make(map[string]float64)
	if strings.TrimSpace(arg) == "" {
		return weights, nil
	}

	for _, pair := range strings.Split(arg, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid weight %q (want name=value)", pair)
		}
		w, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight value in %q: %v", pair, err)
		}
		weights[strings.TrimSpace(name)] = w
	}
	return weights, nil
}
