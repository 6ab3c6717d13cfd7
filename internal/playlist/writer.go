package playlist

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/etsabary/apple-playlist-mixer/internal/models"
)

// Output file names inside the output folder.
const (
	SlimCSVName  = "mixed_playlist.csv"
	PlainTxtName = "mixed_playlist.txt"
	AppleTSVName = "mixed_playlist_apple.txt"
)

// WriteOutputs serializes a mixed sequence into the output folder in all
// three formats: a slim artist/title CSV, a plain "Artist - Title" text list,
// and the full tab-separated Apple import layout reproducing every source
// column. It returns the paths written, in that order.
func WriteOutputs(dir string, tracks []models.Track, header []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}

	slimPath := filepath.Join(dir, SlimCSVName)
	if err := writeSlimCSV(slimPath, tracks); err != nil {
		return nil, err
	}

	txtPath := filepath.Join(dir, PlainTxtName)
	if err := writePlainText(txtPath, tracks); err != nil {
		return nil, err
	}

	applePath := filepath.Join(dir, AppleTSVName)
	if err := WriteAppleTSV(applePath, tracks, header); err != nil {
		return nil, err
	}

	return []string{slimPath, txtPath, applePath}, nil
}

func writeSlimCSV(path string, tracks []models.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"artist", "track title"}); err != nil {
		return err
	}
	for _, t := range tracks {
		if err := w.Write([]string{t.Artist, t.Title}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writePlainText(path string, tracks []models.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, t := range tracks {
		if _, err := fmt.Fprintf(w, "%s - %s\n", t.Artist, t.Title); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteAppleTSV writes the full tab-separated export that Apple Music can
// import back: the source header row, then one row per track in mix order.
// Column values come from the track's original export row; tracks without
// one (hand-built playlists, tests) fall back to the three core fields.
func WriteAppleTSV(path string, tracks []models.Track, header []string) error {
	if len(header) == 0 {
		header = []string{"Name", "Artist", "Album"}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(header); err != nil {
		return err
	}
	for _, t := range tracks {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = appleField(t, col)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func appleField(t models.Track, col string) string {
	if v, ok := t.Raw[col]; ok {
		return v
	}
	switch col {
	case "Name":
		return t.Title
	case "Artist":
		return t.Artist
	case "Album":
		return t.Album
	}
	return ""
}
