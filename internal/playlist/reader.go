package playlist

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/etsabary/apple-playlist-mixer/internal/models"
)

// ReadOptions are the per-playlist pre-filters applied before dedup.
type ReadOptions struct {
	// Slice keeps only the top or bottom of the file: "T500" keeps the first
	// 500 rows, "B500" the last 500. Empty means no slicing.
	Slice string

	// MaxTracks caps the rows taken from each file after slicing. Zero means
	// no cap.
	MaxTracks int
}

// ListFiles returns the playlist export files (*.txt) under dir, sorted by
// name so playlist declaration order is stable across runs.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist folder: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// IDFromPath derives the playlist id from an export file path: the base name
// without its extension.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadFile parses one Apple Music "Export Playlist" file into a Playlist.
// The file is tab-separated with a header row; Name and Artist are required
// columns. It also returns the header so the Apple TSV writer can reproduce
// the full column layout.
//
// Rows are sliced and capped per opts, then deduped within the file on the
// track's dedup key (first occurrence wins), preserving source order.
func ReadFile(path string, weight float64, opts ReadOptions) (models.Playlist, []string, error) {
	pl := models.Playlist{ID: IDFromPath(path), Weight: weight}

	f, err := os.Open(path)
	if err != nil {
		return pl, nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(decodeReader(f))
	r.Comma = '\t'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return pl, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	idxName, idxArtist, idxAlbum := -1, -1, -1
	for i, col := range header {
		switch col {
		case "Name":
			idxName = i
		case "Artist":
			idxArtist = i
		case "Album":
			idxAlbum = i
		}
	}
	if idxName < 0 || idxArtist < 0 {
		return pl, nil, fmt.Errorf("%s: header is missing the Name or Artist column", path)
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return pl, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	rows, err = applySlice(rows, opts.Slice)
	if err != nil {
		return pl, nil, fmt.Errorf("%s: %w", path, err)
	}
	if opts.MaxTracks > 0 && len(rows) > opts.MaxTracks {
		rows = rows[:opts.MaxTracks]
	}

	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		title := field(row, idxName)
		artist := field(row, idxArtist)
		if title == "" && artist == "" {
			continue
		}

		raw := make(map[string]string, len(header))
		for i, col := range header {
			raw[col] = field(row, i)
		}

		t := models.NewTrack(title, artist, field(row, idxAlbum), pl.ID, raw)
		if _, dup := seen[t.DedupKey]; dup {
			continue
		}
		seen[t.DedupKey] = struct{}{}
		pl.Tracks = append(pl.Tracks, t)
	}

	return pl, header, nil
}

// SharedKeys returns the dedup keys present in more than one of the given
// playlists, so callers can optionally keep shared songs out of a mix.
func SharedKeys(playlists []models.Playlist) map[string]struct{} {
	counts := make(map[string]int)
	for _, pl := range playlists {
		for _, t := range pl.Tracks {
			counts[t.DedupKey]++
		}
	}

	shared := make(map[string]struct{})
	for key, n := range counts {
		if n > 1 {
			shared[key] = struct{}{}
		}
	}
	return shared
}

// DropShared returns the playlists with every shared track removed.
func DropShared(playlists []models.Playlist, shared map[string]struct{}) []models.Playlist {
	out := make([]models.Playlist, 0, len(playlists))
	for _, pl := range playlists {
		kept := models.Playlist{ID: pl.ID, Weight: pl.Weight}
		for _, t := range pl.Tracks {
			if _, drop := shared[t.DedupKey]; drop {
				continue
			}
			kept.Tracks = append(kept.Tracks, t)
		}
		out = append(out, kept)
	}
	return out
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// applySlice keeps the top or bottom n rows per the "T500"/"B500" form.
func applySlice(rows [][]string, expr string) ([][]string, error) {
	if expr == "" {
		return rows, nil
	}

	letter := strings.ToUpper(expr[:1])
	n, err := strconv.Atoi(expr[1:])
	if err != nil || n <= 0 || (letter != "T" && letter != "B") {
		return nil, fmt.Errorf("invalid slice %q (want T<n> or B<n>)", expr)
	}

	if n >= len(rows) {
		return rows, nil
	}
	if letter == "T" {
		return rows[:n], nil
	}
	return rows[len(rows)-n:], nil
}

// decodeReader sniffs the file encoding and returns a UTF-8 stream. Apple
// Music exports are UTF-16LE with a BOM; hand-edited files are usually plain
// UTF-8. A BOM wins outright, otherwise a NUL-byte heuristic catches BOM-less
// UTF-16 files.
func decodeReader(f io.Reader) io.Reader {
	br := bufio.NewReader(f)
	head, _ := br.Peek(1024)
	return transform.NewReader(br, detectEncoding(head).NewDecoder())
}

func detectEncoding(head []byte) encoding.Encoding {
	if len(head) >= 2 {
		switch {
		case head[0] == 0xFF && head[1] == 0xFE:
			return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
		case head[0] == 0xFE && head[1] == 0xFF:
			return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
		}
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		return unicode.UTF8BOM
	}

	// No BOM: a text file that is one-fifth NUL bytes is almost certainly
	// UTF-16. Odd NUL positions mean little endian, even mean big endian.
	var nuls, oddNuls int
	for i, b := range head {
		if b == 0 {
			nuls++
			if i%2 == 1 {
				oddNuls++
			}
		}
	}
	if len(head) > 0 && nuls*5 > len(head) {
		if oddNuls*2 >= nuls {
			return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
		}
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	}

	return unicode.UTF8
}
