package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/etsabary/apple-playlist-mixer/internal/playlist"
)

// GetPlaylists lists the source playlists discovered in the input folder.
func (s *Server) GetPlaylists(c *gin.Context) {
	files, err := playlist.ListFiles(s.cfg.Folders.Input)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read playlist folder"})
		return
	}

	type entry struct {
		ID         string `json:"id"`
		TrackCount int    `json:"track_count"`
	}

	entries := make([]entry, 0, len(files))
	for _, f := range files {
		pl, _, err := playlist.ReadFile(f, 1, playlist.ReadOptions{})
		if err != nil {
			// A broken export should not hide the rest of the folder.
			entries = append(entries, entry{ID: playlist.IDFromPath(f), TrackCount: -1})
			continue
		}
		entries = append(entries, entry{ID: pl.ID, TrackCount: len(pl.Tracks)})
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
