package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/etsabary/apple-playlist-mixer/internal/mixer"
	"github.com/etsabary/apple-playlist-mixer/internal/models"
	"github.com/etsabary/apple-playlist-mixer/internal/playlist"
)

type mixRequest struct {
	Playlists []struct {
		ID string `json:"id" binding:"required"`
		// Weight defaults to 1 when omitted (equal share).
		Weight *float64 `json:"weight"`
	} `json:"playlists" binding:"required"`

	// Constraint knobs; omitted fields fall back to the configured defaults.
	MaxPerArtist       *int  `json:"max_per_artist"`
	SuppressDuplicates *bool `json:"suppress_duplicates"`

	Randomize bool  `json:"randomize"`
	Seed      int64 `json:"seed"`
	MaxOutput int   `json:"max_output"`

	// Source pre-filters (same semantics as the CLI flags).
	Slice          string `json:"slice"`
	MaxPerPlaylist int    `json:"max_per_playlist"`
	DisallowShared bool   `json:"disallow_shared"`
}

// MixPlaylists runs one mix and returns the sequence without touching disk.
func (s *Server) MixPlaylists(c *gin.Context) {
	res, _, ok := s.runMix(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tracks":            res.Tracks,
		"warnings":          res.Warnings,
		"early_termination": res.EarlyTermination,
		"rejected":          res.Rejected,
		"per_source":        res.PerSource,
	})
}

// ExportMix runs one mix and writes the three output files.
func (s *Server) ExportMix(c *gin.Context) {
	res, header, ok := s.runMix(c)
	if !ok {
		return
	}

	paths, err := playlist.WriteOutputs(s.cfg.Folders.Output, res.Tracks, header)
	if err != nil {
		mixRuns.WithLabelValues("error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write output files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"files":             paths,
		"track_count":       len(res.Tracks),
		"warnings":          res.Warnings,
		"early_termination": res.EarlyTermination,
	})
}

// runMix does the shared request parsing, loading and mixing. On failure it
// writes the error response itself and returns ok=false.
func (s *Server) runMix(c *gin.Context) (*mixer.Result, []string, bool) {
	var req mixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	// A cap of 0 is only meaningful as the configured "unlimited" default.
	// Spelling it out in a request is a contradiction and gets rejected.
	if req.MaxPerArtist != nil && *req.MaxPerArtist <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("max_per_artist must be positive when set, got %d", *req.MaxPerArtist)})
		return nil, nil, false
	}

	readOpts := playlist.ReadOptions{Slice: req.Slice, MaxTracks: req.MaxPerPlaylist}

	var playlists []models.Playlist
	var header []string
	for _, p := range req.Playlists {
		weight := 1.0
		if p.Weight != nil {
			weight = *p.Weight
		}

		path := filepath.Join(s.cfg.Folders.Input, p.ID+".txt")
		pl, hdr, err := playlist.ReadFile(path, weight, readOpts)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, os.ErrNotExist) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": fmt.Sprintf("playlist %q: %v", p.ID, err)})
			return nil, nil, false
		}
		playlists = append(playlists, pl)
		if header == nil {
			header = hdr
		}
	}

	if req.DisallowShared {
		playlists = playlist.DropShared(playlists, playlist.SharedKeys(playlists))
	}

	policy := mixer.Policy{
		MaxPerArtist:       s.cfg.Mix.MaxPerArtist,
		SuppressDuplicates: s.cfg.Mix.SuppressDuplicates,
	}
	if req.MaxPerArtist != nil {
		policy.MaxPerArtist = *req.MaxPerArtist
	}
	if req.SuppressDuplicates != nil {
		policy.SuppressDuplicates = *req.SuppressDuplicates
	}

	opts := mixer.Options{
		Randomize: req.Randomize,
		Seed:      req.Seed,
		MaxOutput: req.MaxOutput,
	}
	if opts.MaxOutput == 0 {
		opts.MaxOutput = s.cfg.Mix.TotalTracks
	}

	timer := time.Now()
	res, err := mixer.Mix(playlists, policy, opts)
	mixDuration.Observe(time.Since(timer).Seconds())

	if err != nil {
		var cfgErr *mixer.ConfigError
		status := http.StatusInternalServerError
		if errors.As(err, &cfgErr) {
			status = http.StatusBadRequest
		}
		mixRuns.WithLabelValues("error").Inc()
		c.JSON(status, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	if res.EarlyTermination {
		mixRuns.WithLabelValues("early_termination").Inc()
	} else {
		mixRuns.WithLabelValues("ok").Inc()
	}
	tracksEmitted.Add(float64(len(res.Tracks)))

	return res, header, true
}
