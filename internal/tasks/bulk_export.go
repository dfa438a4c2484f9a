package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/repositories"
	"github.com/desertthunder/cadence/internal/shared"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string                // Export format: json, csv, md, txt
	OutputDir  string                // Base output directory (default: playlists_export_{epoch})
	NumWorkers int                   // Concurrent workers (default: 4, max: 10)
	RateLimit  float64               // Playlists per second (default: 20)
	Progress   chan<- ExportProgress // Optional; sends never block
}

// ExportProgress is emitted after each playlist finishes.
type ExportProgress struct {
	Completed    int
	Total        int
	PlaylistName string
	Err          error
}

// PlaylistExportResult is the outcome for one playlist.
type PlaylistExportResult struct {
	PlaylistID   int64  `json:"playlist_id"`
	PlaylistName string `json:"playlist_name"`
	Success      bool   `json:"success"`
	File         string `json:"file,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BulkExportResult summarizes a [BulkExport] run and is written as the manifest.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	Format            string                 `json:"format"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

// BulkExport renders many playlists to files with a bounded, rate-limited worker pool.
//
// Individual failures are recorded in the result; only setup and manifest errors are returned.
func BulkExport(ctx context.Context, store *repositories.Store, ids []int64, opts BulkExportOpts) (*BulkExportResult, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store not initialized", shared.ErrStorageUnavailable)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if _, err := formatter.Render(&formatter.PlaylistResponse{}, opts.Format); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("playlists_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(ids),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan int64, len(ids))
	results := make(chan PlaylistExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					results <- PlaylistExportResult{PlaylistID: id, Error: err.Error()}
					continue
				}
				results <- exportPlaylist(ctx, store, id, opts)
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Results = append(result.Results, res)
		if res.Success {
			result.SuccessfulExports++
		} else {
			result.FailedExports++
		}

		if opts.Progress != nil {
			update := ExportProgress{Completed: len(result.Results), Total: len(ids), PlaylistName: res.PlaylistName}
			if res.Error != "" {
				update.Err = fmt.Errorf("%s", res.Error)
			}
			select {
			case opts.Progress <- update:
			default:
			}
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].PlaylistID < result.Results[j].PlaylistID
	})

	manifestPath := filepath.Join(opts.OutputDir, "manifest.json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func exportPlaylist(ctx context.Context, store *repositories.Store, id int64, opts BulkExportOpts) PlaylistExportResult {
	res := PlaylistExportResult{PlaylistID: id}

	playlist, err := store.Playlists.Get(ctx, id)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if playlist == nil {
		res.Error = fmt.Sprintf("playlist %d: %v", id, shared.ErrNotFound)
		return res
	}
	res.PlaylistName = playlist.Name

	aggregate, err := formatter.PlaylistToResponse(ctx, store.Playlists, playlist)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	path := filepath.Join(opts.OutputDir, fmt.Sprintf("%d_%s%s", id, slugify(playlist.Name), formatter.Extension(opts.Format)))
	if err := formatter.WriteExport(aggregate, opts.Format, path); err != nil {
		res.Error = err.Error()
		return res
	}

	res.File = path
	res.Success = true
	return res
}

// slugify keeps letters and digits, lowercased, and joins the rest with underscores.
func slugify(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "_")
	if slug == "" {
		return "playlist"
	}
	return slug
}
