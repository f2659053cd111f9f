package tasks

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/models"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string       // Export format: json, csv, markdown, txt
	OutputDir  string       // Base output directory (default: jukebox_export_{epoch})
	NumWorkers int          // Concurrent workers (default: 5, max 10)
	RateLimit  float64      // Cover lookups per second (default: 5)
	FillCovers bool         // Look up missing song covers before writing
	HTTPClient *http.Client // Used for cover downloads in markdown exports
}

type exportJob struct {
	index  int
	export *formatter.PlaylistExport
}

// BulkExport writes every playlist to opts.OutputDir concurrently and records a manifest.
//
// Individual failures are reported in the result; only setup errors and the manifest write fail the call.
func (a *Aggregator) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	exports []*formatter.PlaylistExport,
	opts BulkExportOpts,
) (*formatter.BulkExportResult, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("jukebox_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &formatter.BulkExportResult{
		TotalPlaylists:  len(exports),
		OutputDirectory: opts.OutputDir,
		Results:         make([]formatter.ExportResult, len(exports)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob)
	done := make(chan int, len(exports))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result.Results[job.index] = a.exportSinglePlaylist(ctx, limiter, job.export, opts)
				done <- job.index
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, export := range exports {
			sendProgress(prog, exportingPlaylistUpdate(i+1, len(exports), export.Title))
			select {
			case <-ctx.Done():
				return
			case jobs <- exportJob{index: i, export: export}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for i := range done {
		completed++
		res := result.Results[i]
		if res.Success {
			sendProgress(prog, exportCompletedUpdate(completed, len(exports), res.Title, len(res.Files)))
		} else {
			sendProgress(prog, exportFailedUpdate(completed, len(exports), res.Title, res.Error))
		}
	}

	for i := range result.Results {
		res := &result.Results[i]
		if res.Title == "" && !res.Success && res.Error == nil {
			res.Title = exports[i].Title
			res.Error = fmt.Errorf("export cancelled: %w", context.Cause(ctx))
		}
		if res.Success {
			result.SuccessfulExports++
		} else {
			result.FailedExports++
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportSinglePlaylist exports a single playlist to the requested format.
func (a *Aggregator) exportSinglePlaylist(
	ctx context.Context,
	limiter *rate.Limiter,
	export *formatter.PlaylistExport,
	opts BulkExportOpts,
) formatter.ExportResult {
	result := formatter.ExportResult{
		Title: export.Title,
		Files: []string{},
	}

	if opts.FillCovers {
		export.Songs, _ = a.fillCovers(ctx, limiter, export.Songs, nil)
	}

	base := filepath.Join(opts.OutputDir, export.Slug())

	switch opts.Format {
	case "csv":
		csvRes, err := formatter.WriteCSVExport(export, base)
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.SongsFile, csvRes.MetadataFile}
	case "markdown":
		mdRes, err := formatter.WriteMarkdownExport(ctx, export, base, export.Cover(), opts.HTTPClient)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		for _, w := range mdRes.Warnings {
			a.logger.Warn(w, "playlist", export.Title)
		}
		result.Files = mdRes.Files
	case "txt":
		path, err := formatter.WriteTextExport(export, base+"_songs.txt")
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}
	case "json":
		fallthrough
	default:
		path, err := formatter.WriteJSONExport(export, base+".json")
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}

// FillCovers looks up artwork for songs without a cover. Songs whose lookup fails keep an empty cover.
// It returns the updated songs and the number of covers found.
func (a *Aggregator) FillCovers(ctx context.Context, songs []models.Song, prog chan<- ProgressUpdate) ([]models.Song, int) {
	return a.fillCovers(ctx, a.limiter(), songs, prog)
}

func (a *Aggregator) fillCovers(ctx context.Context, limiter *rate.Limiter, songs []models.Song, prog chan<- ProgressUpdate) ([]models.Song, int) {
	out := make([]models.Song, len(songs))
	copy(out, songs)

	found := 0
	for i := range out {
		if out[i].Cover != "" {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		sendProgress(prog, coverUpdate(i+1, len(out), out[i].Title))
		cover, err := a.FetchCover(ctx, out[i])
		if err != nil {
			a.logger.Debug("cover lookup failed", "title", out[i].Title, "error", err)
			continue
		}
		out[i].Cover = cover
		found++
	}
	return out, found
}
