package formatter

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// ExportResult is the outcome of exporting one playlist.
type ExportResult struct {
	Title   string
	Success bool
	Files   []string
	Error   error
}

// BulkExportResult summarises a multi-playlist export.
type BulkExportResult struct {
	TotalPlaylists    int
	SuccessfulExports int
	FailedExports     int
	Results           []ExportResult
	OutputDirectory   string
	ManifestPath      string
}

type manifestEntry struct {
	Title  string   `json:"title"`
	Status string   `json:"status"`
	Files  []string `json:"files,omitempty"`
	Error  string   `json:"error,omitempty"`
}

type manifest struct {
	Format            string          `json:"format"`
	ExportedAt        time.Time       `json:"exported_at"`
	TotalPlaylists    int             `json:"total_playlists"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Playlists         []manifestEntry `json:"playlists"`
}

// WriteBulkExportManifest writes a JSON summary of result to path.
func WriteBulkExportManifest(result *BulkExportResult, format string, path string) error {
	m := manifest{
		Format:            format,
		ExportedAt:        time.Now().UTC(),
		TotalPlaylists:    result.TotalPlaylists,
		SuccessfulExports: result.SuccessfulExports,
		FailedExports:     result.FailedExports,
		Playlists:         make([]manifestEntry, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		entry := manifestEntry{Title: r.Title, Status: "success", Files: r.Files}
		if !r.Success {
			entry.Status = "failed"
		}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		m.Playlists = append(m.Playlists, entry)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
