package formatter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	th "github.com/desertthunder/jukebox/internal/testing"
)

func testExport() *PlaylistExport {
	return &PlaylistExport{
		Title:     "Road Trip",
		Editable:  true,
		CreatedAt: time.UnixMilli(1_700_000_000_000),
		UpdatedAt: time.UnixMilli(1_700_000_500_000),
		Songs: []models.Song{
			{ID: "s1", Title: "Song One", Artist: "Artist One", Album: "Album One", Duration: 180, TrackNumber: 1, DiscNumber: 1, Cover: "https://img/one.jpg"},
			{ID: "s2", Title: "Song Two", Artist: "Artist Two", Duration: 240, TrackNumber: 2, DiscNumber: 1},
		},
	}
}

func TestPlaylistExport(t *testing.T) {
	t.Run("NewPlaylistExport", func(t *testing.T) {
		idx := models.SongIndex{}
		idx.Add(models.Song{ID: "a", Title: "A"}, models.Song{ID: "b", Title: "B"})

		snap := models.PlaylistSnapshot{Title: "Mix", Editable: true, Songs: []string{"b", "missing", "a"}, CreatedAt: 1000, UpdatedAt: 2000}
		export := NewPlaylistExport(snap, idx)

		if len(export.Songs) != 2 || export.Songs[0].ID != "b" || export.Songs[1].ID != "a" {
			t.Errorf("expected [b a], got %+v", export.Songs)
		}
		if !export.CreatedAt.Equal(time.UnixMilli(1000)) || !export.UpdatedAt.Equal(time.UnixMilli(2000)) {
			t.Errorf("unexpected timestamps %v %v", export.CreatedAt, export.UpdatedAt)
		}

		if empty := NewPlaylistExport(snap, nil); len(empty.Songs) != 0 {
			t.Errorf("expected no songs without resolver, got %d", len(empty.Songs))
		}
	})

	t.Run("TotalDuration and Cover", func(t *testing.T) {
		export := testExport()
		if export.TotalDuration() != 420 {
			t.Errorf("expected 420, got %d", export.TotalDuration())
		}
		if export.Cover() != "https://img/one.jpg" {
			t.Errorf("unexpected cover %s", export.Cover())
		}
		if (&PlaylistExport{}).Cover() != "" {
			t.Error("expected empty cover")
		}
	})

	t.Run("Slug", func(t *testing.T) {
		tests := map[string]string{
			"Road Trip":         "road-trip",
			"  Lo-Fi / Beats! ": "lo-fi-beats",
			"Café del Mar":      "café-del-mar",
			"???":               "playlist",
			"":                  "playlist",
		}
		for in, want := range tests {
			if got := (&PlaylistExport{Title: in}).Slug(); got != want {
				t.Errorf("Slug(%q) = %q, want %q", in, got, want)
			}
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[0] != "ID,Title,Artist,Album,Duration,Track,Disc" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "s1,Song One,Artist One,Album One,180,1,1" {
			t.Errorf("unexpected first record: %s", lines[1])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(testExport(), "")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Road Trip",
				"**Songs**: 2",
				"**Length**: 7:00",
				"## Songs",
				"1. Artist One - Song One (Album One) [3:00]",
				"2. Artist Two - Song Two [4:00]",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got: %s", want, output)
				}
			}
			if strings.Contains(output, "![Cover]") {
				t.Error("unexpected cover reference")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			data, err := ExportToMarkdown(testExport(), "cover.jpg")
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "![Cover](cover.jpg)") {
				t.Errorf("Markdown missing cover image reference")
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Playlist: Road Trip\nSongs: 2\n\n") {
			t.Errorf("unexpected header: %s", output)
		}
		if !strings.Contains(output, "2. Artist Two - Song Two\n") {
			t.Errorf("text missing second song: %s", output)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(testExport())
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, `"song_count": 2`) || !strings.Contains(output, `"duration": 420`) {
			t.Errorf("unexpected metadata: %s", output)
		}
		if strings.Contains(output, "Song One") {
			t.Error("metadata should not contain songs")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"Song Two"`) || !strings.Contains(string(data), `"Road Trip"`) {
			t.Errorf("JSON missing content: %s", data)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(context.Background(), nil, ""); err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("Success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		data, err := DownloadImage(context.Background(), server.Client(), server.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("unexpected data %q", data)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, err := DownloadImage(context.Background(), nil, server.URL); err == nil || !strings.Contains(err.Error(), "404") {
			t.Errorf("expected status error, got %v", err)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			t.Chdir(t.TempDir())

			result, err := WriteCSVExport(testExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.SongsFile != "road-trip_songs.csv" {
				t.Errorf("unexpected songs file %s", result.SongsFile)
			}
			if result.MetadataFile != "road-trip_metadata.json" {
				t.Errorf("unexpected metadata file %s", result.MetadataFile)
			}
			th.AssertFileExists(t, result.SongsFile)
			th.AssertFileExists(t, result.MetadataFile)
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom")

			result, err := WriteCSVExport(testExport(), base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.SongsFile != base+"_songs.csv" {
				t.Errorf("unexpected songs file %s", result.SongsFile)
			}
		})

		t.Run("UnwritableDirectory", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "missing", "dir", "x")
			if _, err := WriteCSVExport(testExport(), base); err == nil {
				t.Error("expected error for missing directory")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithCover", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("img"))
			}))
			defer server.Close()

			dir := filepath.Join(t.TempDir(), "road")
			result, err := WriteMarkdownExport(context.Background(), testExport(), dir, server.URL, server.Client())
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if len(result.Files) != 2 || result.CoverImage == "" {
				t.Errorf("expected cover and README, got %+v", result)
			}
			readme := th.MustReadFile(t, filepath.Join(dir, "README.md"))
			if !strings.Contains(readme, "![Cover](cover.jpg)") {
				t.Errorf("README missing cover: %s", readme)
			}
		})

		t.Run("CoverFailureIsWarning", func(t *testing.T) {
			server := httptest.NewServer(http.NotFoundHandler())
			defer server.Close()

			dir := filepath.Join(t.TempDir(), "road")
			result, err := WriteMarkdownExport(context.Background(), testExport(), dir, server.URL, nil)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if len(result.Warnings) != 1 || len(result.Files) != 1 {
				t.Errorf("expected one warning and README only, got %+v", result)
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		t.Chdir(t.TempDir())

		path, err := WriteTextExport(testExport(), "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if path != "road-trip_songs.txt" {
			t.Errorf("unexpected path %s", path)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.json")

		got, err := WriteJSONExport(testExport(), path)
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file: %v", err)
		}
	})
}

func TestWriteBulkExportManifest(t *testing.T) {
	t.Run("SuccessfulExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		result := &BulkExportResult{
			TotalPlaylists:    2,
			SuccessfulExports: 2,
			Results: []ExportResult{
				{Title: "Mix 1", Success: true, Files: []string{"mix-1_songs.csv", "mix-1_metadata.json"}},
				{Title: "Mix 2", Success: true, Files: []string{"mix-2/README.md"}},
			},
		}

		if err := WriteBulkExportManifest(result, "csv", path); err != nil {
			t.Fatalf("WriteBulkExportManifest failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		for _, want := range []string{`"format": "csv"`, `"total_playlists": 2`, `"successful_exports": 2`, `"Mix 1"`, `"status": "success"`} {
			if !strings.Contains(content, want) {
				t.Errorf("manifest missing %s", want)
			}
		}
	})

	t.Run("WithFailedExports", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		result := &BulkExportResult{
			TotalPlaylists: 1,
			FailedExports:  1,
			Results:        []ExportResult{{Title: "Broken", Error: errors.New("disk full")}},
		}

		if err := WriteBulkExportManifest(result, "markdown", path); err != nil {
			t.Fatalf("WriteBulkExportManifest failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		if !strings.Contains(content, `"status": "failed"`) || !strings.Contains(content, `"disk full"`) {
			t.Errorf("manifest missing failure: %s", content)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope", "manifest.json")
		if err := WriteBulkExportManifest(&BulkExportResult{}, "json", path); err == nil {
			t.Error("expected error")
		}
	})
}
