// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// PlaylistExport is a playlist with its songs resolved, ready to be written out.
type PlaylistExport struct {
	Title     string        `json:"title"`
	Editable  bool          `json:"editable"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Songs     []models.Song `json:"songs"`
}

// NewPlaylistExport resolves the snapshot's song ids. Unknown ids are skipped.
func NewPlaylistExport(snap models.PlaylistSnapshot, resolver models.SongResolver) *PlaylistExport {
	export := &PlaylistExport{
		Title:     snap.Title,
		Editable:  snap.Editable,
		CreatedAt: snap.Created(),
		UpdatedAt: snap.Updated(),
		Songs:     make([]models.Song, 0, len(snap.Songs)),
	}
	if resolver == nil {
		return export
	}

	for _, id := range snap.Songs {
		if song, ok := resolver.FindByID(id); ok {
			export.Songs = append(export.Songs, song)
		}
	}
	return export
}

// TotalDuration sums song durations in seconds.
func (e *PlaylistExport) TotalDuration() int {
	total := 0
	for _, s := range e.Songs {
		total += s.Duration
	}
	return total
}

// Cover returns the first song cover, if any.
func (e *PlaylistExport) Cover() string {
	for _, s := range e.Songs {
		if s.Cover != "" {
			return s.Cover
		}
	}
	return ""
}

// Slug returns a lowercase, filesystem-safe form of the title.
func (e *PlaylistExport) Slug() string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(e.Title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "playlist"
	}
	return slug
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, Title, Artist, Album, Duration, Track, Disc
func ExportToCSV(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Track", "Disc"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range export.Songs {
		record := []string{
			song.ID,
			song.Title,
			song.Artist,
			song.Album,
			strconv.Itoa(song.Duration),
			strconv.Itoa(song.TrackNumber),
			strconv.Itoa(song.DiscNumber),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format with optional cover image
func ExportToMarkdown(export *PlaylistExport, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Songs**: %d\n", len(export.Songs))
	fmt.Fprintf(&buf, "**Length**: %s\n", shared.FormatDuration(export.TotalDuration()))
	fmt.Fprintf(&buf, "**Access**: %s\n\n", shared.EditableString(export.Editable))

	buf.WriteString("## Songs\n\n")
	for i, song := range export.Songs {
		albumPart := ""
		if song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", song.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, song.Artist, song.Title, albumPart, shared.FormatDuration(song.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Title)
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(export.Songs))

	for i, song := range export.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist, song.Title)
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a PlaylistExport to indented JSON.
func ExportToJSON(export *PlaylistExport) ([]byte, error) {
	return json.MarshalIndent(export, "", "  ")
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without songs)
func ToMetadataJSON(export *PlaylistExport) ([]byte, error) {
	meta := struct {
		Title     string    `json:"title"`
		Editable  bool      `json:"editable"`
		SongCount int       `json:"song_count"`
		Duration  int       `json:"duration"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}{
		Title:     export.Title,
		Editable:  export.Editable,
		SongCount: len(export.Songs),
		Duration:  export.TotalDuration(),
		CreatedAt: export.CreatedAt,
		UpdatedAt: export.UpdatedAt,
	}
	return json.MarshalIndent(meta, "", "  ")
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	SongsFile    string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to the playlist slug as the base filename & creates {base}_songs.csv and {base}_metadata.json
func WriteCSVExport(export *PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Slug()
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	songsFile := baseFilepath + "_songs.csv"
	if err := os.WriteFile(songsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		SongsFile:    songsFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
	Warnings   []string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist slug.
// The imageURL parameter is optional; a failed download is recorded in Warnings and the export continues.
// Creates a directory structure: {dir}/README.md and optionally {dir}/cover.jpg
func WriteMarkdownExport(ctx context.Context, export *PlaylistExport, outputDir, imageURL string, client *http.Client) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Slug()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if imageURL != "" {
		imageData, err := DownloadImage(ctx, client, imageURL)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to download cover image: %v", err))
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to save cover image: %v", err))
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {slug}_songs.txt as the filename.
func WriteTextExport(export *PlaylistExport, path string) (string, error) {
	if path == "" {
		path = export.Slug() + "_songs.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport writes the playlist and its songs as JSON.
func WriteJSONExport(export *PlaylistExport, path string) (string, error) {
	if path == "" {
		path = export.Slug() + ".json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("JSON marshal failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("JSON write failed: %w", err)
	}
	return path, nil
}
