package tasks

import (
	"fmt"

	"github.com/desertthunder/jukebox/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	SearchCatalog Phase = iota
	LookupVideos
	ExportPlaylist
	FetchCovers
)

func (p Phase) String() string {
	switch p {
	case SearchCatalog:
		return "search_catalog"
	case LookupVideos:
		return "lookup_videos"
	case ExportPlaylist:
		return "export_playlist"
	case FetchCovers:
		return "fetch_covers"
	default:
		return ""
	}
}

func searchCatalogUpdate(term string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchCatalog,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Searching catalog for %q...", term),
	}
}

func catalogResultsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d catalog hits", total),
	}
}

func lookupUpdate(step, total int, hit services.ItunesTrack, found bool) ProgressUpdate {
	mark := "✓"
	if !found {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   LookupVideos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, mark, hit.ArtistName, hit.TrackName),
		Data:    found,
	}
}

func coverUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCovers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching cover: %s...", step, total, title),
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
