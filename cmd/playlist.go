package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/desertthunder/jukebox/internal/ui"
	"github.com/urfave/cli/v3"
)

// PlaylistList prints every playlist, library first.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.loadLibrary(ctx)
	if err != nil {
		return err
	}

	all := lib.store.FetchAll()
	if cmd.Bool("json") {
		return r.writeJSON(lib.store.Snapshot(), true)
	}

	rows := make([]ui.PlaylistRow, len(all))
	for i, p := range all {
		row := ui.PlaylistRow{Title: p.Title(), Editable: p.Editable()}
		for _, s := range p.Songs() {
			row.Songs++
			row.Duration += s.Duration
		}
		rows[i] = row
	}

	r.writePlain("%s\n", ui.PlaylistTable(rows))
	return nil
}

// PlaylistShow prints the songs of a playlist, optionally sorted or shuffled.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	_, p, err := r.playlistArg(ctx, cmd, false)
	if err != nil {
		return err
	}

	if column := cmd.String("sort"); column != "" {
		if err := applySort(p, column, cmd.String("dir")); err != nil {
			return err
		}
	}

	songs := p.Songs()
	if cmd.Bool("shuffle") {
		songs = p.ShuffledSongs()
	}
	return r.writeSongs(p, songs, "")
}

// PlaylistCreate creates an empty playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	title := strings.TrimSpace(cmd.StringArg("title"))
	if title == "" {
		return fmt.Errorf("%w: title is required", shared.ErrMissingArgument)
	}
	if title == models.LibraryTitle {
		return fmt.Errorf("%w: %q is reserved", shared.ErrInvalidArgument, title)
	}

	lib, err := r.loadLibrary(ctx)
	if err != nil {
		return err
	}
	if _, ok := lib.store.GetByTitle(title); ok {
		return fmt.Errorf("%w: playlist %q already exists", shared.ErrInvalidArgument, title)
	}

	lib.store.Create(playlist.Attrs{Title: title})
	if err := lib.Err(); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles.OK("Created "+title))
}

// PlaylistDelete removes an editable playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	lib, p, err := r.playlistArg(ctx, cmd, false)
	if err != nil {
		return err
	}

	if !lib.store.Remove(p) {
		return fmt.Errorf("%w: %s", shared.ErrReadOnlyPlaylist, p.Title())
	}
	if err := lib.Err(); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles.OK("Deleted "+p.Title()))
}

// PlaylistRename gives an editable playlist a new title.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	lib, p, err := r.playlistArg(ctx, cmd, true)
	if err != nil {
		return err
	}

	title := strings.TrimSpace(cmd.StringArg("new-title"))
	if title == "" {
		return fmt.Errorf("%w: new title is required", shared.ErrMissingArgument)
	}

	old := p.Title()
	if !p.Update(playlist.Rename{Title: title}) {
		return fmt.Errorf("%w: cannot rename %q to %q", shared.ErrInvalidArgument, old, title)
	}
	if err := lib.Err(); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Renamed %s to %s", old, title)))
}

// PlaylistAdd appends a stored song. Deferred chart songs are resolved to a video first and
// every playlist holding the chart id is patched to the video id.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	lib, p, err := r.playlistArg(ctx, cmd, true)
	if err != nil {
		return err
	}

	song, err := r.songArg(lib, cmd)
	if err != nil {
		return err
	}

	if song.Deferred {
		r.logger.Info("resolving chart song", "title", song.Title, "artist", song.Artist)
		resolved, err := r.engine.ResolveDeferred(ctx, song)
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", song.Title, err)
		}
		if err := lib.Replace(ctx, song, resolved); err != nil {
			return fmt.Errorf("failed to store resolved song: %w", err)
		}
		song = resolved
	}

	if !p.AddSong(song.ID) {
		return r.writePlain("%s\n", ui.Styles.Warn(fmt.Sprintf("%s is already in %s", song.Title, p.Title())))
	}
	if err := lib.Err(); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Added %s to %s", song.Title, p.Title())))
}

// PlaylistRemove drops a song from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	lib, p, err := r.playlistArg(ctx, cmd, true)
	if err != nil {
		return err
	}

	id := cmd.StringArg("song")
	if !p.RemoveSong(id) {
		return fmt.Errorf("%w: %s is not in %s", shared.ErrSongNotFound, id, p.Title())
	}
	if err := lib.Err(); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Removed %s from %s", id, p.Title())))
}

// PlaylistMove reorders a playlist. Positions are 1-based.
func (r *Runner) PlaylistMove(ctx context.Context, cmd *cli.Command) error {
	lib, p, err := r.playlistArg(ctx, cmd, true)
	if err != nil {
		return err
	}

	from, err := position(cmd.StringArg("from"))
	if err != nil {
		return err
	}
	to, err := position(cmd.StringArg("to"))
	if err != nil {
		return err
	}

	if !p.Reorder(from-1, to-1) {
		return fmt.Errorf("%w: cannot move %d to %d in a playlist of %d songs", shared.ErrInvalidArgument, from, to, p.Len())
	}
	if err := lib.Err(); err != nil {
		return err
	}
	return r.writeSongs(p, p.Songs(), "")
}

// PlaylistSort prints a playlist ordered by a column. The stored order is unchanged.
func (r *Runner) PlaylistSort(ctx context.Context, cmd *cli.Command) error {
	_, p, err := r.playlistArg(ctx, cmd, false)
	if err != nil {
		return err
	}

	if err := applySort(p, cmd.StringArg("column"), cmd.StringArg("direction")); err != nil {
		return err
	}
	return r.writeSongs(p, p.Songs(), "")
}

// PlaylistNext prints the song after the given one.
func (r *Runner) PlaylistNext(ctx context.Context, cmd *cli.Command) error {
	return r.step(ctx, cmd, (*playlist.Playlist).NextSong)
}

// PlaylistPrev prints the song before the given one.
func (r *Runner) PlaylistPrev(ctx context.Context, cmd *cli.Command) error {
	return r.step(ctx, cmd, (*playlist.Playlist).PreviousSong)
}

func (r *Runner) step(ctx context.Context, cmd *cli.Command, fn func(*playlist.Playlist, string, bool) (models.Song, bool)) error {
	_, p, err := r.playlistArg(ctx, cmd, false)
	if err != nil {
		return err
	}

	song, ok := fn(p, cmd.StringArg("song"), cmd.Bool("shuffle"))
	if !ok {
		return fmt.Errorf("%w: %s is empty", shared.ErrSongNotFound, p.Title())
	}
	return r.writePlain("%s\t%s - %s (%s)\n", song.ID, song.Artist, song.Title, shared.FormatDuration(song.Duration))
}

// PlaylistExport writes one playlist, or all of them, in the requested format.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.loadLibrary(ctx)
	if err != nil {
		return err
	}

	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "json", "csv", "markdown", "txt":
	case "md":
		format = "markdown"
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}

	var snapshots []models.PlaylistSnapshot
	if cmd.Bool("all") {
		for _, p := range lib.store.FetchAll() {
			snapshots = append(snapshots, p.Serialize())
		}
	} else {
		title := cmd.StringArg("title")
		if title == "" {
			return fmt.Errorf("%w: title or --all is required", shared.ErrMissingArgument)
		}
		p, err := lib.playlist(title)
		if err != nil {
			return err
		}
		snapshots = append(snapshots, p.Serialize())
	}

	exports := make([]*formatter.PlaylistExport, len(snapshots))
	for i, snap := range snapshots {
		exports[i] = formatter.NewPlaylistExport(snap, lib.songs)
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := r.drainProgress(progress)

	result, err := r.engine.BulkExport(ctx, progress, exports, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
		RateLimit:  r.config.Search.RateLimit,
		FillCovers: cmd.Bool("fill-covers"),
		HTTPClient: r.httpClient,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("")
	r.writePlainHeader("Export Complete")
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalPlaylists)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("%s\n", ui.Styles.Err(fmt.Sprintf("%s: %v", res.Title, res.Error)))
		}
	}
	return nil
}

// playlistArg loads the library and finds the playlist named by the title argument.
func (r *Runner) playlistArg(ctx context.Context, cmd *cli.Command, mustEdit bool) (*library, *playlist.Playlist, error) {
	title := cmd.StringArg("title")
	if title == "" {
		return nil, nil, fmt.Errorf("%w: playlist title is required", shared.ErrMissingArgument)
	}

	lib, err := r.loadLibrary(ctx)
	if err != nil {
		return nil, nil, err
	}

	var p *playlist.Playlist
	if mustEdit {
		p, err = lib.editable(title)
	} else {
		p, err = lib.playlist(title)
	}
	if err != nil {
		return nil, nil, err
	}
	return lib, p, nil
}

func (r *Runner) songArg(lib *library, cmd *cli.Command) (models.Song, error) {
	id := cmd.StringArg("song")
	if id == "" {
		return models.Song{}, fmt.Errorf("%w: song id is required", shared.ErrMissingArgument)
	}
	song, ok := lib.songs.FindByID(id)
	if !ok {
		return models.Song{}, fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
	}
	return song, nil
}

func (r *Runner) writeSongs(p *playlist.Playlist, songs []models.Song, current string) error {
	total := 0
	for _, s := range songs {
		total += s.Duration
	}

	header := fmt.Sprintf("%s · %d songs · %s · %s",
		p.Title(), len(songs), shared.FormatDuration(total), shared.EditableString(p.Editable()))
	r.writePlain("%s\n", ui.Styles.Title(header))
	return r.writePlain("%s\n", ui.SongTable(songs, current))
}

func applySort(p *playlist.Playlist, column, direction string) error {
	col, err := models.ParseSortColumn(column)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	if direction == "" {
		direction = "asc"
	}
	dir, err := models.ParseSortDirection(direction)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	p.SortBy(col, dir)
	return nil
}

func position(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: position %q must be a positive number", shared.ErrInvalidArgument, s)
	}
	return n, nil
}
