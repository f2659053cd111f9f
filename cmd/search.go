package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/desertthunder/jukebox/internal/ui"
	"github.com/urfave/cli/v3"
)

// Search runs the aggregated catalog + video search and stores the results.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	term := strings.TrimSpace(cmd.StringArg("term"))
	if term == "" {
		return fmt.Errorf("%w: search term is required", shared.ErrMissingArgument)
	}
	useJSON := cmd.Bool("json")

	r.logger.Info("searching", "term", term)

	var progress chan tasks.ProgressUpdate
	var done <-chan struct{}
	if !useJSON {
		progress = make(chan tasks.ProgressUpdate, 50)
		done = r.drainProgress(progress)
	}

	songs, err := r.engine.Search(ctx, term, progress)
	if progress != nil {
		close(progress)
		<-done
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if pick := int(cmd.Int("pick")); pick != 0 {
		if pick < 1 || pick > len(songs) {
			return fmt.Errorf("%w: --pick %d is outside 1..%d", shared.ErrInvalidFlag, pick, len(songs))
		}
		songs = songs[pick-1 : pick]
	}

	if err := r.store(ctx, songs, cmd.String("add-to")); err != nil {
		return err
	}

	if useJSON {
		return r.writeJSON(songs, true)
	}

	r.writePlain("\n%s\n", ui.Styles.Title(fmt.Sprintf("%d results for %q", len(songs), term)))
	r.writePlain("%s\n", ui.SongTable(songs, ""))
	return nil
}

// Chart lists the top songs feed. Chart songs are deferred until added to a playlist.
func (r *Runner) Chart(ctx context.Context, cmd *cli.Command) error {
	opts := services.ChartOpts{
		Genre: cmd.String("genre"),
		Limit: int(cmd.Int("limit")),
	}
	if opts.Limit < 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	r.logger.Info("fetching chart", "genre", opts.Genre, "limit", opts.Limit)

	songs, err := r.engine.FetchChart(ctx, opts)
	if err != nil {
		return fmt.Errorf("chart failed: %w", err)
	}

	if err := r.store(ctx, songs, cmd.String("add-to")); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, true)
	}

	if len(songs) == 0 {
		r.writePlain("%s\n", ui.Styles.Warn("The chart is empty"))
		return nil
	}

	r.writePlain("%s\n", ui.Styles.Title("Top songs"))
	r.writePlain("%s\n", ui.SongTable(songs, ""))
	return nil
}

// store saves songs when a playlist is named and appends them to it.
func (r *Runner) store(ctx context.Context, songs []models.Song, title string) error {
	if title == "" || len(songs) == 0 {
		return nil
	}

	lib, err := r.loadLibrary(ctx)
	if err != nil {
		return err
	}
	if err := lib.Save(ctx, songs...); err != nil {
		return fmt.Errorf("failed to save songs: %w", err)
	}

	p := lib.store.GetOrCreateByTitle(title)
	if !p.Editable() {
		return fmt.Errorf("%w: %s", shared.ErrReadOnlyPlaylist, title)
	}

	added := 0
	for _, s := range songs {
		if p.AddSong(s.ID) {
			added++
		}
	}
	if err := lib.Err(); err != nil {
		return err
	}

	r.logger.Info("songs added", "playlist", title, "added", added)
	r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Added %d songs to %s", added, title)))
	return nil
}

// Cover finds cover art for a song given by flags or by stored id.
func (r *Runner) Cover(ctx context.Context, cmd *cli.Command) error {
	song := models.Song{
		Title:    cmd.String("title"),
		Artist:   cmd.String("artist"),
		Duration: int(cmd.Int("duration")),
	}

	var lib *library
	if id := cmd.String("id"); id != "" {
		var err error
		if lib, err = r.loadLibrary(ctx); err != nil {
			return err
		}
		stored, ok := lib.songs.FindByID(id)
		if !ok {
			return fmt.Errorf("%w: %s", shared.ErrSongNotFound, id)
		}
		song = stored
	}

	if song.Title == "" {
		return fmt.Errorf("%w: --title or --id is required", shared.ErrMissingArgument)
	}

	cover, err := r.engine.FetchCover(ctx, song)
	if tasks.IsNoMatch(err) {
		r.writePlain("%s\n", ui.Styles.Warn(fmt.Sprintf("No close match for %s - %s", song.Artist, song.Title)))
		return err
	}
	if err != nil {
		return fmt.Errorf("cover lookup failed: %w", err)
	}

	if lib != nil {
		song.Cover = cover
		if err := lib.Save(ctx, song); err != nil {
			return fmt.Errorf("failed to save cover: %w", err)
		}
	}

	return r.writePlain("%s\n", cover)
}
