package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	tu "github.com/desertthunder/jukebox/internal/testing"
	"github.com/urfave/cli/v3"
)

const chartFeed = `{"feed":{"entry":[
	{"im:name":{"label":"Chart One"},"im:artist":{"label":"Singer"},"im:collection":{"im:name":{"label":"Record"}},
	 "im:image":[{"label":"https://img/55x55bb.png"}]},
	{"im:name":{"label":"Chart Two"},"im:artist":{"label":"Band"},"im:image":[{"label":"https://img/60x60bb.png"}]}
]}}`

type fixture struct {
	runner  *Runner
	output  *bytes.Buffer
	config  *shared.Config
	catalog *tu.RecordedServer
	videos  *tu.RecordedServer
}

// newFixture wires a runner to fake catalog and video servers and a temporary database.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := tu.NewRecordedServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			tu.WriteJSON(t, w, http.StatusOK, map[string]any{
				"resultCount": 2,
				"results": []map[string]any{
					{
						"trackId": 1, "trackName": "Alpha", "artistName": "Ann", "collectionName": "First",
						"artworkUrl100": "https://img/100x100bb.jpg", "trackTimeMillis": 200_000, "trackNumber": 1, "discNumber": 1,
					},
					{
						"trackId": 2, "trackName": "Beta", "artistName": "Bob", "collectionName": "Second",
						"artworkUrl100": "https://img/b/100x100bb.jpg", "trackTimeMillis": 180_000, "trackNumber": 2, "discNumber": 1,
					},
				},
			})
		case strings.Contains(r.URL.Path, "/rss/topsongs/"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(chartFeed))
		default:
			http.NotFound(w, r)
		}
	})

	videos := tu.NewRecordedServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		id := "vid-" + strings.ToLower(strings.Fields(q)[0])
		tu.WriteJSON(t, w, http.StatusOK, map[string]any{
			"items": []map[string]any{{
				"id":      map[string]string{"videoId": id},
				"snippet": map[string]any{"title": q, "channelTitle": "Channel"},
			}},
		})
	})

	config := shared.DefaultConfig()
	config.Catalog.BaseURL = catalog.URL
	config.YouTube.BaseURL = videos.URL
	config.YouTube.APIKey = "test-key"
	config.Search.RateLimit = 0
	config.Database.Path = filepath.Join(t.TempDir(), "jukebox.db")

	f := &fixture{config: config, catalog: catalog, videos: videos}
	f.reopen(t)
	return f
}

// reopen closes the current runner and starts a fresh one on the same database.
func (f *fixture) reopen(t *testing.T) {
	t.Helper()
	if f.runner != nil {
		if err := f.runner.Close(); err != nil {
			t.Fatalf("failed to close runner: %v", err)
		}
	}
	f.output = &bytes.Buffer{}
	f.runner = NewRunner(RunnerOpts{
		Config: f.config,
		Logger: shared.DiscardLogger(),
		Output: f.output,
	})
	t.Cleanup(func() { f.runner.Close() })
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.output.Reset()
	app := &cli.Command{Name: "jukebox", Commands: f.runner.register()}
	return app.Run(context.Background(), append([]string{"jukebox"}, args...))
}

func (f *fixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := f.run(t, args...); err != nil {
		t.Fatalf("jukebox %s: %v", strings.Join(args, " "), err)
	}
	return f.output.String()
}

func (f *fixture) snapshots(t *testing.T) map[string]models.PlaylistSnapshot {
	t.Helper()
	out := f.mustRun(t, "playlist", "list", "--json")

	var snaps []models.PlaylistSnapshot
	if err := json.Unmarshal([]byte(out), &snaps); err != nil {
		t.Fatalf("failed to decode playlists: %v\n%s", err, out)
	}
	byTitle := make(map[string]models.PlaylistSnapshot, len(snaps))
	for _, s := range snaps {
		byTitle[s.Title] = s
	}
	return byTitle
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.catalog == nil || runner.videos == nil || runner.api == nil {
				t.Error("expected services to be built from config")
			}
			if runner.engine == nil {
				t.Error("expected aggregator to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("close without library", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if err := runner.Close(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})

	t.Run("aggregatorOpts", func(t *testing.T) {
		opts := aggregatorOpts(shared.SearchConfig{ResultLimit: 10, Workers: 2, RateLimit: 3, CoverTolerance: 7})
		if opts.ResultLimit != 10 || opts.Workers != 2 || opts.RateLimit != 3 {
			t.Errorf("unexpected opts %+v", opts)
		}
		if opts.CoverTolerance != 7*time.Second {
			t.Errorf("expected 7s tolerance, got %v", opts.CoverTolerance)
		}

		defaults := aggregatorOpts(shared.SearchConfig{})
		if defaults.ResultLimit != 50 || defaults.CoverTolerance != 5*time.Second {
			t.Errorf("expected defaults, got %+v", defaults)
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", output.String())
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got, want := output.String(), `{"key":"value"}`+"\n"; got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("x"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Logger: shared.DiscardLogger(), Output: output})
	app := &cli.Command{Name: "jukebox", Commands: runner.register()}

	if err := app.Run(context.Background(), []string{"jukebox", "setup"}); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
	tu.AssertFileExists(t, filepath.Join(dir, "jukebox.db"))
	if !strings.Contains(output.String(), "Database ready") {
		t.Errorf("expected confirmation, got %q", output.String())
	}
	if !strings.Contains(output.String(), "youtube.api_key") {
		t.Errorf("expected api key hint, got %q", output.String())
	}
}

func TestSearchCommand(t *testing.T) {
	t.Run("prints merged results", func(t *testing.T) {
		f := newFixture(t)
		out := f.mustRun(t, "search", "alpha")

		for _, want := range []string{"2 results", "Alpha", "Beta", "vid-alpha", "vid-beta"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
		if len(f.videos.Requests()) != 2 {
			t.Errorf("expected one video lookup per hit, got %d", len(f.videos.Requests()))
		}
	})

	t.Run("json output", func(t *testing.T) {
		f := newFixture(t)
		out := f.mustRun(t, "search", "--json", "alpha")

		var songs []models.Song
		if err := json.Unmarshal([]byte(out), &songs); err != nil {
			t.Fatalf("failed to decode: %v\n%s", err, out)
		}
		if len(songs) != 2 {
			t.Fatalf("expected 2 songs, got %d", len(songs))
		}
		if songs[0].Cover != "https://img/600x600bb.jpg" {
			t.Errorf("expected upgraded cover, got %s", songs[0].Cover)
		}
		if songs[0].Duration != 200 {
			t.Errorf("expected catalog duration, got %d", songs[0].Duration)
		}
	})

	t.Run("add-to with pick persists", func(t *testing.T) {
		f := newFixture(t)
		f.mustRun(t, "search", "--add-to", "Mix", "--pick", "2", "alpha")

		f.reopen(t)
		snaps := f.snapshots(t)
		mix, ok := snaps["Mix"]
		if !ok {
			t.Fatal("expected Mix playlist after reopening")
		}
		if len(mix.Songs) != 1 || mix.Songs[0] != "vid-beta" {
			t.Errorf("expected [vid-beta], got %v", mix.Songs)
		}

		out := f.mustRun(t, "playlist", "show", models.LibraryTitle)
		if !strings.Contains(out, "Beta") {
			t.Errorf("expected saved song in library, got:\n%s", out)
		}
	})

	t.Run("pick out of range", func(t *testing.T) {
		f := newFixture(t)
		err := f.run(t, "search", "--pick", "9", "alpha")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("missing term", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestChartCommand(t *testing.T) {
	t.Run("lists deferred songs", func(t *testing.T) {
		f := newFixture(t)
		out := f.mustRun(t, "chart", "--limit", "2", "--genre", "14", "--json")

		var songs []models.Song
		if err := json.Unmarshal([]byte(out), &songs); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(songs) != 2 {
			t.Fatalf("expected 2 songs, got %d", len(songs))
		}
		if !songs[0].Deferred || songs[0].Cover != "https://img/600x600bb.png" {
			t.Errorf("unexpected chart song %+v", songs[0])
		}

		reqs := f.catalog.Requests()
		if got := reqs[len(reqs)-1].URL.Path; got != "/us/rss/topsongs/limit=2/genre=14/json" {
			t.Errorf("unexpected chart path %s", got)
		}
	})

	t.Run("add deferred song resolves it", func(t *testing.T) {
		f := newFixture(t)
		out := f.mustRun(t, "chart", "--add-to", "Hits", "--json")

		var songs []models.Song
		if err := json.Unmarshal([]byte(out[strings.Index(out, "["):]), &songs); err != nil {
			t.Fatalf("failed to decode: %v\n%s", err, out)
		}
		chartID := songs[0].ID

		f.mustRun(t, "playlist", "create", "Favourites")
		f.mustRun(t, "playlist", "add", "Favourites", chartID)

		snaps := f.snapshots(t)
		if got := snaps["Favourites"].Songs; len(got) != 1 || got[0] != "vid-chart" {
			t.Errorf("expected resolved video id in Favourites, got %v", got)
		}
		hits := snaps["Hits"].Songs
		if len(hits) != 2 || hits[0] != "vid-chart" {
			t.Errorf("expected chart id patched in Hits, got %v", hits)
		}
		for _, id := range hits {
			if id == chartID {
				t.Errorf("stale chart id %s left in Hits", chartID)
			}
		}
	})
}

func TestCoverCommand(t *testing.T) {
	t.Run("close match", func(t *testing.T) {
		f := newFixture(t)
		out := f.mustRun(t, "cover", "--title", "Alpha", "--artist", "Ann", "--duration", "202")
		if strings.TrimSpace(out) != "https://img/600x600bb.jpg" {
			t.Errorf("unexpected cover %q", out)
		}
	})

	t.Run("no close match", func(t *testing.T) {
		f := newFixture(t)
		err := f.run(t, "cover", "--title", "Alpha", "--artist", "Ann", "--duration", "400")
		if !errors.Is(err, shared.ErrNoCloseMatch) {
			t.Errorf("expected ErrNoCloseMatch, got %v", err)
		}
	})

	t.Run("requires a title", func(t *testing.T) {
		f := newFixture(t)
		if err := f.run(t, "cover"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestPlaylistCommands(t *testing.T) {
	f := newFixture(t)
	f.mustRun(t, "search", "--add-to", "Road Trip", "alpha")

	t.Run("list shows library first", func(t *testing.T) {
		out := f.mustRun(t, "playlist", "list")
		lib := strings.Index(out, models.LibraryTitle)
		trip := strings.Index(out, "Road Trip")
		if lib < 0 || trip < 0 || lib > trip {
			t.Errorf("expected library before Road Trip:\n%s", out)
		}
	})

	t.Run("create rejects duplicates and library title", func(t *testing.T) {
		if err := f.run(t, "playlist", "create", "Road Trip"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if err := f.run(t, "playlist", "create", models.LibraryTitle); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("move reorders", func(t *testing.T) {
		f.mustRun(t, "playlist", "move", "Road Trip", "2", "1")
		if got := f.snapshots(t)["Road Trip"].Songs; got[0] != "vid-beta" {
			t.Errorf("expected vid-beta first, got %v", got)
		}

		if err := f.run(t, "playlist", "move", "Road Trip", "1", "5"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("sort does not change stored order", func(t *testing.T) {
		out := f.mustRun(t, "playlist", "sort", "Road Trip", "title", "asc")
		if strings.Index(out, "Alpha") > strings.Index(out, "Beta") {
			t.Errorf("expected Alpha before Beta:\n%s", out)
		}
		if got := f.snapshots(t)["Road Trip"].Songs; got[0] != "vid-beta" {
			t.Errorf("expected stored order unchanged, got %v", got)
		}

		if err := f.run(t, "playlist", "sort", "Road Trip", "colour"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}

		f.mustRun(t, "playlist", "sort", "Road Trip")
	})

	t.Run("next and prev wrap", func(t *testing.T) {
		out := f.mustRun(t, "playlist", "next", "Road Trip", "vid-alpha")
		if !strings.HasPrefix(out, "vid-beta") {
			t.Errorf("expected wrap to vid-beta, got %q", out)
		}
		out = f.mustRun(t, "playlist", "prev", "Road Trip", "vid-beta")
		if !strings.HasPrefix(out, "vid-alpha") {
			t.Errorf("expected wrap to vid-alpha, got %q", out)
		}
		out = f.mustRun(t, "playlist", "next", "Road Trip", "missing")
		if !strings.HasPrefix(out, "vid-beta") {
			t.Errorf("expected first song for a missing id, got %q", out)
		}
	})

	t.Run("library is read-only", func(t *testing.T) {
		if err := f.run(t, "playlist", "delete", models.LibraryTitle); !errors.Is(err, shared.ErrReadOnlyPlaylist) {
			t.Errorf("expected ErrReadOnlyPlaylist, got %v", err)
		}
		if err := f.run(t, "playlist", "remove", models.LibraryTitle, "vid-alpha"); !errors.Is(err, shared.ErrReadOnlyPlaylist) {
			t.Errorf("expected ErrReadOnlyPlaylist, got %v", err)
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		if err := f.run(t, "playlist", "show", "Nope"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("export writes files and manifest", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		out := f.mustRun(t, "playlist", "export", "--format", "csv", "--output", dir, "Road Trip")
		if !strings.Contains(out, "Exported: 1/1") {
			t.Errorf("unexpected summary:\n%s", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
		tu.AssertFileExists(t, filepath.Join(dir, "road-trip_songs.csv"))

		if err := f.run(t, "playlist", "export", "--format", "xml", "Road Trip"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("rename remove and delete", func(t *testing.T) {
		f.mustRun(t, "playlist", "rename", "Road Trip", "Commute")
		f.mustRun(t, "playlist", "remove", "Commute", "vid-alpha")

		if err := f.run(t, "playlist", "remove", "Commute", "vid-alpha"); !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}

		f.reopen(t)
		snaps := f.snapshots(t)
		if got := snaps["Commute"].Songs; len(got) != 1 || got[0] != "vid-beta" {
			t.Errorf("expected [vid-beta] after reopen, got %v", got)
		}

		f.mustRun(t, "playlist", "delete", "Commute")
		if _, ok := f.snapshots(t)["Commute"]; ok {
			t.Error("expected Commute to be deleted")
		}
	})
}

func TestSyncCommands(t *testing.T) {
	f := newFixture(t)
	if err := f.run(t, "sync", "push"); !errors.Is(err, shared.ErrMissingConfig) {
		t.Errorf("expected ErrMissingConfig, got %v", err)
	}
}

func TestAPIGet(t *testing.T) {
	f := newFixture(t)

	out := f.mustRun(t, "api", "get", "--json", "search?term=alpha")
	if !strings.Contains(out, `"resultCount":2`) {
		t.Errorf("expected compact catalog JSON, got %s", out)
	}
	if got := f.catalog.Requests()[0].URL.Path; got != "/search" {
		t.Errorf("expected leading slash added, got %s", got)
	}

	if err := f.run(t, "api", "get", "/missing"); !errors.Is(err, shared.ErrAPIRequest) {
		t.Errorf("expected ErrAPIRequest, got %v", err)
	}
}
