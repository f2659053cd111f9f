package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	catalog    *services.ItunesService
	videos     *services.YouTubeService
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.Aggregator
	lib        *library
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Catalog    *services.ItunesService
	Videos     *services.YouTubeService
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
//
// Services left nil are built from the config.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	cfg := opts.Config
	if opts.Catalog == nil {
		opts.Catalog = services.NewItunesService(cfg.Catalog.BaseURL, services.StaticCountry(cfg.Catalog.Country), opts.HTTPClient)
	}
	if opts.Videos == nil {
		opts.Videos = services.NewYouTubeService(cfg.YouTube.BaseURL, cfg.YouTube.APIKey, opts.HTTPClient)
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(cfg.Catalog.BaseURL, opts.HTTPClient)
	}

	engine := tasks.NewAggregator(opts.Catalog, opts.Videos, aggregatorOpts(cfg.Search), opts.Logger)

	return &Runner{
		config:     cfg,
		catalog:    opts.Catalog,
		videos:     opts.Videos,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     engine,
	}
}

func aggregatorOpts(cfg shared.SearchConfig) tasks.Opts {
	opts := tasks.DefaultOpts()
	if cfg.ResultLimit > 0 {
		opts.ResultLimit = cfg.ResultLimit
	}
	if cfg.Workers > 0 {
		opts.Workers = cfg.Workers
	}
	opts.RateLimit = cfg.RateLimit
	if cfg.CoverTolerance > 0 {
		opts.CoverTolerance = time.Duration(cfg.CoverTolerance) * time.Second
	}
	return opts
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, chartCommand, coverCommand, playlistCommand, syncCommand, serveCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the library, if one was opened.
func (r *Runner) Close() error {
	if r.lib == nil {
		return nil
	}
	err := r.lib.Close()
	r.lib = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// drainProgress prints updates until ch is closed. The returned channel closes once printing stops.
func (r *Runner) drainProgress(ch <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			switch update.Phase {
			case tasks.SearchCatalog:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.LookupVideos:
				r.writePlain("   %s\n", update.Message)
			case tasks.FetchCovers:
				r.writePlain("🖼  %s\n", update.Message)
			case tasks.ExportPlaylist:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()
	return done
}

// loadLibrary opens the persisted store on first use.
func (r *Runner) loadLibrary(ctx context.Context) (*library, error) {
	if r.lib != nil {
		return r.lib, nil
	}

	lib, err := openLibrary(ctx, r.config, shared.WithLogger(r.logger, "component", "library"))
	if err != nil {
		return nil, err
	}
	r.lib = lib
	return lib, nil
}
