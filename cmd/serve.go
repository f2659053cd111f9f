package main

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/desertthunder/jukebox/internal/broadcast"
	"github.com/desertthunder/jukebox/internal/server"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Serve runs the HTTP API until interrupted. With sync enabled, changes from other
// instances are applied while serving.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.loadLibrary(ctx)
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr
	}

	base := r.logger
	if path := cmd.String("log-file"); path != "" {
		fileLogger, err := shared.NewFileLogger(path)
		if err != nil {
			return err
		}
		fileLogger.SetLevel(r.logger.GetLevel())
		base = fileLogger
	}

	logger := shared.WithLogger(base, "component", "http")
	var mu sync.Mutex

	router := server.NewBasicRouter()
	router.Use(
		server.Recoverer(logger),
		server.RequestLogger(logger),
		server.RateLimit(r.config.Server.RateLimit, int(r.config.Server.RateLimit)+1),
	)
	router.Handler(server.NewLibraryAPI(lib.store, r.engine, &mu, logger))

	proxy, err := server.NewCatalogProxy(r.catalogURL(), r.httpClient.Transport, logger)
	if err != nil {
		return err
	}
	router.Handler(proxy)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx, addr, router, logger, func(a net.Addr) {
			r.writePlain("%s\n", ui.Styles.OK("Serving on http://"+a.String()))
		})
	})

	if lib.rdb != nil {
		sub := broadcast.NewSubscriber(lib.rdb, syncChannel(r.config), lib.instance, shared.WithLogger(r.logger, "component", "sync"))
		defer sub.Close()

		g.Go(func() error {
			err := sub.Run(gctx, func(msg broadcast.Message) {
				mu.Lock()
				defer mu.Unlock()
				if err := lib.Apply(gctx, msg); err != nil {
					r.logger.Error("failed to apply playlists", "from", msg.Instance, "error", err)
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}

func (r *Runner) catalogURL() string {
	if r.config.Catalog.BaseURL != "" {
		return r.config.Catalog.BaseURL
	}
	return "https://itunes.apple.com"
}
