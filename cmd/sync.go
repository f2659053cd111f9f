package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/broadcast"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/ui"
	"github.com/urfave/cli/v3"
)

// SyncWatch applies playlists published by other instances until the context is cancelled.
func (r *Runner) SyncWatch(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.syncLibrary(ctx)
	if err != nil {
		return err
	}

	sub := broadcast.NewSubscriber(lib.rdb, syncChannel(r.config), lib.instance, shared.WithLogger(r.logger, "component", "sync"))
	defer sub.Close()

	if err := sub.Subscribe(ctx); err != nil {
		return err
	}
	r.writePlain("%s\n", ui.Styles.Help("Watching "+syncChannel(r.config)+" (ctrl+c to stop)"))

	err = sub.Run(ctx, func(msg broadcast.Message) {
		if err := lib.Apply(ctx, msg); err != nil {
			r.logger.Error("failed to apply playlists", "from", msg.Instance, "error", err)
			return
		}
		sent := time.UnixMilli(msg.SentAt).Format(time.Kitchen)
		r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("%s: %d playlists, %d songs from %s", sent, len(msg.Playlists), len(msg.Songs), msg.Instance)))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SyncPush publishes the local collection once.
func (r *Runner) SyncPush(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.syncLibrary(ctx)
	if err != nil {
		return err
	}

	snapshots := lib.store.Snapshot()
	if err := lib.publisher.Publish(ctx, snapshots); err != nil {
		return err
	}
	return r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("Published %d playlists", len(snapshots))))
}

func (r *Runner) syncLibrary(ctx context.Context) (*library, error) {
	if r.config.Sync.RedisAddr == "" {
		return nil, fmt.Errorf("%w: sync.redis_addr is not set", shared.ErrMissingConfig)
	}
	return r.loadLibrary(ctx)
}
