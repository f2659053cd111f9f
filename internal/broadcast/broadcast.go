package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
)

// DefaultChannel is used when no channel is configured.
const DefaultChannel = "jukebox:playlists"

const publishTimeout = 5 * time.Second

// Message is the payload published on every change.
type Message struct {
	Instance  string                    `json:"instance"`
	SentAt    int64                     `json:"sent_at"` // unix milliseconds
	Playlists []models.PlaylistSnapshot `json:"playlists"`
	Songs     []models.Song             `json:"songs,omitempty"`
}

// NewInstanceID returns a random id identifying this process on the channel.
func NewInstanceID() string {
	return shared.GenerateID()
}

// Publisher publishes playlist collections.
type Publisher struct {
	rdb      redis.UniversalClient
	channel  string
	instance string
	resolver models.SongResolver
	logger   *log.Logger
	now      func() time.Time

	published atomic.Int64
	failures  atomic.Int64
}

// NewPublisher creates a publisher. resolver may be nil, in which case messages carry only song ids.
func NewPublisher(rdb redis.UniversalClient, channel, instance string, resolver models.SongResolver, logger *log.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Publisher{
		rdb:      rdb,
		channel:  channel,
		instance: instance,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
	}
}

// Listener adapts the publisher to a playlist store change listener.
func (p *Publisher) Listener() playlist.Listener {
	return func(playlists []*playlist.Playlist) {
		snapshots := make([]models.PlaylistSnapshot, len(playlists))
		for i, pl := range playlists {
			snapshots[i] = pl.Serialize()
		}

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.Publish(ctx, snapshots); err != nil {
			p.logger.Warn("playlist broadcast failed", "channel", p.channel, "error", err)
		}
	}
}

// Publish sends snapshots on the channel.
func (p *Publisher) Publish(ctx context.Context, snapshots []models.PlaylistSnapshot) error {
	msg := Message{
		Instance:  p.instance,
		SentAt:    p.now().UnixMilli(),
		Playlists: snapshots,
		Songs:     p.songsFor(snapshots),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		p.failures.Add(1)
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		p.failures.Add(1)
		return fmt.Errorf("%w: publish: %w", shared.ErrServiceUnavailable, err)
	}

	p.published.Add(1)
	p.logger.Debug("playlists published", "channel", p.channel, "playlists", len(snapshots))
	return nil
}

func (p *Publisher) songsFor(snapshots []models.PlaylistSnapshot) []models.Song {
	if p.resolver == nil {
		return nil
	}

	seen := map[string]struct{}{}
	var songs []models.Song
	for _, snap := range snapshots {
		for _, id := range snap.Songs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			if song, ok := p.resolver.FindByID(id); ok {
				songs = append(songs, song)
			}
		}
	}
	return songs
}

// Published reports how many messages were sent.
func (p *Publisher) Published() int64 { return p.published.Load() }

// Failures reports how many publishes failed.
func (p *Publisher) Failures() int64 { return p.failures.Load() }

// Handler receives messages from other instances.
type Handler func(Message)

// Subscriber receives collections published by other instances.
type Subscriber struct {
	rdb      redis.UniversalClient
	channel  string
	instance string
	logger   *log.Logger

	sub *redis.PubSub
}

// NewSubscriber creates a subscriber that ignores messages published by instance.
func NewSubscriber(rdb redis.UniversalClient, channel, instance string, logger *log.Logger) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Subscriber{rdb: rdb, channel: channel, instance: instance, logger: logger}
}

// Subscribe joins the channel and waits for the server to confirm.
func (s *Subscriber) Subscribe(ctx context.Context) error {
	sub := s.rdb.Subscribe(ctx, s.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("%w: subscribe %s: %w", shared.ErrServiceUnavailable, s.channel, err)
	}
	s.sub = sub
	return nil
}

// Run delivers messages to handler until ctx is done or the subscription is closed.
// It subscribes first when [Subscriber.Subscribe] has not been called.
func (s *Subscriber) Run(ctx context.Context, handler Handler) error {
	if s.sub == nil {
		if err := s.Subscribe(ctx); err != nil {
			return err
		}
	}

	ch := s.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			s.dispatch(raw.Payload, handler)
		}
	}
}

func (s *Subscriber) dispatch(payload string, handler Handler) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		s.logger.Warn("dropping malformed broadcast", "channel", s.channel, "error", err)
		return
	}
	if msg.Instance == s.instance {
		return
	}

	s.logger.Debug("playlists received", "from", msg.Instance, "playlists", len(msg.Playlists))
	handler(msg)
}

// Close leaves the channel.
func (s *Subscriber) Close() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Close()
}
