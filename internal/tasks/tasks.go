package tasks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
)

// SourceYouTube marks songs whose id is a YouTube video id.
const SourceYouTube = "youtube"

var chartImageSize = regexp.MustCompile(`/\d\dx\d\d`)

// Catalog is the primary metadata source.
type Catalog interface {
	Search(ctx context.Context, term string, limit int) (*services.ItunesSearchResponse, error)
	Chart(ctx context.Context, opts services.ChartOpts) (*services.ChartFeed, error)
}

// VideoSearcher finds playable videos for catalog hits.
type VideoSearcher interface {
	Search(ctx context.Context, query string, opts services.SearchOpts) ([]services.Video, error)
}

// Opts tunes an [Aggregator].
type Opts struct {
	ResultLimit    int           // catalog hits per search (default 50)
	CoverLimit     int           // catalog hits considered by FetchCover (default 10)
	Workers        int           // concurrent video lookups (default 5)
	RateLimit      float64       // video lookups per second, <= 0 disables pacing
	CoverTolerance time.Duration // allowed duration drift for FetchCover (default 5s)
}

// DefaultOpts returns the recommended options. [NewAggregator] fills zero fields from it, except
// RateLimit: zero or negative disables pacing.
func DefaultOpts() Opts {
	return Opts{
		ResultLimit:    50,
		CoverLimit:     10,
		Workers:        5,
		RateLimit:      10,
		CoverTolerance: 5 * time.Second,
	}
}

func (o Opts) withDefaults() Opts {
	d := DefaultOpts()
	if o.ResultLimit <= 0 {
		o.ResultLimit = d.ResultLimit
	}
	if o.CoverLimit <= 0 {
		o.CoverLimit = d.CoverLimit
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.CoverTolerance <= 0 {
		o.CoverTolerance = d.CoverTolerance
	}
	return o
}

// Aggregator combines catalog metadata with playable video ids.
type Aggregator struct {
	catalog Catalog
	videos  VideoSearcher
	opts    Opts
	logger  *log.Logger
	newID   func() string
}

// NewAggregator wires a catalog and a video source. A nil logger discards output.
func NewAggregator(catalog Catalog, videos VideoSearcher, opts Opts, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Aggregator{
		catalog: catalog,
		videos:  videos,
		opts:    opts.withDefaults(),
		logger:  logger,
		newID:   shared.GenerateID,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (a *Aggregator) limiter() *rate.Limiter {
	if a.opts.RateLimit <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(a.opts.RateLimit), 1)
}

// Search looks up term in the catalog and resolves every hit to a video.
//
// Results keep catalog order. Hits without a video, or whose lookup failed, are dropped; lookup
// failures are logged rather than returned. A catalog failure or a cancelled context fails the
// whole call. Songs are unique by id; the first occurrence wins.
func (a *Aggregator) Search(ctx context.Context, term string, progress chan<- ProgressUpdate) ([]models.Song, error) {
	if a.catalog == nil || a.videos == nil {
		return nil, fmt.Errorf("%w: search sources not configured", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, searchCatalogUpdate(term))

	resp, err := a.catalog.Search(ctx, term, a.opts.ResultLimit)
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %w", err)
	}

	hits := resp.Results
	total := len(hits)
	sendProgress(progress, catalogResultsUpdate(total))

	matched := make([]*models.Song, total)
	limiter := a.limiter()

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)

	for i, hit := range hits {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				step := int(done.Add(1))
				a.logger.Warn("video lookup skipped", "track", hit.TrackName, "artist", hit.ArtistName, "error", err)
				sendProgress(progress, lookupUpdate(step, total, hit, false))
				return nil
			}

			video, err := a.lookup(gctx, hit)
			step := int(done.Add(1))
			switch {
			case err != nil && ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				a.logger.Warn("video lookup failed", "track", hit.TrackName, "artist", hit.ArtistName, "error", err)
				sendProgress(progress, lookupUpdate(step, total, hit, false))
			case video == nil:
				a.logger.Debug("no video for track", "track", hit.TrackName, "artist", hit.ArtistName)
				sendProgress(progress, lookupUpdate(step, total, hit, false))
			default:
				song := mergeHit(hit, *video)
				matched[i] = &song
				sendProgress(progress, lookupUpdate(step, total, hit, true))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	songs := removeDuplicates(matched)
	a.logger.Info("search complete", "term", term, "hits", total, "songs", len(songs))
	return songs, nil
}

func (a *Aggregator) lookup(ctx context.Context, hit services.ItunesTrack) (*services.Video, error) {
	videos, err := a.videos.Search(ctx, hit.TrackName+" "+hit.ArtistName, services.SearchOpts{MaxResults: 1})
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, nil
	}
	return &videos[0], nil
}

func mergeHit(hit services.ItunesTrack, video services.Video) models.Song {
	return models.Song{
		ID:          video.ID,
		Title:       hit.TrackName,
		Artist:      hit.ArtistName,
		Album:       hit.CollectionName,
		Cover:       hit.LargeArtwork(),
		Duration:    hit.DurationSeconds(),
		TrackNumber: hit.TrackNumber,
		DiscNumber:  hit.DiscNumber,
		Source:      SourceYouTube,
	}
}

func removeDuplicates(songs []*models.Song) []models.Song {
	seen := make(map[string]struct{}, len(songs))
	out := make([]models.Song, 0, len(songs))
	for _, s := range songs {
		if s == nil {
			continue
		}
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, *s)
	}
	return out
}

// FetchChart converts the top songs feed into deferred songs with fresh ids.
// A missing feed or an empty entry list yields an empty slice.
func (a *Aggregator) FetchChart(ctx context.Context, opts services.ChartOpts) ([]models.Song, error) {
	if a.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}

	feed, err := a.catalog.Chart(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("chart fetch failed: %w", err)
	}

	entries := feed.Entries()
	songs := make([]models.Song, 0, len(entries))
	for _, e := range entries {
		songs = append(songs, models.Song{
			ID:       a.newID(),
			Title:    e.Title(),
			Artist:   e.Singer(),
			Album:    e.Album(),
			Cover:    upgradeChartImage(e.Image()),
			Deferred: true,
		})
	}
	return songs, nil
}

// upgradeChartImage swaps the first /NNxNN size segment for /600x600.
func upgradeChartImage(url string) string {
	loc := chartImageSize.FindStringIndex(url)
	if loc == nil {
		return url
	}
	return url[:loc[0]] + "/600x600" + url[loc[1]:]
}

// FetchCover finds a large artwork URL for song.
//
// The top catalog hit for "title artist" is accepted when its duration is within the configured
// tolerance of the song's. Anything else is [shared.ErrNoCloseMatch].
func (a *Aggregator) FetchCover(ctx context.Context, song models.Song) (string, error) {
	if a.catalog == nil {
		return "", fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}

	resp, err := a.catalog.Search(ctx, song.Title+" "+song.Artist, a.opts.CoverLimit)
	if err != nil {
		return "", fmt.Errorf("cover search failed: %w", err)
	}
	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		return "", fmt.Errorf("%w: no results for %q", shared.ErrNoCloseMatch, song.Title)
	}

	top := resp.Results[0]
	if !a.isClose(song, top) {
		return "", fmt.Errorf("%w: %q differs by more than %s", shared.ErrNoCloseMatch, song.Title, a.opts.CoverTolerance)
	}
	return top.LargeArtwork(), nil
}

func (a *Aggregator) isClose(song models.Song, hit services.ItunesTrack) bool {
	drift := math.Abs(float64(song.Duration) - float64(hit.TrackTimeMillis)/1000)
	return drift < a.opts.CoverTolerance.Seconds()
}

// ResolveDeferred looks up a playable video for a deferred chart song and returns the merged record.
// Songs that are not deferred are returned unchanged.
func (a *Aggregator) ResolveDeferred(ctx context.Context, song models.Song) (models.Song, error) {
	if !song.Deferred {
		return song, nil
	}
	if a.videos == nil {
		return song, fmt.Errorf("%w: video source not configured", shared.ErrServiceUnavailable)
	}

	video, err := a.lookup(ctx, services.ItunesTrack{TrackName: song.Title, ArtistName: song.Artist})
	if err != nil {
		return song, fmt.Errorf("resolve %q: %w", song.Title, err)
	}
	if video == nil {
		return song, fmt.Errorf("%w: no video for %q", shared.ErrNoCloseMatch, song.Title)
	}

	resolved := song
	resolved.ID = video.ID
	resolved.Source = SourceYouTube
	resolved.Deferred = false
	if resolved.Duration == 0 {
		resolved.Duration = video.Duration
	}
	return resolved, nil
}

// IsNoMatch reports whether err means a lookup completed without a usable result.
func IsNoMatch(err error) bool {
	return errors.Is(err, shared.ErrNoCloseMatch)
}
