// YouTube Data API v3 [YouTubeService] implementation
//
// Used as the secondary source: one playable video per catalog hit.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/shared"
)

const defaultYTBaseURL string = "https://www.googleapis.com/youtube/v3"

var isoDuration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// Video is a YouTube search hit.
type Video struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Duration  int    `json:"duration,omitempty"` // seconds, when requested
}

// SearchOpts controls a [YouTubeService.Search] call.
type SearchOpts struct {
	MaxResults       int  // defaults to 10, capped at 50
	RequestDurations bool // adds a videos?part=contentDetails round trip
	AddThumbnail     bool
}

type ytThumbnail struct {
	URL string `json:"url"`
}

type ytSearchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   struct {
				Default ytThumbnail `json:"default"`
				Medium  ytThumbnail `json:"medium"`
				High    ytThumbnail `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

type ytVideosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// YouTubeService searches YouTube for videos.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewYouTubeService creates a YouTube Data API client.
func NewYouTubeService(baseURL, apiKey string, client *http.Client) *YouTubeService {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &YouTubeService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: client,
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

// Search returns videos matching query in relevance order.
//
// Calls GET /search?part=snippet&type=video&maxResults={n}&q={query}&key={key}.
// Duration lookups are best effort: when the videos call fails the hits are returned without durations.
func (y *YouTubeService) Search(ctx context.Context, query string, opts SearchOpts) ([]Video, error) {
	if y.apiKey == "" {
		return nil, shared.ErrMissingAPIKey
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("q", query)
	params.Set("key", y.apiKey)

	var body ytSearchResponse
	if err := getJSON(ctx, y.httpClient, y.baseURL+"/search?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(body.Items))
	for _, it := range body.Items {
		if it.ID.VideoID == "" {
			continue
		}

		v := Video{
			ID:      it.ID.VideoID,
			Title:   it.Snippet.Title,
			Channel: it.Snippet.ChannelTitle,
		}
		if opts.AddThumbnail {
			thumbs := it.Snippet.Thumbnails
			for _, u := range []string{thumbs.High.URL, thumbs.Medium.URL, thumbs.Default.URL} {
				if u != "" {
					v.Thumbnail = u
					break
				}
			}
		}
		videos = append(videos, v)
	}

	if opts.RequestDurations && len(videos) > 0 {
		if durations, err := y.fetchDurations(ctx, videos); err == nil {
			for i := range videos {
				videos[i].Duration = durations[videos[i].ID]
			}
		}
	}

	return videos, nil
}

func (y *YouTubeService) fetchDurations(ctx context.Context, videos []Video) (map[string]int, error) {
	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}

	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", y.apiKey)

	var body ytVideosResponse
	if err := getJSON(ctx, y.httpClient, y.baseURL+"/videos?"+params.Encode(), &body); err != nil {
		return nil, fmt.Errorf("failed to fetch durations: %w", err)
	}

	durations := make(map[string]int, len(body.Items))
	for _, item := range body.Items {
		durations[item.ID] = ParseISODuration(item.ContentDetails.Duration)
	}
	return durations, nil
}

// ParseISODuration converts an ISO-8601 time duration (PT#H#M#S) to seconds. Anything else is 0.
func ParseISODuration(d string) int {
	m := isoDuration.FindStringSubmatch(d)
	if m == nil {
		return 0
	}

	total := 0
	for i, unit := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0
		}
		total += n * unit
	}
	return total
}
