// iTunes catalog [ItunesService] implementation
//
// Wraps the public search API and the top songs RSS feed.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultItunesBaseURL = "https://itunes.apple.com"
	defaultChartLimit    = 20
)

// ItunesTrack is one search result from the catalog.
type ItunesTrack struct {
	TrackID         int64  `json:"trackId"`
	TrackName       string `json:"trackName"`
	ArtistName      string `json:"artistName"`
	CollectionName  string `json:"collectionName"`
	ArtworkURL100   string `json:"artworkUrl100"`
	TrackTimeMillis int    `json:"trackTimeMillis"`
	TrackNumber     int    `json:"trackNumber"`
	DiscNumber      int    `json:"discNumber"`
}

// LargeArtwork returns the 600x600 variant of the artwork URL.
func (t ItunesTrack) LargeArtwork() string {
	return strings.Replace(t.ArtworkURL100, "100x100", "600x600", 1)
}

// DurationSeconds converts the track time to whole seconds.
func (t ItunesTrack) DurationSeconds() int {
	return t.TrackTimeMillis / 1000
}

// ItunesSearchResponse is the search endpoint payload.
type ItunesSearchResponse struct {
	ResultCount int           `json:"resultCount"`
	Results     []ItunesTrack `json:"results"`
}

// FeedLabel is the {"label": ...} wrapper used throughout the RSS JSON.
type FeedLabel struct {
	Label string `json:"label"`
}

// ChartEntry is one song in the top songs feed.
type ChartEntry struct {
	Name       FeedLabel `json:"im:name"`
	Artist     FeedLabel `json:"im:artist"`
	Collection struct {
		Name FeedLabel `json:"im:name"`
	} `json:"im:collection"`
	Images []FeedLabel `json:"im:image"`
}

func (e ChartEntry) Title() string  { return e.Name.Label }
func (e ChartEntry) Singer() string { return e.Artist.Label }
func (e ChartEntry) Album() string  { return e.Collection.Name.Label }

// Image returns the first (smallest) image URL, or "".
func (e ChartEntry) Image() string {
	if len(e.Images) == 0 {
		return ""
	}
	return e.Images[0].Label
}

// ChartEntries decodes the feed's entry field, which is an object when the feed holds a single song.
type ChartEntries []ChartEntry

func (c *ChartEntries) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var one ChartEntry
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*c = ChartEntries{one}
		return nil
	}

	var many []ChartEntry
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*c = many
	return nil
}

// ChartFeed is the top songs RSS payload.
type ChartFeed struct {
	Feed *ChartFeedBody `json:"feed"`
}

// ChartFeedBody holds the feed entries.
type ChartFeedBody struct {
	Entry ChartEntries `json:"entry"`
}

// Entries returns the feed entries, or nil when the feed is empty or missing.
func (f *ChartFeed) Entries() []ChartEntry {
	if f == nil || f.Feed == nil {
		return nil
	}
	return f.Feed.Entry
}

// ChartOpts filters the top songs feed.
type ChartOpts struct {
	Genre string
	Limit int // defaults to 20
}

// ItunesService queries the iTunes catalog.
type ItunesService struct {
	baseURL    string
	country    CountryProvider
	httpClient *http.Client
}

// NewItunesService creates a catalog client. Empty arguments fall back to the public host, "us", and [http.DefaultClient].
func NewItunesService(baseURL string, country CountryProvider, client *http.Client) *ItunesService {
	if baseURL == "" {
		baseURL = defaultItunesBaseURL
	}
	if country == nil {
		country = StaticCountry("")
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &ItunesService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		country:    country,
		httpClient: client,
	}
}

// Name returns the service name.
func (s *ItunesService) Name() string {
	return "iTunes"
}

// Search finds songs matching term.
//
// Calls GET /search?term={term}&entity=song&limit={limit}&country={cc}.
func (s *ItunesService) Search(ctx context.Context, term string, limit int) (*ItunesSearchResponse, error) {
	params := url.Values{}
	params.Set("term", term)
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("country", s.country.Current())

	var result ItunesSearchResponse
	if err := getJSON(ctx, s.httpClient, s.baseURL+"/search?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChartURL builds the top songs feed URL for opts.
func (s *ItunesService) ChartURL(opts ChartOpts) string {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultChartLimit
	}

	genre := ""
	if opts.Genre != "" {
		genre = "/genre=" + url.PathEscape(opts.Genre)
	}

	return fmt.Sprintf("%s/%s/rss/topsongs/limit=%d%s/json", s.baseURL, s.country.Current(), limit, genre)
}

// Chart fetches the top songs feed.
func (s *ItunesService) Chart(ctx context.Context, opts ChartOpts) (*ChartFeed, error) {
	var feed ChartFeed
	if err := getJSON(ctx, s.httpClient, s.ChartURL(opts), &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}
