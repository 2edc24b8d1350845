package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/duotrip/duotrip/internal/models"
)

// DefaultOverpassURL is the public Overpass API interpreter endpoint.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// DefaultRadius is the search radius in meters when the caller gives none.
const DefaultRadius = 1500

// maxResults caps the elements Overpass returns per query.
const maxResults = 40

// categoryTags maps a search category to its OpenStreetMap tag.
var categoryTags = map[string]string{
	"restaurant":  "amenity=restaurant",
	"cafe":        "amenity=cafe",
	"museum":      "tourism=museum",
	"attraction":  "tourism=attraction",
	"supermarket": "shop=supermarket",
	"bar":         "amenity=bar",
	"viewpoint":   "tourism=viewpoint",
}

// PlaceCategories lists the supported search categories.
func PlaceCategories() []string {
	out := make([]string, 0, len(categoryTags))
	for c := range categoryTags {
		out = append(out, c)
	}
	return out
}

// Client queries the Overpass API for points of interest.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the given interpreter URL.
// Overpass queries carry a server-side 25 s timeout; the HTTP client allows
// a little extra for transfer.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultOverpassURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// overpassResponse is the subset of the Overpass JSON output we read.
type overpassResponse struct {
	Elements []struct {
		ID     int64   `json:"id"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Search finds POIs of the category within radius meters of (lat, lng).
// Unknown categories fail validation; transport and provider failures wrap
// models.ErrNetwork so callers know they may retry.
func (c *Client) Search(ctx context.Context, lat, lng float64, category string, radius int) ([]models.Place, error) {
	tag, ok := categoryTags[category]
	if !ok {
		return nil, fmt.Errorf("%w: unknown place category %q", models.ErrValidation, category)
	}
	if radius <= 0 {
		radius = DefaultRadius
	}

	key, value, _ := strings.Cut(tag, "=")
	query := fmt.Sprintf(`
[out:json][timeout:25];
(
  node[%q=%q](around:%d,%f,%f);
  way[%q=%q](around:%d,%f,%f);
);
out body center %d;
`, key, value, radius, lat, lng, key, value, radius, lat, lng, maxResults)

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: overpass request failed: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: overpass returned status %d", models.ErrNetwork, resp.StatusCode)
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode overpass response: %v", models.ErrNetwork, err)
	}

	places := make([]models.Place, 0, len(decoded.Elements))
	for _, el := range decoded.Elements {
		plat, plng := el.Lat, el.Lon
		if plat == 0 && plng == 0 && el.Center != nil {
			plat, plng = el.Center.Lat, el.Center.Lon
		}
		// Ways without a computed center carry no usable position.
		if plat == 0 && plng == 0 {
			continue
		}

		name := el.Tags["name"]
		if name == "" {
			name = "Unnamed"
		}
		places = append(places, models.Place{
			ID:           strconv.FormatInt(el.ID, 10),
			Name:         name,
			Lat:          plat,
			Lng:          plng,
			OpeningHours: el.Tags["opening_hours"],
			Phone:        el.Tags["phone"],
			Website:      el.Tags["website"],
			Cuisine:      el.Tags["cuisine"],
			Category:     category,
		})
	}
	return places, nil
}

// Finder composes the Overpass client with the geo query cache.
type Finder struct {
	client *Client
	cache  *Cache
}

// NewFinder creates a Finder over the given client and cache.
func NewFinder(client *Client, cache *Cache) *Finder {
	return &Finder{client: client, cache: cache}
}

// Nearby returns POIs for the category around (lat, lng), serving repeated
// queries from the same ~110 m grid cell out of the cache within the TTL.
func (f *Finder) Nearby(ctx context.Context, lat, lng float64, category string, radius int) ([]models.Place, error) {
	if cached, ok := f.cache.Get(lat, lng, category); ok {
		return cached, nil
	}

	results, err := f.client.Search(ctx, lat, lng, category, radius)
	if err != nil {
		return nil, err
	}

	f.cache.Put(lat, lng, category, results)
	return results, nil
}
