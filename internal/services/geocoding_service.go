package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/logger"

	"kalyana/internal/cache"
	"kalyana/internal/config"
	"kalyana/internal/models"
)

const (
	defaultSuggestLimit = 6
	maxSuggestLimit     = 10
)

// Geocoder resolves free-text place names.
type Geocoder interface {
	Resolve(ctx context.Context, query string) (*models.GeoPoint, bool)
	Suggest(ctx context.Context, partial string, limit int) []string
}

// GeocodingService talks to a Nominatim-compatible /search endpoint.
// Failures are never surfaced: Resolve reports not found and Suggest returns nothing.
type GeocodingService struct {
	baseURL      string
	countryCodes string
	userAgent    string
	client       *http.Client
	cache        *cache.LRU[string, models.GeoPoint]
}

func NewGeocodingService(cfg config.GeocodingConfig) *GeocodingService {
	return &GeocodingService{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		countryCodes: cfg.CountryCodes,
		userAgent:    cfg.UserAgent,
		client:       &http.Client{Timeout: cfg.Timeout()},
		cache:        cache.NewLRU[string, models.GeoPoint](cfg.CacheSize),
	}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Resolve returns the top match for query. Only successful lookups are cached,
// keyed by the query exactly as given.
func (s *GeocodingService) Resolve(ctx context.Context, query string) (*models.GeoPoint, bool) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, false
	}
	if p, ok := s.cache.Get(query); ok {
		return &p, true
	}

	places, ok := s.search(ctx, trimmed, 1)
	if !ok || len(places) == 0 {
		return nil, false
	}

	top := places[0]
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(top.Lat), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(top.Lon), 64)
	if errLat != nil || errLon != nil {
		logger.Warningf("[geocode][resolve] bad coordinates q=%q lat=%q lon=%q", trimmed, top.Lat, top.Lon)
		return nil, false
	}

	p := models.GeoPoint{DisplayName: top.DisplayName, Lat: lat, Lon: lon}
	if p.DisplayName == "" {
		p.DisplayName = trimmed
	}
	s.cache.Add(query, p)
	return &p, true
}

// Suggest returns up to limit distinct display names for a partial query.
// Duplicates are detected case-insensitively; the first spelling wins.
func (s *GeocodingService) Suggest(ctx context.Context, partial string, limit int) []string {
	out := []string{}
	query := strings.TrimSpace(partial)
	if query == "" {
		return out
	}
	if limit <= 0 {
		limit = defaultSuggestLimit
	}
	ask := limit
	if ask > maxSuggestLimit {
		ask = maxSuggestLimit
	}

	places, ok := s.search(ctx, query, ask)
	if !ok {
		return out
	}

	seen := make(map[string]struct{}, len(places))
	for _, p := range places {
		if p.DisplayName == "" {
			continue
		}
		key := strings.ToLower(p.DisplayName)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p.DisplayName)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (s *GeocodingService) search(ctx context.Context, query string, limit int) ([]nominatimPlace, bool) {
	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(limit)},
	}
	if s.countryCodes != "" {
		params.Set("countrycodes", s.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		logger.Errorf("[geocode][search] build request: %v", err)
		return nil, false
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warningf("[geocode][search] q=%q transport error: %v", query, err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warningf("[geocode][search] q=%q status=%d", query, resp.StatusCode)
		return nil, false
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		logger.Warningf("[geocode][search] q=%q decode: %v", query, err)
		return nil, false
	}
	return places, true
}
