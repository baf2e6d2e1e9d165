package services

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"kalyana/internal/models"
	"kalyana/internal/repositories"
	"kalyana/internal/utils"
)

const DefaultRadiusKm = 8.0

// ParseRadius reads a radius in km, falling back to DefaultRadiusKm for
// empty, unparsable or non-finite input.
func ParseRadius(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultRadiusKm
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultRadiusKm
	}
	return v
}

// Match keeps the candidates within radiusKm of the receiver location, nearest first.
// It returns (empty, nil) when the receiver location cannot be resolved.
func Match(ctx context.Context, geo Geocoder, candidates []models.Surplus, receiverQuery string, radiusKm float64) ([]models.MatchedSurplus, *models.GeoPoint) {
	matched := []models.MatchedSurplus{}
	point, ok := geo.Resolve(ctx, receiverQuery)
	if !ok {
		return matched, nil
	}

	for _, c := range candidates {
		if !c.HasCoordinates() {
			continue
		}
		d := utils.HaversineKm(point.Lat, point.Lon, *c.Latitude, *c.Longitude)
		if d <= radiusKm {
			matched = append(matched, models.MatchedSurplus{Surplus: c, DistanceKm: d})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].DistanceKm < matched[j].DistanceKm
	})
	return matched, point
}

type MatchingService struct {
	surplus        repositories.SurplusRepository
	geo            Geocoder
	candidateLimit int
}

func NewMatchingService(surplus repositories.SurplusRepository, geo Geocoder, candidateLimit int) *MatchingService {
	return &MatchingService{surplus: surplus, geo: geo, candidateLimit: candidateLimit}
}

// Nearby matches available batches against the receiver location.
// An empty location yields no results without a lookup.
func (s *MatchingService) Nearby(ctx context.Context, actor Actor, receiverQuery string, radiusKm float64) ([]models.MatchedSurplus, *models.GeoPoint, error) {
	if err := actor.require(models.RoleNGO); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(receiverQuery) == "" {
		return []models.MatchedSurplus{}, nil, nil
	}
	candidates, err := s.surplus.ListByStatus(ctx, models.SurplusAvailable, s.candidateLimit)
	if err != nil {
		return nil, nil, err
	}
	matched, point := Match(ctx, s.geo, candidates, receiverQuery, radiusKm)
	return matched, point, nil
}
