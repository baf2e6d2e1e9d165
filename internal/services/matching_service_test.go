package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"kalyana/internal/models"
)

// kmPerDegree is one degree of latitude on a sphere of radius 6371 km.
const kmPerDegree = 111.19492664455873

func batchAtKm(id int, km float64) models.Surplus {
	lat := km / kmPerDegree
	lon := 0.0
	return models.Surplus{ID: id, Status: models.SurplusAvailable, Latitude: &lat, Longitude: &lon}
}

func TestMatchFiltersAndSortsByDistance(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]models.GeoPoint{
		"Receiver": {DisplayName: "Receiver", Lat: 0, Lon: 0},
	}}
	candidates := []models.Surplus{
		batchAtKm(1, 2.0),
		batchAtKm(2, 7.9),
		batchAtKm(3, 8.1),
		batchAtKm(4, 3.0),
		{ID: 5, Status: models.SurplusAvailable},
	}

	matched, point := Match(context.Background(), geo, candidates, "Receiver", 8)
	require.NotNil(t, point)
	require.Len(t, matched, 3)

	ids := []int{matched[0].ID, matched[1].ID, matched[2].ID}
	require.Equal(t, []int{1, 4, 2}, ids)
	require.InDelta(t, 2.0, matched[0].DistanceKm, 1e-6)
	require.InDelta(t, 3.0, matched[1].DistanceKm, 1e-6)
	require.InDelta(t, 7.9, matched[2].DistanceKm, 1e-6)
}

func TestMatchKeepsInputOrderForEqualDistances(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]models.GeoPoint{"Receiver": {}}}
	candidates := []models.Surplus{batchAtKm(10, 1), batchAtKm(11, 1), batchAtKm(12, 1)}

	matched, _ := Match(context.Background(), geo, candidates, "Receiver", 5)
	require.Len(t, matched, 3)
	require.Equal(t, 10, matched[0].ID)
	require.Equal(t, 11, matched[1].ID)
	require.Equal(t, 12, matched[2].ID)
}

func TestMatchUnresolvedLocation(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]models.GeoPoint{}}
	matched, point := Match(context.Background(), geo, []models.Surplus{batchAtKm(1, 1)}, "Nowhere", 8)
	require.Nil(t, point)
	require.NotNil(t, matched)
	require.Empty(t, matched)
}

func TestMatchZeroRadiusKeepsExactSpot(t *testing.T) {
	geo := &fakeGeocoder{places: map[string]models.GeoPoint{"Receiver": {}}}
	matched, _ := Match(context.Background(), geo, []models.Surplus{batchAtKm(1, 0), batchAtKm(2, 0.5)}, "Receiver", 0)
	require.Len(t, matched, 1)
	require.Equal(t, 1, matched[0].ID)
}

func TestParseRadius(t *testing.T) {
	require.Equal(t, DefaultRadiusKm, ParseRadius(""))
	require.Equal(t, DefaultRadiusKm, ParseRadius("  "))
	require.Equal(t, DefaultRadiusKm, ParseRadius("far"))
	require.Equal(t, DefaultRadiusKm, ParseRadius("NaN"))
	require.Equal(t, DefaultRadiusKm, ParseRadius("Inf"))
	require.Equal(t, 12.5, ParseRadius(" 12.5 "))
}

func TestNearbyOnlyAvailableBatches(t *testing.T) {
	db := newMemDB()
	ngo := db.addUser("Helping Hands", models.RoleNGO, "")
	near := batchAtKm(0, 1)
	db.addSurplus(near)
	pending := batchAtKm(0, 1)
	pending.Status = models.SurplusPending
	db.addSurplus(pending)

	geo := &fakeGeocoder{places: map[string]models.GeoPoint{"Receiver": {}}}
	svc := NewMatchingService(memSurplus{db}, geo, 100)

	matched, point, err := svc.Nearby(context.Background(), Actor{UserID: ngo.ID, Role: models.RoleNGO}, "Receiver", 8)
	require.NoError(t, err)
	require.NotNil(t, point)
	require.Len(t, matched, 1)
	require.Equal(t, models.SurplusAvailable, matched[0].Status)
}

func TestNearbyEmptyQuerySkipsLookup(t *testing.T) {
	db := newMemDB()
	geo := &fakeGeocoder{places: map[string]models.GeoPoint{}}
	svc := NewMatchingService(memSurplus{db}, geo, 100)

	matched, point, err := svc.Nearby(context.Background(), Actor{UserID: 1, Role: models.RoleNGO}, "  ", 8)
	require.NoError(t, err)
	require.Nil(t, point)
	require.Empty(t, matched)
	require.Zero(t, geo.calls)
}

func TestNearbyRequiresNGO(t *testing.T) {
	svc := NewMatchingService(memSurplus{newMemDB()}, &fakeGeocoder{}, 100)
	_, _, err := svc.Nearby(context.Background(), Actor{UserID: 1, Role: models.RoleProvider}, "Receiver", 8)
	require.ErrorIs(t, err, ErrForbiddenRole)
}
