package models

// GeoPoint is a resolved place; it is never persisted.
type GeoPoint struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}
