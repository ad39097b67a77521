// Package geo turns a filtered record set into map state: center, bounds and markers.
package geo

import (
	"math"

	"github.com/golang/geo/s2"

	"github.com/okian/bizmap/internal/domain/model"
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether lat/lon are finite and inside the WGS84 range.
func Valid(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return s2.LatLngFromDegrees(lat, lon).IsValid()
}

// PointOf returns the record's coordinate, if it has a usable one.
func PointOf(r model.Record) (Point, bool) {
	if !r.HasCoordinates() || !Valid(*r.Latitude, *r.Longitude) {
		return Point{}, false
	}
	return Point{Lat: *r.Latitude, Lon: *r.Longitude}, true
}

// Center is the arithmetic mean of latitude and of longitude over the
// records with coordinates. With none, it returns (fallback, false).
func Center(records []model.Record, fallback Point) (Point, bool) {
	var sumLat, sumLon float64
	n := 0
	for _, r := range records {
		p, ok := PointOf(r)
		if !ok {
			continue
		}
		sumLat += p.Lat
		sumLon += p.Lon
		n++
	}
	if n == 0 {
		return fallback, false
	}
	return Point{Lat: sumLat / float64(n), Lon: sumLon / float64(n)}, true
}

// Rect is a lat/lon bounding box in degrees.
type Rect struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Bounds returns the smallest box holding every record with coordinates.
func Bounds(records []model.Record) (Rect, bool) {
	rect := s2.EmptyRect()
	for _, r := range records {
		p, ok := PointOf(r)
		if !ok {
			continue
		}
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	if rect.IsEmpty() {
		return Rect{}, false
	}
	lo, hi := rect.Lo(), rect.Hi()
	return Rect{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}, true
}
