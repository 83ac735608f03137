// Package geo holds great-circle distance and bounding-region helpers.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
)

const EarthRadiusKm = 6371.0

const deg2rad = math.Pi / 180.0

// DistanceKm computes the haversine great-circle distance between a and b.
func DistanceKm(a, b model.Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * deg2rad
	dLng := (b.Lng - a.Lng) * deg2rad
	lat1 := a.Lat * deg2rad
	lat2 := b.Lat * deg2rad

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// Region is a lng/lat bounding box used for plausibility checks.
type Region struct {
	MinLng, MinLat float64
	MaxLng, MaxLat float64
}

// Mongolia is the default plausibility region for the service's home country.
var Mongolia = Region{MinLng: 87.7, MinLat: 41.5, MaxLng: 119.9, MaxLat: 52.2}

func (r Region) Contains(c model.Coordinate) bool {
	return c.Lat >= r.MinLat && c.Lat <= r.MaxLat && c.Lng >= r.MinLng && c.Lng <= r.MaxLng
}

func (r Region) String() string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", r.MinLng, r.MinLat, r.MaxLng, r.MaxLat)
}

// ParseRegion reads "minLng,minLat,maxLng,maxLat".
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, errors.New("expected 4 comma-separated values: minLng,minLat,maxLng,maxLat")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("value %d: %w", i, err)
		}
		v[i] = f
	}
	r := Region{MinLng: v[0], MinLat: v[1], MaxLng: v[2], MaxLat: v[3]}
	if !(r.MinLng >= -180 && r.MaxLng <= 180) {
		return Region{}, errors.New("longitude must be in [-180,180]")
	}
	if !(r.MinLat >= -90 && r.MaxLat <= 90) {
		return Region{}, errors.New("latitude must be in [-90,90]")
	}
	if r.MaxLng <= r.MinLng || r.MaxLat <= r.MinLat {
		return Region{}, errors.New("coordinates must satisfy max>min")
	}
	return r, nil
}

// ParseCoordinate reads a strict "lat,lng" pair and rejects out-of-range values.
func ParseCoordinate(s string) (model.Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return model.Coordinate{}, errors.New("expected lat,lng")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("lat: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("lng: %w", err)
	}
	c := model.Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return model.Coordinate{}, fmt.Errorf("coordinate %s out of range", c)
	}
	return c, nil
}

// RoundKm rounds a distance to one decimal for display.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
