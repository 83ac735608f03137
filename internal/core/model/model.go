// Package model defines core domain types shared across the service.
package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both components are finite and inside geographic bounds.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

type Position struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Urgent      bool     `json:"urgent"`
	SalaryRange string   `json:"salaryRange"`
	Description string   `json:"description,omitempty"`
	StoreID     string   `json:"storeId,omitempty"`
	BranchName  string   `json:"branchName,omitempty"`
	Tags        []string `json:"requirements,omitempty"`
}

// Store is a hiring branch. Its coordinate is only present when it parsed cleanly,
// so HasValidCoordinates is derived and cannot be set independently.
type Store struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Positions []Position `json:"positions"`

	coord *Coordinate
}

func NewStore(id, name, address string, coord *Coordinate, positions []Position) Store {
	s := Store{ID: id, Name: name, Address: address, Positions: positions}
	if coord != nil && coord.Valid() {
		c := *coord
		s.coord = &c
	}
	return s
}

func (s Store) HasValidCoordinates() bool { return s.coord != nil }

// Coordinate returns the store location and whether it is usable.
func (s Store) Coordinate() (Coordinate, bool) {
	if s.coord == nil {
		return Coordinate{}, false
	}
	return *s.coord, true
}

type storeWire struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Address             string     `json:"address"`
	Lat                 *float64   `json:"lat,omitempty"`
	Lng                 *float64   `json:"lng,omitempty"`
	HasValidCoordinates bool       `json:"hasValidCoordinates"`
	Positions           []Position `json:"positions"`
}

func (s Store) MarshalJSON() ([]byte, error) {
	w := storeWire{ID: s.ID, Name: s.Name, Address: s.Address, Positions: s.Positions}
	if s.coord != nil {
		lat, lng := s.coord.Lat, s.coord.Lng
		w.Lat, w.Lng = &lat, &lng
		w.HasValidCoordinates = true
	}
	if w.Positions == nil {
		w.Positions = []Position{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON ignores hasValidCoordinates on input and derives it from lat/lng.
func (s *Store) UnmarshalJSON(b []byte) error {
	var w storeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode store: %w", err)
	}
	var c *Coordinate
	if w.Lat != nil && w.Lng != nil {
		c = &Coordinate{Lat: *w.Lat, Lng: *w.Lng}
	}
	*s = NewStore(w.ID, w.Name, w.Address, c, w.Positions)
	return nil
}

type RankedStore struct {
	Store Store `json:"store"`
	// nil when the store has no usable coordinate
	DistanceKm *float64 `json:"distanceKm"`
	Cell       string   `json:"h3Cell,omitempty"`
}

type Features struct {
	HasShiftPreferences        bool `json:"hasShiftPreferences"`
	RequiresExperience         bool `json:"requiresExperience"`
	HasUrgentPositions         bool `json:"hasUrgentPositions"`
	AllowsMultipleApplications bool `json:"allowsMultipleApplications"`
}

type Company struct {
	CompanyID         string   `json:"companyId"`
	BrandName         string   `json:"brandName"`
	Subdomain         string   `json:"subdomain"`
	BrandColor        string   `json:"brandColor"`
	BrandGradient     string   `json:"brandGradient"`
	PhotoURL          string   `json:"photoUrl,omitempty"`
	Description       string   `json:"description"`
	Advantages        []string `json:"companyAdvantages"`
	Benefits          []string `json:"companyBenefits"`
	Country           string   `json:"country"`
	MaxStoreSelection int      `json:"maxStoreSelection"`
	Features          Features `json:"features"`
}

// Source says where a data load came from.
type Source string

const (
	SourceAPI      Source = "api"
	SourceCache    Source = "cache"
	SourceFallback Source = "fallback"
)

// Catalog is one data load: a company and its stores.
type Catalog struct {
	Company Company `json:"company"`
	Stores  []Store `json:"stores"`
	Source  Source  `json:"source"`
}
