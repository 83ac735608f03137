package geo

import (
	"math"
	"testing"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
)

func almostEq(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got=%g want=%g (eps=%g)", got, want, eps)
	}
}

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	pts := []model.Coordinate{
		{Lat: 47.9187, Lng: 106.9177},
		{Lat: 0, Lng: 0},
		{Lat: -89.9, Lng: 179.9},
	}
	for _, p := range pts {
		if d := DistanceKm(p, p); d != 0 {
			t.Fatalf("DistanceKm(%v,%v)=%g want 0", p, p, d)
		}
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := model.Coordinate{Lat: 47.9187, Lng: 106.9177}
	b := model.Coordinate{Lat: 47.9356, Lng: 106.9894}
	almostEq(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
}

func TestDistanceKm_KnownPair(t *testing.T) {
	a := model.Coordinate{Lat: 47.9187, Lng: 106.9177}
	b := model.Coordinate{Lat: 47.9356, Lng: 106.9894}
	d := DistanceKm(a, b)
	if d < 5 || d > 6 {
		t.Fatalf("distance=%g want ~5.7km", d)
	}
}

func TestDistanceKm_MatchesH3GreatCircle(t *testing.T) {
	a := model.Coordinate{Lat: 47.9187, Lng: 106.9177}
	b := model.Coordinate{Lat: 49.4867, Lng: 105.9228}
	want := h3.GreatCircleDistanceKm(
		h3.LatLng{Lat: a.Lat, Lng: a.Lng},
		h3.LatLng{Lat: b.Lat, Lng: b.Lng},
	)
	// h3 uses a slightly different earth radius
	almostEq(t, DistanceKm(a, b), want, want*0.001)
}

func TestRegion_Contains(t *testing.T) {
	if !Mongolia.Contains(model.Coordinate{Lat: 47.9187, Lng: 106.9177}) {
		t.Fatal("Ulaanbaatar should be inside the default region")
	}
	// swapped lat/lng
	if Mongolia.Contains(model.Coordinate{Lat: 106.9177, Lng: 47.9187}) {
		t.Fatal("swapped coordinate should be outside")
	}
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("87.7, 41.5, 119.9, 52.2")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r != Mongolia {
		t.Fatalf("got %+v want %+v", r, Mongolia)
	}
	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "10,10,5,20", "-200,0,10,10"} {
		if _, err := ParseRegion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate("47.9187, 106.9177")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if c.Lat != 47.9187 || c.Lng != 106.9177 {
		t.Fatalf("got %+v", c)
	}
	for _, bad := range []string{"abc,def", "47.9", "91,10", "10,181", "NaN,1"} {
		if _, err := ParseCoordinate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRoundKm(t *testing.T) {
	if got := RoundKm(5.6789); got != 5.7 {
		t.Fatalf("got %g want 5.7", got)
	}
}
