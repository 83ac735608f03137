// Package rank orders stores by great-circle distance from a reference point.
package rank

import (
	"slices"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/geo"
)

// Rank returns a new slice of all stores: coordinated stores first in ascending
// distance from ref, then uncoordinated stores in input order. The input is not
// modified and equal distances keep their input order.
func Rank(ref model.Coordinate, stores []model.Store) []model.RankedStore {
	out := make([]model.RankedStore, len(stores))
	for i, s := range stores {
		out[i] = model.RankedStore{Store: s}
		if c, ok := s.Coordinate(); ok {
			d := geo.DistanceKm(ref, c)
			out[i].DistanceKm = &d
		}
	}
	slices.SortStableFunc(out, compare)
	return out
}

func compare(a, b model.RankedStore) int {
	switch {
	case a.DistanceKm == nil && b.DistanceKm == nil:
		return 0
	case a.DistanceKm == nil:
		return 1
	case b.DistanceKm == nil:
		return -1
	case *a.DistanceKm < *b.DistanceKm:
		return -1
	case *a.DistanceKm > *b.DistanceKm:
		return 1
	}
	return 0
}

// Nearest returns the first n entries of the ranking; n <= 0 means all.
func Nearest(ref model.Coordinate, stores []model.Store, n int) []model.RankedStore {
	ranked := Rank(ref, stores)
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// Within keeps ranked stores no farther than km. Uncoordinated stores are kept when
// keepUnknown is set so the caller can still list them.
func Within(ranked []model.RankedStore, km float64, keepUnknown bool) []model.RankedStore {
	out := make([]model.RankedStore, 0, len(ranked))
	for _, r := range ranked {
		if r.DistanceKm == nil {
			if keepUnknown {
				out = append(out, r)
			}
			continue
		}
		if *r.DistanceKm <= km {
			out = append(out, r)
		}
	}
	return out
}

// Sorted reports whether ranked satisfies the ranking invariant.
func Sorted(ranked []model.RankedStore) bool {
	return slices.IsSortedFunc(ranked, compare)
}
