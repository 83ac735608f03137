// Package h3mapper indexes store locations on the H3 grid for map clustering.
package h3mapper

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
)

type Mapper struct {
	res int
}

func New(res int) (*Mapper, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	return &Mapper{res: res}, nil
}

func (m *Mapper) Resolution() int { return m.res }

// CellFor returns the H3 index of c at the mapper resolution.
func (m *Mapper) CellFor(c model.Coordinate) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("invalid coordinate %s", c)
	}
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.Lat, Lng: c.Lng}, m.res)
	if err != nil {
		return "", fmt.Errorf("h3 index: %w", err)
	}
	return cell.String(), nil
}

// Annotate returns a copy of ranked with the cell of every coordinated store
// filled in. Order and distances are untouched.
func (m *Mapper) Annotate(ranked []model.RankedStore) []model.RankedStore {
	out := make([]model.RankedStore, len(ranked))
	copy(out, ranked)
	for i := range out {
		c, ok := out[i].Store.Coordinate()
		if !ok {
			continue
		}
		if cell, err := m.CellFor(c); err == nil {
			out[i].Cell = cell
		}
	}
	return out
}

// Cluster is a group of stores sharing a parent cell.
type Cluster struct {
	Cell     string           `json:"cell"`
	Center   model.Coordinate `json:"center"`
	Count    int              `json:"count"`
	StoreIDs []string         `json:"storeIds"`
}

// Clusters groups annotated stores under their parent at parentRes. Largest
// clusters come first; ties are ordered by cell for determinism.
func (m *Mapper) Clusters(ranked []model.RankedStore, parentRes int) ([]Cluster, error) {
	if err := validateRes(parentRes); err != nil {
		return nil, err
	}
	if parentRes > m.res {
		parentRes = m.res
	}

	byCell := make(map[string]*Cluster)
	for _, rs := range ranked {
		if rs.Cell == "" {
			continue
		}
		parent, err := ToParent(rs.Cell, parentRes)
		if err != nil {
			return nil, err
		}
		cl, ok := byCell[parent]
		if !ok {
			center, err := cellCenter(parent)
			if err != nil {
				return nil, err
			}
			cl = &Cluster{Cell: parent, Center: center}
			byCell[parent] = cl
		}
		cl.Count++
		cl.StoreIDs = append(cl.StoreIDs, rs.Store.ID)
	}

	out := make([]Cluster, 0, len(byCell))
	for _, cl := range byCell {
		out = append(out, *cl)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Cell < out[j].Cell
	})
	return out, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func parseCell(cell string) (h3.Cell, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return 0, fmt.Errorf("parse cell: %w", err)
	}
	if !c.IsValid() {
		return 0, fmt.Errorf("invalid h3 cell %q", cell)
	}
	return c, nil
}

func cellCenter(cell string) (model.Coordinate, error) {
	c, err := parseCell(cell)
	if err != nil {
		return model.Coordinate{}, err
	}
	ll, err := h3.CellToLatLng(c)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("h3 center: %w", err)
	}
	return model.Coordinate{Lat: ll.Lat, Lng: ll.Lng}, nil
}
