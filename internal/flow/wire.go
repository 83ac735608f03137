package flow

import (
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/locate"
)

// WireEvent is the JSON form of an Event: a type tag plus the fields that
// event uses.
type WireEvent struct {
	Type       string            `json:"type" validate:"required"`
	Ticket     locate.Ticket     `json:"ticket,omitempty"`
	Coordinate *model.Coordinate `json:"coordinate,omitempty"`
	Kind       locate.ErrorKind  `json:"kind,omitempty"`
	Store      *StoreRef         `json:"store,omitempty"`
	Position   *model.Position   `json:"position,omitempty"`
}

// Event type tags.
const (
	TypeFindNearby         = "find_nearby"
	TypeLocationResolved   = "location_resolved"
	TypeLocationFailed     = "location_failed"
	TypeUseFallback        = "use_fallback"
	TypeManualLocation     = "manual_location"
	TypeOpenStore          = "open_store"
	TypeClosePositionModal = "close_position_modal"
	TypeSelectPosition     = "select_position"
	TypeClearSelection     = "clear_selection"
	TypeContinue           = "continue"
	TypeBack               = "back"
	TypeReset              = "reset"
)

// Event converts the wire form. fallback fills LocationFailed and UseFallback
// when no coordinate is given.
func (w WireEvent) Event(fallback model.Coordinate) (Event, error) {
	coord := func() (model.Coordinate, error) {
		if w.Coordinate == nil {
			return model.Coordinate{}, fmt.Errorf("event %q: coordinate is required", w.Type)
		}
		if !w.Coordinate.Valid() {
			return model.Coordinate{}, fmt.Errorf("event %q: coordinate %s out of range", w.Type, w.Coordinate)
		}
		return *w.Coordinate, nil
	}

	switch w.Type {
	case TypeFindNearby:
		if w.Ticket == 0 {
			return nil, fmt.Errorf("event %q: ticket is required", w.Type)
		}
		return FindNearby{Ticket: w.Ticket}, nil
	case TypeLocationResolved:
		c, err := coord()
		if err != nil {
			return nil, err
		}
		return LocationResolved{Ticket: w.Ticket, Coordinate: c}, nil
	case TypeLocationFailed:
		return LocationFailed{Ticket: w.Ticket, Kind: w.Kind, Fallback: w.fallback(fallback)}, nil
	case TypeUseFallback:
		return UseFallback{Coordinate: w.fallback(fallback)}, nil
	case TypeManualLocation:
		c, err := coord()
		if err != nil {
			return nil, err
		}
		return ManualLocation{Coordinate: c}, nil
	case TypeOpenStore:
		if w.Store == nil || w.Store.ID == "" {
			return nil, fmt.Errorf("event %q: store.id is required", w.Type)
		}
		return OpenStore{Store: *w.Store}, nil
	case TypeClosePositionModal:
		return ClosePositionModal{}, nil
	case TypeSelectPosition:
		if w.Position == nil || w.Position.ID == "" {
			return nil, fmt.Errorf("event %q: position.id is required", w.Type)
		}
		return SelectPosition{Position: *w.Position}, nil
	case TypeClearSelection:
		return ClearSelection{}, nil
	case TypeContinue:
		return Continue{}, nil
	case TypeBack:
		return Back{}, nil
	case TypeReset:
		return Reset{}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", w.Type)
}

// fallback prefers a valid event coordinate, then def when valid, else nil.
func (w WireEvent) fallback(def model.Coordinate) *model.Coordinate {
	if w.Coordinate != nil && w.Coordinate.Valid() {
		c := *w.Coordinate
		return &c
	}
	if def.Valid() {
		return &def
	}
	return nil
}

// DecodeEvent parses a JSON event.
func DecodeEvent(b []byte, fallback model.Coordinate) (Event, error) {
	var w WireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return w.Event(fallback)
}
