// Package flow is the career-page step machine: a pure reducer over
// (State, Event) with a navigation history.
package flow

import (
	"slices"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/locate"
)

type Step string

const (
	StepLanding        Step = "landing"
	StepStores         Step = "stores"
	StepPositionSelect Step = "position-select"
	StepApply          Step = "apply"
)

func (s Step) Valid() bool {
	switch s {
	case StepLanding, StepStores, StepPositionSelect, StepApply:
		return true
	}
	return false
}

type StoreRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Selection is the single chosen store + position.
type Selection struct {
	StoreID       string `json:"storeId"`
	StoreName     string `json:"storeName"`
	PositionID    string `json:"positionId"`
	PositionTitle string `json:"positionTitle"`
	SalaryRange   string `json:"salaryRange,omitempty"`
	Urgent        bool   `json:"urgent"`
}

type State struct {
	Step              Step              `json:"step"`
	History           []Step            `json:"history"`
	Location          *model.Coordinate `json:"location,omitempty"`
	LocationSource    locate.Source     `json:"locationSource,omitempty"`
	LocationError     string            `json:"locationError,omitempty"`
	CurrentStore      *StoreRef         `json:"currentStore,omitempty"`
	ShowPositionModal bool              `json:"showPositionModal"`
	Selection         *Selection        `json:"selection,omitempty"`
	Loading           bool              `json:"loading"`
	// generation of the in-flight location request, 0 when none
	Ticket locate.Ticket `json:"ticket,omitempty"`
}

func Initial() State {
	return State{Step: StepLanding, History: []Step{StepLanding}}
}

// Normalize repairs a state received from outside: unknown steps reset to
// landing and the history always ends at the current step.
func Normalize(s State) State {
	if !s.Step.Valid() {
		return Initial()
	}
	h := make([]Step, 0, len(s.History)+1)
	for _, st := range s.History {
		if st.Valid() {
			h = append(h, st)
		}
	}
	if len(h) == 0 || h[0] != StepLanding {
		h = append([]Step{StepLanding}, h...)
	}
	if h[len(h)-1] != s.Step {
		h = append(h, s.Step)
	}
	s.History = h
	return s
}

type Event interface{ isEvent() }

// FindNearby starts a location request under ticket.
type FindNearby struct{ Ticket locate.Ticket }

type LocationResolved struct {
	Ticket     locate.Ticket
	Coordinate model.Coordinate
}

// LocationFailed records the failure and offers Fallback; the step is kept so
// the visitor can choose the fallback or a manual location. A nil or invalid
// Fallback means locate.DefaultFallback.
type LocationFailed struct {
	Ticket   locate.Ticket
	Kind     locate.ErrorKind
	Fallback *model.Coordinate
}

// UseFallback continues with Coordinate, or with the fallback already offered
// by LocationFailed, or with locate.DefaultFallback.
type UseFallback struct{ Coordinate *model.Coordinate }

type ManualLocation struct{ Coordinate model.Coordinate }

type OpenStore struct{ Store StoreRef }

type ClosePositionModal struct{}

type SelectPosition struct{ Position model.Position }

type ClearSelection struct{}

type Continue struct{}

type Back struct{}

type Reset struct{}

func (FindNearby) isEvent()         {}
func (LocationResolved) isEvent()   {}
func (LocationFailed) isEvent()     {}
func (UseFallback) isEvent()        {}
func (ManualLocation) isEvent()     {}
func (OpenStore) isEvent()          {}
func (ClosePositionModal) isEvent() {}
func (SelectPosition) isEvent()     {}
func (ClearSelection) isEvent()     {}
func (Continue) isEvent()           {}
func (Back) isEvent()               {}
func (Reset) isEvent()              {}

// Reduce returns the next state. s is never modified; events that do not
// apply to the current state return it unchanged.
func Reduce(s State, ev Event) State {
	next := s
	next.History = slices.Clone(s.History)
	if len(next.History) == 0 {
		next.History = []Step{next.Step}
	}

	switch e := ev.(type) {
	case FindNearby:
		if e.Ticket == 0 {
			return s
		}
		next.Loading = true
		next.LocationError = ""
		next.Ticket = e.Ticket

	case LocationResolved:
		if !next.accepts(e.Ticket) || !e.Coordinate.Valid() {
			return s
		}
		next.settle()
		next.setLocation(e.Coordinate, locate.SourceDevice)
		next.navigate(StepStores)

	case LocationFailed:
		if !next.accepts(e.Ticket) {
			return s
		}
		next.settle()
		next.LocationError = e.Kind.String()
		fb := locate.DefaultFallback
		if e.Fallback != nil && e.Fallback.Valid() {
			fb = *e.Fallback
		}
		next.setLocation(fb, locate.SourceFallback)

	case UseFallback:
		c := locate.DefaultFallback
		switch {
		case e.Coordinate != nil && e.Coordinate.Valid():
			c = *e.Coordinate
		case next.LocationSource == locate.SourceFallback && next.Location != nil:
			c = *next.Location
		}
		next.settle()
		next.setLocation(c, locate.SourceFallback)
		next.navigate(StepStores)

	case ManualLocation:
		if !e.Coordinate.Valid() {
			return s
		}
		next.settle()
		next.LocationError = ""
		next.setLocation(e.Coordinate, locate.SourceManual)
		next.navigate(StepStores)

	case OpenStore:
		if next.Step != StepStores && next.Step != StepPositionSelect {
			return s
		}
		st := e.Store
		next.CurrentStore = &st
		next.ShowPositionModal = true

	case ClosePositionModal:
		next.ShowPositionModal = false
		next.CurrentStore = nil

	case SelectPosition:
		if next.CurrentStore == nil {
			return s
		}
		next.Selection = &Selection{
			StoreID:       next.CurrentStore.ID,
			StoreName:     next.CurrentStore.Name,
			PositionID:    e.Position.ID,
			PositionTitle: e.Position.Title,
			SalaryRange:   e.Position.SalaryRange,
			Urgent:        e.Position.Urgent,
		}
		next.ShowPositionModal = false
		next.CurrentStore = nil

	case ClearSelection:
		next.Selection = nil

	case Continue:
		if next.Selection == nil {
			return s
		}
		switch next.Step {
		case StepStores, StepPositionSelect:
			next.navigate(StepApply)
		default:
			return s
		}

	case Back:
		if len(next.History) <= 1 {
			return s
		}
		next.History = next.History[:len(next.History)-1]
		next.Step = next.History[len(next.History)-1]
		next.ShowPositionModal = false
		next.CurrentStore = nil
		next.settle()

	case Reset:
		return Initial()

	default:
		return s
	}
	return next
}

func (s *State) accepts(tk locate.Ticket) bool {
	return s.Loading && tk != 0 && tk == s.Ticket
}

// settle ends any in-flight request; late results for it are then ignored.
func (s *State) settle() {
	s.Loading = false
	s.Ticket = 0
}

func (s *State) setLocation(c model.Coordinate, src locate.Source) {
	s.Location = &c
	s.LocationSource = src
}

func (s *State) navigate(step Step) {
	if s.Step == step {
		return
	}
	s.History = append(s.History, step)
	s.Step = step
}
