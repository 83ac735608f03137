package flow

import (
	"reflect"
	"testing"

	"github.com/mohammed-shakir/career-locator/internal/core/model"
	"github.com/mohammed-shakir/career-locator/internal/locate"
)

var (
	home    = model.Coordinate{Lat: 47.92, Lng: 106.93}
	cashier = model.Position{ID: "2003", Title: "Cashier", SalaryRange: "₮1,800,000", Urgent: true}
	branch  = StoreRef{ID: "1", Name: "Sukhbaatar Square"}
)

func run(s State, evs ...Event) State {
	for _, ev := range evs {
		s = Reduce(s, ev)
	}
	return s
}

func TestHappyPath_LandingToApply(t *testing.T) {
	s := run(Initial(),
		FindNearby{Ticket: 1},
		LocationResolved{Ticket: 1, Coordinate: home},
		OpenStore{Store: branch},
		SelectPosition{Position: cashier},
		Continue{},
	)
	if s.Step != StepApply {
		t.Fatalf("step=%s want apply", s.Step)
	}
	want := []Step{StepLanding, StepStores, StepApply}
	if !reflect.DeepEqual(s.History, want) {
		t.Fatalf("history=%v want %v", s.History, want)
	}
	if s.Selection == nil || s.Selection.StoreID != "1" || s.Selection.PositionID != "2003" {
		t.Fatalf("selection=%+v", s.Selection)
	}
	if s.LocationSource != locate.SourceDevice || *s.Location != home || s.Loading || s.Ticket != 0 {
		t.Fatalf("location state %+v", s)
	}
}

func TestStaleTicketIsIgnored(t *testing.T) {
	s := run(Initial(), FindNearby{Ticket: 1}, FindNearby{Ticket: 2})
	after := Reduce(s, LocationResolved{Ticket: 1, Coordinate: home})
	if after.Step != StepLanding || after.Location != nil || !after.Loading {
		t.Fatalf("stale result applied: %+v", after)
	}
	after = Reduce(after, LocationResolved{Ticket: 2, Coordinate: home})
	if after.Step != StepStores {
		t.Fatalf("current ticket rejected: %+v", after)
	}
	// a second delivery for the settled ticket is ignored too
	again := Reduce(after, LocationFailed{Ticket: 2, Kind: locate.Timeout})
	if again.LocationError != "" {
		t.Fatalf("late failure applied: %+v", again)
	}
}

func TestLocationFailed_OffersFallbackAndStays(t *testing.T) {
	s := run(Initial(), FindNearby{Ticket: 7}, LocationFailed{Ticket: 7, Kind: locate.PermissionDenied})
	if s.Step != StepLanding || s.Loading {
		t.Fatalf("step=%s loading=%v want landing,false", s.Step, s.Loading)
	}
	if s.LocationError != "permission_denied" {
		t.Fatalf("error=%q", s.LocationError)
	}
	if s.Location == nil || *s.Location != locate.DefaultFallback || s.LocationSource != locate.SourceFallback {
		t.Fatalf("fallback not offered: %+v", s)
	}

	s = Reduce(s, UseFallback{})
	if s.Step != StepStores || *s.Location != locate.DefaultFallback {
		t.Fatalf("use fallback got %+v", s)
	}
}

func TestFallbackEvents_ZeroValueUsesDefault(t *testing.T) {
	s := Reduce(Initial(), UseFallback{})
	if s.Step != StepStores || s.Location == nil || *s.Location != locate.DefaultFallback {
		t.Fatalf("UseFallback{} got %+v want default fallback", s)
	}

	s = run(Initial(), FindNearby{Ticket: 1}, LocationFailed{Ticket: 1, Kind: locate.Timeout})
	if s.Location == nil || *s.Location != locate.DefaultFallback {
		t.Fatalf("LocationFailed without fallback got %v want %v", s.Location, locate.DefaultFallback)
	}

	offered := model.Coordinate{Lat: 49.486, Lng: 105.922}
	s = run(Initial(), FindNearby{Ticket: 2}, LocationFailed{Ticket: 2, Kind: locate.Timeout, Fallback: &offered}, UseFallback{})
	if s.Step != StepStores || *s.Location != offered {
		t.Fatalf("UseFallback{} after offer got %v want %v", s.Location, offered)
	}
}

func TestManualLocation_CancelsInFlightRequest(t *testing.T) {
	s := run(Initial(), FindNearby{Ticket: 3}, ManualLocation{Coordinate: home})
	if s.Step != StepStores || s.LocationSource != locate.SourceManual || s.Loading {
		t.Fatalf("manual got %+v", s)
	}
	late := Reduce(s, LocationResolved{Ticket: 3, Coordinate: model.Coordinate{Lat: 1, Lng: 1}})
	if *late.Location != home {
		t.Fatalf("late device fix overrode manual location: %v", late.Location)
	}

	bad := Reduce(Initial(), ManualLocation{Coordinate: model.Coordinate{Lat: 91}})
	if bad.Step != StepLanding || bad.Location != nil {
		t.Fatalf("invalid manual coordinate accepted: %+v", bad)
	}
}

func TestSelectPosition_SingleSelectionReplaces(t *testing.T) {
	other := StoreRef{ID: "2", Name: "Zaisan"}
	s := run(Initial(),
		ManualLocation{Coordinate: home},
		OpenStore{Store: branch},
		SelectPosition{Position: cashier},
		OpenStore{Store: other},
		SelectPosition{Position: model.Position{ID: "9", Title: "Stocker"}},
	)
	if s.Selection.StoreID != "2" || s.Selection.PositionID != "9" {
		t.Fatalf("selection=%+v want replaced", s.Selection)
	}
	if s.ShowPositionModal || s.CurrentStore != nil {
		t.Fatalf("modal left open: %+v", s)
	}
}

func TestSelectPosition_RequiresOpenStore(t *testing.T) {
	s := run(Initial(), ManualLocation{Coordinate: home}, SelectPosition{Position: cashier})
	if s.Selection != nil {
		t.Fatalf("selection without open store: %+v", s.Selection)
	}
}

func TestContinue_RequiresSelection(t *testing.T) {
	s := run(Initial(), ManualLocation{Coordinate: home}, Continue{})
	if s.Step != StepStores {
		t.Fatalf("step=%s want stores", s.Step)
	}
	s = run(s, OpenStore{Store: branch}, SelectPosition{Position: cashier}, ClearSelection{}, Continue{})
	if s.Step != StepStores {
		t.Fatalf("continued after clearing selection: %s", s.Step)
	}
}

func TestBack_NeverPastLanding(t *testing.T) {
	s := Reduce(Initial(), Back{})
	if s.Step != StepLanding || len(s.History) != 1 {
		t.Fatalf("back on landing got %+v", s)
	}

	s = run(Initial(), ManualLocation{Coordinate: home}, OpenStore{Store: branch}, SelectPosition{Position: cashier}, Continue{})
	s = Reduce(s, Back{})
	if s.Step != StepStores || len(s.History) != 2 {
		t.Fatalf("back from apply got step=%s history=%v", s.Step, s.History)
	}
	if s.Selection == nil {
		t.Fatal("back must keep the selection")
	}
	s = run(s, Back{}, Back{}, Back{})
	if s.Step != StepLanding || !reflect.DeepEqual(s.History, []Step{StepLanding}) {
		t.Fatalf("repeated back got %+v", s)
	}
}

func TestBack_ClosesModalAndCancelsRequest(t *testing.T) {
	s := run(Initial(), ManualLocation{Coordinate: home}, OpenStore{Store: branch}, FindNearby{Ticket: 4})
	s = Reduce(s, Back{})
	if s.ShowPositionModal || s.CurrentStore != nil || s.Loading || s.Ticket != 0 {
		t.Fatalf("back left transient state: %+v", s)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	s := run(Initial(), ManualLocation{Coordinate: home})
	before := append([]Step(nil), s.History...)
	_ = run(s, OpenStore{Store: branch}, SelectPosition{Position: cashier}, Continue{})
	if !reflect.DeepEqual(s.History, before) || s.Selection != nil {
		t.Fatalf("input state mutated: %+v", s)
	}
}

func TestReset(t *testing.T) {
	s := run(Initial(), ManualLocation{Coordinate: home}, Reset{})
	if !reflect.DeepEqual(s, Initial()) {
		t.Fatalf("reset got %+v", s)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(State{Step: "bogus"})
	if !reflect.DeepEqual(got, Initial()) {
		t.Fatalf("bogus step got %+v", got)
	}
	got = Normalize(State{Step: StepStores, History: []Step{"x", StepStores}})
	if !reflect.DeepEqual(got.History, []Step{StepLanding, StepStores}) {
		t.Fatalf("history got %v", got.History)
	}
	got = Normalize(State{Step: StepApply})
	if !reflect.DeepEqual(got.History, []Step{StepLanding, StepApply}) {
		t.Fatalf("history got %v", got.History)
	}
}

func TestDecodeEvent(t *testing.T) {
	fallback := locate.DefaultFallback
	cases := []struct {
		in   string
		want Event
	}{
		{`{"type":"find_nearby","ticket":5}`, FindNearby{Ticket: 5}},
		{`{"type":"location_resolved","ticket":5,"coordinate":{"lat":47.92,"lng":106.93}}`, LocationResolved{Ticket: 5, Coordinate: home}},
		{`{"type":"location_failed","ticket":5,"kind":"timeout"}`, LocationFailed{Ticket: 5, Kind: locate.Timeout, Fallback: &fallback}},
		{`{"type":"use_fallback"}`, UseFallback{Coordinate: &fallback}},
		{`{"type":"use_fallback","coordinate":{"lat":47.92,"lng":106.93}}`, UseFallback{Coordinate: &home}},
		{`{"type":"open_store","store":{"id":"1","name":"Sukhbaatar Square"}}`, OpenStore{Store: branch}},
		{`{"type":"back"}`, Back{}},
	}
	for _, tc := range cases {
		got, err := DecodeEvent([]byte(tc.in), locate.DefaultFallback)
		if err != nil {
			t.Fatalf("DecodeEvent(%s): %v", tc.in, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("DecodeEvent(%s) = %#v want %#v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{
		`{"type":"teleport"}`,
		`{"type":"find_nearby"}`,
		`{"type":"manual_location","coordinate":{"lat":95,"lng":0}}`,
		`{"type":"manual_location"}`,
		`{"type":"select_position","position":{}}`,
		`not json`,
	} {
		if _, err := DecodeEvent([]byte(bad), locate.DefaultFallback); err == nil {
			t.Fatalf("DecodeEvent(%s) accepted", bad)
		}
	}
}
