package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammed-shakir/career-locator/internal/core/config"
	"github.com/mohammed-shakir/career-locator/internal/core/model"
)

func TestReference(t *testing.T) {
	fb := model.Coordinate{Lat: 47.9187, Lng: 106.9177}

	c, manual, err := reference("", "", fb)
	if err != nil || manual || c != fb {
		t.Fatalf("got %v manual=%v err=%v want fallback", c, manual, err)
	}
	c, manual, err = reference("47.92", "106.93", fb)
	if err != nil || !manual || c.Lat != 47.92 {
		t.Fatalf("got %v manual=%v err=%v want manual", c, manual, err)
	}
	for _, tc := range [][2]string{{"47.9", ""}, {"", "106.9"}, {"91", "0"}, {"abc", "1"}} {
		if _, _, err := reference(tc[0], tc[1], fb); err == nil {
			t.Fatalf("lat=%q lng=%q: expected error", tc[0], tc[1])
		}
	}
}

func TestRun_APIDownPrintsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.Config{DefaultSub: "1place", Fallback: model.Coordinate{Lat: 47.9187, Lng: 106.9177}}
	var out bytes.Buffer
	err := run(context.Background(), cfg, options{Suburl: "acme", API: srv.URL, Timeout: time.Second}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	for _, want := range []string{"warning:", "ACME (fallback)", "[fallback]", "Store Central", "0.0"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}
}

func TestPrintRanked_UnknownDistance(t *testing.T) {
	d := 3.46
	ranked := []model.RankedStore{
		{Store: model.NewStore("a", "Alpha", "Main st", nil, nil), DistanceKm: &d},
		{Store: model.NewStore("b", "Beta", "", nil, nil)},
	}
	var out bytes.Buffer
	if err := printRanked(&out, ranked); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines want 3:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "3.5") || !strings.Contains(lines[2], "-") {
		t.Fatalf("unexpected rows:\n%s", out.String())
	}
}
