package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	mylog "github.com/mohammed-shakir/career-locator/internal/logger"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestLogging_AssignsAndKeepsRequestID(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Use(Logging(quiet()))
	r.Get("/v1/company/{suburl}", func(w http.ResponseWriter, r *http.Request) {
		seen = mylog.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/company/1place", nil))
	if rr.Code != http.StatusTeapot {
		t.Fatalf("status=%d", rr.Code)
	}
	got := rr.Header().Get(RequestIDHeader)
	if got == "" || got != seen {
		t.Fatalf("header id %q, context id %q", got, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/company/1place", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Header().Get(RequestIDHeader) != "abc-123" || seen != "abc-123" {
		t.Fatalf("incoming id not propagated: header=%q ctx=%q", rr.Header().Get(RequestIDHeader), seen)
	}
}

func TestRecover_Returns500(t *testing.T) {
	h := Recover(quiet())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", rr.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/v1/handoff", nil))
	if rr.Code != http.StatusNoContent || called {
		t.Fatalf("status=%d called=%v want 204 without handler", rr.Code, called)
	}
	if rr.Header().Get("Access-Control-Allow-Methods") != "GET,POST,OPTIONS" {
		t.Fatalf("methods=%q", rr.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestIPRateLimiter_PerIP(t *testing.T) {
	lim := NewIPRateLimiter(0.001, 2, nil, quiet())
	h := lim.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	do := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/v1/handoff", nil)
		req.RemoteAddr = ip + ":5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}
	for i := range 2 {
		if code := do("203.0.113.7"); code != http.StatusOK {
			t.Fatalf("request %d status=%d want 200", i, code)
		}
	}
	if code := do("203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("third request status=%d want 429", code)
	}
	if code := do("198.51.100.1"); code != http.StatusOK {
		t.Fatalf("other ip status=%d want 200", code)
	}
}

func TestIPRateLimiter_RotatingForwardedForDoesNotEvade(t *testing.T) {
	proxies, err := ParseTrustedProxies("10.0.0.0/8")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name    string
		proxies TrustedProxies
		remote  string
		xff     func(i int) string
	}{
		{"direct peer", nil, "203.0.113.9:4000", func(i int) string { return fmt.Sprintf("198.18.0.%d", i) }},
		{"behind proxy", proxies, "10.0.0.1:4000", func(i int) string { return fmt.Sprintf("198.18.0.%d, 198.51.100.7", i) }},
	}
	for _, tc := range cases {
		lim := NewIPRateLimiter(0.001, 1, tc.proxies, quiet())
		h := lim.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))
		allowed := 0
		for i := range 20 {
			req := httptest.NewRequest(http.MethodPost, "/v1/handoff", nil)
			req.RemoteAddr = tc.remote
			req.Header.Set("X-Forwarded-For", tc.xff(i))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code == http.StatusOK {
				allowed++
			}
		}
		if allowed != 1 {
			t.Fatalf("%s: allowed=%d want 1", tc.name, allowed)
		}
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies(" 10.0.0.0/8, 192.168.1.7 ,")
	if err != nil || len(got) != 2 {
		t.Fatalf("got %v err %v want 2 prefixes", got, err)
	}
	if got[1].Bits() != 32 {
		t.Fatalf("bare ip bits=%d want 32", got[1].Bits())
	}
	if empty, err := ParseTrustedProxies(""); err != nil || len(empty) != 0 {
		t.Fatalf("empty got %v err %v", empty, err)
	}
	if _, err := ParseTrustedProxies("10.0.0.0/99"); err == nil {
		t.Fatal("expected error for bad cidr")
	}
}

func TestClientIP_TrustedProxies(t *testing.T) {
	proxies, err := ParseTrustedProxies("10.0.0.0/8")
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		xff, real, remote, want string
	}{
		{"203.0.113.9, 10.0.0.1", "", "10.0.0.2:80", "203.0.113.9"},
		{"1.2.3.4, 203.0.113.9", "", "10.0.0.2:80", "203.0.113.9"},
		{"10.0.0.5", "", "10.0.0.2:80", "10.0.0.5"},
		{"garbage", "198.51.100.4", "10.0.0.2:80", "10.0.0.2"},
		{"", "198.51.100.4", "10.0.0.2:80", "198.51.100.4"},
		{"203.0.113.9", "198.51.100.4", "192.0.2.1:1234", "192.0.2.1"},
		{"", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.xff != "" {
			req.Header.Set("X-Forwarded-For", tc.xff)
		}
		if tc.real != "" {
			req.Header.Set("X-Real-IP", tc.real)
		}
		if got := proxies.ClientIP(req); got != tc.want {
			t.Fatalf("ClientIP(%+v)=%q want %q", tc, got, tc.want)
		}
	}
}

func TestClientIP_NoTrustUsesPeer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	req.Header.Set("X-Real-IP", "198.51.100.4")
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Fatalf("got %q want 192.0.2.1", got)
	}
}
