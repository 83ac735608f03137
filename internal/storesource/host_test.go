package storesource

import "testing"

func TestSuburlFromHost(t *testing.T) {
	cases := map[string]string{
		"gs25.oneplace.hr":      "gs25",
		"GS25.OnePlace.hr:8443": "gs25",
		"nomin.oneplace.hr.":    "nomin",
		"localhost":             "1place",
		"localhost:3000":        "1place",
		"127.0.0.1:8090":        "1place",
		"[::1]:8090":            "1place",
		"oneplace.hr":           "1place",
		"www.oneplace.hr":       "1place",
		"":                      "1place",
	}
	for host, want := range cases {
		if got := SuburlFromHost(host, ""); got != want {
			t.Fatalf("SuburlFromHost(%q) = %q want %q", host, got, want)
		}
	}
	if got := SuburlFromHost("localhost", "gs25"); got != "gs25" {
		t.Fatalf("custom default got %q", got)
	}
}
