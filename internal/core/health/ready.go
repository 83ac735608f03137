package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type ReadinessReporter interface {
	Readiness() (ready bool, partitions []int32)
}

type ReadyFunc func() (bool, []int32)

func (f ReadyFunc) Readiness() (bool, []int32) { return f() }

// Always reports ready; used when no invalidation consumer runs.
var Always ReadinessReporter = ReadyFunc(func() (bool, []int32) { return true, nil })

// Dependency is a backend that must answer a ping for the service to be ready.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

func Readiness(rr ReadinessReporter, deps ...Dependency) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type resp struct {
			Status     string            `json:"status"`
			Partitions []int32           `json:"partitions,omitempty"`
			Failing    map[string]string `json:"failing,omitempty"`
		}
		ready, parts := rr.Readiness()
		out := resp{Status: "not_ready"}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, d := range deps {
			if err := d.Ping(ctx); err != nil {
				if out.Failing == nil {
					out.Failing = map[string]string{}
				}
				out.Failing[d.Name] = err.Error()
				ready = false
			}
		}
		if ready {
			out.Status = "ready"
			out.Partitions = parts
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
