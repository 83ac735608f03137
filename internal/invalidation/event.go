package invalidation

import (
	"fmt"
	"strings"
	"time"
)

// Event announces that a company's career data changed upstream.
type Event struct {
	Version   int    `json:"version"`
	Op        string `json:"op"`
	Suburl    string `json:"suburl"`
	CompanyID string `json:"company_id,omitempty"`
	// monotonically increasing per company; 0 disables dedupe
	Revision uint64    `json:"revision,omitempty"`
	TS       time.Time `json:"ts"`
	Source   string    `json:"source,omitempty"`
}

const (
	OpUpdate          = "update"
	OpDelete          = "delete"
	OpJobsChanged     = "jobs_changed"
	OpBranchesChanged = "branches_changed"
)

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case OpUpdate, OpDelete, OpJobsChanged, OpBranchesChanged:
	default:
		return fmt.Errorf("op must be update|delete|jobs_changed|branches_changed")
	}
	sub := strings.TrimSpace(e.Suburl)
	if sub == "" {
		return fmt.Errorf("suburl is required")
	}
	if strings.ContainsAny(sub, "/ \t") {
		return fmt.Errorf("suburl %q is not a single path segment", e.Suburl)
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}
