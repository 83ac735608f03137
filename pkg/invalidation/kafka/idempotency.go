package kafka

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// revisions remembers the newest applied revision per company so redelivered
// or reordered updates are skipped.
type revisions struct {
	mu   sync.Mutex
	last *lru.Cache[string, uint64]
}

func newRevisions(size int) *revisions {
	if size <= 0 {
		size = 4096
	}
	c, _ := lru.New[string, uint64](size)
	return &revisions{last: c}
}

// fresh reports whether rev is newer than anything applied for company.
// Revision 0 means the producer does not version its events.
func (r *revisions) fresh(company string, rev uint64) bool {
	if rev == 0 {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.last.Get(company); ok && rev <= prev {
		return false
	}
	r.last.Add(company, rev)
	return true
}
