package state

import (
	"sync"

	"github.com/genbridge/genbridge/internal/core/job"
)

// Results is the bounded, newest-first list of finished artifacts.
type Results struct {
	mu      sync.RWMutex
	results []job.Result
	limit   int
}

func NewResults(limit int) *Results {
	if limit <= 0 {
		limit = 1
	}
	return &Results{limit: limit}
}

// SetAll replaces the list with a snapshot, truncated to the limit.
func (r *Results) SetAll(results []job.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]job.Result, len(results))
	copy(cp, results)
	if len(cp) > r.limit {
		cp = cp[:r.limit]
	}
	r.results = cp
}

// Add prepends a result and truncates to the limit.
func (r *Results) Add(res job.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append([]job.Result{res}, r.results...)
	if len(r.results) > r.limit {
		r.results = r.results[:r.limit]
	}
}

// Remove deletes a result by ID. Idempotent.
func (r *Results) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, res := range r.results {
		if res.ID == id {
			r.results = append(r.results[:i], r.results[i+1:]...)
			return
		}
	}
}

// SetLimit changes the bound used by subsequent inserts and snapshot
// loads. An already-loaded longer list is not truncated until the next
// load.
func (r *Results) SetLimit(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	r.limit = n
	r.mu.Unlock()
}

func (r *Results) Limit() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limit
}

func (r *Results) List() []job.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make([]job.Result, len(r.results))
	copy(cp, r.results)
	return cp
}
