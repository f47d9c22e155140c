package state

import (
	"sort"
	"sync"

	"github.com/genbridge/genbridge/internal/core/job"
)

// Queue is the authoritative in-memory table of active generation
// jobs. Both the push channel and the poll scheduler write into it;
// writes are last-write-wins per field.
type Queue struct {
	mu   sync.RWMutex
	jobs map[string]*job.Job
}

func NewQueue() *Queue {
	return &Queue{jobs: make(map[string]*job.Job)}
}

// Replace swaps the whole table for an authoritative snapshot
// (queue_update frames and full poll responses).
func (q *Queue) Replace(jobs []job.Job) {
	next := make(map[string]*job.Job, len(jobs))
	for i := range jobs {
		j := jobs[i]
		if j.ID == "" {
			j.ID = j.BackendID
		}
		if j.ID == "" {
			continue
		}
		next[j.ID] = &j
	}

	q.mu.Lock()
	q.jobs = next
	q.mu.Unlock()
}

// Insert adds or overwrites a single job, keyed by its ID.
func (q *Queue) Insert(j job.Job) {
	if j.ID == "" {
		return
	}
	q.mu.Lock()
	q.jobs[j.ID] = &j
	q.mu.Unlock()
}

// Upsert merges a partial update into an existing job. Unknown job IDs
// are a no-op: per-job messages for jobs we never tracked carry no
// parameters, so there is nothing useful to insert.
//
// Progress regressions are dropped while the job is still processing,
// since the two data sources race and either may deliver stale values.
// A status change always applies.
func (q *Queue) Upsert(u job.Update) {
	if u.ID == "" {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	j, ok := q.jobs[u.ID]
	if !ok {
		return
	}
	if u.Status != "" && u.Status != job.StatusUnknown {
		j.Status = u.Status
	}
	if u.Progress != nil {
		regression := j.Status == job.StatusProcessing && *u.Progress < j.Progress
		if !regression {
			j.Progress = *u.Progress
		}
	}
	if u.CurrentStep != nil {
		j.CurrentStep = *u.CurrentStep
	}
	if u.TotalSteps != nil {
		j.TotalSteps = *u.TotalSteps
	}
	if u.Error != "" {
		j.Error = u.Error
	}
}

// Remove deletes a job. Idempotent; removing an unknown ID is a no-op.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	delete(q.jobs, id)
	q.mu.Unlock()
}

func (q *Queue) Get(id string) (job.Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[id]
	if !ok {
		return job.Job{}, false
	}
	return *j, true
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.jobs)
}

// Sorted returns the jobs ordered by status priority (processing
// first), tie-broken by creation time descending. Jobs with a zero
// creation time sort after everything else in their bucket.
func (q *Queue) Sorted() []job.Job {
	q.mu.RLock()
	out := make([]job.Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, *j)
	}
	q.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool {
		pa, pb := out[a].Status.SortPriority(), out[b].Status.SortPriority()
		if pa != pb {
			return pa < pb
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out
}

// Cancellable returns the jobs that can still be cancelled.
func (q *Queue) Cancellable() []job.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()
	var out []job.Job
	for _, j := range q.jobs {
		if j.Cancellable() {
			out = append(out, *j)
		}
	}
	return out
}
