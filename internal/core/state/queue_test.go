package state

import (
	"testing"
	"time"

	"github.com/genbridge/genbridge/internal/core/job"
)

func intp(v int) *int { return &v }

func TestQueueSortedOrder(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	q := NewQueue()
	q.Replace([]job.Job{
		{ID: "f1", Status: job.StatusFailed, CreatedAt: base.Add(4 * time.Minute)},
		{ID: "p1", Status: job.StatusProcessing, CreatedAt: base.Add(1 * time.Minute)},
		{ID: "q1", Status: job.StatusQueued, CreatedAt: base.Add(3 * time.Minute)},
		{ID: "p2", Status: job.StatusProcessing, CreatedAt: base.Add(2 * time.Minute)},
	})

	got := q.Sorted()
	want := []string{"p2", "p1", "q1", "f1"}
	if len(got) != len(want) {
		t.Fatalf("Sorted() returned %d jobs, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("Sorted()[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestQueueSortedZeroTimeLast(t *testing.T) {
	q := NewQueue()
	q.Replace([]job.Job{
		{ID: "no-ts", Status: job.StatusQueued},
		{ID: "ts", Status: job.StatusQueued, CreatedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	})

	got := q.Sorted()
	if got[0].ID != "ts" || got[1].ID != "no-ts" {
		t.Errorf("unparseable timestamp should sort last, got [%s %s]", got[0].ID, got[1].ID)
	}
}

func TestQueueUpsert(t *testing.T) {
	q := NewQueue()
	q.Insert(job.Job{ID: "j1", Status: job.StatusQueued, Progress: 0})

	q.Upsert(job.Update{ID: "j1", Status: job.StatusProcessing, Progress: intp(50), CurrentStep: intp(10), TotalSteps: intp(20)})

	j, ok := q.Get("j1")
	if !ok {
		t.Fatal("job disappeared after upsert")
	}
	if j.Status != job.StatusProcessing || j.Progress != 50 || j.CurrentStep != 10 || j.TotalSteps != 20 {
		t.Errorf("upsert merge = %+v", j)
	}
}

func TestQueueUpsertDropsProgressRegression(t *testing.T) {
	q := NewQueue()
	q.Insert(job.Job{ID: "j1", Status: job.StatusProcessing, Progress: 60})

	q.Upsert(job.Update{ID: "j1", Progress: intp(40)})
	if j, _ := q.Get("j1"); j.Progress != 60 {
		t.Errorf("progress regressed to %d, want 60", j.Progress)
	}

	q.Upsert(job.Update{ID: "j1", Progress: intp(80)})
	if j, _ := q.Get("j1"); j.Progress != 80 {
		t.Errorf("progress = %d, want 80", j.Progress)
	}
}

func TestQueueUpsertUnknownIDIsNoop(t *testing.T) {
	q := NewQueue()
	q.Upsert(job.Update{ID: "ghost", Progress: intp(10)})
	if q.Len() != 0 {
		t.Errorf("Len() = %d after upserting unknown id, want 0", q.Len())
	}
}

func TestQueueRemoveIdempotent(t *testing.T) {
	q := NewQueue()
	q.Insert(job.Job{ID: "j1", Status: job.StatusQueued})

	q.Remove("j1")
	q.Remove("j1")
	if q.Len() != 0 {
		t.Errorf("Len() = %d after double remove, want 0", q.Len())
	}
}

func TestQueueReplaceDeduplicatesByID(t *testing.T) {
	q := NewQueue()
	q.Replace([]job.Job{
		{ID: "j1", Status: job.StatusQueued, Progress: 10},
		{ID: "j1", Status: job.StatusProcessing, Progress: 20},
	})
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
	if j, _ := q.Get("j1"); j.Progress != 20 {
		t.Errorf("last record should win, progress = %d, want 20", j.Progress)
	}
}

func TestQueueCancellable(t *testing.T) {
	q := NewQueue()
	q.Replace([]job.Job{
		{ID: "a", Status: job.StatusProcessing},
		{ID: "b", Status: job.StatusQueued},
		{ID: "c", Status: job.StatusFailed},
		{ID: "d", Status: job.StatusUnknown},
	})
	if got := len(q.Cancellable()); got != 2 {
		t.Errorf("Cancellable() returned %d jobs, want 2", got)
	}
}
