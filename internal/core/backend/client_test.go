package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebsocketURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/ws/progress"},
		{"https://gen.example.com", "wss://gen.example.com/ws/progress"},
		{"http://host:8000/api/", "ws://host:8000/api/ws/progress"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			c := NewClient(tt.base)
			if got := c.WebsocketURL(); got != tt.want {
				t.Errorf("WebsocketURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientActiveJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generation/jobs/active" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"j1","status":"running","progress":0.5}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	records, err := c.ActiveJobs(context.Background())
	if err != nil {
		t.Fatalf("ActiveJobs() error: %v", err)
	}
	if len(records) != 1 || records[0].ID != "j1" {
		t.Fatalf("records = %+v", records)
	}

	j := records[0].Canonical()
	if j.Status != "processing" || j.Progress != 50 {
		t.Errorf("canonical job = status %q progress %d, want processing/50", j.Status, j.Progress)
	}
}

func TestClientNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.LegacyActiveJobs(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestClientGenerateRequiresJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"queued"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Generate(context.Background(), GenerateRequest{Prompt: "x"}); err == nil {
		t.Error("Generate() = nil error for response without job_id, want error")
	}
}

func TestClientCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generation/jobs/j1/cancel" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ok, err := c.Cancel(context.Background(), "j1")
	if err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if !ok {
		t.Error("Cancel() = false, want true")
	}
}

func TestResultRecordIDFallback(t *testing.T) {
	tests := []struct {
		name string
		rec  ResultRecord
		want string
	}{
		{name: "distinct id", rec: ResultRecord{ID: "r1", JobID: "j1"}, want: "r1"},
		{name: "result_id", rec: ResultRecord{ResultID: "r2", JobID: "j1"}, want: "r2"},
		{name: "job id fallback", rec: ResultRecord{JobID: "j1"}, want: "j1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Canonical().ID; got != tt.want {
				t.Errorf("Canonical().ID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	if got := ParseTimestamp("2026-08-01T12:00:00Z"); got.IsZero() {
		t.Error("valid RFC3339 timestamp parsed as zero")
	}
	if got := ParseTimestamp("not-a-time", ""); !got.IsZero() {
		t.Errorf("invalid timestamp = %v, want zero time", got)
	}
	if got := ParseTimestamp("", "2026-08-01T12:00:00Z"); got.IsZero() {
		t.Error("second candidate should be tried")
	}
}
