package transport

import (
	"testing"
)

func TestDecodeProgress(t *testing.T) {
	data := []byte(`{"type":"generation_progress","job_id":"j1","progress":0.5,"status":"processing","current_step":5,"total_steps":10}`)
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	m, ok := msg.(Progress)
	if !ok {
		t.Fatalf("Decode() = %T, want Progress", msg)
	}
	if m.JobID != "j1" || m.Status != "processing" {
		t.Errorf("Progress = %+v", m)
	}
	if m.Progress == nil || *m.Progress != 0.5 {
		t.Errorf("Progress.Progress = %v, want 0.5", m.Progress)
	}
	if m.CurrentStep == nil || *m.CurrentStep != 5 || m.TotalSteps == nil || *m.TotalSteps != 10 {
		t.Errorf("steps = %v/%v, want 5/10", m.CurrentStep, m.TotalSteps)
	}
}

func TestDecodeComplete(t *testing.T) {
	data := []byte(`{"type":"generation_complete","job_id":"j1","result_id":"r1","image_url":"u"}`)
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	m, ok := msg.(Complete)
	if !ok {
		t.Fatalf("Decode() = %T, want Complete", msg)
	}
	if m.JobID != "j1" || m.ResultID != "r1" || m.ImageURL != "u" {
		t.Errorf("Complete = %+v", m)
	}
}

func TestDecodeError(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"generation_error","job_id":"j1","error":"oom"}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	m, ok := msg.(Failed)
	if !ok {
		t.Fatalf("Decode() = %T, want Failed", msg)
	}
	if m.Error != "oom" {
		t.Errorf("Error = %q, want oom", m.Error)
	}
}

func TestDecodeQueueUpdate(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantJobs bool
		wantLen  int
	}{
		{name: "array", data: `{"type":"queue_update","jobs":[{"id":"j1","status":"queued"}]}`, wantJobs: true, wantLen: 1},
		{name: "empty array", data: `{"type":"queue_update","jobs":[]}`, wantJobs: true, wantLen: 0},
		{name: "missing jobs", data: `{"type":"queue_update"}`, wantJobs: false},
		{name: "null jobs", data: `{"type":"queue_update","jobs":null}`, wantJobs: false},
		{name: "jobs not an array", data: `{"type":"queue_update","jobs":"nope"}`, wantJobs: false},
		{name: "jobs is an object", data: `{"type":"queue_update","jobs":{"id":"j1"}}`, wantJobs: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.data))
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			m, ok := msg.(QueueReplace)
			if !ok {
				t.Fatalf("Decode() = %T, want QueueReplace", msg)
			}
			if m.HasJobs != tt.wantJobs {
				t.Errorf("HasJobs = %v, want %v", m.HasJobs, tt.wantJobs)
			}
			if tt.wantJobs && len(m.Jobs) != tt.wantLen {
				t.Errorf("len(Jobs) = %d, want %d", len(m.Jobs), tt.wantLen)
			}
		})
	}
}

func TestDecodeSystemStatus(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"system_status","gpu_available":true,"message":"hi"}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	m, ok := msg.(SystemStatus)
	if !ok {
		t.Fatalf("Decode() = %T, want SystemStatus", msg)
	}
	if _, hasType := m.Fields["type"]; hasType {
		t.Error("type discriminator should be stripped from fields")
	}
	if m.Fields["gpu_available"] != true {
		t.Errorf("Fields = %v", m.Fields)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"something_new","x":1}`))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	m, ok := msg.(Unknown)
	if !ok {
		t.Fatalf("Decode() = %T, want Unknown", msg)
	}
	if m.Type != "something_new" {
		t.Errorf("Type = %q", m.Type)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: `{{{`},
		{name: "not an object", data: `[1,2,3]`},
		{name: "missing type", data: `{"job_id":"j1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.data)); err == nil {
				t.Error("Decode() = nil error, want error")
			}
		})
	}
}
