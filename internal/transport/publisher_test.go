// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"testing"
	"time"
)

// recordingTransport captures everything sent through it.
type recordingTransport struct {
	mu    sync.Mutex
	sent  []any
	calls int
}

func (r *recordingTransport) Send(data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, data)
	r.calls++
	return nil
}

func (r *recordingTransport) Close() error { return nil }

func (r *recordingTransport) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestNewStatsPublisherValidation(t *testing.T) {
	source := func() any { return 1 }

	if _, err := NewStatsPublisher(time.Second, nil, source); err == nil {
		t.Error("NewStatsPublisher(nil transport) should fail")
	}
	if _, err := NewStatsPublisher(time.Second, &recordingTransport{}, nil); err == nil {
		t.Error("NewStatsPublisher(nil source) should fail")
	}
	p, err := NewStatsPublisher(-1, &recordingTransport{}, source)
	if err != nil {
		t.Fatalf("NewStatsPublisher(negative interval) failed: %v", err)
	}
	if p.interval != time.Second {
		t.Errorf("negative interval should default to 1s, got %s", p.interval)
	}
}

func TestStatsPublisherPublishes(t *testing.T) {
	rec := &recordingTransport{}
	p, err := NewStatsPublisher(5*time.Millisecond, rec, func() any {
		return map[string]int{"frames": 7}
	})
	if err != nil {
		t.Fatalf("NewStatsPublisher() failed: %v", err)
	}

	p.Start()

	deadline := time.Now().Add(2 * time.Second)
	for rec.callCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	if rec.callCount() < 3 {
		t.Errorf("expected at least 3 publishes, got %d", rec.callCount())
	}

	rec.mu.Lock()
	first, ok := rec.sent[0].(map[string]int)
	rec.mu.Unlock()
	if !ok || first["frames"] != 7 {
		t.Errorf("published value = %v, want map with frames=7", rec.sent[0])
	}
}

func TestStatsPublisherStopIdempotent(t *testing.T) {
	rec := &recordingTransport{}
	p, err := NewStatsPublisher(time.Hour, rec, func() any { return nil })
	if err != nil {
		t.Fatalf("NewStatsPublisher() failed: %v", err)
	}

	// Stopping before starting is a no-op.
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() before Start() failed: %v", err)
	}

	p.Start()
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() failed: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("second Stop() failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close() after Stop() failed: %v", err)
	}
}

func TestStatsPublisherRestart(t *testing.T) {
	rec := &recordingTransport{}
	p, err := NewStatsPublisher(5*time.Millisecond, rec, func() any { return "tick" })
	if err != nil {
		t.Fatalf("NewStatsPublisher() failed: %v", err)
	}

	p.Start()
	deadline := time.Now().Add(time.Second)
	for rec.callCount() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	before := rec.callCount()
	if before < 1 {
		t.Fatal("publisher never ticked before restart")
	}

	p.Start()
	deadline = time.Now().Add(time.Second)
	for rec.callCount() <= before && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() after restart failed: %v", err)
	}
	if rec.callCount() <= before {
		t.Error("publisher did not tick after restart")
	}
}
