package services

import (
	"context"
	"errors"
	"robot-route-service/internal/domain"
	"sync"
	"testing"
	"time"
)

type recordingPublisher struct {
	mu    sync.Mutex
	calls int
	last  map[int]domain.Coordinates
	err   error
}

func (p *recordingPublisher) PublishPositions(_ context.Context, positions map[int]domain.Coordinates) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.last = positions
	return p.err
}

func (p *recordingPublisher) snapshot() (int, map[int]domain.Coordinates) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls, p.last
}

func TestPositionMirrorSyncOnce(t *testing.T) {
	fleet := newFakeFleet(t, 1, 2)
	fleet.robots[2].SetProgressPosition(0.2, marktplatz)

	pub := &recordingPublisher{}
	m := NewPositionMirror(fleet, pub, time.Second)

	n, err := m.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("published %d positions, want 1", n)
	}

	_, last := pub.snapshot()
	if last[2] != marktplatz {
		t.Errorf("position of robot 2 = %+v, want %+v", last[2], marktplatz)
	}
	if _, ok := last[1]; ok {
		t.Errorf("robot without position was published")
	}

	pub.err = errors.New("redis down")
	if _, err := m.SyncOnce(context.Background()); err == nil {
		t.Errorf("expected publish error")
	}
}

func TestPositionMirrorRun(t *testing.T) {
	fleet := newFakeFleet(t, 1)
	pub := &recordingPublisher{}
	m := NewPositionMirror(fleet, pub, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if calls, _ := pub.snapshot(); calls >= 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("mirror did not publish")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
