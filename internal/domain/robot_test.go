package domain

import (
	"errors"
	"testing"
)

func newTestRobot(t *testing.T) *Robot {
	t.Helper()

	r, err := NewRobot(1, DefaultRobotOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestNewRobotDefaults(t *testing.T) {
	r := newTestRobot(t)
	s := r.Snapshot()

	if !s.Parked {
		t.Errorf("Parked = false, want true")
	}
	if s.Battery != 100 {
		t.Errorf("Battery = %v, want 100", s.Battery)
	}
	if s.LED != DefaultLED {
		t.Errorf("LED = %+v, want %+v", s.LED, DefaultLED)
	}
	if s.Position != nil {
		t.Errorf("Position = %+v, want nil", *s.Position)
	}
	if s.LastMessageID != 0 || s.MessageCount != 0 {
		t.Errorf("message log not empty: last=%d count=%d", s.LastMessageID, s.MessageCount)
	}
}

func TestNewRobotRejectsBattery(t *testing.T) {
	opts := DefaultRobotOptions()
	opts.Battery = 120

	_, err := NewRobot(1, opts)
	if !errors.Is(err, ErrInvalidBattery) {
		t.Fatalf("err = %v, want ErrInvalidBattery", err)
	}
}

func TestNewLED(t *testing.T) {
	led, err := NewLED(10, 20, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if led != (LED{R: 10, G: 20, B: 30}) {
		t.Errorf("led = %+v", led)
	}

	for _, c := range [][3]int{{-1, 0, 0}, {0, 256, 0}, {0, 0, 1000}} {
		if _, err := NewLED(c[0], c[1], c[2]); !errors.Is(err, ErrInvalidLED) {
			t.Errorf("NewLED(%v) err = %v, want ErrInvalidLED", c, err)
		}
	}
}

func TestSetProgressPositionIsMonotonic(t *testing.T) {
	r := newTestRobot(t)
	a := Coordinates{Lat: 49.0, Lon: 8.4}
	b := Coordinates{Lat: 49.1, Lon: 8.5}

	if !r.SetProgressPosition(0.5, a) {
		t.Fatalf("first update rejected")
	}
	if r.SetProgressPosition(0.3, b) {
		t.Fatalf("lower progress accepted")
	}

	s := r.Snapshot()
	if s.Progress != 0.5 {
		t.Errorf("Progress = %v, want 0.5", s.Progress)
	}
	if s.Position == nil || *s.Position != a {
		t.Errorf("Position = %v, want %+v", s.Position, a)
	}

	r.SetProgressPosition(7, b)
	if got := r.Snapshot().Progress; got != 1 {
		t.Errorf("Progress = %v, want clamp to 1", got)
	}
}

func TestMessagesSince(t *testing.T) {
	r := newTestRobot(t)

	for i := 0; i < 3; i++ {
		r.AddMessage(EventRouteTick, "tick", 0)
	}

	latest, events := r.MessagesSince(1)
	if latest != 3 {
		t.Fatalf("latest = %d, want 3", latest)
	}
	if len(events) != 2 || events[0].ID != 2 || events[1].ID != 3 {
		t.Fatalf("events = %+v, want ids 2,3", events)
	}

	latest, events = r.MessagesSince(3)
	if latest != 3 || len(events) != 0 || events == nil {
		t.Errorf("MessagesSince(3) = %d, %v; want 3, empty", latest, events)
	}

	_, events = r.MessagesSince(-5)
	if len(events) != 3 {
		t.Errorf("negative cursor returned %d events, want 3", len(events))
	}
}

func TestAddPackageCapacity(t *testing.T) {
	r := newTestRobot(t)

	large := Package{Size: PackageLarge, Destination: "Durlach"}
	small := Package{Size: PackageSmall, Destination: "Mühlburg"}

	for i := 0; i < MaxLargePackages; i++ {
		if err := r.AddPackage(large); err != nil {
			t.Fatalf("large %d: unexpected error: %v", i, err)
		}
	}
	if err := r.AddPackage(large); !errors.Is(err, ErrLargeCapacityExceeded) {
		t.Fatalf("err = %v, want ErrLargeCapacityExceeded", err)
	}

	for i := 0; i < MaxSmallPackages; i++ {
		if err := r.AddPackage(small); err != nil {
			t.Fatalf("small %d: unexpected error: %v", i, err)
		}
	}
	if err := r.AddPackage(small); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}

	s := r.Snapshot()
	if len(s.Packages) != MaxPackages {
		t.Errorf("len(Packages) = %d, want %d", len(s.Packages), MaxPackages)
	}
	if s.LargePackageCount != 2 || s.SmallPackageCount != 6 {
		t.Errorf("counts = %d/%d, want 2/6", s.LargePackageCount, s.SmallPackageCount)
	}
	if s.Destination != "Durlach" {
		t.Errorf("Destination = %q, want first package destination", s.Destination)
	}
}

func TestAddPackageSmallLimit(t *testing.T) {
	r := newTestRobot(t)

	for i := 0; i < MaxSmallPackages; i++ {
		if err := r.AddPackage(Package{Size: PackageSmall}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := r.AddPackage(Package{Size: PackageSmall}); !errors.Is(err, ErrSmallCapacityExceeded) {
		t.Fatalf("err = %v, want ErrSmallCapacityExceeded", err)
	}
	if got := len(r.Snapshot().Packages); got != MaxSmallPackages {
		t.Errorf("failed add mutated robot: %d packages", got)
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	r := newTestRobot(t)

	parked := false
	bad := 150.0
	err := r.Apply(RobotUpdate{Parked: &parked, Battery: &bad})
	if !errors.Is(err, ErrInvalidBattery) {
		t.Fatalf("err = %v, want ErrInvalidBattery", err)
	}
	if !r.Snapshot().Parked {
		t.Fatalf("rejected update changed Parked")
	}

	good := 42.5
	msg := "charging soon"
	led := LED{R: 255}
	if err := r.Apply(RobotUpdate{Parked: &parked, Battery: &good, Message: &msg, LED: &led}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := r.Snapshot()
	if s.Parked || s.Battery != 42.5 || s.Message != msg || s.LED != led {
		t.Errorf("snapshot after apply = %+v", s)
	}
}
