package domain

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Fleet-wide package limits per robot.
const (
	MaxPackages      = 8
	MaxLargePackages = 2
	MaxSmallPackages = 6
)

// LED is an RGB status light.
type LED struct {
	R, G, B uint8
}

// DefaultLED is the green light a robot starts with.
var DefaultLED = LED{R: 0, G: 255, B: 0}

// NewLED validates each channel against [0, 255].
func NewLED(r, g, b int) (LED, error) {
	for _, c := range []int{r, g, b} {
		if c < 0 || c > 255 {
			return LED{}, fmt.Errorf("%w: got (%d,%d,%d)", ErrInvalidLED, r, g, b)
		}
	}
	return LED{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

func ValidateBattery(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 100 {
		return fmt.Errorf("%w: got %v", ErrInvalidBattery, v)
	}
	return nil
}

// RobotOptions carries the initial state of a new robot.
type RobotOptions struct {
	Parked     bool
	DoorOpened bool
	Reversing  bool
	Charging   bool
	Battery    float64
	LED        LED
}

// DefaultRobotOptions returns a parked robot with a full battery and a green LED.
func DefaultRobotOptions() RobotOptions {
	return RobotOptions{
		Parked:  true,
		Battery: 100,
		LED:     DefaultLED,
	}
}

// RobotUpdate is a partial update; nil fields are left untouched.
type RobotUpdate struct {
	Parked     *bool
	DoorOpened *bool
	Reversing  *bool
	Charging   *bool
	Battery    *float64
	LED        *LED
	Message    *string
}

// Validate checks every present field without touching any robot.
func (u RobotUpdate) Validate() error {
	if u.Battery != nil {
		if err := ValidateBattery(*u.Battery); err != nil {
			return fmt.Errorf("robot update: %w", err)
		}
	}
	return nil
}

// RobotSnapshot is a consistent copy of a robot's state.
type RobotSnapshot struct {
	ID                int
	Parked            bool
	DoorOpened        bool
	Reversing         bool
	Charging          bool
	Battery           float64
	LED               LED
	Message           string
	Packages          []Package
	LargePackageCount int
	SmallPackageCount int
	Destination       string
	Progress          float64
	Position          *Coordinates
	MessageCount      int
	LastMessageID     int64
}

// Simulated delivery robot.
//
// All state, including the message log, is guarded by mu. Progress only ever
// grows over the lifetime of the robot.
type Robot struct {
	id  int
	now func() time.Time

	mu          sync.Mutex
	parked      bool
	doorOpened  bool
	reversing   bool
	charging    bool
	battery     float64
	led         LED
	message     string
	packages    []Package
	destination string
	progress    float64
	position    *Coordinates
	events      []Event
	lastEventID int64
}

func NewRobot(id int, opts RobotOptions) (*Robot, error) {
	if err := ValidateBattery(opts.Battery); err != nil {
		return nil, fmt.Errorf("new robot %d: %w", id, err)
	}

	return &Robot{
		id:         id,
		now:        time.Now,
		parked:     opts.Parked,
		doorOpened: opts.DoorOpened,
		reversing:  opts.Reversing,
		charging:   opts.Charging,
		battery:    opts.Battery,
		led:        opts.LED,
	}, nil
}

func (r *Robot) ID() int { return r.id }

// SetProgressPosition stores progress (clamped to [0,1]) and position together.
// A progress lower than the stored one is ignored and false is returned.
func (r *Robot) SetProgressPosition(progress float64, pos Coordinates) bool {
	progress = clamp01(progress)

	r.mu.Lock()
	defer r.mu.Unlock()

	if progress < r.progress {
		return false
	}
	r.progress = progress
	p := pos
	r.position = &p
	return true
}

func (r *Robot) SetParked(parked bool) {
	r.mu.Lock()
	r.parked = parked
	r.mu.Unlock()
}

// AddMessage appends an event to the log and returns its id.
func (r *Robot) AddMessage(kind EventKind, text string, progress float64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastEventID++
	r.events = append(r.events, Event{
		ID:        r.lastEventID,
		RobotID:   r.id,
		Kind:      kind,
		Text:      text,
		Progress:  clamp01(progress),
		Timestamp: r.now(),
	})
	return r.lastEventID
}

// MessagesSince returns the latest event id and every event with an id above cursor.
func (r *Robot) MessagesSince(cursor int64) (int64, []Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cursor < 0 {
		cursor = 0
	}
	if cursor >= r.lastEventID {
		return r.lastEventID, []Event{}
	}

	// ids are 1..n in slice order, so event k lives at index k-1.
	out := make([]Event, len(r.events)-int(cursor))
	copy(out, r.events[cursor:])
	return r.lastEventID, out
}

// Load a single package onto the robot.
// The first package loaded while no destination is set becomes the current destination.
func (r *Robot) AddPackage(pkg Package) error {
	if pkg.Size != PackageSmall && pkg.Size != PackageLarge {
		return fmt.Errorf("add package: robot %d: %w", r.id, ErrInvalidPackageSize)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	large, small := countBySize(r.packages)
	switch pkg.Size {
	case PackageLarge:
		large++
	case PackageSmall:
		small++
	}

	if len(r.packages)+1 > MaxPackages {
		return fmt.Errorf("add package: robot %d is at full capacity (max=%d): %w", r.id, MaxPackages, ErrCapacityExceeded)
	}
	if large > MaxLargePackages {
		return fmt.Errorf("add package: robot %d (max large=%d): %w", r.id, MaxLargePackages, ErrLargeCapacityExceeded)
	}
	if small > MaxSmallPackages {
		return fmt.Errorf("add package: robot %d (max small=%d): %w", r.id, MaxSmallPackages, ErrSmallCapacityExceeded)
	}

	r.packages = append(r.packages, pkg)
	if r.destination == "" {
		r.destination = pkg.Destination
	}
	return nil
}

// Apply validates the update and then writes every present field in one critical section.
func (r *Robot) Apply(u RobotUpdate) error {
	if err := u.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if u.Parked != nil {
		r.parked = *u.Parked
	}
	if u.DoorOpened != nil {
		r.doorOpened = *u.DoorOpened
	}
	if u.Reversing != nil {
		r.reversing = *u.Reversing
	}
	if u.Charging != nil {
		r.charging = *u.Charging
	}
	if u.Battery != nil {
		r.battery = *u.Battery
	}
	if u.LED != nil {
		r.led = *u.LED
	}
	if u.Message != nil {
		r.message = *u.Message
	}
	return nil
}

func (r *Robot) Snapshot() RobotSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	large, small := countBySize(r.packages)
	pkgs := make([]Package, len(r.packages))
	copy(pkgs, r.packages)

	var pos *Coordinates
	if r.position != nil {
		p := *r.position
		pos = &p
	}

	return RobotSnapshot{
		ID:                r.id,
		Parked:            r.parked,
		DoorOpened:        r.doorOpened,
		Reversing:         r.reversing,
		Charging:          r.charging,
		Battery:           r.battery,
		LED:               r.led,
		Message:           r.message,
		Packages:          pkgs,
		LargePackageCount: large,
		SmallPackageCount: small,
		Destination:       r.destination,
		Progress:          r.progress,
		Position:          pos,
		MessageCount:      len(r.events),
		LastMessageID:     r.lastEventID,
	}
}

func countBySize(pkgs []Package) (large, small int) {
	for _, p := range pkgs {
		switch p.Size {
		case PackageLarge:
			large++
		case PackageSmall:
			small++
		}
	}
	return large, small
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
