package simulation

import (
	"context"
	"fmt"
	"log"
	"robot-route-service/internal/domain"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Config for a Simulation. Zero values fall back to package defaults.
type Config struct {
	StepMeters      float64
	FrameInterval   time.Duration
	DefaultDuration time.Duration
	SecondsPerTick  int
	SimTimePerTick  time.Duration

	// Wall-clock length of one tick-interval second; tests shorten it.
	TickUnit time.Duration
	Now      func() time.Time

	KeepFinishedJobs int
}

// Simulation owns the robot fleet, the route job scheduler and the clock.
// Handlers receive it explicitly; there is no package-level instance.
type Simulation struct {
	scheduler *Scheduler
	clock     *Clock

	// Robot ids are stable for the process and survive Reset.
	nextRobotID atomic.Int64

	mu     sync.RWMutex
	robots map[int]*domain.Robot
}

func New(cfg Config) *Simulation {
	return &Simulation{
		scheduler: NewScheduler(SchedulerOptions{
			StepMeters:      cfg.StepMeters,
			FrameInterval:   cfg.FrameInterval,
			DefaultDuration: cfg.DefaultDuration,
			Now:             cfg.Now,
			KeepFinished:    cfg.KeepFinishedJobs,
		}),
		clock:  NewClock(cfg.SecondsPerTick, cfg.SimTimePerTick, cfg.TickUnit, cfg.Now),
		robots: make(map[int]*domain.Robot),
	}
}

func (s *Simulation) Clock() *Clock { return s.clock }

func (s *Simulation) Scheduler() *Scheduler { return s.scheduler }

func (s *Simulation) CreateRobot(opts domain.RobotOptions) (*domain.Robot, error) {
	id := int(s.nextRobotID.Inc())

	r, err := domain.NewRobot(id, opts)
	if err != nil {
		return nil, fmt.Errorf("create robot: %w", err)
	}

	s.mu.Lock()
	s.robots[id] = r
	s.mu.Unlock()

	log.Printf("robot created robot_id=%d", id)
	return r, nil
}

func (s *Simulation) Robot(id int) (*domain.Robot, error) {
	s.mu.RLock()
	r, ok := s.robots[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("robot %d: %w", id, domain.ErrRobotNotFound)
	}
	return r, nil
}

// Robots returns every robot ordered by id.
func (s *Simulation) Robots() []*domain.Robot {
	s.mu.RLock()
	out := make([]*domain.Robot, 0, len(s.robots))
	for _, r := range s.robots {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(a, b int) bool { return out[a].ID() < out[b].ID() })
	return out
}

// DeleteRobot cancels and joins the robot's jobs before removing it.
// The write lock is held throughout so no StartJob can slip in between.
func (s *Simulation) DeleteRobot(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.robots[id]; !ok {
		return fmt.Errorf("delete robot %d: %w", id, domain.ErrRobotNotFound)
	}

	// workers never take s.mu, so joining here cannot deadlock
	n := s.scheduler.CancelRobot(id)
	delete(s.robots, id)

	log.Printf("robot deleted robot_id=%d cancelled_jobs=%d", id, n)
	return nil
}

func (s *Simulation) AddPackage(robotID int, pkg domain.Package) error {
	r, err := s.Robot(robotID)
	if err != nil {
		return fmt.Errorf("add package: %w", err)
	}
	return r.AddPackage(pkg)
}

// StartJob holds the read lock across lookup and launch, so DeleteRobot and
// Reset either see the new job or make the lookup fail.
func (s *Simulation) StartJob(robotID int, path []domain.Coordinates, duration time.Duration) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.robots[robotID]
	if !ok {
		return 0, fmt.Errorf("start job: robot %d: %w", robotID, domain.ErrRobotNotFound)
	}
	return s.scheduler.StartJob(r, path, duration)
}

func (s *Simulation) Jobs() []JobInfo { return s.scheduler.Jobs() }

// Reset stops all workers, then clears robots, finished jobs and the clock.
func (s *Simulation) Reset() {
	s.mu.Lock()
	n := s.scheduler.CancelAll()
	s.scheduler.Prune()
	s.robots = make(map[int]*domain.Robot)
	s.mu.Unlock()

	s.clock.Reset()
	log.Printf("simulation reset cancelled_jobs=%d", n)
}

// Run drives the clock until ctx is done and then joins every worker.
func (s *Simulation) Run(ctx context.Context) error {
	err := s.clock.Run(ctx)
	n := s.scheduler.CancelAll()
	log.Printf("simulation stopped cancelled_jobs=%d", n)
	return err
}
