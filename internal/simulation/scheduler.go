package simulation

import (
	"context"
	"fmt"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/services"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// JobInfo is a read-only view of a route job.
type JobInfo struct {
	ID          int64
	RobotID     int
	State       JobState
	Duration    time.Duration
	StartedAt   time.Time
	TotalMeters float64
	Points      int
}

// SchedulerOptions tunes worker behavior. Zero values fall back to defaults.
type SchedulerOptions struct {
	StepMeters      float64
	FrameInterval   time.Duration
	DefaultDuration time.Duration
	Now             func() time.Time

	// Finished and cancelled jobs kept for listing; older ones are dropped on the next StartJob.
	KeepFinished int
}

// Scheduler launches route workers and owns their cancel/join handles.
//
// Several jobs may run against the same robot at once. Their writes
// interleave under the robot's lock; the visible progress is whichever
// job is furthest along.
type Scheduler struct {
	opts SchedulerOptions

	// Job ids are process-wide and never reused, even across schedulers.
	nextID *atomic.Int64

	mu   sync.Mutex
	jobs map[int64]*routeJob
}

var jobIDs = atomic.NewInt64(0)

const DefaultKeepFinished = 256

func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.StepMeters <= 0 {
		opts.StepMeters = services.DefaultStepMeters
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = DefaultRouteDuration
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.KeepFinished <= 0 {
		opts.KeepFinished = DefaultKeepFinished
	}

	return &Scheduler{
		opts:   opts,
		nextID: jobIDs,
		jobs:   make(map[int64]*routeJob),
	}
}

// StartJob validates the path synchronously and spawns a worker for it.
func (s *Scheduler) StartJob(robot *domain.Robot, path []domain.Coordinates, duration time.Duration) (int64, error) {
	if robot == nil {
		return 0, fmt.Errorf("start job: %w", domain.ErrRobotNotFound)
	}

	resampled, err := services.ResamplePath(path, s.opts.StepMeters)
	if err != nil {
		return 0, fmt.Errorf("start job: robot %d: %w", robot.ID(), err)
	}

	if duration <= 0 {
		duration = s.opts.DefaultDuration
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &routeJob{
		id:       s.nextID.Inc(),
		robot:    robot,
		path:     resampled,
		duration: duration,
		frame:    s.opts.FrameInterval,
		now:      s.opts.Now,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.trimFinishedLocked()
	s.jobs[job.id] = job
	s.mu.Unlock()

	go job.run(ctx)

	return job.id, nil
}

// Wait blocks until the job has stopped or ctx is done.
func (s *Scheduler) Wait(ctx context.Context, jobID int64) error {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("wait job %d: not found", jobID)
	}

	select {
	case <-job.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait job %d: %w", jobID, ctx.Err())
	}
}

// CancelRobot stops every job bound to robotID and waits for them to exit.
// It returns how many of those jobs were still running.
func (s *Scheduler) CancelRobot(robotID int) int {
	return s.cancelWhere(func(j *routeJob) bool { return j.robot.ID() == robotID })
}

// CancelAll stops and joins every job and returns how many were still running.
func (s *Scheduler) CancelAll() int {
	return s.cancelWhere(func(*routeJob) bool { return true })
}

func (s *Scheduler) cancelWhere(match func(*routeJob) bool) int {
	s.mu.Lock()
	var targets []*routeJob
	for _, j := range s.jobs {
		if match(j) {
			targets = append(targets, j)
		}
	}
	s.mu.Unlock()

	running := 0
	for _, j := range targets {
		if !j.State().Terminal() {
			running++
		}
		j.cancel()
	}
	for _, j := range targets {
		<-j.done
	}
	return running
}

// Prune drops finished and cancelled jobs and returns how many were removed.
func (s *Scheduler) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, j := range s.jobs {
		if j.State().Terminal() {
			j.cancel()
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// trimFinishedLocked drops the oldest terminal jobs beyond opts.KeepFinished.
func (s *Scheduler) trimFinishedLocked() {
	var done []int64
	for id, j := range s.jobs {
		if j.State().Terminal() {
			done = append(done, id)
		}
	}
	if len(done) <= s.opts.KeepFinished {
		return
	}

	sort.Slice(done, func(a, b int) bool { return done[a] < done[b] })
	for _, id := range done[:len(done)-s.opts.KeepFinished] {
		s.jobs[id].cancel()
		delete(s.jobs, id)
	}
}

func (s *Scheduler) Job(id int64) (JobInfo, bool) {
	s.mu.Lock()
	j, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		return JobInfo{}, false
	}
	return j.info(), true
}

// Jobs returns all tracked jobs ordered by id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.info())
	}
	s.mu.Unlock()

	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// Active counts jobs that have not reached a terminal state.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, j := range s.jobs {
		if !j.State().Terminal() {
			n++
		}
	}
	return n
}

func (j *routeJob) info() JobInfo {
	return JobInfo{
		ID:          j.id,
		RobotID:     j.robot.ID(),
		State:       j.State(),
		Duration:    j.duration,
		StartedAt:   j.startedAt.Load(),
		TotalMeters: j.path.TotalMeters(),
		Points:      len(j.path.Points),
	}
}
