package simulation

import (
	"context"
	"fmt"
	"robot-route-service/internal/domain"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

var threePointPath = []domain.Coordinates{
	{Lat: 49.00, Lon: 8.40},
	{Lat: 49.00, Lon: 8.41},
	{Lat: 49.01, Lon: 8.41},
}

func newTestSimulation(t *testing.T) *Simulation {
	t.Helper()

	sim := New(Config{StepMeters: 12})
	t.Cleanup(func() { sim.Scheduler().CancelAll() })
	return sim
}

func createRobot(t *testing.T, sim *Simulation) *domain.Robot {
	t.Helper()

	r, err := sim.CreateRobot(domain.DefaultRobotOptions())
	require.NoError(t, err)
	return r
}

func waitJob(t *testing.T, sim *Simulation, jobID int64, within time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), within)
	defer cancel()
	require.NoError(t, sim.Scheduler().Wait(ctx, jobID))
}

func countKind(events []domain.Event, kind domain.EventKind) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func TestRouteJobEndToEnd(t *testing.T) {
	sim := newTestSimulation(t)
	r := createRobot(t, sim)

	began := time.Now()
	jobID, err := sim.StartJob(r.ID(), threePointPath, 2*time.Second)
	require.NoError(t, err)

	waitJob(t, sim, jobID, 5*time.Second)
	took := time.Since(began)

	require.GreaterOrEqual(t, took, 2*time.Second)
	require.Less(t, took, 2*time.Second+500*time.Millisecond)

	latest, events := r.MessagesSince(0)
	require.Equal(t, int64(len(events)), latest)

	require.Equal(t, domain.EventRouteStarted, events[0].Kind)
	require.Equal(t, 0.0, events[0].Progress)
	require.Equal(t, 1, countKind(events, domain.EventRouteStarted))
	require.Equal(t, domain.EventRouteFinished, events[len(events)-1].Kind)
	require.Equal(t, 1, countKind(events, domain.EventRouteFinished))
	require.Zero(t, countKind(events, domain.EventRouteCancelled))

	var buckets []string
	for i, e := range events {
		require.Equal(t, int64(i+1), e.ID)
		if i > 0 {
			require.GreaterOrEqual(t, e.Progress, events[i-1].Progress, "event %d went backwards", e.ID)
		}
		if e.Kind == domain.EventRouteProgress {
			buckets = append(buckets, e.Text)
		}
	}

	require.Len(t, buckets, 21)
	for i, text := range buckets {
		require.Equal(t, fmt.Sprintf("%d%% reached.", i*5), text)
	}
	require.GreaterOrEqual(t, countKind(events, domain.EventRouteTick), 2)

	s := r.Snapshot()
	require.Equal(t, 1.0, s.Progress)
	require.NotNil(t, s.Position)
	require.Equal(t, threePointPath[2], *s.Position)
	require.True(t, s.Parked)

	info, ok := sim.Scheduler().Job(jobID)
	require.True(t, ok)
	require.Equal(t, JobFinished, info.State)
	require.Equal(t, r.ID(), info.RobotID)
}

func TestConcurrentJobsKeepMessageLogConsistent(t *testing.T) {
	sim := newTestSimulation(t)
	r := createRobot(t, sim)

	first, err := sim.StartJob(r.ID(), threePointPath, 300*time.Millisecond)
	require.NoError(t, err)
	second, err := sim.StartJob(r.ID(), threePointPath, 400*time.Millisecond)
	require.NoError(t, err)
	require.Greater(t, second, first)

	waitJob(t, sim, first, 3*time.Second)
	waitJob(t, sim, second, 3*time.Second)

	latest, events := r.MessagesSince(0)
	require.Equal(t, int64(len(events)), latest)
	for i, e := range events {
		require.Equal(t, int64(i+1), e.ID)
	}
	require.Equal(t, 2, countKind(events, domain.EventRouteStarted))
	require.Equal(t, 2, countKind(events, domain.EventRouteFinished))
	require.Equal(t, 1.0, r.Snapshot().Progress)
}

func TestStartJobValidation(t *testing.T) {
	sim := newTestSimulation(t)
	r := createRobot(t, sim)

	_, err := sim.StartJob(r.ID(), threePointPath[:1], time.Second)
	require.ErrorIs(t, err, domain.ErrInvalidRoute)

	_, err = sim.StartJob(r.ID(), []domain.Coordinates{threePointPath[0], threePointPath[0]}, time.Second)
	require.ErrorIs(t, err, domain.ErrInvalidRoute)

	_, err = sim.StartJob(r.ID()+1000, threePointPath, time.Second)
	require.ErrorIs(t, err, domain.ErrRobotNotFound)

	_, err = sim.Scheduler().StartJob(nil, threePointPath, time.Second)
	require.ErrorIs(t, err, domain.ErrRobotNotFound)

	require.Empty(t, sim.Jobs())
	require.Zero(t, r.Snapshot().MessageCount)
}

func TestDeleteRobotCancelsItsJobs(t *testing.T) {
	sim := newTestSimulation(t)
	r := createRobot(t, sim)
	other := createRobot(t, sim)

	jobID, err := sim.StartJob(r.ID(), threePointPath, 10*time.Second)
	require.NoError(t, err)
	otherJob, err := sim.StartJob(other.ID(), threePointPath, 10*time.Second)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return r.Snapshot().Progress > 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sim.DeleteRobot(r.ID()))

	info, ok := sim.Scheduler().Job(jobID)
	require.True(t, ok)
	require.Equal(t, JobCancelled, info.State)

	_, events := r.MessagesSince(0)
	last := events[len(events)-1]
	require.Equal(t, domain.EventRouteCancelled, last.Kind)
	require.True(t, r.Snapshot().Parked)

	_, err = sim.Robot(r.ID())
	require.ErrorIs(t, err, domain.ErrRobotNotFound)
	require.ErrorIs(t, sim.DeleteRobot(r.ID()), domain.ErrRobotNotFound)

	info, ok = sim.Scheduler().Job(otherJob)
	require.True(t, ok)
	require.Equal(t, JobRunning, info.State)
}

func TestResetCancelsWorkersAndKeepsRobotIDs(t *testing.T) {
	sim := newTestSimulation(t)
	r := createRobot(t, sim)

	_, err := sim.StartJob(r.ID(), threePointPath, 10*time.Second)
	require.NoError(t, err)

	sim.Clock().Advance()
	sim.Reset()

	require.Empty(t, sim.Robots())
	require.Empty(t, sim.Jobs())
	require.Zero(t, sim.Clock().State().Ticks)
	require.Zero(t, sim.Scheduler().Active())

	next := createRobot(t, sim)
	require.Greater(t, next.ID(), r.ID())
}

func TestRunJoinsWorkersOnShutdown(t *testing.T) {
	sim := New(Config{TickUnit: time.Millisecond})
	r := createRobot(t, sim)

	jobID, err := sim.StartJob(r.ID(), threePointPath, 10*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	info, _ := sim.Scheduler().Job(jobID)
	require.Equal(t, JobCancelled, info.State)
}

func progressTexts(events []domain.Event) []string {
	var out []string
	for _, e := range events {
		if e.Kind == domain.EventRouteProgress {
			out = append(out, e.Text)
		}
	}
	return out
}

func bucketTexts(from, to int) []string {
	var out []string
	for b := from; b <= to; b++ {
		out = append(out, fmt.Sprintf("%d%% reached.", b*5))
	}
	return out
}

func TestEmitBucketsCatchesUpSkippedBuckets(t *testing.T) {
	r, err := domain.NewRobot(1, domain.DefaultRobotOptions())
	require.NoError(t, err)

	last := emitBuckets(r, -1, 0)
	require.Equal(t, 0, last)

	last = emitBuckets(r, last, 0.37)
	require.Equal(t, 7, last)

	// same progress again adds nothing
	require.Equal(t, 7, emitBuckets(r, last, 0.37))

	last = emitBuckets(r, last, 1)
	require.Equal(t, progressBuckets, last)
	require.Equal(t, progressBuckets, emitBuckets(r, last, 1))

	_, events := r.MessagesSince(0)
	require.Equal(t, bucketTexts(0, 20), progressTexts(events))
}

func TestWorkerCatchUpWithJumpingClock(t *testing.T) {
	t0 := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	clk := atomic.NewTime(t0)

	sim := New(Config{StepMeters: 12, FrameInterval: 5 * time.Millisecond, Now: clk.Load})
	t.Cleanup(func() { sim.Scheduler().CancelAll() })
	r := createRobot(t, sim)

	jobID, err := sim.StartJob(r.ID(), threePointPath, 10*time.Second)
	require.NoError(t, err)

	progressCount := func() int {
		_, events := r.MessagesSince(0)
		return len(progressTexts(events))
	}

	require.Eventually(t, func() bool { return progressCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	clk.Store(t0.Add(3700 * time.Millisecond))
	require.Eventually(t, func() bool { return progressCount() == 8 }, 2*time.Second, 5*time.Millisecond)

	_, events := r.MessagesSince(0)
	var jumped []domain.Event
	for _, e := range events {
		if e.Kind == domain.EventRouteProgress && e.Text != "0% reached." {
			jumped = append(jumped, e)
		}
	}
	require.Len(t, jumped, 7)
	for i, e := range jumped {
		require.Equal(t, fmt.Sprintf("%d%% reached.", (i+1)*5), e.Text)
		require.InDelta(t, 0.37, e.Progress, 1e-9)
	}

	clk.Store(t0.Add(10 * time.Second))
	waitJob(t, sim, jobID, 2*time.Second)

	_, events = r.MessagesSince(0)
	require.Equal(t, bucketTexts(0, 20), progressTexts(events))
	require.Equal(t, 1, countKind(events, domain.EventRouteFinished))
	require.Equal(t, threePointPath[2], *r.Snapshot().Position)
}

func TestDeleteRobotWhileStartingJobsLeavesNoWorker(t *testing.T) {
	sim := newTestSimulation(t)

	for i := 0; i < 50; i++ {
		r := createRobot(t, sim)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if _, err := sim.StartJob(r.ID(), threePointPath, 10*time.Second); err != nil {
					assert.ErrorIs(t, err, domain.ErrRobotNotFound)
					return
				}
			}
		}()

		require.NoError(t, sim.DeleteRobot(r.ID()))
		wg.Wait()

		for _, j := range sim.Jobs() {
			if j.RobotID == r.ID() {
				require.True(t, j.State.Terminal(), "job %d for deleted robot %d is %s", j.ID, r.ID(), j.State)
			}
		}
	}
}

func TestResetWhileStartingJobsLeavesNoWorker(t *testing.T) {
	sim := newTestSimulation(t)

	for i := 0; i < 20; i++ {
		robots := []*domain.Robot{createRobot(t, sim), createRobot(t, sim)}

		var wg sync.WaitGroup
		for _, r := range robots {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for {
					if _, err := sim.StartJob(id, threePointPath, 10*time.Second); err != nil {
						assert.ErrorIs(t, err, domain.ErrRobotNotFound)
						return
					}
				}
			}(r.ID())
		}

		sim.Reset()
		wg.Wait()

		require.Empty(t, sim.Jobs())
		require.Zero(t, sim.Scheduler().Active())
	}
}

func TestCancelCountsOnlyRunningJobs(t *testing.T) {
	sim := newTestSimulation(t)
	r := createRobot(t, sim)

	finished, err := sim.StartJob(r.ID(), threePointPath, 100*time.Millisecond)
	require.NoError(t, err)
	waitJob(t, sim, finished, 2*time.Second)

	require.Zero(t, sim.Scheduler().CancelRobot(r.ID()))

	_, err = sim.StartJob(r.ID(), threePointPath, 10*time.Second)
	require.NoError(t, err)

	require.Equal(t, 1, sim.Scheduler().CancelAll())
	require.Zero(t, sim.Scheduler().CancelAll())
}

func TestSchedulerKeepsBoundedFinishedJobs(t *testing.T) {
	sim := New(Config{StepMeters: 12, FrameInterval: 5 * time.Millisecond, KeepFinishedJobs: 2})
	t.Cleanup(func() { sim.Scheduler().CancelAll() })
	r := createRobot(t, sim)

	var ids []int64
	for i := 0; i < 4; i++ {
		id, err := sim.StartJob(r.ID(), threePointPath, 20*time.Millisecond)
		require.NoError(t, err)
		waitJob(t, sim, id, 2*time.Second)
		ids = append(ids, id)
	}
	require.Len(t, sim.Jobs(), 4)

	running, err := sim.StartJob(r.ID(), threePointPath, 10*time.Second)
	require.NoError(t, err)

	jobs := sim.Jobs()
	require.Len(t, jobs, 3)
	require.Equal(t, []int64{ids[2], ids[3], running}, []int64{jobs[0].ID, jobs[1].ID, jobs[2].ID})

	_, ok := sim.Scheduler().Job(ids[0])
	require.False(t, ok)
}
