package simulation

import (
	"context"
	"fmt"
	"log"
	"math"
	"robot-route-service/internal/domain"
	"robot-route-service/internal/services"
	"time"

	"go.uber.org/atomic"
)

const (
	// 20 Hz position updates.
	DefaultFrameInterval = 50 * time.Millisecond
	DefaultRouteDuration = 10 * time.Second

	progressBuckets = 20
)

type JobState int32

const (
	JobCreated JobState = iota
	JobRunning
	JobFinished
	JobCancelled
)

func (s JobState) String() string {
	switch s {
	case JobCreated:
		return "CREATED"
	case JobRunning:
		return "RUNNING"
	case JobFinished:
		return "FINISHED"
	case JobCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("JobState(%d)", int32(s))
	}
}

func (s JobState) Terminal() bool { return s == JobFinished || s == JobCancelled }

// routeJob drives one robot along one resampled path by wall-clock time.
type routeJob struct {
	id       int64
	robot    *domain.Robot
	path     services.ResampledPath
	duration time.Duration
	frame    time.Duration
	now      func() time.Time

	state     atomic.Int32
	startedAt atomic.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func (j *routeJob) State() JobState { return JobState(j.state.Load()) }

// run is the worker loop. It closes done on every exit path.
func (j *routeJob) run(ctx context.Context) {
	defer close(j.done)

	r := j.robot
	start := j.now()
	j.startedAt.Store(start)
	j.state.Store(int32(JobRunning))

	r.SetParked(false)
	r.SetProgressPosition(0, j.path.First())
	r.AddMessage(domain.EventRouteStarted, "Route started.", 0)

	log.Printf("route job started job_id=%d robot_id=%d points=%d meters=%.0f duration=%s",
		j.id, r.ID(), len(j.path.Points), j.path.TotalMeters(), j.duration)

	ticker := time.NewTicker(j.frame)
	defer ticker.Stop()

	lastTick := -1
	lastBucket := -1
	progress := 0.0

	for {
		elapsed := j.now().Sub(start)
		progress = math.Min(1, math.Max(0, float64(elapsed)/float64(j.duration)))

		if progress >= 1 {
			r.SetProgressPosition(1, j.path.Last())
		} else {
			r.SetProgressPosition(progress, j.path.PositionAt(progress))
		}

		if sec := int(elapsed / time.Second); sec != lastTick {
			lastTick = sec
			r.AddMessage(domain.EventRouteTick,
				fmt.Sprintf("Route tick: t=%ds, progress=%d%%", sec, int(progress*100)), progress)
		}

		lastBucket = emitBuckets(r, lastBucket, progress)

		if progress >= 1 {
			r.SetParked(true)
			r.AddMessage(domain.EventRouteFinished, "Route finished.", 1)
			j.state.Store(int32(JobFinished))
			log.Printf("route job finished job_id=%d robot_id=%d dur=%dms", j.id, r.ID(), j.now().Sub(start).Milliseconds())
			return
		}

		select {
		case <-ctx.Done():
			r.SetParked(true)
			r.AddMessage(domain.EventRouteCancelled,
				fmt.Sprintf("Route cancelled at %d%%.", int(progress*100)), progress)
			j.state.Store(int32(JobCancelled))
			log.Printf("route job cancelled job_id=%d robot_id=%d progress=%.3f", j.id, r.ID(), progress)
			return
		case <-ticker.C:
		}
	}
}

// emitBuckets appends one ROUTE_PROGRESS event for every 5% bucket in
// (last, current] and returns the new last bucket. Start with last = -1 so
// bucket 0 is reported on the first frame.
func emitBuckets(r *domain.Robot, last int, progress float64) int {
	bucket := int(math.Floor(progress*progressBuckets + 1e-9))
	if bucket > progressBuckets {
		bucket = progressBuckets
	}

	for b := last + 1; b <= bucket; b++ {
		r.AddMessage(domain.EventRouteProgress, fmt.Sprintf("%d%% reached.", b*100/progressBuckets), progress)
	}
	if bucket > last {
		return bucket
	}
	return last
}
