package orchestrator

import (
	"context"
	"sync"
	"time"
)

// batchJob is one request queued for the worker pool
type batchJob struct {
	index int
	req   Request
}

// RunBatch runs reqs on a pool of workers. Results keep the request order; a
// request still queued when ctx is canceled gets the context error.
func (r *Runner) RunBatch(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	workers := r.opts.Workers
	if workers > len(reqs) {
		workers = len(reqs)
	}

	jobs := make(chan batchJob)
	tracker := NewProgressTracker(len(reqs))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := ctx.Err(); err != nil {
					results[job.index] = Result{Symbol: job.req.Symbol, Interval: job.req.Interval, Error: err.Error()}
				} else {
					results[job.index] = r.RunBacktest(ctx, job.req)
				}
				tracker.Increment()
			}
		}()
	}

	r.log.Info().Int("jobs", len(reqs)).Int("workers", workers).Msg("Starting batch")

	for i, req := range reqs {
		jobs <- batchJob{index: i, req: req}
	}
	close(jobs)
	wg.Wait()

	done, total, pct, elapsed := tracker.Progress()
	r.log.Info().Int("completed", done).Int("total", total).Float64("percent", pct).Dur("elapsed", elapsed).Msg("Batch finished")
	return results
}

// ProgressTracker tracks the progress of batch processing
type ProgressTracker struct {
	total     int
	completed int
	startTime time.Time
	mutex     sync.RWMutex
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(total int) *ProgressTracker {
	return &ProgressTracker{
		total:     total,
		startTime: time.Now(),
	}
}

// Increment increments the completion count
func (pt *ProgressTracker) Increment() {
	pt.mutex.Lock()
	defer pt.mutex.Unlock()
	pt.completed++
}

// Progress returns completed and total jobs, the percentage done and the elapsed time
func (pt *ProgressTracker) Progress() (int, int, float64, time.Duration) {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	progress := 0.0
	if pt.total > 0 {
		progress = float64(pt.completed) / float64(pt.total) * 100
	}
	return pt.completed, pt.total, progress, time.Since(pt.startTime)
}

// EstimateTimeRemaining estimates the remaining time based on current progress
func (pt *ProgressTracker) EstimateTimeRemaining() time.Duration {
	pt.mutex.RLock()
	defer pt.mutex.RUnlock()

	if pt.completed == 0 {
		return 0
	}

	avg := time.Since(pt.startTime) / time.Duration(pt.completed)
	return avg * time.Duration(pt.total-pt.completed)
}
