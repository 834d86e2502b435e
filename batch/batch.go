// Package batch executes a fixed list of render jobs with bounded
// concurrency. Rendering a full catalog against one room photo is CPU-bound
// and embarrassingly parallel; each job decodes its own tile and writes its
// own output, so workers share nothing but the claim index.
package batch

import (
	"context"
	"runtime"
	"sync"
)

// Job is one unit of batch work.
type Job struct {
	ID string
	Fn func(ctx context.Context) error
}

// Result pairs a job id with its outcome.
type Result struct {
	ID  string
	Err error
}

// Pool runs jobs with a bounded worker count.
type Pool struct {
	// Workers caps concurrent jobs; non-positive selects GOMAXPROCS.
	Workers int
}

// Run executes every job and reports one Result per job through onDone,
// which is called from worker goroutines and must be safe for concurrent use
// (nil is fine). Cancelling ctx stops claiming new jobs; jobs already running
// finish and report. Run returns the first job error, or the context error
// when cancelled before all jobs were claimed.
func (p *Pool) Run(ctx context.Context, jobs []Job, onDone func(Result)) error {
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		next     int
		firstErr error
	)
	claim := func() (Job, bool) {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(jobs) {
			return Job{}, false
		}
		j := jobs[next]
		next++
		return j, true
	}
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					record(ctx.Err())
					return
				}
				j, ok := claim()
				if !ok {
					return
				}
				err := j.Fn(ctx)
				record(err)
				if onDone != nil {
					onDone(Result{ID: j.ID, Err: err})
				}
			}
		}()
	}
	wg.Wait()
	return firstErr
}
