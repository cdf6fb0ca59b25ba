// Package executor schedules independent work units across a bounded worker
// pool. Output order always matches submission order regardless of
// completion order, and a failing unit never takes its siblings down: each
// unit's outcome is captured as a tagged result.
package executor

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/ctxlog"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/interrupt"
)

// Task is one independently schedulable unit of work. Implementations should
// honor ctx cancellation at their blocking points; that is the only
// cancellation the pool can offer goroutine-backed workers.
type Task[T any] func(ctx context.Context) (T, error)

// Result is the order-tagged outcome of one work unit.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// indexedTask pairs a task with its submission position.
type indexedTask[T any] struct {
	index int
	task  Task[T]
}

// Execute runs the tasks on a pool of workers and returns one Result per
// completed unit, sorted by submission order. When the interrupt watcher
// reaches StageDrain, dispatch stops and only the results of units already
// dispatched come back; watcher may be nil when no interrupt handling is
// wanted. A unit that panics yields a failure result, not a crash.
func Execute[T any](ctx context.Context, tasks []Task[T], workers int, watcher *interrupt.Watcher) []Result[T] {
	logger := ctxlog.FromContext(ctx)
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(tasks) > 0 && workers > len(tasks) {
		workers = len(tasks)
	}

	taskCh := make(chan indexedTask[T])
	resultCh := make(chan Result[T], len(tasks))

	var wg sync.WaitGroup
	wg.Add(workers)
	logger.Debug("Starting worker pool.", "workers", workers, "tasks", len(tasks))
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for work := range taskCh {
				resultCh <- runUnit(ctx, work)
			}
		}()
	}

	dispatched := 0
	for i, t := range tasks {
		if ctx.Err() != nil {
			logger.Warn("Context canceled, stopping dispatch.", "dispatched", dispatched, "total", len(tasks))
			break
		}
		if watcher != nil && watcher.Interrupted() {
			logger.Warn("Interrupt received, stopping dispatch.", "dispatched", dispatched, "total", len(tasks))
			break
		}
		taskCh <- indexedTask[T]{index: i, task: t}
		dispatched++
	}
	close(taskCh)
	wg.Wait()
	close(resultCh)

	results := make([]Result[T], 0, dispatched)
	for r := range resultCh {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	logger.Debug("Worker pool drained.", "completed", len(results))
	return results
}

// ExecuteBatches chunks the task list to bound the number of in-flight
// units, re-checking the interrupt stage between chunks. Result indexes
// still refer to positions in the full task list.
func ExecuteBatches[T any](ctx context.Context, tasks []Task[T], workers, batchSize int, watcher *interrupt.Watcher) []Result[T] {
	if batchSize <= 0 {
		return Execute(ctx, tasks, workers, watcher)
	}

	var results []Result[T]
	for start := 0; start < len(tasks); start += batchSize {
		if ctx.Err() != nil {
			break
		}
		if watcher != nil && watcher.Interrupted() {
			break
		}
		end := min(start+batchSize, len(tasks))
		for _, r := range Execute(ctx, tasks[start:end], workers, watcher) {
			r.Index += start
			results = append(results, r)
		}
	}
	return results
}

// runUnit executes one unit, converting a panic into a failure result so a
// bad search or unreadable file cannot abort sibling units.
func runUnit[T any](ctx context.Context, work indexedTask[T]) (res Result[T]) {
	res.Index = work.index
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("work unit %d panicked: %v", work.index, r)
		}
	}()
	res.Value, res.Err = work.task(ctx)
	return res
}
