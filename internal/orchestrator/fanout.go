package orchestrator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a single unit of parallel work within a stage: one wireframe, one
// asset generation, one per-slide prompt.
type Task struct {
	// Section identifies which part of the stage this task produces.
	Section string

	// Run performs the work and returns the produced output.
	Run func(ctx context.Context) (string, error)
}

// TaskResult holds the outcome of a single Task after fan-out.
type TaskResult struct {
	// Section identifies which part of the stage this result belongs to.
	Section string

	// Output is the task's product on success.
	Output string

	// Err is non-nil if the task failed.
	Err error
}

// FanOut dispatches stage tasks in parallel and collects their results. If
// any task fails, the derived context is canceled so that remaining in-flight
// work is abandoned promptly.
type FanOut struct {
	limit      int
	onProgress func(ProgressEvent)
}

// NewFanOut creates a FanOut. limit caps concurrent tasks; zero or negative
// means unlimited. onProgress is called synchronously from each goroutine;
// it may be nil.
func NewFanOut(limit int, onProgress func(ProgressEvent)) *FanOut {
	return &FanOut{
		limit:      limit,
		onProgress: onProgress,
	}
}

// Run dispatches every task in parallel, emitting progress events for each.
// It uses errgroup.WithContext so that the first failure cancels the derived
// context, causing remaining tasks to return early.
//
// All collected TaskResults are returned regardless of whether an error
// occurred. The returned error is the first non-nil error from the errgroup.
func (f *FanOut) Run(ctx context.Context, stage Stage, tasks []Task) ([]TaskResult, error) {
	results := make([]TaskResult, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}

	for i, task := range tasks {
		f.emit(ProgressEvent{
			Stage:   stage,
			Section: task.Section,
			Status:  ProgressPending,
		})

		g.Go(func() error {
			f.emit(ProgressEvent{
				Stage:   stage,
				Section: task.Section,
				Status:  ProgressWorking,
			})

			out, err := task.Run(gctx)
			if err != nil {
				results[i] = TaskResult{Section: task.Section, Err: err}
				f.emit(ProgressEvent{
					Stage:   stage,
					Section: task.Section,
					Status:  ProgressFailed,
					Message: err.Error(),
				})
				return err // triggers context cancellation for other goroutines
			}

			results[i] = TaskResult{Section: task.Section, Output: out}
			f.emit(ProgressEvent{
				Stage:   stage,
				Section: task.Section,
				Status:  ProgressComplete,
			})
			return nil
		})
	}

	err := g.Wait()
	return results, err
}

// emit sends a progress event if a callback is registered.
func (f *FanOut) emit(ev ProgressEvent) {
	if f.onProgress != nil {
		f.onProgress(ev)
	}
}
