package orchestrator

import "fmt"

// progressBuffer bounds how far a slow consumer may lag before new events
// are dropped.
const progressBuffer = 64

// ProgressReporter streams stage and section updates to the CLI through a
// buffered channel. Emitting never blocks pipeline work.
type ProgressReporter struct {
	ch chan ProgressEvent
}

// NewProgressReporter returns a reporter with room for progressBuffer
// undelivered events.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{ch: make(chan ProgressEvent, progressBuffer)}
}

// Emit queues an event, dropping it when the consumer has fallen behind.
// Progress display is best-effort; a lost line never loses work.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns the read side of the event stream.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close ends the stream; consumers ranging over Subscribe return.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatProgress renders one event as the indented status line the run
// command prints under each stage header.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s queued", event.Section)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s", event.Section)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s", event.Section)
	case ProgressFailed:
		if event.Message == "" {
			return fmt.Sprintf("  ✗ %s", event.Section)
		}
		return fmt.Sprintf("  ✗ %s: %s", event.Section, event.Message)
	}
	return fmt.Sprintf("  ? %s", event.Section)
}

// FormatStageHeader names a stage for display, keyed by a shortened run ID.
func FormatStageHeader(runID string, stage Stage) string {
	return fmt.Sprintf("[%.8s] stage %d: %s", runID, int(stage), stage.String())
}
