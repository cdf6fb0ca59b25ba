// Package interrupt implements the three-stage Ctrl+C protocol: the first
// interrupt drains work already dispatched, the second cancels in-flight
// work, the third terminates the process immediately.
package interrupt

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// Stage is the current position in the interrupt protocol. Stages only ever
// advance, one per signal.
type Stage int32

const (
	// StageRun is normal operation.
	StageRun Stage = iota
	// StageDrain stops dequeuing new work; dispatched work finishes and
	// partial results are returned.
	StageDrain
	// StageCancel additionally cancels in-flight work, best effort.
	StageCancel
	// StageAbort terminates the process with no further cleanup.
	StageAbort
)

// Watcher owns the process-wide interrupt state. Only the signal goroutine
// mutates the stage counter; everything else reads it atomically.
type Watcher struct {
	stage  atomic.Int32
	outW   io.Writer
	cancel func() // invoked once on reaching StageCancel
	exit   func(int)

	sigCh    chan os.Signal
	stopOnce sync.Once
}

// NewWatcher returns a Watcher that writes stage messages to outW and calls
// cancel when the protocol reaches StageCancel. It does not listen for
// signals until Start is called, so tests can drive Advance directly.
func NewWatcher(outW io.Writer, cancel func()) *Watcher {
	if cancel == nil {
		cancel = func() {}
	}
	return &Watcher{
		outW:   outW,
		cancel: cancel,
		exit:   os.Exit,
		sigCh:  make(chan os.Signal, 1),
	}
}

// Start registers for OS interrupt signals and advances the stage once per
// signal received. Stop releases the registration.
func (w *Watcher) Start() {
	signal.Notify(w.sigCh, os.Interrupt)
	go func() {
		for range w.sigCh {
			w.Advance()
		}
	}()
}

// Stop unregisters the signal handler.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		signal.Stop(w.sigCh)
		close(w.sigCh)
	})
}

// Stage returns the current stage.
func (w *Watcher) Stage() Stage {
	return Stage(w.stage.Load())
}

// Interrupted reports whether at least one interrupt has been received.
func (w *Watcher) Interrupted() bool {
	return w.Stage() >= StageDrain
}

// Advance moves the protocol forward exactly one stage and tells the user
// what the next interrupt will do. At StageCancel the cancel callback fires;
// at StageAbort the process exits with status 130.
func (w *Watcher) Advance() Stage {
	next := Stage(w.stage.Add(1))
	switch next {
	case StageDrain:
		fmt.Fprintln(w.outW, "Interrupt received: no new work will start; waiting for work in progress to finish. Interrupt again to cancel in-flight work.")
	case StageCancel:
		fmt.Fprintln(w.outW, "Second interrupt: cancelling work in progress. Interrupt again to terminate immediately.")
		w.cancel()
	default:
		fmt.Fprintln(w.outW, "Terminating immediately.")
		w.exit(130)
	}
	return next
}
