// Package workerpool implements the bounded, cancellable task pool (spec
// §4.7, C7) that drives archive extraction, thumbnailing, and decode off
// the UI thread.
//
// Grounded on the teacher's backend/cache/handle.go worker pool: a
// channel-fed queue, a fixed set of goroutines started up front, and a
// sync.WaitGroup used to drain them on shutdown. Task identity and
// cancellation flags are realized with google/uuid and atomic.Bool rather
// than the teacher's chunk-offset channel, since this pool schedules
// arbitrary closures instead of byte-range downloads.
package workerpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// State is a Task's lifecycle stage (spec §4.7).
type State int

const (
	Pending State = iota
	Running
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Handle is passed to a task's Work function so it can report progress and
// poll for cooperative cancellation at well-defined suspension points
// (spec §4.7: "tasks MUST poll is_cancelled at well-defined points").
type Handle struct {
	task *Task
}

// ReportProgress delivers an on_progress callback for the owning task.
func (h *Handle) ReportProgress(percent int, message string) {
	if h.task.callbacks.OnProgress != nil {
		h.task.callbacks.OnProgress(percent, message)
	}
}

// IsCancelled reports whether Cancel has been called for this task.
func (h *Handle) IsCancelled() bool {
	return h.task.cancelFlag.Load()
}

// Work is the function a submitted task runs on a worker goroutine.
type Work func(ctx context.Context, h *Handle) (any, error)

// Callbacks are delivered serially per task: Started, then zero or more
// Progress, then exactly one of Result xor Error (or neither, if cancelled
// before completion), then always Done (spec §4.7 ordering guarantee).
type Callbacks struct {
	OnStarted  func()
	OnProgress func(percent int, message string)
	OnResult   func(value any)
	OnError    func(kind, message string, trace string)
	OnDone     func()
}

// Task is one unit of work submitted to the Pool (spec §4.7).
type Task struct {
	ID         uuid.UUID
	work       Work
	callbacks  Callbacks
	cancelFlag atomic.Bool
	state      atomic.Int32
}

// State reports the task's current lifecycle stage.
func (t *Task) State() State { return State(t.state.Load()) }

// Pool is a process-wide bounded pool of worker goroutines (default: CPU
// count) that runs submitted tasks and delivers their callbacks.
type Pool struct {
	Log *logrus.Logger

	queue    chan *Task
	wg       sync.WaitGroup
	activeWg sync.WaitGroup

	mu    sync.Mutex
	tasks map[uuid.UUID]*Task
}

// New starts a Pool with workers goroutines. workers <= 0 defaults to
// runtime.NumCPU().
func New(workers int, log *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	p := &Pool{
		Log:   log,
		queue: make(chan *Task, workers*4),
		tasks: make(map[uuid.UUID]*Task),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.runWorker(i)
	}
	return p
}

// Submit enqueues work and returns its Task ID immediately; the pool picks
// it up on the next free worker.
func (p *Pool) Submit(ctx context.Context, work Work, cb Callbacks) uuid.UUID {
	t := &Task{ID: uuid.New(), work: work, callbacks: cb}
	t.state.Store(int32(Pending))

	p.mu.Lock()
	p.tasks[t.ID] = t
	p.mu.Unlock()
	p.activeWg.Add(1)

	go func() {
		p.queue <- t
		_ = ctx
	}()
	return t.ID
}

// Cancel sets the cancel flag for id. An in-flight task that has already
// passed its last is_cancelled check still runs to completion, but its
// result/error is suppressed; only finished fires (spec §4.7).
func (p *Pool) Cancel(id uuid.UUID) {
	p.mu.Lock()
	t, ok := p.tasks[id]
	p.mu.Unlock()
	if ok {
		t.cancelFlag.Store(true)
	}
}

// CancelAll marks every currently tracked task cancelled and clears the
// registry. Running goroutines are not forcibly killed; per spec §4.7
// this is the "cooperative, keep running to next checkpoint" policy.
func (p *Pool) CancelAll() {
	p.mu.Lock()
	for _, t := range p.tasks {
		t.cancelFlag.Store(true)
	}
	p.tasks = make(map[uuid.UUID]*Task)
	p.mu.Unlock()
}

// WaitAll blocks until every task submitted so far has delivered its
// finished callback, or ctx is done, whichever comes first (spec §5
// wait_for_all(ms), realized with a context instead of a bare timeout).
func (p *Pool) WaitAll(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.activeWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) runWorker(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		p.runTask(t)
	}
}

func (p *Pool) runTask(t *Task) {
	defer func() {
		p.mu.Lock()
		delete(p.tasks, t.ID)
		p.mu.Unlock()
		if t.callbacks.OnDone != nil {
			t.callbacks.OnDone()
		}
		p.activeWg.Done()
	}()

	t.state.Store(int32(Running))
	if t.callbacks.OnStarted != nil {
		t.callbacks.OnStarted()
	}

	result, err := p.invoke(t)

	if t.cancelFlag.Load() {
		t.state.Store(int32(Cancelled))
		return
	}

	if err != nil {
		t.state.Store(int32(Failed))
		if t.callbacks.OnError != nil {
			t.callbacks.OnError("task_error", err.Error(), fmt.Sprintf("%+v", err))
		}
		return
	}

	t.state.Store(int32(Completed))
	if t.callbacks.OnResult != nil {
		t.callbacks.OnResult(result)
	}
}

// invoke runs the task's work function, recovering a panic into an error
// so one bad task can never take down a worker goroutine.
func (p *Pool) invoke(t *Task) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("workerpool: task %s panicked: %v", t.ID, r)
		}
	}()
	return t.work(context.Background(), &Handle{task: t})
}
