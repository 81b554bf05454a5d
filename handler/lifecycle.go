package handler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/netresearch/loadedhandler/metrics"
)

// Handler owns the lifecycle and distribution of a single job stream, per
// spec.md §1-§5. A Host instantiates one per compiled plugin descriptor.
type Handler struct {
	id         string
	descriptor JobScriptDescriptor
	settings   HandlerSettings
	generator  Generator
	logger     Logger
	clock      Clock
	metrics    *metrics.Collector

	available *availableQueue
	finished  *finishedQueue

	pendingMu sync.Mutex
	pending   map[string]*JobWrapper
	deadLetter []*JobWrapper

	availableDrained *edgeSignal
	resultReady      *edgeSignal

	totalProcessed atomic.Int64
	totalFailed    atomic.Int64

	stateMu       sync.Mutex
	state         HandlerState
	lastStartTime time.Time
	nextStartTime time.Time
	controlCancel context.CancelFunc
	controlDone   chan struct{}

	cron       *cronScheduler
	cronCancel context.CancelFunc
}

// NewHandler constructs a Stopped handler for descriptor/settings, wrapping
// generator as the Job Generator Adapter. It does not start anything; call
// Initialize to validate settings and, if HandlerSettings.AutoStart is set,
// perform the initial Start.
func NewHandler(descriptor JobScriptDescriptor, settings HandlerSettings, generator Generator, logger Logger) *Handler {
	h := &Handler{
		id:               newHandlerID(),
		descriptor:       descriptor,
		settings:         settings,
		generator:        generator,
		logger:           logger,
		clock:            GetDefaultClock(),
		available:        newAvailableQueue(),
		finished:         newFinishedQueue(),
		pending:          make(map[string]*JobWrapper),
		availableDrained: newEdgeSignal(),
		resultReady:      newEdgeSignal(),
		state:            Stopped,
	}
	return h
}

// SetClock overrides the handler's clock; used by tests to drive the
// control loop and cron scheduler deterministically.
func (h *Handler) SetClock(c Clock) { h.clock = c }

// SetMetrics wires collector so SubmitResult and the cron scheduler record
// into it. Nil disables recording (every call site checks for it), which
// is also this field's zero value, so a Handler built without SetMetrics
// behaves exactly as it did before metrics existed.
func (h *Handler) SetMetrics(collector *metrics.Collector) { h.metrics = collector }

// ID returns the handler's stable 128-bit opaque identifier (§3).
func (h *Handler) ID() string { return h.id }

// FullName formats "Package/Handler/Job" from §3.
func (h *Handler) FullName() string {
	return FullName(h.descriptor.PackageName, h.settings.HandlerName, h.settings.JobName)
}

// State returns the current handler state.
func (h *Handler) State() HandlerState {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.state
}

// InitResult is returned by Initialize on success, per spec.md §6.
type InitResult struct {
	HandlerID    string
	AssemblyPath string
	FullName     string
}

// Initialize validates settings, parses the optional cron schedule, and -
// if HandlerSettings.AutoStart is set - performs the initial Start before
// returning, per spec.md §6. Validation failures are reported as an
// *InitError carrying one of the §6 reason codes; the handler remains
// Stopped.
func (h *Handler) Initialize() (*InitResult, error) {
	if h.settings.HandlerName == "" {
		return nil, newInitError(ReasonHandlerMissing, ErrHandlerNameEmpty, "HandlerSettings.HandlerName is empty")
	}
	if h.settings.JobName == "" {
		return nil, newInitError(ReasonInitializerMissing, ErrJobNameEmpty, "HandlerSettings.JobName is empty")
	}
	if h.generator == nil {
		return nil, newInitError(ReasonTypeException, ErrGeneratorRequired, "no job generator adapter supplied")
	}

	h.generator.BindEnqueue(h.enqueue)

	if h.settings.Schedule != "" {
		if sched, ok := newCronScheduler(h, h.settings.Schedule); ok {
			h.cron = sched
			cronCtx, cronCancel := context.WithCancel(context.Background())
			h.stateMu.Lock()
			h.cronCancel = cronCancel
			h.stateMu.Unlock()
			sched.start(cronCtx)
		}
	}

	if h.settings.AutoStart {
		if err := h.Start(); err != nil {
			return nil, err
		}
	}

	return &InitResult{
		HandlerID:    h.id,
		AssemblyPath: h.descriptor.AssemblyFileName,
		FullName:     h.FullName(),
	}, nil
}

// Start launches the control loop. Idempotent: if a control task already
// exists, it returns without effect, per spec.md §4.5. It is also the entry
// point the cron scheduler invokes autonomously.
func (h *Handler) Start() error {
	h.stateMu.Lock()

	if h.controlCancel != nil {
		h.stateMu.Unlock()
		return nil
	}

	h.state = Running
	h.lastStartTime = h.clock.Now()

	ctx, cancel := context.WithCancel(context.Background())
	h.controlCancel = cancel
	h.controlDone = make(chan struct{})
	done := h.controlDone
	h.stateMu.Unlock()

	go h.controlLoop(ctx, done)
	return nil
}

// Stop is idempotent: it returns false if no control task exists, true
// otherwise. On success it cancels the control task, waits for its exit,
// sets state to Stopped, replaces all three queues with empty instances,
// resets counters to 0, and invokes OnStop on the generator (§4.5).
func (h *Handler) Stop() (bool, error) {
	h.stateMu.Lock()
	cancel := h.controlCancel
	done := h.controlDone
	if cancel == nil {
		h.stateMu.Unlock()
		return false, nil
	}
	h.controlCancel = nil
	h.controlDone = nil
	h.stateMu.Unlock()

	cancel()
	<-done

	// The pending lock serializes this wipe against any in-flight
	// SubmitResult: a concurrent submit either observed the pre-wipe map
	// and completed, or observes state == Stopped below and returns
	// false, per spec.md §9 "Stop / concurrent submit race".
	h.pendingMu.Lock()
	h.stateMu.Lock()
	h.state = Stopped
	h.stateMu.Unlock()
	h.pending = make(map[string]*JobWrapper)
	h.deadLetter = nil
	h.pendingMu.Unlock()

	h.available = newAvailableQueue()
	h.finished = newFinishedQueue()
	h.totalProcessed.Store(0)
	h.totalFailed.Store(0)

	h.generator.OnStop()
	return true, nil
}

// Shutdown cancels the cron scheduler task and waits for it. It does not
// implicitly stop a running handler; callers must invoke Stop first if
// desired, per spec.md §4.5.
func (h *Handler) Shutdown() {
	h.stateMu.Lock()
	cronCancel := h.cronCancel
	cron := h.cron
	h.cronCancel = nil
	h.stateMu.Unlock()

	if cron != nil && cronCancel != nil {
		cron.stop(cronCancel)
	}
}

// controlLoop is the single long-running task driving a Running handler,
// per spec.md §4.5. It ends on cancel or IsFinished. If it faults
// (recovers a panic, or CreateMoreJobs returns an error), it logs and
// triggers Stop asynchronously, since the loop cannot wait on itself. An
// error from ProcessResult is logged and does not fault the loop.
func (h *Handler) controlLoop(ctx context.Context, done chan struct{}) {
	faulted := false
	defer func() {
		if r := recover(); r != nil {
			h.logger.Errorf("handler %q: control loop panicked: %v", h.FullName(), r)
			faulted = true
		}
		close(done)
		if faulted {
			go func() { _, _ = h.Stop() }()
		}
	}()

	h.generator.OnStart()

	for {
		h.drainFinished()

		if h.settings.JobTimeout > 0 {
			h.sweepTimeouts()
		}

		if h.available.Empty() {
			if err := h.generator.CreateMoreJobs(); err != nil {
				h.logger.Errorf("handler %q: CreateMoreJobs failed: %v", h.FullName(), err)
				faulted = true
				return
			}
		}

		if h.generator.IsFinished() {
			h.stateMu.Lock()
			h.generator.OnFinished()
			h.state = Finished
			h.controlCancel = nil
			h.stateMu.Unlock()
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-h.availableDrained.C():
		case <-h.resultReady.C():
		case <-h.clock.After(pollInterval):
		}
	}
}

// drainFinished consumes every queued result in insertion order via
// ProcessResult, matching spec.md §5's single-consumer ordering guarantee.
func (h *Handler) drainFinished() {
	for _, w := range h.finished.DrainAll() {
		if err := h.generator.ProcessResult(w.JobInput, w.ResultString); err != nil {
			h.logger.Errorf("handler %q: ProcessResult(%s) failed: %v", h.FullName(), w.JobID, err)
		}
	}
}

// sweepTimeouts requeues pending wrappers whose assignment has aged past
// JobTimeout, per spec.md §4.5.
func (h *Handler) sweepTimeouts() {
	timeout := time.Duration(h.settings.JobTimeout) * time.Second
	now := h.clock.Now()

	var timedOut []*JobWrapper
	h.pendingMu.Lock()
	for id, w := range h.pending {
		if now.Sub(w.AssignedTime) > timeout {
			timedOut = append(timedOut, w)
			delete(h.pending, id)
		}
	}
	h.pendingMu.Unlock()

	for _, w := range timedOut {
		h.logger.Warningf("handler %q: job %s timed out for client %s, requeuing",
			h.FullName(), w.JobID, w.AssignedClientID)
		w.Reset()
		h.available.Push(w)
	}
}

// enqueue is the EnqueueFunc bound to the generator at Initialize time. It
// creates a wrapper with a fresh JobID and the current EnqueueTime, then
// pushes it into the available queue, per spec.md §4.2.
func (h *Handler) enqueue(jobInput, additionalData any) string {
	w := &JobWrapper{
		JobID:          newJobID(),
		HandlerID:      h.id,
		JobInput:       jobInput,
		AdditionalData: additionalData,
		EnqueueTime:    h.clock.Now(),
	}
	h.available.Push(w)
	return w.JobID
}
