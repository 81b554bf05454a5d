// Package counting provides a reference Job Generator Adapter plugin used
// by tests and cmd/loadedhandlerd: it enqueues Count integer jobs and sums
// whatever numeric result string each worker client submits.
package counting

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/netresearch/loadedhandler/handler"
)

// Settings is the opaque custom-settings payload the Initializer forwards
// to InitializeCustomSettings.
type Settings struct {
	Count int
}

// Initializer implements plugin.Initializer for the counting handler type.
type Initializer struct {
	HandlerSettings handler.HandlerSettings
	Custom          Settings
}

func (i *Initializer) GetHandlerSettings() handler.HandlerSettings { return i.HandlerSettings }
func (i *Initializer) GetCustomHandlerSettings() any               { return i.Custom }

// Generator is the "handler type" §6.2 describes: it produces Count
// sequential integer jobs [0, Count), sums whatever numeric string each
// result carries, and reports finished once every job has a terminal
// outcome (success or dead-lettered failure).
type Generator struct {
	mu      sync.Mutex
	enqueue handler.EnqueueFunc

	count     int
	nextInput int
	created   int

	processed atomic.Int64
	sum       atomic.Int64
}

var (
	_ handler.Generator          = (*Generator)(nil)
	_ handler.DeadLetterObserver = (*Generator)(nil)
)

// New returns a fresh counting Generator; Count is set later via
// InitializeCustomSettings.
func New() *Generator {
	return &Generator{}
}

func (g *Generator) Name() string { return "Counting" }

func (g *Generator) InitializeCustomSettings(custom any) error {
	// nil is tolerated as Settings{}: a Host wiring this plugin from
	// generic HandlerSettings with no custom payload gets a handler that
	// reports finished immediately rather than a construction error.
	if custom == nil {
		return nil
	}

	settings, ok := custom.(Settings)
	if !ok {
		return fmt.Errorf("counting: expected Settings, got %T", custom)
	}
	g.mu.Lock()
	g.count = settings.Count
	g.mu.Unlock()
	return nil
}

func (g *Generator) Initialize() error { return nil }

func (g *Generator) BindEnqueue(fn handler.EnqueueFunc) {
	g.mu.Lock()
	g.enqueue = fn
	g.mu.Unlock()
}

func (g *Generator) OnStart()    {}
func (g *Generator) OnStop()     {}
func (g *Generator) OnFinished() {}

// CreateMoreJobs enqueues every remaining job in one pass; the control
// loop only calls it when the available queue is empty, so this never
// double-enqueues.
func (g *Generator) CreateMoreJobs() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.created < g.count {
		g.enqueue(g.nextInput, nil)
		g.nextInput++
		g.created++
	}
	return nil
}

// ProcessResult parses resultString as an integer and accumulates it.
func (g *Generator) ProcessResult(_ any, resultString string) error {
	n, err := strconv.Atoi(resultString)
	if err != nil {
		return fmt.Errorf("counting: non-numeric result %q: %w", resultString, err)
	}
	g.sum.Add(int64(n))
	g.processed.Add(1)
	return nil
}

// OnDeadLetter implements handler.DeadLetterObserver: a job the core gave
// up on after MaxJobFailures never reaches ProcessResult, but it is still
// a terminal outcome, so it counts toward IsFinished the same as a
// successfully processed one (it is not added to Sum, since it carried no
// result).
func (g *Generator) OnDeadLetter(_ any) {
	g.processed.Add(1)
}

// IsFinished reports true once every created job has reached a terminal
// outcome - either ProcessResult or OnDeadLetter was called for it.
func (g *Generator) IsFinished() bool {
	g.mu.Lock()
	created := g.created
	count := g.count
	g.mu.Unlock()
	return created >= count && g.processed.Load() >= int64(count)
}

// GetTotalJobCount returns the configured job count.
func (g *Generator) GetTotalJobCount() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return int64(g.count)
}

// Sum returns the running total of every processed result.
func (g *Generator) Sum() int64 { return g.sum.Load() }
