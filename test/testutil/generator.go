package testutil

import (
	"sync"

	"github.com/netresearch/loadedhandler/handler"
)

// ManualGenerator is a handler.Generator a test drives explicitly: jobs are
// queued via Produce (consumed the next time CreateMoreJobs runs) rather
// than generated autonomously, and every callback invocation is counted so
// tests can assert call order/arity.
type ManualGenerator struct {
	mu sync.Mutex

	enqueue handler.EnqueueFunc
	pending []queuedJob

	StartCount    int
	StopCount     int
	FinishedCount int

	ProcessedInputs  []any
	ProcessedResults []string

	Finished bool

	CreateMoreJobsErr error
	ProcessResultErr  error
}

type queuedJob struct {
	input any
	extra any
}

// Produce schedules input/extra to be enqueued on the next CreateMoreJobs.
func (g *ManualGenerator) Produce(input, extra any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pending = append(g.pending, queuedJob{input: input, extra: extra})
}

func (g *ManualGenerator) BindEnqueue(fn handler.EnqueueFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.enqueue = fn
}

func (g *ManualGenerator) OnStart() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.StartCount++
}

func (g *ManualGenerator) OnStop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.StopCount++
}

func (g *ManualGenerator) OnFinished() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.FinishedCount++
}

func (g *ManualGenerator) CreateMoreJobs() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateMoreJobsErr != nil {
		return g.CreateMoreJobsErr
	}
	for _, j := range g.pending {
		g.enqueue(j.input, j.extra)
	}
	g.pending = nil
	return nil
}

func (g *ManualGenerator) ProcessResult(jobInput any, resultString string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ProcessResultErr != nil {
		return g.ProcessResultErr
	}
	g.ProcessedInputs = append(g.ProcessedInputs, jobInput)
	g.ProcessedResults = append(g.ProcessedResults, resultString)
	return nil
}

func (g *ManualGenerator) IsFinished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Finished
}

func (g *ManualGenerator) GetTotalJobCount() int64 { return -1 }

// SetFinished marks the generator finished for the next IsFinished poll.
func (g *ManualGenerator) SetFinished(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Finished = v
}

// ProcessedCount returns how many ProcessResult calls landed so far.
func (g *ManualGenerator) ProcessedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.ProcessedInputs)
}
