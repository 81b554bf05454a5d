package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/loadedhandler/metrics"
	"github.com/netresearch/loadedhandler/test/testutil"
)

func newTestHandler(t *testing.T, settings HandlerSettings, gen *testutil.ManualGenerator) (*Handler, *testutil.RecordingLogger, *FakeClock) {
	t.Helper()
	logger := &testutil.RecordingLogger{}
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	h := NewHandler(JobScriptDescriptor{PackageName: "pkg"}, settings, gen, logger)
	h.SetClock(clock)

	_, err := h.Initialize()
	require.NoError(t, err)

	return h, logger, clock
}

// TestHappyPath covers spec.md §8 scenario 1: two jobs produced, leased by
// one client, both submitted ok, and ProcessResult invoked in lease order.
func TestHappyPath(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)

	gen.Produce("job-a", nil)
	gen.Produce("job-b", nil)
	require.NoError(t, h.Start())

	deadline := time.Now().Add(2 * time.Second)
	var job1, job2 Job
	var ok1, ok2 bool
	for time.Now().Before(deadline) {
		job1, ok1 = h.GetNextJob("client-a")
		if ok1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok1)

	for time.Now().Before(deadline) {
		job2, ok2 = h.GetNextJob("client-a")
		if ok2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok2)

	assert.True(t, h.SubmitResult(JobResult{JobID: job1.JobID, ClientID: "client-a", Result: "1"}))
	assert.True(t, h.SubmitResult(JobResult{JobID: job2.JobID, ClientID: "client-a", Result: "2"}))

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && gen.ProcessedCount() < 2 {
		time.Sleep(5 * time.Millisecond)
	}

	info := h.GetInfo()
	assert.EqualValues(t, 2, info.TotalProcessed)
	assert.EqualValues(t, 0, info.TotalFailed)
	require.Len(t, gen.ProcessedInputs, 2)
	assert.Equal(t, "job-a", gen.ProcessedInputs[0])
	assert.Equal(t, "job-b", gen.ProcessedInputs[1])

	_, _ = h.Stop()
}

// TestRetryOnError covers spec.md §8 scenario 2.
func TestRetryOnError(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	gen.Produce("only-job", nil)
	require.NoError(t, h.Start())

	var job Job
	var ok bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok = h.GetNextJob("client-a")
		if ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok)

	accepted := h.SubmitResult(JobResult{JobID: job.JobID, ClientID: "client-a", HasError: true, ErrText: "boom"})
	assert.False(t, accepted)

	info := h.GetInfo()
	assert.EqualValues(t, 1, info.TotalFailed)

	var job2 Job
	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job2, ok = h.GetNextJob("client-b")
		if ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok)
	assert.Equal(t, job.JobID, job2.JobID)

	assert.True(t, h.SubmitResult(JobResult{JobID: job2.JobID, ClientID: "client-b", Result: "done"}))
	info = h.GetInfo()
	assert.EqualValues(t, 1, info.TotalProcessed)

	_, _ = h.Stop()
}

// TestClientIDMismatch covers spec.md §8 scenario 4.
func TestClientIDMismatch(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, logger, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	gen.Produce("x", nil)
	require.NoError(t, h.Start())

	var job Job
	var ok bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok = h.GetNextJob("client-a")
		if ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok)

	before := h.GetInfo()
	accepted := h.SubmitResult(JobResult{JobID: job.JobID, ClientID: "client-b", Result: "stolen"})
	assert.False(t, accepted)

	after := h.GetInfo()
	assert.Equal(t, before.TotalProcessed, after.TotalProcessed)
	assert.Equal(t, before.TotalFailed, after.TotalFailed)
	assert.Equal(t, 1, after.PendingCount)
	assert.True(t, logger.ContainsSubstring("rejecting"))

	_, _ = h.Stop()
}

// TestSubmitResultUnknownJobID resolves the §9 open question: a logged
// warning and false, not a panic.
func TestSubmitResultUnknownJobID(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, logger, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	require.NoError(t, h.Start())

	accepted := h.SubmitResult(JobResult{JobID: "does-not-exist", ClientID: "client-a", Result: "x"})
	assert.False(t, accepted)
	assert.True(t, logger.ContainsSubstring("unknown job"))

	_, _ = h.Stop()
}

// TestSubmitResultAfterStop covers spec.md §8 scenario 5's tail: a late
// submit after Stop returns false.
func TestSubmitResultAfterStop(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	require.NoError(t, h.Start())
	stopped, err := h.Stop()
	require.NoError(t, err)
	assert.True(t, stopped)

	accepted := h.SubmitResult(JobResult{JobID: "whatever", ClientID: "c", Result: "x"})
	assert.False(t, accepted)
}

// TestStopResetsState covers spec.md §8 scenario 5.
func TestStopResetsState(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	gen.Produce("a", nil)
	require.NoError(t, h.Start())

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := h.GetNextJob("c"); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopped, err := h.Stop()
	require.NoError(t, err)
	assert.True(t, stopped)
	assert.Equal(t, Stopped, h.State())
	assert.Equal(t, 1, gen.StopCount)

	info := h.GetInfo()
	assert.Zero(t, info.TotalProcessed)
	assert.Zero(t, info.TotalFailed)
	assert.Zero(t, info.AvailableCount)
	assert.Zero(t, info.PendingCount)
	assert.Zero(t, info.FinishedCount)

	// Stop is idempotent.
	stopped, err = h.Stop()
	require.NoError(t, err)
	assert.False(t, stopped)
}

// TestGetNextJobOnEmptyAvailable covers a §8 boundary behavior.
func TestGetNextJobOnEmptyAvailable(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	gen.SetFinished(false)
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)

	job, ok := h.GetNextJob("c")
	assert.False(t, ok)
	assert.Equal(t, Job{}, job)
	assert.Empty(t, h.ListPending())
}

// TestJobTimeoutZeroDisablesSweep covers a §8 boundary behavior: JobTimeout
// = 0 never auto-requeues a pending job.
func TestJobTimeoutZeroDisablesSweep(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, _, clock := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J", JobTimeout: 0}, gen)
	gen.Produce("a", nil)
	require.NoError(t, h.Start())

	var job Job
	var ok bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok = h.GetNextJob("c")
		if ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok)

	clock.Advance(1 * time.Hour)
	time.Sleep(50 * time.Millisecond)

	assert.Len(t, h.ListPending(), 1)
	assert.Empty(t, h.ListAvailable())
	_ = job

	_, _ = h.Stop()
}

// TestDeadLetterAfterMaxFailures covers the §9 bounded-retry supplement.
func TestDeadLetterAfterMaxFailures(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J", MaxJobFailures: 2}, gen)
	gen.Produce("a", nil)
	require.NoError(t, h.Start())

	for i := 0; i < 2; i++ {
		var job Job
		var ok bool
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			job, ok = h.GetNextJob("c")
			if ok {
				break
			}
			time.Sleep(5 * time.Millisecond)
		}
		require.True(t, ok)
		h.SubmitResult(JobResult{JobID: job.JobID, ClientID: "c", HasError: true})
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(h.ListDeadLettered()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}

	assert.Len(t, h.ListDeadLettered(), 1)
	assert.Empty(t, h.ListAvailable())

	_, _ = h.Stop()
}

// TestGetFileReturnsContentsUnderPackageFolder covers spec.md §4.4's
// GetFile accessor against a real directory.
func TestGetFileReturnsContentsUnderPackageFolder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "worker.so"), []byte("binary"), 0o644))

	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	h.descriptor.PackageFolder = dir

	data, err := h.GetFile("worker.so")
	require.NoError(t, err)
	assert.Equal(t, []byte("binary"), data)
}

// TestGetFileRejectsPathTraversal covers the §4.4 "no traversal outside the
// package folder" invariant.
func TestGetFileRejectsPathTraversal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	h.descriptor.PackageFolder = dir

	_, err := h.GetFile("../../etc/passwd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPathTraversal))
}

// TestGetFileReturnsNotFoundForMissingFile covers the "returns null for
// missing paths" invariant.
func TestGetFileReturnsNotFoundForMissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	h.descriptor.PackageFolder = dir

	_, err := h.GetFile("missing.so")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

// TestSubmitResultRecordsMetricsWhenWired covers the processed/failed
// counters SubmitResult feeds once a metrics.Collector is attached.
func TestSubmitResultRecordsMetricsWhenWired(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	h, _, _ := newTestHandler(t, HandlerSettings{HandlerName: "H", JobName: "J"}, gen)
	collector := metrics.NewCollector()
	h.SetMetrics(collector)

	gen.Produce("a", nil)
	require.NoError(t, h.Start())

	var job Job
	var ok bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok = h.GetNextJob("c")
		if ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok)

	assert.True(t, h.SubmitResult(JobResult{JobID: job.JobID, ClientID: "c", Result: "done"}))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `loadedhandler_jobs_processed_total{handler="pkg/H/J"} 1`)

	_, _ = h.Stop()
}
