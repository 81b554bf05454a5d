package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netresearch/loadedhandler/metrics"
	"github.com/netresearch/loadedhandler/test/testutil"
)

// TestCronInvalidScheduleDisablesScheduler covers spec.md §4.3/§7: a
// malformed cron expression is logged and the scheduler is simply absent,
// not a fatal Initialize error.
func TestCronInvalidScheduleDisablesScheduler(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	logger := &testutil.RecordingLogger{}
	h := NewHandler(JobScriptDescriptor{PackageName: "pkg"}, HandlerSettings{HandlerName: "H", JobName: "J", Schedule: "not a cron expression"}, gen, logger)
	h.SetClock(NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	_, err := h.Initialize()
	require.NoError(t, err)
	assert.Nil(t, h.cron)
	assert.True(t, logger.ContainsSubstring("invalid cron schedule"))

	_, _ = h.Stop()
}

// TestCronTickStartsHandlerWhenDue covers spec.md §4.3: once NextStartTime
// elapses and the handler is not Running, the cron scheduler autonomously
// invokes Start and advances NextStartTime to the following occurrence.
func TestCronTickStartsHandlerWhenDue(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	logger := &testutil.RecordingLogger{}
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	h := NewHandler(JobScriptDescriptor{PackageName: "pkg"}, HandlerSettings{HandlerName: "H", JobName: "J", Schedule: "* * * * *"}, gen, logger)
	h.SetClock(clock)

	_, err := h.Initialize()
	require.NoError(t, err)
	require.NotNil(t, h.cron)
	assert.Equal(t, Stopped, h.State())

	firstNext := h.GetInfo().NextStartTime
	assert.True(t, firstNext.After(clock.Now()))

	clock.Advance(2 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.State() != Running {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, Running, h.State())

	secondNext := h.GetInfo().NextStartTime
	assert.True(t, secondNext.After(firstNext))

	_, _ = h.Stop()
	h.Shutdown()
}

// TestCronDoesNotRestartAlreadyRunningHandler covers spec.md §4.3: tick is
// a no-op while the handler is already Running.
func TestCronDoesNotRestartAlreadyRunningHandler(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	logger := &testutil.RecordingLogger{}
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	h := NewHandler(JobScriptDescriptor{PackageName: "pkg"}, HandlerSettings{HandlerName: "H", JobName: "J", Schedule: "* * * * *"}, gen, logger)
	h.SetClock(clock)

	_, err := h.Initialize()
	require.NoError(t, err)

	require.NoError(t, h.Start())
	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) && gen.StartCount < 1 {
		time.Sleep(5 * time.Millisecond)
	}

	clock.Advance(2 * time.Minute)
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, gen.StartCount)

	_, _ = h.Stop()
	h.Shutdown()
}

// TestCronTickRecordsFireMetricWhenWired covers the cron-fire counter
// cronScheduler.tick feeds once a metrics.Collector is attached.
func TestCronTickRecordsFireMetricWhenWired(t *testing.T) {
	t.Parallel()

	gen := &testutil.ManualGenerator{}
	logger := &testutil.RecordingLogger{}
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	h := NewHandler(JobScriptDescriptor{PackageName: "pkg"}, HandlerSettings{HandlerName: "H", JobName: "J", Schedule: "* * * * *"}, gen, logger)
	h.SetClock(clock)
	collector := metrics.NewCollector()
	h.SetMetrics(collector)

	_, err := h.Initialize()
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && h.State() != Running {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, Running, h.State())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), `loadedhandler_cron_fires_total{handler="pkg/H/J"} 1`)

	_, _ = h.Stop()
	h.Shutdown()
}
