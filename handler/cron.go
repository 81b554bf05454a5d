package handler

import (
	"context"
	"time"

	cron "github.com/netresearch/go-cron"
)

// cronScheduler is the periodic "should-start-now?" evaluator from
// spec.md §4.3. It shares the Handler's state lock to prevent races with
// manual Start/Stop and wakes every pollInterval to check NextStartTime.
type cronScheduler struct {
	h        *Handler
	schedule cron.Schedule
	done     chan struct{}
}

// pollInterval is the wakeup cadence spec.md §4.3 mandates: acceptable
// because cron resolution is one minute.
const pollInterval = 5 * time.Second

// newCronScheduler parses expr with go-cron's full parser. A parse
// failure is non-fatal: it is logged and nil/false is returned so the
// scheduler is simply disabled, per spec.md §4.3 and the error table in §7.
func newCronScheduler(h *Handler, expr string) (*cronScheduler, bool) {
	if expr == "" {
		return nil, false
	}

	parser := cron.FullParser()
	schedule, err := parser.Parse(expr)
	if err != nil {
		h.logger.Warningf("handler %q: invalid cron schedule %q: %v", h.FullName(), expr, err)
		return nil, false
	}

	return &cronScheduler{h: h, schedule: schedule}, true
}

// start launches the background polling goroutine and sets the handler's
// initial NextStartTime from now.
func (c *cronScheduler) start(ctx context.Context) {
	c.h.stateMu.Lock()
	c.h.nextStartTime = c.schedule.Next(c.h.clock.Now())
	c.h.stateMu.Unlock()

	c.done = make(chan struct{})
	go c.run(ctx)
}

func (c *cronScheduler) run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.h.clock.After(pollInterval):
			c.tick()
		}
	}
}

// tick evaluates "should-start-now?" under the handler's state lock, per
// spec.md §4.3: if NextStartTime < now and the handler is not Running, it
// invokes Start and advances NextStartTime to the next cron occurrence
// from now.
func (c *cronScheduler) tick() {
	now := c.h.clock.Now()

	c.h.stateMu.Lock()
	due := c.h.nextStartTime.Before(now) && c.h.state != Running
	c.h.stateMu.Unlock()

	if !due {
		return
	}

	if c.h.metrics != nil {
		c.h.metrics.RecordCronFire(c.h.FullName())
	}
	_ = c.h.Start()

	c.h.stateMu.Lock()
	c.h.nextStartTime = c.schedule.Next(now)
	c.h.stateMu.Unlock()
}

func (c *cronScheduler) stop(cancel context.CancelFunc) {
	cancel()
	if c.done != nil {
		<-c.done
	}
}
