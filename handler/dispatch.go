package handler

import (
	"fmt"
	"os"
)

// GetNextJob try-dequeues from available for clientID. On success it marks
// the wrapper assigned and moves it into pending; on an empty available
// queue it returns (Job{}, false) without touching pending, per spec.md
// §4.4.
func (h *Handler) GetNextJob(clientID string) (Job, bool) {
	w, ok := h.available.TryPop()
	if !ok {
		return Job{}, false
	}

	w.AssignedTime = h.clock.Now()
	w.AssignedClientID = clientID

	h.pendingMu.Lock()
	h.pending[w.JobID] = w
	h.pendingMu.Unlock()

	if h.available.Empty() {
		h.availableDrained.Raise()
	}

	return Job{JobID: w.JobID, HandlerID: w.HandlerID, JobInput: w.JobInput}, true
}

// SubmitResult applies the §4.4 preconditions and logic atomically under
// the pending lock. The chosen behavior for a JobId absent from pending
// (handler state still Running) is a logged warning and a false return,
// resolving the §9 open question in favor of treating it the same as every
// other rejection path rather than panicking.
func (h *Handler) SubmitResult(result JobResult) bool {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()

	h.stateMu.Lock()
	state := h.state
	h.stateMu.Unlock()
	if state == Stopped {
		h.logger.Warningf("handler %q: result for job %s arrived after Stop, dropping", h.FullName(), result.JobID)
		return false
	}

	w, ok := h.pending[result.JobID]
	if !ok {
		h.logger.Warningf("handler %q: result for unknown job %s, dropping", h.FullName(), result.JobID)
		return false
	}

	if result.ClientID != w.AssignedClientID {
		h.logger.Warningf("handler %q: result for job %s from client %s, but assigned to %s; rejecting",
			h.FullName(), result.JobID, result.ClientID, w.AssignedClientID)
		return false
	}

	delete(h.pending, result.JobID)

	if result.HasError {
		w.FailureCount++
		w.LastErrText = boundResultText(result.ErrText)
		h.totalFailed.Add(1)
		if h.metrics != nil {
			h.metrics.RecordFailed(h.FullName())
		}

		if h.settings.MaxJobFailures > 0 && w.FailureCount >= h.settings.MaxJobFailures {
			h.logger.Errorf("handler %q: job %s reached %d failures, dead-lettering",
				h.FullName(), w.JobID, h.settings.MaxJobFailures)
			w.Reset()
			h.deadLetter = append(h.deadLetter, w)
			if observer, ok := h.generator.(DeadLetterObserver); ok {
				observer.OnDeadLetter(w.JobInput)
			}
			return false
		}

		w.Reset()
		h.available.Push(w)
		return false
	}

	h.totalProcessed.Add(1)
	if h.metrics != nil {
		h.metrics.RecordProcessed(h.FullName())
	}
	w.ResultTime = h.clock.Now()
	w.ResultString = boundResultText(result.Result)
	h.finished.Push(w)
	h.resultReady.Raise()
	return true
}

// GetInfo returns a read-only snapshot of counts, state, and times, per
// spec.md §6.
func (h *Handler) GetInfo() HandlerInfo {
	h.pendingMu.Lock()
	pendingCount := len(h.pending)
	deadLetterCount := len(h.deadLetter)
	h.pendingMu.Unlock()

	h.stateMu.Lock()
	state := h.state
	lastStart := h.lastStartTime
	nextStart := h.nextStartTime
	h.stateMu.Unlock()

	return HandlerInfo{
		HandlerID:         h.id,
		FullName:          h.FullName(),
		State:             state,
		AvailableCount:    h.available.Len(),
		PendingCount:      pendingCount,
		FinishedCount:     h.finished.Len(),
		TotalJobCount:     h.generator.GetTotalJobCount(),
		TotalProcessed:    h.totalProcessed.Load(),
		TotalFailed:       h.totalFailed.Load(),
		DeadLetteredCount: deadLetterCount,
		LastStartTime:     lastStart,
		NextStartTime:     nextStart,
	}
}

// GetJobInfo returns the §6 reporting structure worker clients use to
// locate and deploy the compiled artifact.
func (h *Handler) GetJobInfo() HandlerJobInfo {
	return HandlerJobInfo{
		FullName:         h.FullName(),
		AssemblyFileName: h.descriptor.AssemblyFileName,
		WorkerDeps:       h.descriptor.WorkerDeps,
	}
}

// GetFile returns the raw bytes of path under the package folder, or a
// wrapped ErrFileNotFound/ErrPathTraversal on failure, per spec.md §4.4. No
// path traversal outside the package folder is permitted.
func (h *Handler) GetFile(path string) ([]byte, error) {
	base := h.descriptor.PackageFolder
	if base == "" {
		return nil, fmt.Errorf("%w: handler %q has no package folder", ErrFileNotFound, h.FullName())
	}

	cleanFull, err := validatePackagePath(path, base)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(cleanFull)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrFileNotFound, path, err)
	}
	return data, nil
}

// ListAvailable returns a snapshot of the available queue's wrappers, for
// observability. Supplements §6's reporting surface.
func (h *Handler) ListAvailable() []*JobWrapper {
	return h.available.Snapshot()
}

// ListPending returns a snapshot of the pending map's wrappers.
func (h *Handler) ListPending() []*JobWrapper {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	out := make([]*JobWrapper, 0, len(h.pending))
	for _, w := range h.pending {
		out = append(out, w)
	}
	return out
}

// ListDeadLettered returns a snapshot of jobs that reached MaxJobFailures.
func (h *Handler) ListDeadLettered() []*JobWrapper {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	out := make([]*JobWrapper, len(h.deadLetter))
	copy(out, h.deadLetter)
	return out
}
