package transport

import (
	"encoding/json"
	"net/http"

	"github.com/netresearch/loadedhandler/handler"
)

// HTTPBinding mounts the Dispatch API for a single Handler over plain
// net/http + JSON, grounded on the teacher's web/server.go ServeMux
// shape. It is a reference Transport, not part of the core's contract.
type HTTPBinding struct {
	h *handler.Handler
}

// NewHTTPBinding wraps h for HTTP serving.
func NewHTTPBinding(h *handler.Handler) *HTTPBinding {
	return &HTTPBinding{h: h}
}

// Mux returns a ServeMux exposing POST /jobs/next, POST /jobs/result and
// GET /info.
func (b *HTTPBinding) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs/next", b.handleNextJob)
	mux.HandleFunc("POST /jobs/result", b.handleSubmitResult)
	mux.HandleFunc("GET /info", b.handleInfo)
	return mux
}

func (b *HTTPBinding) handleNextJob(w http.ResponseWriter, r *http.Request) {
	var req NextJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ClientID == "" {
		http.Error(w, "clientId is required", http.StatusBadRequest)
		return
	}

	job, ok := b.h.GetNextJob(req.ClientID)
	resp := NextJobResponse{Available: ok}
	if ok {
		resp.JobID = job.JobID
		resp.HandlerID = job.HandlerID
		resp.JobInput = job.JobInput
	}

	writeJSON(w, http.StatusOK, resp)
}

func (b *HTTPBinding) handleSubmitResult(w http.ResponseWriter, r *http.Request) {
	var req SubmitResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	accepted := b.h.SubmitResult(handler.JobResult{
		JobID:    req.JobID,
		ClientID: req.ClientID,
		HasError: req.HasError,
		Result:   req.Result,
		ErrText:  req.ErrText,
	})

	writeJSON(w, http.StatusOK, SubmitResultResponse{Accepted: accepted})
}

func (b *HTTPBinding) handleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, b.h.GetInfo())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
