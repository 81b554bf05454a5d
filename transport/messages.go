// Package transport provides a reference wire-format binding for the
// Dispatch API (spec.md §4.4): it is explicitly NOT part of the core's
// contract (spec.md §1 leaves wire protocol ownership out of scope), but
// the dispatch API needs some demonstrable transport to exercise
// end-to-end, grounded on the teacher's web/server.go HTTP server shape.
package transport

// NextJobRequest is the POST /jobs/next request body.
type NextJobRequest struct {
	ClientID string `json:"clientId"`
}

// NextJobResponse is the POST /jobs/next response body. Available is
// false when the available queue was empty; JobID/JobInput are the zero
// value in that case.
type NextJobResponse struct {
	Available bool `json:"available"`
	JobID     string `json:"jobId,omitempty"`
	HandlerID string `json:"handlerId,omitempty"`
	JobInput  any    `json:"jobInput,omitempty"`
}

// SubmitResultRequest is the POST /jobs/result request body, mirroring
// handler.JobResult.
type SubmitResultRequest struct {
	JobID    string `json:"jobId"`
	ClientID string `json:"clientId"`
	HasError bool   `json:"hasError"`
	Result   string `json:"result,omitempty"`
	ErrText  string `json:"errText,omitempty"`
}

// SubmitResultResponse reports whether the submission was accepted.
type SubmitResultResponse struct {
	Accepted bool `json:"accepted"`
}
