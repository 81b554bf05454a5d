package handler

import (
	"time"

	"github.com/google/uuid"
)

// HandlerState is one of {Stopped, Running, Finished}, per spec.md §3.
type HandlerState int

const (
	Stopped HandlerState = iota
	Running
	Finished
)

func (s HandlerState) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Running:
		return "Running"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders the state as its name, for host.Snapshot reporting.
func (s HandlerState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// HandlerSettings are the recognized construction options from §6.
type HandlerSettings struct {
	HandlerName string `yaml:"handlerName" ini:"handler_name" validate:"required" hash:"true"`
	JobName     string `yaml:"jobName" ini:"job_name" validate:"required" hash:"true"`
	Schedule    string `yaml:"schedule" ini:"schedule" hash:"true"`
	JobTimeout  int    `yaml:"jobTimeout" ini:"job_timeout" default:"0" hash:"true"`
	AutoStart   bool   `yaml:"autoStart" ini:"auto_start" hash:"true"`

	// MaxJobFailures is the number of failed results after which a wrapper
	// is routed to the dead-letter list instead of back to available: the
	// failure that brings its count to MaxJobFailures dead-letters it.
	// 0 means unbounded retries, matching spec.md §7's documented default.
	// Supplements §9's open question about bounded retry.
	MaxJobFailures int `yaml:"maxJobFailures" ini:"max_job_failures" default:"0" hash:"true"`

	// ResultHistoryLimit is loaded, defaulted and validated (it must be
	// >= 0), but no part of the handler reads it: no history of
	// ProcessResult outcomes is retained and GetInfo does not report one.
	ResultHistoryLimit int `yaml:"resultHistoryLimit" ini:"result_history_limit" default:"100" hash:"true"`
}

// JobScriptDescriptor is the §6 construction input describing the compiled
// package the Host's out-of-scope Package Loader produced.
type JobScriptDescriptor struct {
	PackageName      string
	ScriptText       string
	LibraryRefs      []string
	WorkerDeps       []string
	PackageFolder    string // base folder path holding compiled artifacts
	AssemblyFileName string // resolved compiled artifact name
}

// JobWrapper is the core's internal bookkeeping record around a job, per
// spec.md §3. Exported fields are safe to read under the owning queue's
// lock; callers outside the handler package only ever see a Job projection.
type JobWrapper struct {
	JobID            string
	HandlerID        string
	JobInput         any
	AdditionalData   any
	EnqueueTime      time.Time
	AssignedTime     time.Time
	AssignedClientID string
	ResultTime       time.Time
	ResultString     string
	LastErrText      string
	FailureCount     int
}

// Reset clears assignment fields, returning the wrapper to its
// just-enqueued shape. Per spec.md §4.4 step 4.
func (w *JobWrapper) Reset() {
	w.AssignedTime = time.Time{}
	w.AssignedClientID = ""
}

func newJobID() string {
	return uuid.NewString()
}

// Job is the client-facing projection of a JobWrapper returned by
// GetNextJob: identity + input only, no wrapper internals (§4.4).
type Job struct {
	JobID     string
	HandlerID string
	JobInput  any
}

// JobResult is what a worker client submits back via SubmitResult (§4.4).
type JobResult struct {
	JobID    string
	ClientID string
	HasError bool
	Result   string
	ErrText  string
}

// HandlerInfo is the read-only reporting snapshot from GetInfo (§6).
type HandlerInfo struct {
	HandlerID         string
	FullName          string
	State             HandlerState
	AvailableCount    int
	PendingCount      int
	FinishedCount     int
	TotalJobCount     int64 // negative sentinel: unknown
	TotalProcessed    int64
	TotalFailed       int64
	DeadLetteredCount int
	LastStartTime     time.Time
	NextStartTime     time.Time
}

// HandlerJobInfo is the §6 reporting structure describing the deployable
// artifact for worker clients.
type HandlerJobInfo struct {
	FullName         string
	AssemblyFileName string
	WorkerDeps       []string
}

// FullName formats the "Package/Handler/Job" identity string from §3.
func FullName(packageName, handlerName, jobName string) string {
	return packageName + "/" + handlerName + "/" + jobName
}

func newHandlerID() string {
	return uuid.NewString()
}
