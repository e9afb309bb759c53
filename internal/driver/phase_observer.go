package driver

import "time"

// FileStatus is the state of one scenario file in a check run.
type FileStatus int

const (
	// FileQueued indicates that the file waits for a worker.
	FileQueued FileStatus = iota
	FileRunning
	FilePassed
	FileFailed
	// FileCached indicates that a stored result was reused.
	FileCached
)

func (s FileStatus) String() string {
	switch s {
	case FileQueued:
		return "queued"
	case FileRunning:
		return "running"
	case FilePassed:
		return "passed"
	case FileFailed:
		return "failed"
	case FileCached:
		return "cached"
	default:
		return "unknown"
	}
}

// Done reports whether the status is terminal.
func (s FileStatus) Done() bool { return s >= FilePassed }

// ProgressEvent describes a file status change.
type ProgressEvent struct {
	Path    string
	Status  FileStatus
	Cases   int
	Failed  int
	Elapsed time.Duration
}

// ProgressObserver receives progress events emitted during Check. It is
// called from worker goroutines.
type ProgressObserver func(ProgressEvent)
