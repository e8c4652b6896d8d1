package domain

import "errors"

// Domain errors represent error conditions in the dropship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrFolderNotFound is returned when the watched folder does not exist.
	// A run treats it as "zero files".
	ErrFolderNotFound = errors.New("dropship: folder not found")

	// ErrRemoteRejected is returned when the receiver answers with a status >= 400.
	ErrRemoteRejected = errors.New("dropship: remote rejected transfer")

	// ErrConnectionFailure is returned when the request could not be completed.
	ErrConnectionFailure = errors.New("dropship: connection failure")

	// ErrRecordConflict is returned when a record with the same content hash or
	// identity key already exists.
	ErrRecordConflict = errors.New("dropship: record conflict")

	// ErrAlreadyRunning is returned when a run is triggered while another is in progress.
	ErrAlreadyRunning = errors.New("dropship: already running")

	// ErrNotRunning is returned when a run-state change is requested while idle.
	ErrNotRunning = errors.New("dropship: no run in progress")

	// ErrInvalidTransition is returned for a run-state change the state machine does not allow.
	ErrInvalidTransition = errors.New("dropship: invalid run state transition")

	// ErrShutdownTimeout is returned when an in-flight run does not finish in time.
	ErrShutdownTimeout = errors.New("dropship: shutdown timeout")

	// ErrInvalidFileName is returned when an uploaded file has no usable base name.
	ErrInvalidFileName = errors.New("dropship: invalid file name")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("dropship: invalid configuration")
)
