package dropship

import (
	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Store is the interface of the identity store.
type Store = ports.IdentityStore

// Result summarizes one run.
type Result = domain.Result

// Report is the persisted summary of the last run.
type Report = domain.RunReport

// FileRecord describes one forwarded file.
type FileRecord = domain.FileRecord

// Errors returned by the package, for use with errors.Is.
var (
	ErrFolderNotFound    = domain.ErrFolderNotFound
	ErrRemoteRejected    = domain.ErrRemoteRejected
	ErrConnectionFailure = domain.ErrConnectionFailure
	ErrAlreadyRunning    = domain.ErrAlreadyRunning
	ErrInvalidConfig     = domain.ErrInvalidConfig
	ErrShutdownTimeout   = domain.ErrShutdownTimeout
)

// Option configures optional behavior of a Forwarder.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	store        ports.IdentityStore
	eventHandler EventHandler
}

// WithHTTPClient sets a custom HTTP client.
// If not provided, a client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore uses an already opened identity store instead of opening one
// from the config. The caller keeps ownership and must close it.
func WithStore(s Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithEventHandler sets a handler for run state changes.
// Events are called synchronously from the running goroutine.
func WithEventHandler(h EventHandler) Option {
	return func(o *options) {
		o.eventHandler = h
	}
}
