package dropship

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/bft-labs/dropship/internal/adapters/fs"
	httpAdapter "github.com/bft-labs/dropship/internal/adapters/http"
	logAdapter "github.com/bft-labs/dropship/internal/adapters/log"
	"github.com/bft-labs/dropship/internal/adapters/store"
	"github.com/bft-labs/dropship/internal/app"
	"github.com/bft-labs/dropship/internal/ports"
)

// Forwarder scans a folder and forwards new files to the receiver.
// Runs never overlap; a Run started while another is active fails with
// ErrAlreadyRunning.
type Forwarder struct {
	mu         sync.RWMutex
	config     Config
	folder     *fs.Folder
	transfer   *app.Transfer
	lifecycle  *app.Lifecycle
	store      ports.IdentityStore
	ownsStore  bool
	reports    *fs.ReportFileRepository
	logger     ports.Logger
	client     ports.HTTPClient
	customHTTP bool
}

// Status is a point-in-time view of a Forwarder.
type Status struct {
	State   State
	Records int
	LastRun Report
}

// New creates a Forwarder. The identity store is opened here unless one is
// passed with WithStore.
func New(cfg Config, opts ...Option) (*Forwarder, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logAdapter.NewNoopLogger()
	}

	customHTTP := o.httpClient != nil
	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	s := o.store
	ownsStore := false
	if s == nil {
		opened, err := store.Open(cfg.StoreDriver, cfg.StorePath)
		if err != nil {
			return nil, err
		}
		s = opened
		ownsStore = true
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	f := &Forwarder{
		config:     cfg,
		lifecycle:  app.NewLifecycle(logger, emitter),
		store:      s,
		ownsStore:  ownsStore,
		reports:    fs.NewReportFileRepository(cfg.StateDir),
		logger:     logger,
		client:     client,
		customHTTP: customHTTP,
	}
	f.folder, f.transfer = f.build(cfg)
	return f, nil
}

func (f *Forwarder) build(cfg Config) (*fs.Folder, *app.Transfer) {
	folder := fs.NewFolder(cfg.FolderPath)
	sender := httpAdapter.NewSender(f.client, cfg.ReceiveURL, f.logger)
	transfer := app.NewTransfer(cfg.transferConfig(), folder, sender, f.store, f.reports, f.lifecycle, f.logger)
	return folder, transfer
}

// Run performs one scan and returns its result.
func (f *Forwarder) Run(ctx context.Context) Result {
	f.mu.RLock()
	t := f.transfer
	f.mu.RUnlock()
	return t.Run(ctx)
}

// Reconfigure swaps the transfer settings for subsequent runs. A run in
// progress finishes with the old settings. Store settings cannot change
// without a restart and are ignored here.
func (f *Forwarder) Reconfigure(cfg Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg.StoreDriver = f.config.StoreDriver
	cfg.StorePath = f.config.StorePath
	cfg.StateDir = f.config.StateDir
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if !f.customHTTP && cfg.HTTPTimeout != f.config.HTTPTimeout {
		f.client = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	f.config = cfg
	f.folder, f.transfer = f.build(cfg)

	f.logger.Info("transfer settings updated",
		ports.String("folder", cfg.FolderPath),
		ports.String("receive_url", cfg.ReceiveURL),
		ports.Bool("bulk", cfg.Bulk),
		ports.Duration("pace_delay", cfg.PaceDelay),
	)
	return nil
}

// Config returns the active configuration.
func (f *Forwarder) Config() Config {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.config
}

// Drop stores an uploaded file in the watched folder, creating the folder
// if needed. Only the base name of name is used.
func (f *Forwarder) Drop(name string, r io.Reader) (string, error) {
	f.mu.RLock()
	folder := f.folder
	f.mu.RUnlock()

	path, err := folder.Drop(name, r)
	if err != nil {
		return "", err
	}
	f.logger.Info("file uploaded", ports.String("path", path))
	return path, nil
}

// Status reports the run state, record count and last run.
func (f *Forwarder) Status(ctx context.Context) (Status, error) {
	n, err := f.store.Count(ctx)
	if err != nil {
		return Status{}, err
	}
	rep, err := f.reports.Load(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		State:   convertState(f.lifecycle.State()),
		Records: n,
		LastRun: rep,
	}, nil
}

// Records lists every forwarded file.
func (f *Forwarder) Records(ctx context.Context) ([]FileRecord, error) {
	return f.store.List(ctx)
}

// Close cancels a run in progress, waits for it to finish and closes the
// store if New opened it.
func (f *Forwarder) Close() error {
	f.lifecycle.Cancel()
	waitErr := f.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	var closeErr error
	if f.ownsStore {
		closeErr = f.store.Close()
	}
	return errors.Join(waitErr, closeErr)
}
