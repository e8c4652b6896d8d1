package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// TransferConfig contains the settings for one orchestrator.
type TransferConfig struct {
	// ReceiveURL is only used for logging; the sender owns the endpoint.
	ReceiveURL string

	// Bulk selects bulk mode instead of sequential.
	Bulk bool

	// PaceDelay is the pause between sequential sends.
	PaceDelay time.Duration
}

// Transfer scans the folder and forwards every file that was not sent before.
type Transfer struct {
	config     TransferConfig
	source     ports.FileSource
	sender     ports.FileSender
	store      ports.IdentityStore
	reports    ports.ReportRepository
	lifecycle  *Lifecycle
	classifier *Classifier
	pacer      *pacer
	logger     ports.Logger
	now        func() time.Time
}

// NewTransfer creates an orchestrator. reports may be nil.
// Orchestrators that share a Lifecycle never run concurrently.
func NewTransfer(
	config TransferConfig,
	source ports.FileSource,
	sender ports.FileSender,
	store ports.IdentityStore,
	reports ports.ReportRepository,
	lifecycle *Lifecycle,
	logger ports.Logger,
) *Transfer {
	return &Transfer{
		config:     config,
		source:     source,
		sender:     sender,
		store:      store,
		reports:    reports,
		lifecycle:  lifecycle,
		classifier: NewClassifier(store),
		pacer:      newPacer(config.PaceDelay),
		logger:     logger,
		now:        time.Now,
	}
}

// Config returns the settings this orchestrator was built with.
func (t *Transfer) Config() TransferConfig {
	return t.config
}

// Run performs one scan of the folder.
// Failures are reported in the Result, never as a panic.
func (t *Transfer) Run(ctx context.Context) domain.Result {
	mode := domain.ModeFor(t.config.Bulk)

	if err := t.lifecycle.Begin("run requested"); err != nil {
		t.logger.Warn("transfer already in progress, ignoring trigger")
		return domain.Result{Outcome: domain.OutcomeFailed, Mode: mode, Err: err}
	}
	t.lifecycle.AddWorker()
	defer t.lifecycle.WorkerDone()

	ctx, cancel := context.WithCancel(ctx)
	t.lifecycle.SetCancel(cancel)
	defer func() {
		t.lifecycle.SetCancel(nil)
		cancel()
	}()

	startedAt := t.now()
	t.logger.Info("transfer started",
		ports.String("folder", t.source.Dir()),
		ports.String("mode", string(mode)),
	)

	var res domain.Result
	if t.config.Bulk {
		res = t.runBulk(ctx)
	} else {
		res = t.runSequential(ctx)
	}
	res.Mode = mode

	t.logResult(res, t.now().Sub(startedAt))
	t.saveReport(res, startedAt)

	if err := t.lifecycle.End(string(res.Outcome)); err != nil {
		t.logger.Error("failed to release run state", ports.Err(err))
	}
	return res
}

// scan lists the folder. A missing folder is logged and yields no files.
func (t *Transfer) scan(ctx context.Context, res *domain.Result) ([]string, error) {
	names, err := t.source.List(ctx)
	if errors.Is(err, domain.ErrFolderNotFound) {
		t.logger.Warn("folder does not exist", ports.String("folder", t.source.Dir()))
		res.FolderMissing = true
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan folder: %w", err)
	}
	return names, nil
}

// read loads a file, logging and counting it as skipped on failure.
func (t *Transfer) read(name string, res *domain.Result) (domain.LocalFile, bool) {
	file, err := t.source.Read(name)
	if err != nil {
		t.logger.Warn("file could not be read, skipping",
			ports.String("name", name),
			ports.Err(err),
		)
		res.Skipped++
		return domain.LocalFile{}, false
	}
	return file, true
}

func (t *Transfer) runSequential(ctx context.Context) domain.Result {
	var res domain.Result

	names, err := t.scan(ctx, &res)
	if err != nil {
		return failed(res, err)
	}

	sending := false
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return failed(res, err)
		}

		file, ok := t.read(name, &res)
		if !ok {
			continue
		}

		cls, err := t.classifier.Classify(ctx, file)
		if err != nil {
			return failed(res, err)
		}
		if cls.Class == ClassDuplicate {
			t.logDuplicate(file, cls)
			res.Duplicates++
			continue
		}

		if !sending {
			if err := t.lifecycle.TransitionTo(StateSending, "first new file"); err != nil {
				return failed(res, err)
			}
			sending = true
		}

		resp, err := t.sender.SendOne(ctx, file.Upload())
		if err == nil && resp.Rejected() {
			err = fmt.Errorf("%w: status %d", domain.ErrRemoteRejected, resp.StatusCode)
		}
		if err != nil {
			t.logger.Error("files were NOT sent",
				ports.String("name", file.Name),
				ports.Int("status", resp.StatusCode),
				ports.Err(err),
			)
			return failed(res, err)
		}

		rec := t.newRecord(file, cls.ContentHash)
		if err := t.store.Insert(ctx, rec); err != nil {
			if !errors.Is(err, domain.ErrRecordConflict) {
				return failed(res, fmt.Errorf("record %s: %w", file.Name, err))
			}
			// Another run recorded the same file while this one was sending.
			t.logger.Warn("file sent but already recorded",
				ports.String("name", file.Name),
				ports.Err(err),
			)
		}
		res.Sent++
		t.logger.Info("file sent",
			ports.String("name", file.Name),
			ports.Int("status", resp.StatusCode),
		)

		if i < len(names)-1 {
			if err := t.pacer.Wait(ctx); err != nil {
				return failed(res, err)
			}
		}
	}

	res.Outcome = domain.OutcomeSucceeded
	return res
}

func (t *Transfer) runBulk(ctx context.Context) domain.Result {
	var res domain.Result

	names, err := t.scan(ctx, &res)
	if err != nil {
		return failed(res, err)
	}

	batch := domain.NewBatch()
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return t.rollback(ctx, res, batch, err)
		}

		file, ok := t.read(name, &res)
		if !ok {
			continue
		}

		cls, err := t.classifier.Classify(ctx, file)
		if err != nil {
			return t.rollback(ctx, res, batch, err)
		}
		if cls.Class == ClassDuplicate {
			t.logDuplicate(file, cls)
			res.Duplicates++
			continue
		}

		// Recording before the send makes a second identical file in the
		// same scan collide on insert.
		rec := t.newRecord(file, cls.ContentHash)
		if err := t.store.Insert(ctx, rec); err != nil {
			if errors.Is(err, domain.ErrRecordConflict) {
				t.logDuplicate(file, cls)
				res.Duplicates++
				continue
			}
			return t.rollback(ctx, res, batch, fmt.Errorf("record %s: %w", file.Name, err))
		}
		batch.Add(file.Upload(), rec.ID)
	}

	if batch.Empty() {
		res.Outcome = domain.OutcomeSucceeded
		return res
	}

	if err := t.lifecycle.TransitionTo(StateSending, "batch ready"); err != nil {
		return t.rollback(ctx, res, batch, err)
	}

	resp, err := t.sender.SendBulk(ctx, batch.Uploads)
	if err == nil && resp.Rejected() {
		err = fmt.Errorf("%w: status %d", domain.ErrRemoteRejected, resp.StatusCode)
	}
	if err != nil {
		t.logger.Error("files were NOT sent",
			ports.Int("files", batch.Size()),
			ports.Int("status", resp.StatusCode),
			ports.Err(err),
		)
		return t.rollback(ctx, res, batch, err)
	}

	res.Sent = batch.Size()
	res.Outcome = domain.OutcomeSucceeded
	t.logger.Info("files sent",
		ports.Int("files", batch.Size()),
		ports.Int64("bytes", batch.TotalBytes),
		ports.Int("status", resp.StatusCode),
	)
	return res
}

// rollback deletes every record created for batch and fails the run with cause.
// The delete runs even when ctx is canceled.
func (t *Transfer) rollback(ctx context.Context, res domain.Result, batch *domain.Batch, cause error) domain.Result {
	ids := batch.Compensations()
	if len(ids) == 0 {
		return failed(res, cause)
	}

	if err := t.lifecycle.TransitionTo(StateRollingBack, cause.Error()); err != nil {
		t.logger.Error("failed to enter rollback state", ports.Err(err))
	}

	// TODO: persist the compensation list first so a crash between insert
	// and rollback can be repaired on the next start.
	n, err := t.store.DeleteByIDs(context.WithoutCancel(ctx), ids)
	if err != nil {
		t.logger.Error("rollback failed, records remain",
			ports.Int("records", len(ids)),
			ports.Err(err),
		)
		return failed(res, errors.Join(cause, fmt.Errorf("rollback: %w", err)))
	}

	res.RolledBack = n
	t.logger.Warn("rolled back tentative records", ports.Int("records", n))
	return failed(res, cause)
}

func (t *Transfer) newRecord(file domain.LocalFile, hash string) *domain.FileRecord {
	return &domain.FileRecord{
		ID:          uuid.NewString(),
		Name:        file.Name,
		Path:        file.Path,
		ContentHash: hash,
		IdentityKey: file.IdentityKey,
		Size:        file.Size(),
		SentAt:      t.now(),
	}
}

func (t *Transfer) logDuplicate(file domain.LocalFile, cls Classification) {
	fields := []ports.Field{ports.String("name", file.Name)}
	if cls.Match != nil {
		fields = append(fields, ports.String("recorded_as", cls.Match.Name))
	}
	t.logger.Info("file already sent once or is a duplicate, skipping", fields...)
}

func (t *Transfer) logResult(res domain.Result, elapsed time.Duration) {
	fields := []ports.Field{
		ports.String("outcome", string(res.Outcome)),
		ports.Int("sent", res.Sent),
		ports.Int("duplicates", res.Duplicates),
		ports.Int("skipped", res.Skipped),
		ports.Duration("elapsed", elapsed),
	}
	if res.RolledBack > 0 {
		fields = append(fields, ports.Int("rolled_back", res.RolledBack))
	}
	if res.Err != nil {
		fields = append(fields, ports.Err(res.Err))
		t.logger.Error("transfer failed", fields...)
		return
	}
	t.logger.Info("transfer finished", fields...)
}

func (t *Transfer) saveReport(res domain.Result, startedAt time.Time) {
	if t.reports == nil {
		return
	}
	rep := domain.NewRunReport(res, startedAt, t.now())
	if err := t.reports.Save(context.Background(), rep); err != nil {
		t.logger.Warn("failed to save run report", ports.Err(err))
	}
}

func failed(res domain.Result, err error) domain.Result {
	res.Outcome = domain.OutcomeFailed
	res.Err = err
	return res
}
