package ports

import (
	"context"

	"github.com/bft-labs/dropship/internal/domain"
)

// IdentityStore holds the records of files already forwarded.
// Content hash and identity key are each unique on their own.
type IdentityStore interface {
	// FindMatch returns a record whose content hash OR identity key matches.
	// An empty identity key never matches. Returns nil, nil when nothing matches.
	FindMatch(ctx context.Context, contentHash, identityKey string) (*domain.FileRecord, error)

	// Insert stores a new record atomically.
	// Returns domain.ErrRecordConflict if either unique attribute is taken.
	Insert(ctx context.Context, rec *domain.FileRecord) error

	// DeleteByIDs removes the given records in one atomic unit and returns
	// the number removed. Unknown IDs are ignored.
	DeleteByIDs(ctx context.Context, ids []string) (int, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// List returns all records ordered by send time.
	List(ctx context.Context) ([]domain.FileRecord, error)

	// Close releases the underlying storage.
	Close() error
}

// ReportRepository persists the summary of the last run.
type ReportRepository interface {
	// Load retrieves the last saved report.
	// Returns an empty report and nil error if none exists.
	Load(ctx context.Context) (domain.RunReport, error)

	// Save persists the report atomically.
	Save(ctx context.Context, report domain.RunReport) error
}
