package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/dropship/internal/domain"
)

const reportFileName = "status.json"

// ReportFileRepository implements ports.ReportRepository using a JSON file.
type ReportFileRepository struct {
	dir string
}

// NewReportFileRepository creates a repository storing status.json in dir.
func NewReportFileRepository(dir string) *ReportFileRepository {
	return &ReportFileRepository{dir: dir}
}

// Load returns the last saved report, or an empty one if no run was recorded.
func (r *ReportFileRepository) Load(ctx context.Context) (domain.RunReport, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RunReport{}, nil
		}
		return domain.RunReport{}, fmt.Errorf("read report: %w", err)
	}

	var rep domain.RunReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return domain.RunReport{}, fmt.Errorf("decode report: %w", err)
	}
	return rep, nil
}

// Save writes the report to a temp file and renames it into place.
func (r *ReportFileRepository) Save(ctx context.Context, rep domain.RunReport) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	path := r.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return os.Rename(tmp, path)
}

// Path returns the full path to the report file.
func (r *ReportFileRepository) Path() string {
	return filepath.Join(r.dir, reportFileName)
}
