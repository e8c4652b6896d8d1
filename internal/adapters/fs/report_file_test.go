package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/domain"
)

func TestReportFileRepository_LoadEmpty(t *testing.T) {
	repo := NewReportFileRepository(t.TempDir())

	rep, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !rep.IsEmpty() {
		t.Errorf("expected empty report, got %+v", rep)
	}
}

func TestReportFileRepository_SaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	repo := NewReportFileRepository(dir)
	ctx := context.Background()

	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	want := domain.RunReport{
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Mode:       domain.ModeBulk,
		Outcome:    domain.OutcomeFailed,
		Sent:       0,
		Duplicates: 1,
		RolledBack: 2,
		Error:      "dropship: remote rejected transfer",
	}
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.StartedAt.Equal(want.StartedAt) || got.Mode != want.Mode || got.Outcome != want.Outcome ||
		got.Duplicates != want.Duplicates || got.RolledBack != want.RolledBack || got.Error != want.Error {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	if _, err := os.Stat(repo.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestReportFileRepository_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "status.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReportFileRepository(dir).Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
