package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/cliconfig"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func baseArgs(t *testing.T, cmd, url string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	return inbox, []string{cmd,
		"--config", filepath.Join(dir, "absent.toml"),
		"--folder", inbox,
		"--receive-url", url,
		"--state-dir", filepath.Join(dir, "state"),
		"--pace", "0s",
		"--log-level", "error",
	}
}

func TestRunThenStatus(t *testing.T) {
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer receiver.Close()

	inbox, args := baseArgs(t, "run", receiver.URL)
	if err := os.WriteFile(filepath.Join(inbox, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, args...); err != nil {
		t.Fatalf("run: %v", err)
	}

	args[0] = "status"
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "records:  1") {
		t.Errorf("status output missing record count:\n%s", out)
	}
	if !strings.Contains(out, "succeeded") || !strings.Contains(out, "sent=1") {
		t.Errorf("status output missing last run:\n%s", out)
	}
}

func TestRunFailsOnRejection(t *testing.T) {
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer receiver.Close()

	inbox, args := baseArgs(t, "run", receiver.URL)
	if err := os.WriteFile(filepath.Join(inbox, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := runCLI(t, args...); err == nil {
		t.Fatal("run succeeded against a rejecting receiver")
	}
}

func TestStatusBeforeFirstRun(t *testing.T) {
	_, args := baseArgs(t, "status", "http://127.0.0.1:1/")
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "last run: never") {
		t.Errorf("output = %q", out)
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	_, args := baseArgs(t, "run", "not-a-url")
	if _, err := runCLI(t, args...); err == nil {
		t.Fatal("expected config error")
	}
}

func TestLibConfig(t *testing.T) {
	cfg := cliconfig.Config{
		FolderPath:  "/in",
		ReceiveURL:  "http://r/",
		Bulk:        true,
		HTTPTimeout: 5 * time.Second,
		StoreDriver: "pebble",
		StorePath:   "/state/records",
		StateDir:    "/state",
	}
	lib := libConfig(cfg)
	if lib.PaceDelay >= 0 {
		t.Errorf("zero pace should disable pacing, got %v", lib.PaceDelay)
	}
	if !lib.Bulk || lib.StoreDriver != "pebble" || lib.StorePath != "/state/records" || lib.HTTPTimeout != 5*time.Second {
		t.Errorf("libConfig = %+v", lib)
	}

	cfg.PaceDelay = 2 * time.Second
	if got := libConfig(cfg).PaceDelay; got != 2*time.Second {
		t.Errorf("PaceDelay = %v, want 2s", got)
	}
}
