package dropship

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/dropship/internal/adapters/store"
	"github.com/bft-labs/dropship/internal/domain"
)

type receiver struct {
	*httptest.Server
	requests atomic.Int32
	status   atomic.Int32
}

func newReceiver(t *testing.T) *receiver {
	t.Helper()
	r := &receiver{}
	r.status.Store(http.StatusOK)
	r.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.requests.Add(1)
		w.WriteHeader(int(r.status.Load()))
	}))
	t.Cleanup(r.Close)
	return r
}

func testConfig(t *testing.T, url string) Config {
	t.Helper()
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	return Config{
		FolderPath: inbox,
		ReceiveURL: url,
		PaceDelay:  -1,
		StateDir:   filepath.Join(dir, "state"),
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := Config{StateDir: "/var/lib/dropship"}
	cfg.SetDefaults()

	if cfg.PaceDelay != time.Second {
		t.Errorf("PaceDelay = %v, want 1s", cfg.PaceDelay)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, want 30s", cfg.HTTPTimeout)
	}
	if cfg.StoreDriver != store.DriverSQLite {
		t.Errorf("StoreDriver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.StorePath != filepath.Join("/var/lib/dropship", "records.db") {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}

	neg := Config{PaceDelay: -1}
	neg.SetDefaults()
	if neg.PaceDelay != 0 {
		t.Errorf("negative PaceDelay = %v, want 0", neg.PaceDelay)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{FolderPath: "/in", ReceiveURL: "http://r:8000/files/"}, false},
		{"missing folder", Config{ReceiveURL: "http://r/"}, true},
		{"missing url", Config{FolderPath: "/in"}, true},
		{"relative url", Config{FolderPath: "/in", ReceiveURL: "/files/"}, true},
		{"wrong scheme", Config{FolderPath: "/in", ReceiveURL: "ftp://r/"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestForwarder_RunAndStatus(t *testing.T) {
	for _, driver := range store.Drivers {
		t.Run(driver, func(t *testing.T) {
			rcv := newReceiver(t)
			cfg := testConfig(t, rcv.URL)
			cfg.StoreDriver = driver
			writeFile(t, cfg.FolderPath, "file1.txt", "test-text")
			writeFile(t, cfg.FolderPath, "file2.txt", "test-text")
			writeFile(t, cfg.FolderPath, "file3.txt", "other")

			f, err := New(cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer f.Close()

			res := f.Run(context.Background())
			if !res.Succeeded() {
				t.Fatalf("Run failed: %v", res.Err)
			}
			if res.Sent != 2 || res.Duplicates != 1 {
				t.Errorf("sent=%d duplicates=%d, want 2/1", res.Sent, res.Duplicates)
			}
			if got := rcv.requests.Load(); got != 2 {
				t.Errorf("requests = %d, want 2", got)
			}

			st, err := f.Status(context.Background())
			if err != nil {
				t.Fatalf("Status: %v", err)
			}
			if st.State != StateIdle {
				t.Errorf("State = %s, want Idle", st.State)
			}
			if st.Records != 2 {
				t.Errorf("Records = %d, want 2", st.Records)
			}
			if st.LastRun.Sent != 2 || st.LastRun.Outcome != domain.OutcomeSucceeded {
				t.Errorf("LastRun = %+v", st.LastRun)
			}

			recs, err := f.Records(context.Background())
			if err != nil {
				t.Fatalf("Records: %v", err)
			}
			if len(recs) != 2 || recs[0].Name != "file1.txt" {
				t.Errorf("records = %+v", recs)
			}
		})
	}
}

func TestForwarder_BulkRejectedLeavesNoRecords(t *testing.T) {
	rcv := newReceiver(t)
	rcv.status.Store(http.StatusInternalServerError)
	cfg := testConfig(t, rcv.URL)
	cfg.Bulk = true
	writeFile(t, cfg.FolderPath, "a.txt", "a")
	writeFile(t, cfg.FolderPath, "b.txt", "b")

	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	res := f.Run(context.Background())
	if res.Succeeded() {
		t.Fatal("Run succeeded against a rejecting receiver")
	}
	if !errors.Is(res.Err, ErrRemoteRejected) {
		t.Errorf("Err = %v, want ErrRemoteRejected", res.Err)
	}
	st, err := f.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Records != 0 {
		t.Errorf("Records = %d after rollback, want 0", st.Records)
	}
}

func TestForwarder_Reconfigure(t *testing.T) {
	first := newReceiver(t)
	second := newReceiver(t)
	cfg := testConfig(t, first.URL)
	writeFile(t, cfg.FolderPath, "a.txt", "a")

	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	next := cfg
	next.ReceiveURL = second.URL
	next.Bulk = true
	next.StoreDriver = store.DriverPebble
	if err := f.Reconfigure(next); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	if got := f.Config(); got.StoreDriver != store.DriverSQLite || !got.Bulk {
		t.Errorf("Config() = %+v, want bulk with the original store", got)
	}

	if res := f.Run(context.Background()); !res.Succeeded() {
		t.Fatalf("Run: %v", res.Err)
	}
	if first.requests.Load() != 0 || second.requests.Load() != 1 {
		t.Errorf("requests first=%d second=%d, want 0/1", first.requests.Load(), second.requests.Load())
	}

	bad := cfg
	bad.ReceiveURL = ""
	if err := f.Reconfigure(bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Reconfigure(bad) = %v, want ErrInvalidConfig", err)
	}
	if f.Config().ReceiveURL != second.URL {
		t.Error("rejected config replaced the active one")
	}
}

func TestForwarder_Drop(t *testing.T) {
	rcv := newReceiver(t)
	cfg := testConfig(t, rcv.URL)
	cfg.FolderPath = filepath.Join(cfg.FolderPath, "not-yet")

	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	path, err := f.Drop("../escape.txt", strings.NewReader("payload"))
	if err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if path != filepath.Join(cfg.FolderPath, "escape.txt") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "payload" {
		t.Fatalf("dropped file = %q, %v", data, err)
	}
}

type recordingHandler struct {
	mu     sync.Mutex
	events []StateChangeEvent
}

func (h *recordingHandler) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func TestForwarder_EventHandler(t *testing.T) {
	rcv := newReceiver(t)
	cfg := testConfig(t, rcv.URL)
	writeFile(t, cfg.FolderPath, "a.txt", "a")

	h := &recordingHandler{}
	f, err := New(cfg, WithEventHandler(h))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	if res := f.Run(context.Background()); !res.Succeeded() {
		t.Fatalf("Run: %v", res.Err)
	}

	want := []State{StateScanning, StateSending, StateIdle}
	if len(h.events) != len(want) {
		t.Fatalf("events = %+v, want %d", h.events, len(want))
	}
	for i, s := range want {
		if h.events[i].Current != s {
			t.Errorf("event[%d].Current = %s, want %s", i, h.events[i].Current, s)
		}
	}
}

func TestConvertState(t *testing.T) {
	for _, s := range []State{StateIdle, StateScanning, StateSending, StateRollingBack} {
		if s.String() == "" || s.String() == "Unknown" {
			t.Errorf("State(%d).String() = %q", s, s.String())
		}
	}
}
