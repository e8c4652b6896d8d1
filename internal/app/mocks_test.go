package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// memSource is an in-memory ports.FileSource.
type memSource struct {
	dir     string
	files   map[string]domain.LocalFile
	readErr map[string]error
	missing bool
}

func newMemSource() *memSource {
	return &memSource{
		dir:     "/srv/inbox",
		files:   make(map[string]domain.LocalFile),
		readErr: make(map[string]error),
	}
}

func (s *memSource) add(name, content, ident string) {
	s.files[name] = domain.LocalFile{
		Name:        name,
		Path:        s.dir + "/" + name,
		Content:     []byte(content),
		IdentityKey: ident,
	}
}

func (s *memSource) Dir() string { return s.dir }

func (s *memSource) List(ctx context.Context) ([]string, error) {
	if s.missing {
		return nil, fmt.Errorf("%w: %s", domain.ErrFolderNotFound, s.dir)
	}
	names := make([]string, 0, len(s.files))
	for n := range s.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (s *memSource) Read(name string) (domain.LocalFile, error) {
	if err := s.readErr[name]; err != nil {
		return domain.LocalFile{}, err
	}
	f, ok := s.files[name]
	if !ok {
		return domain.LocalFile{}, fmt.Errorf("read %s: gone", name)
	}
	return f, nil
}

// memStore is an in-memory ports.IdentityStore with unique hash and identity.
type memStore struct {
	mu        sync.Mutex
	records   map[string]domain.FileRecord
	insertErr error
	deleteErr error
	inserts   int
	deletes   [][]string
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.FileRecord)}
}

func (m *memStore) FindMatch(ctx context.Context, hash, ident string) (*domain.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ContentHash == hash || (ident != "" && r.IdentityKey == ident) {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *memStore) Insert(ctx context.Context, rec *domain.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.insertErr != nil {
		return m.insertErr
	}
	for _, r := range m.records {
		if r.ContentHash == rec.ContentHash || (rec.IdentityKey != "" && r.IdentityKey == rec.IdentityKey) {
			return fmt.Errorf("%w: %s", domain.ErrRecordConflict, rec.Name)
		}
	}
	m.records[rec.ID] = *rec
	return nil
}

func (m *memStore) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, append([]string(nil), ids...))
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	n := 0
	for _, id := range ids {
		if _, ok := m.records[id]; ok {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *memStore) List(ctx context.Context) ([]domain.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.FileRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) names() []string {
	recs, _ := m.List(context.Background())
	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	return names
}

// mockSender records requests and replies from a script.
type mockSender struct {
	mu       sync.Mutex
	single   []string
	bulk     [][]string
	statusOf func(names []string) int
	err      error
	onSend   func()
}

func (m *mockSender) reply(names []string) (domain.Response, error) {
	if m.onSend != nil {
		m.onSend()
	}
	if m.err != nil {
		return domain.Response{}, m.err
	}
	status := 200
	if m.statusOf != nil {
		status = m.statusOf(names)
	}
	return domain.Response{StatusCode: status}, nil
}

func (m *mockSender) SendOne(ctx context.Context, u domain.Upload) (domain.Response, error) {
	m.mu.Lock()
	m.single = append(m.single, u.Name)
	m.mu.Unlock()
	return m.reply([]string{u.Name})
}

func (m *mockSender) SendBulk(ctx context.Context, uploads []domain.Upload) (domain.Response, error) {
	names := make([]string, len(uploads))
	for i, u := range uploads {
		names[i] = u.Name
	}
	m.mu.Lock()
	m.bulk = append(m.bulk, names)
	m.mu.Unlock()
	return m.reply(names)
}

// recordingLogger keeps every message for assertions.
type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, level+" "+msg)
}

func (l *recordingLogger) Debug(msg string, fields ...ports.Field) { l.log("DBG", msg) }
func (l *recordingLogger) Info(msg string, fields ...ports.Field)  { l.log("INF", msg) }
func (l *recordingLogger) Warn(msg string, fields ...ports.Field)  { l.log("WRN", msg) }
func (l *recordingLogger) Error(msg string, fields ...ports.Field) { l.log("ERR", msg) }

func (l *recordingLogger) count(substr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if strings.Contains(m, substr) {
			n++
		}
	}
	return n
}

// memReports is an in-memory ports.ReportRepository.
type memReports struct {
	saved []domain.RunReport
}

func (r *memReports) Load(ctx context.Context) (domain.RunReport, error) {
	if len(r.saved) == 0 {
		return domain.RunReport{}, nil
	}
	return r.saved[len(r.saved)-1], nil
}

func (r *memReports) Save(ctx context.Context, rep domain.RunReport) error {
	r.saved = append(r.saved, rep)
	return nil
}
