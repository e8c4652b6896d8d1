// Package pebble implements ports.IdentityStore on a Pebble key-value store.
//
// Layout:
//
//	record/<id>   -> msgpack(storedRecord)
//	hash/<hash>   -> <id>
//	ident/<key>   -> <id>
//
// The two index prefixes enforce uniqueness. Every write goes through a
// single batch committed with pebble.Sync.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/bft-labs/dropship/internal/domain"
)

const (
	recordPrefix = "record/"
	hashPrefix   = "hash/"
	identPrefix  = "ident/"
)

type storedRecord struct {
	ID          string `msgpack:"id"`
	Name        string `msgpack:"name"`
	Path        string `msgpack:"path"`
	ContentHash string `msgpack:"content_hash"`
	IdentityKey string `msgpack:"identity_key,omitempty"`
	Size        int64  `msgpack:"size"`
	SentAt      int64  `msgpack:"sent_at"`
}

// Store is a Pebble-backed identity store.
type Store struct {
	db *pebble.DB

	// mu serializes check-then-write in Insert and DeleteByIDs.
	mu sync.Mutex
}

// Open opens or creates the store in dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}
	return &Store{db: db}, nil
}

// FindMatch looks up a record by content hash OR identity key.
func (s *Store) FindMatch(ctx context.Context, contentHash, identityKey string) (*domain.FileRecord, error) {
	keys := [][]byte{hashKey(contentHash)}
	if identityKey != "" {
		keys = append(keys, identKey(identityKey))
	}

	for _, k := range keys {
		id, ok, err := s.get(k)
		if err != nil {
			return nil, fmt.Errorf("find match: %w", err)
		}
		if !ok {
			continue
		}
		rec, err := s.load(string(id))
		if err != nil {
			return nil, fmt.Errorf("find match: %w", err)
		}
		if rec != nil {
			return rec, nil
		}
	}
	return nil, nil
}

// Insert adds rec, failing with domain.ErrRecordConflict if its content hash
// or identity key is already taken.
func (s *Store) Insert(ctx context.Context, rec *domain.FileRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	claims := [][]byte{recordKey(rec.ID), hashKey(rec.ContentHash)}
	if rec.IdentityKey != "" {
		claims = append(claims, identKey(rec.IdentityKey))
	}
	for _, k := range claims {
		_, taken, err := s.get(k)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}
		if taken {
			return fmt.Errorf("%w: %s", domain.ErrRecordConflict, rec.Name)
		}
	}

	val, err := msgpack.Marshal(toStored(rec))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(recordKey(rec.ID), val, nil); err != nil {
		return err
	}
	if err := b.Set(hashKey(rec.ContentHash), []byte(rec.ID), nil); err != nil {
		return err
	}
	if rec.IdentityKey != "" {
		if err := b.Set(identKey(rec.IdentityKey), []byte(rec.ID), nil); err != nil {
			return err
		}
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// DeleteByIDs removes the records and their index entries in one batch.
func (s *Store) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.db.NewBatch()
	defer b.Close()

	deleted := 0
	for _, id := range ids {
		rec, err := s.load(id)
		if err != nil {
			return 0, fmt.Errorf("delete %s: %w", id, err)
		}
		if rec == nil {
			continue
		}
		if err := b.Delete(recordKey(id), nil); err != nil {
			return 0, err
		}
		if err := b.Delete(hashKey(rec.ContentHash), nil); err != nil {
			return 0, err
		}
		if rec.IdentityKey != "" {
			if err := b.Delete(identKey(rec.IdentityKey), nil); err != nil {
				return 0, err
			}
		}
		deleted++
	}

	if err := b.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return deleted, nil
}

// Count returns the number of records.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.scan(func(storedRecord) error {
		n++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// List returns every record ordered by send time.
func (s *Store) List(ctx context.Context) ([]domain.FileRecord, error) {
	var recs []domain.FileRecord
	err := s.scan(func(sr storedRecord) error {
		recs = append(recs, fromStored(sr))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].SentAt.Equal(recs[j].SentAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].SentAt.Before(recs[j].SentAt)
	})
	return recs, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key []byte) ([]byte, bool, error) {
	val, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), val...), true, nil
}

func (s *Store) load(id string) (*domain.FileRecord, error) {
	val, ok, err := s.get(recordKey(id))
	if err != nil || !ok {
		return nil, err
	}
	var sr storedRecord
	if err := msgpack.Unmarshal(val, &sr); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	rec := fromStored(sr)
	return &rec, nil
}

func (s *Store) scan(fn func(storedRecord) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(recordPrefix),
		UpperBound: prefixEnd(recordPrefix),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		var sr storedRecord
		if err := msgpack.Unmarshal(iter.Value(), &sr); err != nil {
			return fmt.Errorf("decode %s: %w", iter.Key(), err)
		}
		if err := fn(sr); err != nil {
			return err
		}
	}
	return iter.Error()
}

func recordKey(id string) []byte { return []byte(recordPrefix + id) }
func hashKey(hash string) []byte { return []byte(hashPrefix + hash) }
func identKey(ident string) []byte { return []byte(identPrefix + ident) }

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p string) []byte {
	end := []byte(p)
	end[len(end)-1]++
	return end
}

func toStored(r *domain.FileRecord) storedRecord {
	return storedRecord{
		ID:          r.ID,
		Name:        r.Name,
		Path:        r.Path,
		ContentHash: r.ContentHash,
		IdentityKey: r.IdentityKey,
		Size:        r.Size,
		SentAt:      r.SentAt.UnixNano(),
	}
}

func fromStored(sr storedRecord) domain.FileRecord {
	return domain.FileRecord{
		ID:          sr.ID,
		Name:        sr.Name,
		Path:        sr.Path,
		ContentHash: sr.ContentHash,
		IdentityKey: sr.IdentityKey,
		Size:        sr.Size,
		SentAt:      time.Unix(0, sr.SentAt).UTC(),
	}
}
