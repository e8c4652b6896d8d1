package app

import (
	"context"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// Class is the dedup verdict for a file.
type Class int

const (
	ClassNew Class = iota
	ClassDuplicate
)

func (c Class) String() string {
	if c == ClassDuplicate {
		return "duplicate"
	}
	return "new"
}

// Classification is the outcome of Classify.
type Classification struct {
	Class       Class
	ContentHash string

	// Match is the existing record for a duplicate.
	Match *domain.FileRecord
}

// Classifier decides whether a file was already forwarded.
// A file is a duplicate when its content hash OR its identity key is known.
type Classifier struct {
	store ports.IdentityStore
}

// NewClassifier creates a classifier backed by store.
func NewClassifier(store ports.IdentityStore) *Classifier {
	return &Classifier{store: store}
}

// Classify hashes the file and looks for an existing record.
func (c *Classifier) Classify(ctx context.Context, file domain.LocalFile) (Classification, error) {
	hash := ContentHash(file.Content)

	match, err := c.store.FindMatch(ctx, hash, file.IdentityKey)
	if err != nil {
		return Classification{}, fmt.Errorf("classify %s: %w", file.Name, err)
	}
	if match != nil {
		return Classification{Class: ClassDuplicate, ContentHash: hash, Match: match}, nil
	}
	return Classification{Class: ClassNew, ContentHash: hash}, nil
}

// ContentHash returns the hex BLAKE2b-256 digest of content.
func ContentHash(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}
