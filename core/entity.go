package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by DocumentStore implementations when no document
// exists for the requested identifier.
var ErrNotFound = errors.New("document not found")

type (
	// DocumentState is the editor's document content, carried verbatim as
	// JSON. The server never inspects its shape; it only compares states
	// for equality and forwards them.
	DocumentState []byte

	Document struct {
		ID    string
		State DocumentState
	}

	DocumentStore interface {
		FindID(ctx context.Context, id string) (*Document, error)
		// Create inserts the document if its id is unused and returns the
		// stored document. If another writer created the id first, the
		// existing document is returned instead; first writer wins.
		Create(ctx context.Context, document *Document) (*Document, error)
		// Save overwrites the stored state. Repeated saves with identical
		// payloads are harmless.
		Save(ctx context.Context, id string, state DocumentState) error
	}
)

// DefaultState returns the empty document written on first creation.
func DefaultState() DocumentState {
	return DocumentState(`{"type":"doc","content":[]}`)
}

func (s DocumentState) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

func (s *DocumentState) UnmarshalJSON(data []byte) error {
	*s = append((*s)[:0], data...)
	return nil
}

// Canonical returns the compacted serialized form used for equality checks.
func (s DocumentState) Canonical() []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, s); err != nil {
		return s
	}
	return buf.Bytes()
}

// Equal reports whether two states have byte-identical canonical forms.
func (s DocumentState) Equal(other DocumentState) bool {
	return bytes.Equal(s.Canonical(), other.Canonical())
}

// Clone returns an independent copy of the state.
func (s DocumentState) Clone() DocumentState {
	if s == nil {
		return nil
	}
	out := make(DocumentState, len(s))
	copy(out, s)
	return out
}
