package memory

import (
	"context"
	"fmt"
	"sync"

	"docsync-server/core"

	"github.com/sirupsen/logrus"
)

type documentStore struct {
	mu        sync.RWMutex
	documents map[string]core.DocumentState
}

func NewDocumentStore() core.DocumentStore {
	return &documentStore{
		documents: make(map[string]core.DocumentState),
	}
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)

	s.mu.RLock()
	state, ok := s.documents[id]
	s.mu.RUnlock()

	if !ok {
		log.Debug("Document with specified ID not found")
		return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
	}

	log.Debug("Document retrieved successfully")
	return &core.Document{ID: id, State: state.Clone()}, nil
}

func (s *documentStore) Create(ctx context.Context, document *core.Document) (*core.Document, error) {
	s.mu.Lock()
	existing, ok := s.documents[document.ID]
	if !ok {
		s.documents[document.ID] = document.State.Clone()
	}
	s.mu.Unlock()

	if ok {
		// Lost the create race; the first writer's document stands.
		return &core.Document{ID: document.ID, State: existing.Clone()}, nil
	}

	logrus.WithFields(logrus.Fields{
		"document_id": document.ID,
		"data_length": len(document.State),
	}).Info("Document created successfully")
	return document, nil
}

func (s *documentStore) Save(ctx context.Context, id string, state core.DocumentState) error {
	s.mu.Lock()
	s.documents[id] = state.Clone()
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": len(state),
	}).Debug("Document saved successfully")
	return nil
}
