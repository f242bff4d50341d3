package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"docsync-server/core"

	"github.com/sirupsen/logrus"
)

type documentStore struct {
	basePath string
}

func NewDocumentStore(basePath string) core.DocumentStore {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logrus.WithError(err).Fatal("Failed to create base directory")
	}
	return &documentStore{basePath: basePath}
}

// documentPath maps an identifier to its file. Identifiers are opaque but
// must stay a single path element.
func (s *documentStore) documentPath(id string) (string, error) {
	if id == "" || filepath.Base(id) != id {
		return "", fmt.Errorf("invalid document id %q", id)
	}
	return filepath.Join(s.basePath, id+".json"), nil
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)
	path, err := s.documentPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve document")
		return nil, err
	}

	log.Debug("Document retrieved successfully")
	return &core.Document{ID: id, State: core.DocumentState(data)}, nil
}

func (s *documentStore) Create(ctx context.Context, document *core.Document) (*core.Document, error) {
	log := logrus.WithField("document_id", document.ID)
	path, err := s.documentPath(document.ID)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			// Lost the create race; return what the first writer stored.
			return s.FindID(ctx, document.ID)
		}
		log.WithError(err).Error("Failed to create document")
		return nil, err
	}

	_, werr := f.Write(document.State)
	cerr := f.Close()
	if werr != nil {
		return nil, werr
	}
	if cerr != nil {
		return nil, cerr
	}

	log.Info("Document created successfully")
	return document, nil
}

func (s *documentStore) Save(ctx context.Context, id string, state core.DocumentState) error {
	log := logrus.WithField("document_id", id)
	path, err := s.documentPath(id)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, state, 0644); err != nil {
		log.WithError(err).Error("Failed to save document")
		return err
	}

	log.Debug("Document saved successfully")
	return nil
}
