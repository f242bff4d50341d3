package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"docsync-server/core"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

type documentStore struct {
	db *sql.DB
}

func NewDocumentStore(dataSourceName string) core.DocumentStore {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open sqlite database")
	}

	sts := `CREATE TABLE IF NOT EXISTS documents (id TEXT PRIMARY KEY, data BLOB);`
	if _, err = db.Exec(sts); err != nil {
		logrus.WithError(err).Fatal("Failed to create documents table")
	}

	return &documentStore{db}
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)
	log.Debug("Retrieving document by ID")

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM documents WHERE id = ?", id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
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
	log := logrus.WithFields(logrus.Fields{
		"document_id": document.ID,
		"data_length": len(document.State),
	})

	// First writer wins; a concurrent create of the same id is a no-op and
	// the stored row is read back.
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (id, data) VALUES (?, ?) ON CONFLICT(id) DO NOTHING",
		document.ID, []byte(document.State))
	if err != nil {
		log.WithError(err).Error("Failed to create document")
		return nil, err
	}

	stored, err := s.FindID(ctx, document.ID)
	if err != nil {
		return nil, err
	}
	log.Info("Document created successfully")
	return stored, nil
}

func (s *documentStore) Save(ctx context.Context, id string, state core.DocumentState) error {
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": len(state),
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (id, data) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET data = excluded.data",
		id, []byte(state))
	if err != nil {
		log.WithError(err).Error("Failed to save document")
		return err
	}

	log.Debug("Document saved successfully")
	return nil
}
