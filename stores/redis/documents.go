package redis

import (
	"context"
	"errors"
	"fmt"

	"docsync-server/core"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "doc:"

type documentStore struct {
	client *redis.Client
}

// NewDocumentStore connects to Redis with a URL of the form
// redis://host:port/db and fails fast when the server is unreachable.
func NewDocumentStore(redisURL string) core.DocumentStore {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to redis")
	}

	return &documentStore{client: client}
}

// NewDocumentStoreWithClient wraps an existing client (used in tests).
func NewDocumentStoreWithClient(client *redis.Client) core.DocumentStore {
	return &documentStore{client: client}
}

func key(id string) string { return keyPrefix + id }

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)

	data, err := s.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
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

	// SETNX makes the first writer win under concurrent creates.
	created, err := s.client.SetNX(ctx, key(document.ID), []byte(document.State), 0).Result()
	if err != nil {
		log.WithError(err).Error("Failed to create document")
		return nil, err
	}
	if !created {
		return s.FindID(ctx, document.ID)
	}

	log.Info("Document created successfully")
	return document, nil
}

func (s *documentStore) Save(ctx context.Context, id string, state core.DocumentState) error {
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": len(state),
	})

	if err := s.client.Set(ctx, key(id), []byte(state), 0).Err(); err != nil {
		log.WithError(err).Error("Failed to save document")
		return err
	}

	log.Debug("Document saved successfully")
	return nil
}
