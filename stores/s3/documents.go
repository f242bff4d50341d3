package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"docsync-server/core"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

type documentStore struct {
	client *awss3.Client
	bucket string
}

func NewDocumentStore(bucketName string) core.DocumentStore {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		logrus.WithError(err).Fatal("Unable to load AWS SDK config")
	}

	return &documentStore{
		client: awss3.NewFromConfig(cfg),
		bucket: bucketName,
	}
}

func (s *documentStore) FindID(ctx context.Context, id string) (*core.Document, error) {
	log := logrus.WithField("document_id", id)

	resp, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Debug("Document with specified ID not found")
			return nil, fmt.Errorf("document with id %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve document")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read document data: %w", err)
	}

	log.Debug("Document retrieved successfully")
	return &core.Document{ID: id, State: core.DocumentState(data)}, nil
}

// Create is get-then-put: S3 offers no portable compare-and-insert, so the
// object backend keeps a small create race. The registry's single-writer
// insert already serializes creates from one process.
func (s *documentStore) Create(ctx context.Context, document *core.Document) (*core.Document, error) {
	existing, err := s.FindID(ctx, document.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	if err := s.Save(ctx, document.ID, document.State); err != nil {
		return nil, err
	}
	logrus.WithField("document_id", document.ID).Info("Document created successfully")
	return document, nil
}

func (s *documentStore) Save(ctx context.Context, id string, state core.DocumentState) error {
	log := logrus.WithFields(logrus.Fields{
		"document_id": id,
		"data_length": len(state),
	})

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
		Body:   bytes.NewReader(state),
	})
	if err != nil {
		log.WithError(err).Error("Failed to save document")
		return err
	}

	log.Debug("Document saved successfully")
	return nil
}
