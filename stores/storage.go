package stores

import (
	"docsync-server/config"
	"docsync-server/core"
	"docsync-server/stores/filesystem"
	"docsync-server/stores/memory"
	"docsync-server/stores/redis"
	"docsync-server/stores/s3"
	"docsync-server/stores/sqlite"

	"github.com/sirupsen/logrus"
)

func GetStore(cfg config.Config) core.DocumentStore {
	var store core.DocumentStore

	storageField := logrus.Fields{
		"storageType": cfg.StorageType,
	}

	switch cfg.StorageType {
	case "filesystem":
		storageField["basePath"] = cfg.LocalStoragePath
		store = filesystem.NewDocumentStore(cfg.LocalStoragePath)
	case "sqlite":
		storageField["dataSourceName"] = cfg.DataSourceName
		store = sqlite.NewDocumentStore(cfg.DataSourceName)
	case "redis":
		storageField["redisURL"] = cfg.RedisURL
		store = redis.NewDocumentStore(cfg.RedisURL)
	case "s3":
		if cfg.S3Bucket == "" {
			logrus.Fatal("S3_BUCKET_NAME must be set for s3 storage type")
		}
		storageField["bucketName"] = cfg.S3Bucket
		store = s3.NewDocumentStore(cfg.S3Bucket)
	default:
		store = memory.NewDocumentStore()
		storageField["storageType"] = "in-memory"
	}
	logrus.WithFields(storageField).Info("Use storage")
	return store
}
