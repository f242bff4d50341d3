package config

import "os"

type Config struct {
	Addr             string
	CORSOrigin       string
	StorageType      string
	DataSourceName   string
	LocalStoragePath string
	RedisURL         string
	S3Bucket         string
}

func Load() Config {
	return Config{
		Addr:             getenv("LISTEN_ADDR", ":4000"),
		CORSOrigin:       getenv("CORS_ORIGIN", "http://localhost:3000"),
		StorageType:      getenv("STORAGE_TYPE", ""),
		DataSourceName:   getenv("DATA_SOURCE_NAME", "docsync.db"),
		LocalStoragePath: getenv("LOCAL_STORAGE_PATH", "./data"),
		RedisURL:         getenv("REDIS_URL", "redis://localhost:6379/0"),
		S3Bucket:         getenv("S3_BUCKET_NAME", ""),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
