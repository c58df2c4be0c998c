package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // CONFSTORE_DATABASE_URL (postgres; required unless SQLitePath is set)
	SQLitePath  string // CONFSTORE_SQLITE_PATH (embedded backend for single-node use)
	HTTPAddr    string // CONFSTORE_HTTP_ADDR (default ":8080")
	NATSURL     string // CONFSTORE_NATS_URL (optional, empty = no events)

	// Backup settings
	BackupInterval   time.Duration // CONFSTORE_BACKUP_INTERVAL (default 0 = disabled)
	BackupS3Bucket   string        // CONFSTORE_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // CONFSTORE_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // CONFSTORE_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // CONFSTORE_BACKUP_S3_KEY (default "confstore/backup.jsonl")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("CONFSTORE_DATABASE_URL"),
		SQLitePath:       os.Getenv("CONFSTORE_SQLITE_PATH"),
		HTTPAddr:         envOrDefault("CONFSTORE_HTTP_ADDR", ":8080"),
		NATSURL:          os.Getenv("CONFSTORE_NATS_URL"),
		BackupS3Bucket:   os.Getenv("CONFSTORE_BACKUP_S3_BUCKET"),
		BackupS3Endpoint: os.Getenv("CONFSTORE_BACKUP_S3_ENDPOINT"),
		BackupS3Region:   envOrDefault("CONFSTORE_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Key:      envOrDefault("CONFSTORE_BACKUP_S3_KEY", "confstore/backup.jsonl"),
	}
	if c.DatabaseURL == "" && c.SQLitePath == "" {
		return nil, fmt.Errorf("CONFSTORE_DATABASE_URL or CONFSTORE_SQLITE_PATH is required")
	}
	if c.DatabaseURL != "" && c.SQLitePath != "" {
		return nil, fmt.Errorf("CONFSTORE_DATABASE_URL and CONFSTORE_SQLITE_PATH are mutually exclusive")
	}

	if intervalStr := os.Getenv("CONFSTORE_BACKUP_INTERVAL"); intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("CONFSTORE_BACKUP_INTERVAL: %w", err)
		}
		c.BackupInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
