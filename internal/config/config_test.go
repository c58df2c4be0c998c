package config

import (
	"testing"
	"time"
)

// backupEnvVars lists all backup-related env vars that must be cleared between tests.
var backupEnvVars = []string{
	"CONFSTORE_BACKUP_INTERVAL", "CONFSTORE_BACKUP_S3_BUCKET", "CONFSTORE_BACKUP_S3_ENDPOINT",
	"CONFSTORE_BACKUP_S3_REGION", "CONFSTORE_BACKUP_S3_KEY",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CONFSTORE_DATABASE_URL", "CONFSTORE_SQLITE_PATH", "CONFSTORE_HTTP_ADDR", "CONFSTORE_NATS_URL"} {
		t.Setenv(key, "")
	}
	for _, key := range backupEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantHTTPAddr string
		wantNATSURL  string
		wantSQLite   string
	}{
		{
			name:    "MissingBackend",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "BothBackends",
			env: map[string]string{
				"CONFSTORE_DATABASE_URL": "postgres://localhost/confstore",
				"CONFSTORE_SQLITE_PATH":  "/tmp/confstore.db",
			},
			wantErr: true,
		},
		{
			name:         "DefaultAddress",
			env:          map[string]string{"CONFSTORE_DATABASE_URL": "postgres://localhost/confstore"},
			wantHTTPAddr: ":8080",
		},
		{
			name: "SQLiteBackend",
			env:  map[string]string{"CONFSTORE_SQLITE_PATH": "/tmp/confstore.db"},

			wantHTTPAddr: ":8080",
			wantSQLite:   "/tmp/confstore.db",
		},
		{
			name: "CustomAddressAndNATS",
			env: map[string]string{
				"CONFSTORE_DATABASE_URL": "postgres://db:5432/confstore",
				"CONFSTORE_HTTP_ADDR":    ":3000",
				"CONFSTORE_NATS_URL":     "nats://localhost:4222",
			},
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
			if cfg.SQLitePath != tc.wantSQLite {
				t.Errorf("SQLitePath = %q, want %q", cfg.SQLitePath, tc.wantSQLite)
			}
		})
	}
}

func TestLoad_BackupInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("CONFSTORE_DATABASE_URL", "postgres://localhost/confstore")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackupInterval != 0 {
		t.Errorf("BackupInterval = %v, want 0 (disabled)", cfg.BackupInterval)
	}

	t.Setenv("CONFSTORE_BACKUP_INTERVAL", "5m")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackupInterval != 5*time.Minute {
		t.Errorf("BackupInterval = %v, want 5m", cfg.BackupInterval)
	}

	t.Setenv("CONFSTORE_BACKUP_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for unparseable interval")
	}
}

func TestLoad_BackupDefaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("CONFSTORE_DATABASE_URL", "postgres://localhost/confstore")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BackupS3Region != "us-east-1" {
		t.Errorf("BackupS3Region = %q", cfg.BackupS3Region)
	}
	if cfg.BackupS3Key != "confstore/backup.jsonl" {
		t.Errorf("BackupS3Key = %q", cfg.BackupS3Key)
	}
}
