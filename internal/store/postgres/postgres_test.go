package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/groblegark/confstore/internal/model"
	"github.com/groblegark/confstore/internal/store"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// configRowColumns is the column list for scanConfig results.
var configRowColumns = []string{"id", "service", "version", "payload", "created_at"}

func TestQueryPutConfig(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	rec := &model.ConfigRecord{
		Service: "billing",
		Version: 3,
		Payload: []byte(`{"database":{"host":"localhost","port":5432}}`),
	}

	mock.ExpectQuery("INSERT INTO configurations").
		WithArgs("billing", int64(3), []byte(rec.Payload)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	created, err := queryPutConfig(context.Background(), db, rec)
	if err != nil {
		t.Fatalf("queryPutConfig: %v", err)
	}
	if !created {
		t.Error("expected created = true")
	}
	if rec.ID != 7 {
		t.Errorf("ID = %d, want 7", rec.ID)
	}
	if !rec.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, now)
	}
}

func TestQueryPutConfig_DuplicateIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	rec := &model.ConfigRecord{
		Service: "billing",
		Version: 3,
		Payload: []byte(`{"second":"writer"}`),
	}

	// ON CONFLICT DO NOTHING returns no row when the key already exists.
	mock.ExpectQuery("INSERT INTO configurations").
		WithArgs("billing", int64(3), []byte(rec.Payload)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	created, err := queryPutConfig(context.Background(), db, rec)
	if err != nil {
		t.Fatalf("queryPutConfig: %v", err)
	}
	if created {
		t.Error("expected created = false for duplicate key")
	}
}

func TestQueryPutConfigAutoVersion(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	payload := []byte(`{"features":{"beta":true}}`)

	mock.ExpectQuery("INSERT INTO configurations").
		WithArgs("search", payload).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at"}).AddRow(int64(12), int64(5), now))

	rec, err := queryPutConfigAutoVersion(context.Background(), db, "search", payload)
	if err != nil {
		t.Fatalf("queryPutConfigAutoVersion: %v", err)
	}
	if rec.Version != 5 {
		t.Errorf("Version = %d, want 5", rec.Version)
	}
	if rec.ID != 12 {
		t.Errorf("ID = %d, want 12", rec.ID)
	}
	if rec.Service != "search" {
		t.Errorf("Service = %q, want %q", rec.Service, "search")
	}
}

func TestQueryPutConfigAutoVersion_LostRace(t *testing.T) {
	db, mock := newMockDB(t)
	payload := []byte(`{}`)

	mock.ExpectQuery("INSERT INTO configurations").
		WithArgs("search", payload).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "created_at"}))

	_, err := queryPutConfigAutoVersion(context.Background(), db, "search", payload)
	if !errors.Is(err, store.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
}

func TestQueryGetLatest(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM configurations WHERE service = \\$1 ORDER BY version DESC").
		WithArgs("billing").
		WillReturnRows(sqlmock.NewRows(configRowColumns).
			AddRow(int64(2), "billing", int64(9), []byte(`{"a":1}`), now))

	rec, err := queryGetLatest(context.Background(), db, "billing")
	if err != nil {
		t.Fatalf("queryGetLatest: %v", err)
	}
	if rec.Version != 9 {
		t.Errorf("Version = %d, want 9", rec.Version)
	}
	if string(rec.Payload) != `{"a":1}` {
		t.Errorf("Payload = %s", rec.Payload)
	}
}

func TestQueryGetLatest_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM configurations WHERE service = \\$1 ORDER BY version DESC").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(configRowColumns))

	_, err := queryGetLatest(context.Background(), db, "ghost")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestQueryGetVersion(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM configurations WHERE service = \\$1 AND version = \\$2").
		WithArgs("billing", int64(2)).
		WillReturnRows(sqlmock.NewRows(configRowColumns).
			AddRow(int64(4), "billing", int64(2), []byte(`{"b":2}`), now))

	rec, err := queryGetVersion(context.Background(), db, "billing", 2)
	if err != nil {
		t.Fatalf("queryGetVersion: %v", err)
	}
	if rec.Version != 2 || rec.Service != "billing" {
		t.Errorf("got %+v", rec)
	}
}

func TestQueryListVersions(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT version, created_at FROM configurations WHERE service = \\$1 ORDER BY version ASC").
		WithArgs("billing").
		WillReturnRows(sqlmock.NewRows([]string{"version", "created_at"}).
			AddRow(int64(1), now.Add(-2*time.Hour)).
			AddRow(int64(2), now.Add(-time.Hour)).
			AddRow(int64(5), now))

	versions, err := queryListVersions(context.Background(), db, "billing")
	if err != nil {
		t.Fatalf("queryListVersions: %v", err)
	}
	want := []int64{1, 2, 5}
	if len(versions) != len(want) {
		t.Fatalf("got %d versions, want %d", len(versions), len(want))
	}
	for i, v := range versions {
		if v.Version != want[i] {
			t.Errorf("versions[%d] = %d, want %d", i, v.Version, want[i])
		}
	}
}

func TestQueryListVersions_UnknownServiceIsEmpty(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT version, created_at FROM configurations").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"version", "created_at"}))

	versions, err := queryListVersions(context.Background(), db, "ghost")
	if err != nil {
		t.Fatalf("queryListVersions: %v", err)
	}
	if versions == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(versions) != 0 {
		t.Errorf("got %d versions, want 0", len(versions))
	}
}

func TestQueryListServices(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT service, MAX\\(created_at\\) AS updated_at FROM configurations GROUP BY service").
		WillReturnRows(sqlmock.NewRows([]string{"service", "updated_at"}).
			AddRow("search", now).
			AddRow("billing", now.Add(-time.Hour)))

	services, err := queryListServices(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("queryListServices: %v", err)
	}
	if len(services) != 2 || services[0].Service != "search" || services[1].Service != "billing" {
		t.Errorf("got %+v", services)
	}
}

func TestQueryListServices_Since(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()
	since := now.Add(-30 * time.Minute)

	mock.ExpectQuery("SELECT service, MAX\\(created_at\\) AS updated_at FROM configurations GROUP BY service HAVING").
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"service", "updated_at"}).
			AddRow("search", now))

	services, err := queryListServices(context.Background(), db, &since)
	if err != nil {
		t.Fatalf("queryListServices: %v", err)
	}
	if len(services) != 1 || services[0].Service != "search" {
		t.Errorf("got %+v", services)
	}
}

func TestQueryListAllConfigs(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM configurations ORDER BY service ASC, version ASC").
		WillReturnRows(sqlmock.NewRows(configRowColumns).
			AddRow(int64(1), "billing", int64(1), []byte(`{"a":1}`), now).
			AddRow(int64(2), "billing", int64(2), []byte(`{"a":2}`), now))

	recs, err := queryListAllConfigs(context.Background(), db)
	if err != nil {
		t.Fatalf("queryListAllConfigs: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if recs[1].Version != 2 {
		t.Errorf("recs[1].Version = %d, want 2", recs[1].Version)
	}
}
