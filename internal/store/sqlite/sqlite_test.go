package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/groblegark/confstore/internal/model"
)

// newTestStore opens an ephemeral store with automatic cleanup.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustPut(t *testing.T, s *SQLiteStore, service string, version int64, payload string) *model.ConfigRecord {
	t.Helper()
	rec := &model.ConfigRecord{Service: service, Version: version, Payload: []byte(payload)}
	created, err := s.PutConfig(context.Background(), rec)
	if err != nil {
		t.Fatalf("PutConfig(%s, %d): %v", service, version, err)
	}
	if !created {
		t.Fatalf("PutConfig(%s, %d): expected insert, got no-op", service, version)
	}
	return rec
}

func TestPutConfig_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := mustPut(t, s, "test_service", 1, `{"database":{"host":"localhost","port":5432}}`)
	if rec.ID == 0 {
		t.Error("expected a surrogate ID to be assigned")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be assigned")
	}

	got, err := s.GetVersion(ctx, "test_service", 1)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if string(got.Payload) != `{"database":{"host":"localhost","port":5432}}` {
		t.Errorf("Payload = %s", got.Payload)
	}
	if got.CreatedAt.IsZero() {
		t.Error("stored CreatedAt did not round-trip")
	}
}

func TestPutConfig_FirstWriterWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPut(t, s, "test_service", 1, `{"winner":true}`)

	dup := &model.ConfigRecord{Service: "test_service", Version: 1, Payload: []byte(`{"winner":false}`)}
	created, err := s.PutConfig(ctx, dup)
	if err != nil {
		t.Fatalf("duplicate PutConfig: %v", err)
	}
	if created {
		t.Error("duplicate insert must be a no-op")
	}

	got, err := s.GetVersion(ctx, "test_service", 1)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if string(got.Payload) != `{"winner":true}` {
		t.Errorf("first payload not retained: %s", got.Payload)
	}
}

func TestGetLatest_NumericOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Insert out of order; numeric version order decides latest, not
	// insertion order.
	mustPut(t, s, "test_service", 10, `{"v":10}`)
	mustPut(t, s, "test_service", 2, `{"v":2}`)

	got, err := s.GetLatest(ctx, "test_service")
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if got.Version != 10 {
		t.Errorf("latest version = %d, want 10", got.Version)
	}
}

func TestGetLatest_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetLatest(context.Background(), "ghost")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestPutConfigAutoVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.PutConfigAutoVersion(ctx, "auto_service", []byte(`{"n":1}`))
	if err != nil {
		t.Fatalf("PutConfigAutoVersion: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("first version = %d, want 1", first.Version)
	}

	mustPut(t, s, "auto_service", 7, `{"n":7}`)

	next, err := s.PutConfigAutoVersion(ctx, "auto_service", []byte(`{"n":8}`))
	if err != nil {
		t.Fatalf("PutConfigAutoVersion: %v", err)
	}
	if next.Version != 8 {
		t.Errorf("next version = %d, want 8 (max+1, gaps allowed)", next.Version)
	}
}

func TestListVersions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPut(t, s, "test_service", 2, `{}`)
	mustPut(t, s, "test_service", 1, `{}`)
	mustPut(t, s, "other_service", 1, `{}`)

	versions, err := s.ListVersions(ctx, "test_service")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 2 || versions[0].Version != 1 || versions[1].Version != 2 {
		t.Errorf("got %+v, want ascending [1 2]", versions)
	}
}

func TestListVersions_UnknownServiceIsEmpty(t *testing.T) {
	s := newTestStore(t)
	versions, err := s.ListVersions(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if versions == nil || len(versions) != 0 {
		t.Errorf("got %v, want empty slice", versions)
	}
}

func TestListServices(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPut(t, s, "alpha", 1, `{}`)
	mustPut(t, s, "beta", 1, `{}`)
	mustPut(t, s, "alpha", 2, `{}`)

	services, err := s.ListServices(ctx, nil)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("got %d services, want 2", len(services))
	}

	// The aggregated timestamp must survive the round trip through MAX().
	for _, sa := range services {
		if sa.UpdatedAt.IsZero() {
			t.Errorf("UpdatedAt for %s not populated", sa.Service)
		}
	}
	// alpha received its second version last, so it sorts first.
	if services[0].Service != "alpha" || services[1].Service != "beta" {
		t.Errorf("got order %q, %q; want alpha, beta", services[0].Service, services[1].Service)
	}

	// The since filter is inclusive: filtering at the oldest activity keeps both.
	oldest := services[1].UpdatedAt
	got, err := s.ListServices(ctx, &oldest)
	if err != nil {
		t.Fatalf("ListServices(since=oldest): %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d services, want 2 (since is inclusive)", len(got))
	}

	// Since-filter in the future excludes everything.
	future := time.Now().UTC().Add(time.Hour)
	services, err = s.ListServices(ctx, &future)
	if err != nil {
		t.Fatalf("ListServices(since): %v", err)
	}
	if len(services) != 0 {
		t.Errorf("got %d services, want 0", len(services))
	}
}

func TestListAllConfigs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustPut(t, s, "beta", 1, `{"b":1}`)
	mustPut(t, s, "alpha", 2, `{"a":2}`)
	mustPut(t, s, "alpha", 1, `{"a":1}`)

	recs, err := s.ListAllConfigs(ctx)
	if err != nil {
		t.Fatalf("ListAllConfigs: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	// Ordered by service, then version.
	if recs[0].Service != "alpha" || recs[0].Version != 1 {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if recs[2].Service != "beta" {
		t.Errorf("recs[2] = %+v", recs[2])
	}
}

func TestConcurrentPut_ExactlyOneWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const writers = 8
	results := make(chan bool, writers)
	for i := 0; i < writers; i++ {
		go func(n int) {
			rec := &model.ConfigRecord{
				Service: "race_service",
				Version: 1,
				Payload: []byte(`{"writer":` + string(rune('0'+n)) + `}`),
			}
			created, err := s.PutConfig(ctx, rec)
			if err != nil {
				t.Errorf("PutConfig: %v", err)
				results <- false
				return
			}
			results <- created
		}(i)
	}

	var wins int
	for i := 0; i < writers; i++ {
		if <-results {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("got %d successful inserts, want exactly 1", wins)
	}

	versions, err := s.ListVersions(ctx, "race_service")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("got %d stored versions, want 1", len(versions))
	}
}
