package postgres

import (
	"database/sql"
	"encoding/json"

	"github.com/groblegark/confstore/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanConfig scans a single row into a model.ConfigRecord.
// The row must contain columns in the order defined by configColumns.
func scanConfig(row scannable) (*model.ConfigRecord, error) {
	var rec model.ConfigRecord
	var payload []byte

	err := row.Scan(
		&rec.ID,
		&rec.Service,
		&rec.Version,
		&payload,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(payload) > 0 {
		rec.Payload = json.RawMessage(payload)
	}
	return &rec, nil
}

func scanConfigs(rows *sql.Rows) ([]*model.ConfigRecord, error) {
	var recs []*model.ConfigRecord
	for rows.Next() {
		rec, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanVersions(rows *sql.Rows) ([]model.VersionInfo, error) {
	versions := []model.VersionInfo{}
	for rows.Next() {
		var v model.VersionInfo
		if err := rows.Scan(&v.Version, &v.CreatedAt); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

func scanServices(rows *sql.Rows) ([]model.ServiceActivity, error) {
	services := []model.ServiceActivity{}
	for rows.Next() {
		var s model.ServiceActivity
		if err := rows.Scan(&s.Service, &s.UpdatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
