package server

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/groblegark/confstore/internal/model"
	"github.com/groblegark/confstore/internal/render"
	"github.com/groblegark/confstore/internal/store"
	"github.com/groblegark/confstore/internal/validate"
)

// maxPayloadBytes caps configuration bodies. Payloads are whole service
// configurations, not bulk data; 1 MiB is generous.
const maxPayloadBytes = 1 << 20

// putResponse is the JSON body returned by the write endpoints.
type putResponse struct {
	Service string `json:"service"`
	Version int64  `json:"version"`
	Status  string `json:"status"`
}

// handleCreateConfig handles POST /v1/configs/{service}.
//
// The body is a YAML or JSON document. When it carries a positive integer
// "version" field, that version is used and the insert is idempotent; when it
// does not, the next free version for the service is assigned atomically.
func (s *ConfigServer) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	if err := model.ValidateServiceName(service); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}
	if len(body) > maxPayloadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload exceeds 1 MiB")
		return
	}

	data, err := validate.ParsePayload(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := validate.CheckPayload(data); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	payload, err := validate.ToJSON(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding payload")
		return
	}

	version, hasVersion, err := validate.Version(data)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if !hasVersion {
		rec, err := s.store.PutConfigAutoVersion(r.Context(), service, payload)
		if errors.Is(err, store.ErrVersionConflict) {
			writeError(w, http.StatusConflict, "concurrent write for this service, retry")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store configuration")
			return
		}
		s.publishCreated(r.Context(), rec)
		writeJSON(w, http.StatusCreated, putResponse{Service: service, Version: rec.Version, Status: "saved"})
		return
	}

	rec := &model.ConfigRecord{Service: service, Version: version, Payload: payload}
	s.putRecord(w, r, rec)
}

// handlePutVersion handles PUT /v1/configs/{service}/versions/{version}:
// the explicit idempotent insert.
func (s *ConfigServer) handlePutVersion(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	if err := model.ValidateServiceName(service); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	version, err := parseVersion(r.PathValue("version"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body")
		return
	}
	if len(body) > maxPayloadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload exceeds 1 MiB")
		return
	}

	data, err := validate.ParsePayload(body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := validate.CheckPayload(data); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	// A version inside the payload must agree with the path.
	if inner, ok, _ := validate.Version(data); ok && inner != version {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("payload version %d does not match path version %d", inner, version))
		return
	}

	payload, err := validate.ToJSON(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding payload")
		return
	}

	rec := &model.ConfigRecord{Service: service, Version: version, Payload: payload}
	s.putRecord(w, r, rec)
}

// putRecord runs the shared idempotent-insert tail of both write handlers.
// A duplicate (service, version) is a success no-op: the stored payload is
// untouched and the response says so.
func (s *ConfigServer) putRecord(w http.ResponseWriter, r *http.Request, rec *model.ConfigRecord) {
	if err := model.ValidateRecord(rec); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	created, err := s.store.PutConfig(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store configuration")
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, putResponse{Service: rec.Service, Version: rec.Version, Status: "unchanged"})
		return
	}

	s.publishCreated(r.Context(), rec)
	writeJSON(w, http.StatusCreated, putResponse{Service: rec.Service, Version: rec.Version, Status: "saved"})
}

// handleGetConfig handles GET /v1/configs/{service}. It returns the payload
// of the latest version, or of ?version=N when given. With ?template=1 the
// payload is rendered with the remaining query parameters as template data.
func (s *ConfigServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	query := r.URL.Query()

	var (
		rec *model.ConfigRecord
		err error
	)
	if v := query.Get("version"); v != "" {
		version, perr := parseVersion(v)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		rec, err = s.store.GetVersion(r.Context(), service, version)
	} else {
		rec, err = s.store.GetLatest(r.Context(), service)
	}
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("configuration not found for service %q", service))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load configuration")
		return
	}

	payload := rec.Payload
	if query.Get("template") == "1" && render.HasTemplateSyntax(payload) {
		params := make(map[string]string)
		for key, vals := range query {
			if key == "version" || key == "template" {
				continue
			}
			if len(vals) > 0 {
				params[key] = vals[0]
			}
		}
		payload, err = render.Payload(payload, params)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("template rendering failed: %v", err))
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// handleGetVersion handles GET /v1/configs/{service}/versions/{version},
// returning the full record rather than just the payload.
func (s *ConfigServer) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")
	version, err := parseVersion(r.PathValue("version"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := s.store.GetVersion(r.Context(), service, version)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound,
			fmt.Sprintf("configuration not found for service %q version %d", service, version))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load configuration")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleGetHistory handles GET /v1/configs/{service}/history. Versions are
// returned newest first. An unknown service yields an empty list, not a 404.
func (s *ConfigServer) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	service := r.PathValue("service")

	versions, err := s.store.ListVersions(r.Context(), service)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	// The store returns ascending order; history reads newest first.
	history := make([]model.VersionInfo, 0, len(versions))
	for i := len(versions) - 1; i >= 0; i-- {
		history = append(history, versions[i])
	}

	writeJSON(w, http.StatusOK, map[string]any{"service": service, "history": history})
}

// handleListServices handles GET /v1/services?since=RFC3339.
func (s *ConfigServer) handleListServices(w http.ResponseWriter, r *http.Request) {
	var since *time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = &t
	}

	services, err := s.store.ListServices(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list services")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func parseVersion(raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("version must be a positive integer, got %q", raw)
	}
	return v, nil
}
