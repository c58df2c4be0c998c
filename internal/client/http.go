package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/groblegark/confstore/internal/model"
)

// HTTPClient implements ConfigClient using the confstore HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Writes ---

// PutConfig posts a payload without a pinned version. The server assigns the
// next version unless the payload itself carries a "version" field.
func (c *HTTPClient) PutConfig(ctx context.Context, service string, payload []byte) (*PutResponse, error) {
	var resp PutResponse
	path := "/v1/configs/" + url.PathEscape(service)
	if err := c.doRaw(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PutVersion stores a payload under an explicit version. Re-putting an
// existing version is a no-op reported via Status "unchanged".
func (c *HTTPClient) PutVersion(ctx context.Context, service string, version int64, payload []byte) (*PutResponse, error) {
	var resp PutResponse
	path := "/v1/configs/" + url.PathEscape(service) + "/versions/" + strconv.FormatInt(version, 10)
	if err := c.doRaw(ctx, http.MethodPut, path, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Reads ---

// GetConfig fetches a configuration payload. The raw bytes are returned so
// callers can print or pipe them untouched.
func (c *HTTPClient) GetConfig(ctx context.Context, service string, opts *GetOptions) ([]byte, error) {
	if opts == nil {
		opts = &GetOptions{}
	}
	q := url.Values{}
	if opts.Version > 0 {
		q.Set("version", strconv.FormatInt(opts.Version, 10))
	}
	if opts.Template {
		q.Set("template", "1")
		for key, val := range opts.Params {
			q.Set(key, val)
		}
	}

	path := "/v1/configs/" + url.PathEscape(service)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.getRaw(ctx, path)
}

func (c *HTTPClient) GetVersion(ctx context.Context, service string, version int64) (*model.ConfigRecord, error) {
	var rec model.ConfigRecord
	path := "/v1/configs/" + url.PathEscape(service) + "/versions/" + strconv.FormatInt(version, 10)
	if err := c.doRaw(ctx, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) GetHistory(ctx context.Context, service string) ([]model.VersionInfo, error) {
	var resp struct {
		History []model.VersionInfo `json:"history"`
	}
	path := "/v1/configs/" + url.PathEscape(service) + "/history"
	if err := c.doRaw(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

func (c *HTTPClient) ListServices(ctx context.Context, since *time.Time) ([]model.ServiceActivity, error) {
	var resp struct {
		Services []model.ServiceActivity `json:"services"`
	}
	path := "/v1/services"
	if since != nil {
		path += "?since=" + url.QueryEscape(since.Format(time.RFC3339))
	}
	if err := c.doRaw(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Services, nil
}

// --- Health ---

// Health reports server health. An unhealthy server answers 503 with a status
// body, so that case decodes rather than erroring.
func (c *HTTPClient) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/health", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, apiError(resp.StatusCode, respBody)
	}

	var status HealthStatus
	if err := json.Unmarshal(respBody, &status); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// doRaw performs an HTTP request with an optional raw body and decodes the
// JSON response into result. Payload bodies are sent as-is since the server
// accepts YAML as well as JSON.
func (c *HTTPClient) doRaw(ctx context.Context, method, path string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// getRaw performs a GET and returns the body bytes without decoding.
func (c *HTTPClient) getRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, apiError(resp.StatusCode, respBody)
	}

	return respBody, nil
}

func apiError(status int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: status, Message: errResp.Error}
	}
	return &APIError{StatusCode: status, Message: string(body)}
}
