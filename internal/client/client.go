// Package client talks to the remote asset backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/erazemk/premik/internal/metrics"
	"github.com/erazemk/premik/internal/model"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4 << 10

// StatusError is returned for non-2xx backend responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client is a backend API client. Reads are retried with backoff; transfer
// submissions are sent exactly once per call.
type Client struct {
	baseURL *url.URL
	token   string
	rc      *retryablehttp.Client
}

// New creates a client for the backend at baseURL. token, if set, is sent
// as a bearer token.
func New(baseURL, token string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url: %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: timeout}
	rc.RetryMax = 3
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = slog.Default()
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{baseURL: u, token: strings.TrimSpace(token), rc: rc}, nil
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) setHeaders(h http.Header) {
	h.Set("Accept", "application/json")
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
}

// getJSON performs a retried GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, query url.Values, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url(path, query), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req.Header)

	resp, err := c.rc.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	return decode(resp, endpoint, http.MethodGet, path, out)
}

func decode(resp *http.Response, endpoint, method, path string, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, "status_"+strconv.Itoa(resp.StatusCode)).Inc()
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	metrics.BackendRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

// ListAssets returns the assets owned by supervisor.
func (c *Client) ListAssets(ctx context.Context, supervisor string) ([]model.Asset, error) {
	q := url.Values{}
	if supervisor != "" {
		q.Set("supervisor", supervisor)
	}
	var assets []model.Asset
	if err := c.getJSON(ctx, "assets", "/assets", q, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// SearchEmployees returns employees matching q.
func (c *Client) SearchEmployees(ctx context.Context, q string) ([]model.Employee, error) {
	var employees []model.Employee
	if err := c.getJSON(ctx, "employees", "/assets/employees/search", url.Values{"q": {q}}, &employees); err != nil {
		return nil, err
	}
	return employees, nil
}

// ListLookup returns a reference list by name (see model.Lookup*).
func (c *Client) ListLookup(ctx context.Context, name string) ([]model.Lookup, error) {
	switch name {
	case model.LookupCostCenters, model.LookupDepartments, model.LookupLocations:
	default:
		return nil, fmt.Errorf("unknown lookup list %q", name)
	}
	var list []model.Lookup
	if err := c.getJSON(ctx, name, "/assets/"+name, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListCostCenters returns all cost centers.
func (c *Client) ListCostCenters(ctx context.Context) ([]model.Lookup, error) {
	return c.ListLookup(ctx, model.LookupCostCenters)
}

// ListDepartments returns all departments.
func (c *Client) ListDepartments(ctx context.Context) ([]model.Lookup, error) {
	return c.ListLookup(ctx, model.LookupDepartments)
}

// ListLocations returns all locations.
func (c *Client) ListLocations(ctx context.Context) ([]model.Lookup, error) {
	return c.ListLookup(ctx, model.LookupLocations)
}

// GetTransfer loads an existing transfer request.
func (c *Client) GetTransfer(ctx context.Context, id int64) (*model.RemoteTransfer, error) {
	var rt model.RemoteTransfer
	path := "/assets/transfers/" + strconv.FormatInt(id, 10)
	if err := c.getJSON(ctx, "get_transfer", path, nil, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

// SubmitTransfer posts a transfer as multipart form data with one file part
// per attachment. The request is never retried here; callers retry with the
// same idempotency key.
func (c *Client) SubmitTransfer(ctx context.Context, p *model.TransferPayload, files []model.FilePart, idempotencyKey string) (int64, error) {
	body, contentType, err := encodeTransfer(p, files)
	if err != nil {
		return 0, err
	}

	const path = "/assets/transfers"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path, nil), body)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req.Header)
	req.Header.Set("Content-Type", contentType)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.rc.HTTPClient.Do(req)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues("submit", "error").Inc()
		return 0, fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	var out struct {
		ID int64 `json:"id"`
	}
	if err := decode(resp, "submit", http.MethodPost, path, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// encodeTransfer writes the header fields, the JSON-encoded details and
// one "attachments[<item id>]" part per file.
func encodeTransfer(p *model.TransferPayload, files []model.FilePart) (*bytes.Buffer, string, error) {
	details, err := json.Marshal(p.Details)
	if err != nil {
		return nil, "", fmt.Errorf("encoding details: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"transfer_date", p.TransferDate},
		{"transfer_by", p.TransferBy},
		{"costcenter_id", p.CostCenterID},
		{"department_id", p.DepartmentID},
		{"transfer_status", p.Status},
		{"remarks", p.Remarks},
		{"details", string(details)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attachments[%s]"; filename="%s"`,
			escapeQuotes(f.ItemID), escapeQuotes(f.Filename)))
		mime := f.MIME
		if mime == "" {
			mime = "application/octet-stream"
		}
		h.Set("Content-Type", mime)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating attachment part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("writing attachment %s: %w", f.Filename, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
