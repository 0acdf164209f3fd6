// Package licenseapi is a thin HTTP client for the LicenseChain REST API.
//
// Every call is a single synchronous request; nothing is retried. Transport
// failures and non-2xx responses come back as *APIError, which matches
// ErrUnavailable through errors.Is so callers can render one message for
// "the license service is down" regardless of the cause.
package licenseapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a whole request including reading the body.
const DefaultTimeout = 30 * time.Second

// ErrUnavailable is matched by every *APIError.
var ErrUnavailable = errors.New("license api unavailable")

// APIError describes a failed call. Status is 0 when no response arrived.
type APIError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("licenseapi: %s: %d %s", e.Op, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("licenseapi: %s: status %d", e.Op, e.Status)
	default:
		return fmt.Sprintf("licenseapi: %s: %v", e.Op, e.Err)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnavailable) true for any APIError.
func (e *APIError) Is(target error) bool { return target == ErrUnavailable }

// NotFound reports whether the API answered 404.
func (e *APIError) NotFound() bool { return e.Status == http.StatusNotFound }

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	AppVersion string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to one LicenseChain deployment. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	apiKey    string
	userAgent string
	hc        *http.Client
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("licenseapi: invalid base url %q", opts.BaseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	version := opts.AppVersion
	if version == "" {
		version = "1.0.0"
	}
	return &Client{
		base:      u,
		apiKey:    opts.APIKey,
		userAgent: "LicenseChain-Telegram-Bot/" + version,
		hc:        hc,
	}, nil
}

// Validate checks key against the API. An invalid key is not an error; it
// comes back with Valid=false and a reason.
func (c *Client) Validate(ctx context.Context, key string) (*Validation, error) {
	body := map[string]string{"key": key, "hardwareId": "telegram-bot"}
	var out Validation
	if err := c.do(ctx, "validate", http.MethodPost, "/v1/licenses/verify", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create issues a license for appID.
func (c *Client) Create(ctx context.Context, appID string, req CreateRequest) (*License, error) {
	var out License
	p := "/v1/apps/" + url.PathEscape(appID) + "/licenses"
	if err := c.do(ctx, "create", http.MethodPost, p, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies patch to the license id. A patch that only changes the
// status is sent to the status endpoint.
func (c *Client) Update(ctx context.Context, id string, patch Patch) (*License, error) {
	p := "/v1/licenses/" + url.PathEscape(id)
	var body any = patch
	if patch.statusOnly() {
		p += "/status"
		body = map[string]string{"status": *patch.Status}
	}
	var out License
	if err := c.do(ctx, "update", http.MethodPatch, p, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revoke deletes the license id.
func (c *Client) Revoke(ctx context.Context, id string) error {
	return c.do(ctx, "revoke", http.MethodDelete, "/v1/licenses/"+url.PathEscape(id), nil, nil, nil)
}

// ListForApp returns the licenses issued for appID.
func (c *Client) ListForApp(ctx context.Context, appID string) ([]License, error) {
	var raw json.RawMessage
	p := "/v1/apps/" + url.PathEscape(appID) + "/licenses"
	if err := c.do(ctx, "list_licenses", http.MethodGet, p, nil, nil, &raw); err != nil {
		return nil, err
	}
	out, err := decodeList[License](raw, "licenses")
	if err != nil {
		return nil, &APIError{Op: "list_licenses", Err: err}
	}
	return out, nil
}

// Apps lists the applications visible to the API key.
func (c *Client) Apps(ctx context.Context) ([]App, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "apps", http.MethodGet, "/v1/apps", nil, nil, &raw); err != nil {
		return nil, err
	}
	out, err := decodeList[App](raw, "apps")
	if err != nil {
		return nil, &APIError{Op: "apps", Err: err}
	}
	return out, nil
}

// App fetches one application by id.
func (c *Client) App(ctx context.Context, id string) (*App, error) {
	var out App
	if err := c.do(ctx, "app", http.MethodGet, "/v1/apps/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppByName finds an application by case-insensitive name or slug. It
// returns (nil, nil) when there is no match.
func (c *Client) AppByName(ctx context.Context, name string) (*App, error) {
	apps, err := c.Apps(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if strings.EqualFold(apps[i].Name, name) || strings.EqualFold(apps[i].Slug, name) {
			return &apps[i], nil
		}
	}
	return nil, nil
}

// Analytics returns usage figures of license id over period (7d, 30d, ...).
func (c *Client) Analytics(ctx context.Context, id, period string) (*Analytics, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	var out Analytics
	p := "/v1/licenses/" + url.PathEscape(id) + "/analytics"
	if err := c.do(ctx, "analytics", http.MethodGet, p, q, nil, &out); err != nil {
		return nil, err
	}
	if out.Period == "" {
		out.Period = period
	}
	return &out, nil
}

// Stats returns license counters across the account.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.do(ctx, "stats", http.MethodGet, "/v1/licenses/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// HealthCheck pings the API.
func (c *Client) HealthCheck(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, "health", http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, op, method, p string, q url.Values, in, out any) error {
	tr := otel.Tracer("licenseapi")
	ctx, span := tr.Start(ctx, op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", p),
	))
	defer span.End()

	err := c.roundTrip(ctx, op, method, p, q, in, out, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, p string, q url.Values, in, out any, span trace.Span) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + p
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return &APIError{Op: op, Err: err}
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Op: op, Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &APIError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// errorMessage extracts {"error": "..."} or {"message": "..."} from an error
// body, falling back to a trimmed prefix of the raw text.
func errorMessage(raw []byte) string {
	var env struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
