// Package engine provides an HTTP client for the Starpack Engine API.
//
// The engine runs in its own container and exposes a small HTTP surface for
// packaging, deployment and resource management. The CLI uses this client to
// probe readiness and forward requests; it never retries a rejected call.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bdobrica/starpack/common/trace"
	"github.com/bdobrica/starpack/common/version"
	"github.com/bdobrica/starpack/internal/starpack/fault"
	"github.com/bdobrica/starpack/internal/starpack/resources"
)

// Engine API paths.
const (
	PathHealth  = "/healthcheck"
	PathPackage = "/package"
	PathDeploy  = "/deploy"
)

const (
	defaultTimeout       = 5 * time.Minute
	defaultHealthTimeout = 2 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 16 << 20
	// maxErrorBodyBytes caps the body echoed back in a rejection.
	maxErrorBodyBytes = 4 << 10
)

// Options configures a Client.
type Options struct {
	// Timeout bounds every call except Health. Defaults to 5m since packaging
	// builds images synchronously.
	Timeout time.Duration
	// HealthTimeout bounds a single readiness probe. Defaults to 2s.
	HealthTimeout time.Duration
}

// Client is an HTTP client for one engine endpoint.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	healthClient *http.Client
}

// New creates a client targeting baseURL (e.g. "http://localhost:1976").
func New(baseURL string, opts ...Options) *Client {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.HealthTimeout <= 0 {
		o.HealthTimeout = defaultHealthTimeout
	}
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: o.Timeout},
		healthClient: &http.Client{Timeout: o.HealthTimeout},
	}
}

// DeployResponse is returned by POST /deploy.
type DeployResponse struct {
	// Endpoints maps each deployed step to the address it is served on.
	Endpoints map[string]any `json:"endpoints"`
}

// Health calls GET /healthcheck. Only HTTP 200 counts as healthy.
func (c *Client) Health(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, PathHealth, nil)
	if err != nil {
		return err
	}
	resp, err := c.healthClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: status %d", resp.StatusCode)
	}
	return nil
}

// Package submits a package descriptor document.
func (c *Client) Package(ctx context.Context, payload any) error {
	_, err := c.send(ctx, http.MethodPost, PathPackage, payload)
	return err
}

// Deploy submits a deployment descriptor document and returns the endpoints
// the engine reports.
func (c *Client) Deploy(ctx context.Context, payload any) (*DeployResponse, error) {
	body, err := c.send(ctx, http.MethodPost, PathDeploy, payload)
	if err != nil {
		return nil, err
	}
	var out DeployResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("unmarshal deploy response: %w", err)
		}
	}
	return &out, nil
}

// List returns the resources matching sel.
func (c *Client) List(ctx context.Context, sel resources.Selector) ([]resources.Record, error) {
	body, err := c.send(ctx, http.MethodGet, collectionPath(sel, ""), nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []resources.Record{}, nil
	}
	var out []resources.Record
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("unmarshal %s list: %w", sel.Kind(), err)
	}
	return out, nil
}

// Delete removes the resources matching sel.
func (c *Client) Delete(ctx context.Context, sel resources.Selector) error {
	_, err := c.send(ctx, http.MethodDelete, collectionPath(sel, ""), nil)
	return err
}

// Logs returns the log text for the resources matching sel.
func (c *Client) Logs(ctx context.Context, sel resources.Selector) (string, error) {
	body, err := c.send(ctx, http.MethodGet, collectionPath(sel, "logs"), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// --- internal helpers ---

func collectionPath(sel resources.Selector, sub string) string {
	p := "/" + sel.Kind().Plural()
	if sub != "" {
		p += "/" + sub
	}
	if q := sel.Filter().Query().Encode(); q != "" {
		p += "?" + q
	}
	return p
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("X-Request-ID", trace.RequestID(ctx))
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	return req, nil
}

// send issues a request and returns the response body. Any non-2xx status
// becomes an UpstreamRejection carrying the status and body.
func (c *Client) send(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, bodyReader)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		return nil, fault.NewUpstreamRejection(method+" "+req.URL.Path, resp.StatusCode, string(snippet))
	}
	return body, nil
}
