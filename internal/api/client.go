// Package api is the typed HTTP client for the billing-automation backend.
// It owns bearer-token attachment and 401 handling; everything above it deals
// in domain types and plain errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sagility/billingctl/internal/observability"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "billingctl/1.0"

// TokenSource supplies the bearer token for outgoing requests and purges the
// persisted session when the backend rejects it. Purge is the only session
// side effect this package is allowed.
type TokenSource interface {
	Token() string
	Purge()
}

// Options configures the client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
	// Trace, when set, receives one line per request and response.
	Trace *observability.Printer
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Client issues requests against one backend base URL. Every call is a single
// round trip: no retries, no caching.
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	ua     string
	trace  *observability.Printer
}

// NewClient creates a client for the given API base URL. tokens may be nil
// for unauthenticated use (health checks, registration-only flows).
func NewClient(baseURL string, tokens TokenSource, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	return &Client{
		base:   base,
		http:   hc,
		tokens: tokens,
		ua:     ua,
		trace:  opts.Trace,
	}, nil
}

// endpoint resolves an API path against the base URL.
func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// rootEndpoint resolves a server-relative path (a proxy URL) against the
// backend host root rather than the API base.
func (c *Client) rootEndpoint(path string) string {
	root := &url.URL{Scheme: c.base.Scheme, Host: c.base.Host}
	return root.String() + path
}

// newRequest builds a request with the user agent and, when a token is
// present, the Authorization header attached.
func (c *Client) newRequest(ctx context.Context, method, rawurl string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawurl, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.ua)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// do executes a request and decodes a JSON response into out (when non-nil).
// A 401 purges the persisted session and returns ErrUnauthorized; other
// non-2xx statuses become *APIError carrying the backend's detail text.
func (c *Client) do(req *http.Request, out any) error {
	if c.trace != nil {
		c.trace.Request(req.Method, req.URL.String())
	}
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.trace != nil {
		c.trace.Response(resp.StatusCode, time.Since(start))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			c.tokens.Purge()
		}
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getJSON issues a GET and decodes the response.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, c.endpoint(path), nil, "")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// postJSON issues a POST with a JSON body (nil for empty) and decodes the response.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(path), body, contentType)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// deleteJSON issues a DELETE and decodes the response.
func (c *Client) deleteJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodDelete, c.endpoint(path), nil, "")
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// postMultipart issues a POST whose body is built by fill writing into a
// multipart form. Used by every file-bearing operation.
func (c *Client) postMultipart(ctx context.Context, path string, fill func(*multipart.Writer) error, out any) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := fill(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(path), &buf, w.FormDataContentType())
	if err != nil {
		return err
	}
	return c.do(req, out)
}

// writeFilePart copies a local file into the multipart form under field.
func writeFilePart(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	return nil
}

// Download fetches binary content. Server-relative paths (proxy URLs) are
// resolved against the backend host and carry the bearer token; absolute URLs
// (pre-signed storage links) are fetched as-is without credentials. Returns
// the bytes and the server-reported content type, which callers are expected
// to ignore for PDFs.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, string, error) {
	var req *http.Request
	var err error
	if strings.HasPrefix(fileURL, "http://") || strings.HasPrefix(fileURL, "https://") {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", c.ua)
	} else {
		target := fileURL
		if strings.HasPrefix(fileURL, "/") {
			target = c.rootEndpoint(fileURL)
		} else {
			target = c.endpoint("/" + fileURL)
		}
		req, err = c.newRequest(ctx, http.MethodGet, target, nil, "")
		if err != nil {
			return nil, "", err
		}
	}

	if c.trace != nil {
		c.trace.Request(req.Method, req.URL.String())
	}
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if c.trace != nil {
		c.trace.Response(resp.StatusCode, time.Since(start))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read download body: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			c.tokens.Purge()
		}
		return nil, "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", newAPIError(resp.StatusCode, body)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
