package launchpad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lpupload/internal/logging"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultUploadTimeout  = 30 * time.Minute
	userAgent             = "lpupload/1.0"
	errorBodyLimit        = 4096
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// ClientOption customises Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client HTTPDoer) ClientOption {
	return func(c *Client) {
		c.http = client
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "launchpad")
	}
}

// WithRequestTimeout bounds metadata calls.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithUploadTimeout bounds add_file calls, which carry whole artifacts.
func WithUploadTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.uploadTimeout = d
		}
	}
}

// Client talks to one Launchpad service root with one set of credentials.
type Client struct {
	serviceURL     string
	realm          string
	creds          Credentials
	http           HTTPDoer
	logger         *slog.Logger
	requestTimeout time.Duration
	uploadTimeout  time.Duration
	now            func() time.Time
}

// NewClient builds a client for serviceURL (for example
// https://api.launchpad.net/devel) signing requests with creds.
func NewClient(serviceURL string, creds Credentials, opts ...ClientOption) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(serviceURL), "/")
	if trimmed == "" {
		return nil, errors.New("launchpad service url is empty")
	}
	if !creds.Valid() {
		return nil, ErrCredentialsMissing
	}
	c := &Client{
		serviceURL:     trimmed,
		realm:          realmFor(trimmed),
		creds:          creds,
		http:           &http.Client{},
		logger:         logging.NewNop(),
		requestTimeout: defaultRequestTimeout,
		uploadTimeout:  defaultUploadTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c, nil
}

// ServiceURL returns the versioned API root.
func (c *Client) ServiceURL() string {
	return c.serviceURL
}

// link resolves a relative path against the service root; absolute links pass through.
func (c *Client) link(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.serviceURL + "/" + strings.TrimLeft(path, "/")
}

// GetEntry fetches a single entry and decodes it into out.
func (c *Client) GetEntry(ctx context.Context, link string, out any) error {
	return c.getJSON(ctx, c.link(link), out)
}

// NamedGet invokes a read-only named operation (ws.op) on a resource. A JSON
// null result is reported as ErrNotFound.
func (c *Client) NamedGet(ctx context.Context, link, op string, params url.Values, out any) error {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("ws.op", op)
	target := c.link(link)
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, target+sep+query.Encode(), &raw); err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return fmt.Errorf("%w: %s %s", ErrNotFound, op, params.Encode())
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", op, err)
	}
	return nil
}

type collectionPage struct {
	TotalSize          *int              `json:"total_size"`
	Start              int               `json:"start"`
	Entries            []json.RawMessage `json:"entries"`
	NextCollectionLink string            `json:"next_collection_link"`
}

// EachEntry walks every page of a collection, calling visit for each raw entry
// until visit returns false.
func (c *Client) EachEntry(ctx context.Context, link string, visit func(json.RawMessage) (bool, error)) error {
	next := c.link(link)
	seen := map[string]struct{}{}
	for next != "" {
		if _, dup := seen[next]; dup {
			return fmt.Errorf("collection %s links back to an earlier page", link)
		}
		seen[next] = struct{}{}

		var page collectionPage
		if err := c.getJSON(ctx, next, &page); err != nil {
			return err
		}
		for _, entry := range page.Entries {
			more, err := visit(entry)
			if err != nil {
				return err
			}
			if !more {
				return nil
			}
		}
		next = page.NextCollectionLink
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(req, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", c.creds.authorizationHeader(c.realm, c.now()))
	req.Header.Set("User-Agent", userAgent)

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("launchpad %s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	c.logger.Debug("launchpad request",
		logging.Args(
			logging.String("method", req.Method),
			logging.String("url", req.URL.String()),
			logging.Int("status", resp.StatusCode),
			logging.String("elapsed", c.now().Sub(start).Round(time.Millisecond).String()),
		)...)
	return resp, nil
}

func checkResponse(req *http.Request, resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &APIError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
