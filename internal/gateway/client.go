package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"novellens/internal/artifact"
)

// DefaultBasePath is the API prefix the analysis backend mounts its routes on.
const DefaultBasePath = "/api/v1"

// Client is a client for the analysis backend API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig) error

type clientConfig struct {
	httpClient *http.Client
	logger     *slog.Logger
	timeout    time.Duration
	basePath   string
}

// New creates a new Client for the backend at baseURL.
// A non-empty bearerToken is sent as an Authorization header on every request.
func New(baseURL, bearerToken string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("gateway: baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	cfg := &clientConfig{basePath: DefaultBasePath}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	// Copy so WithTimeout never changes a client the caller shares, such as
	// http.DefaultClient.
	httpClient := &http.Client{}
	if cfg.httpClient != nil {
		c := *cfg.httpClient
		httpClient = &c
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    baseURL + cfg.basePath,
		token:      bearerToken,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithLogger configures structured logging.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *clientConfig) error {
		cfg.logger = l
		return nil
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) error {
		if d < 0 {
			return fmt.Errorf("gateway: negative timeout %s", d)
		}
		cfg.timeout = d
		return nil
	}
}

// WithBasePath replaces the /api/v1 prefix. An empty path mounts routes at
// the base URL itself.
func WithBasePath(p string) Option {
	return func(cfg *clientConfig) error {
		p = strings.TrimSuffix(p, "/")
		if p != "" && !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		cfg.basePath = p
		return nil
	}
}

// Fetch dispatches to the endpoint of kind.
func (c *Client) Fetch(ctx context.Context, kind artifact.Kind, q artifact.Query) (json.RawMessage, error) {
	switch kind {
	case artifact.KindRelationshipGraph:
		return c.RelationshipGraph(ctx, q)
	case artifact.KindTimeline:
		return c.Timeline(ctx, q)
	case artifact.KindCharacterJourney:
		return c.CharacterJourney(ctx, q.NovelID, q.CharacterID)
	case artifact.KindItemLineage:
		return c.ItemLineage(ctx, q.NovelID, q.ItemID)
	case artifact.KindLocationEvents:
		return c.LocationEvents(ctx, q.NovelID, q.LocationID)
	}
	return nil, fmt.Errorf("gateway: unsupported artifact kind %q", kind)
}

// request describes one API call.
type request struct {
	method    string
	path      string
	operation string
	body      any
	header    http.Header
}

// do executes an HTTP request and returns the raw response body.
// Transport failures become *NetworkError, non-2xx statuses *ServerError.
func (c *Client) do(ctx context.Context, r request) (json.RawMessage, error) {
	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", r.operation, err)
		}
		body = bytes.NewReader(data)
	}

	url := c.baseURL + r.path
	req, err := http.NewRequestWithContext(ctx, r.method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", r.operation, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	c.logger.InfoContext(ctx, "API request", "operation", r.operation, "method", r.method, "url", url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(r.operation, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "API response", "operation", r.operation, "status", resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewNetworkError(r.operation, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail errorDetail
		if json.Unmarshal(respBody, &detail) == nil {
			return nil, NewServerError(r.operation, resp.StatusCode, detail.message())
		}
		return nil, NewServerError(r.operation, resp.StatusCode, "")
	}
	return json.RawMessage(respBody), nil
}

// errorDetail is the FastAPI error shape. Detail is a string for
// HTTPException and a list of objects for validation errors.
type errorDetail struct {
	Detail json.RawMessage `json:"detail"`
}

func (d errorDetail) message() string {
	var s string
	if json.Unmarshal(d.Detail, &s) == nil {
		return s
	}
	return ""
}
