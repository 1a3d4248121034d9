package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/entitykit/entityauth/pkg/auth"
	"github.com/entitykit/entityauth/pkg/httputil"
	"github.com/entitykit/entityauth/pkg/observability"
	"github.com/entitykit/entityauth/pkg/orgs"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryInterval = 5 * time.Second
	memberCacheSize      = 64
)

var (
	_ auth.SessionProvider       = (*Client)(nil)
	_ auth.OrganizationDirectory = (*Client)(nil)
	_ auth.SSOExchange           = (*Client)(nil)
)

// PromptFunc hands an authorization URL to the caller and returns the token
// set document the identity provider flow produced. CLI frontends open the
// URL in a browser and read the pasted result from stdin.
type PromptFunc func(ctx context.Context, authURL string) (string, error)

// Client talks to an entityauth server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	tenantID   string
	httpClient *http.Client
	logger     *observability.Logger
	prompt     PromptFunc

	retryInterval time.Duration

	mu       sync.RWMutex
	tokens   auth.TokenSet
	snapshot auth.SessionSnapshot

	members *lru.Cache[string, []orgs.OrgMember]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a structured logger.
func WithLogger(logger *observability.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTokens seeds the client with a previously persisted token set.
func WithTokens(tokens auth.TokenSet) Option {
	return func(c *Client) { c.tokens = tokens }
}

// WithPrompt installs the interactive sign-in prompt used by SignIn.
func WithPrompt(prompt PromptFunc) Option {
	return func(c *Client) { c.prompt = prompt }
}

// WithRetryInterval sets the reconnect delay for snapshot subscriptions.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// New builds a client for the server at baseURL, bound to the given workspace
// tenant. The tenant may be empty for single-tenant deployments.
func New(baseURL, workspaceTenantID string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, auth.NewAuthError(auth.KindConfiguration, "server base URL is required")
	}

	members, err := lru.New[string, []orgs.OrgMember](memberCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build member cache: %w", err)
	}

	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		tenantID:      workspaceTenantID,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		retryInterval: defaultRetryInterval,
		members:       members,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured server endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WorkspaceTenantID returns the tenant the client is bound to.
func (c *Client) WorkspaceTenantID() (string, error) {
	if c.tenantID == "" {
		return "", auth.NewAuthError(auth.KindConfiguration, "no workspace tenant configured")
	}
	return c.tenantID, nil
}

// Tokens returns the currently installed token set, for persistence between
// runs.
func (c *Client) Tokens() auth.TokenSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens.AccessToken
}

// do performs a JSON round trip and decodes the response into out. Responses
// with an error status are turned back into AuthErrors from the server's
// error envelope. The returned status lets callers distinguish 200 from 204.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, auth.WrapError(auth.KindTransport, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return resp.StatusCode, decodeError(resp)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, auth.WrapError(auth.KindTransport, "failed to decode response", err)
		}
	}
	return resp.StatusCode, nil
}

// decodeError rebuilds an AuthError from the server's {error, kind} envelope,
// falling back to the status code when the body is not an envelope.
func decodeError(resp *http.Response) error {
	var envelope httputil.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil || envelope.Error == "" {
		return auth.Errorf(httputil.KindForStatus(resp.StatusCode),
			"request failed with status %d", resp.StatusCode)
	}

	kind := auth.ErrorKind(envelope.Kind)
	switch kind {
	case auth.KindAuthentication, auth.KindValidation, auth.KindAuthorization,
		auth.KindTransport, auth.KindConfiguration:
	default:
		kind = httputil.KindForStatus(resp.StatusCode)
	}
	return auth.NewAuthError(kind, envelope.Error)
}
