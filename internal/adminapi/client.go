// Package adminapi is the console's client for the Modulys backend admin REST
// API. Client.Login is the only unauthenticated call; everything else goes
// through an API bound to the caller's credentials.
package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"modulys-admin/internal/domain"
	"modulys-admin/internal/observability"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:3001/api/admin"

const (
	maxAttempts               = 3
	invalidCredentialsMessage = "Credenciais inválidas. Tente novamente."
)

var ErrInvalidResponse = errors.New("invalid response from admin API")

// Credentials supplies the bearer token for authenticated calls and is told
// when the backend rejects it. session.Guard implements it.
type Credentials interface {
	Credential() string
	OnUnauthorized(ctx context.Context, cause error) error
}

// Client talks to the backend admin API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	backoff    func(attempt int) time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBackoff sets the wait between retried GET attempts.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) {
		c.backoff = fn
	}
}

// NewClient creates a new admin API client
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root every endpoint is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges an email and password for an identity and access token.
// A rejection is reported as *domain.CredentialsError; the session is never
// touched here.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	resp, err := c.send(ctx, call{method: http.MethodPost, endpoint: "/auth/login", path: "/auth/login", body: body})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		msg := messageFromBody(resp.Body, invalidCredentialsMessage, invalidCredentialsMessage)
		return nil, &domain.CredentialsError{Message: msg}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, apiError(resp)
	}

	var result domain.LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if result.AccessToken == "" || result.User.ID == "" || result.User.Email == "" {
		return nil, fmt.Errorf("%w: login response is missing the user or the token", ErrInvalidResponse)
	}
	return &result, nil
}

// Ping checks that the backend answers HTTP at all. Any status counts as
// reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("admin API unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

// For binds the client to a set of credentials.
func (c *Client) For(creds Credentials) *API {
	return &API{client: c, creds: creds}
}

type call struct {
	method   string
	endpoint string // route pattern, used as the metrics label
	path     string
	query    string
	body     any
	token    string
}

// send performs one logical call. GETs are retried on transport errors and
// 5xx responses; other methods are attempted once.
func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	var payload []byte
	if cl.body != nil {
		var err error
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	url := c.baseURL + cl.path
	if cl.query != "" {
		url += "?" + cl.query
	}

	attempts := 1
	if cl.method == http.MethodGet {
		attempts = maxAttempts
	}

	var resp *http.Response
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, lastErr = c.do(ctx, cl, url, payload)
		if lastErr == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if attempt == attempts {
			break
		}
		if resp != nil {
			resp.Body.Close()
		}

		observability.BackendRetriesTotal.WithLabelValues(cl.endpoint).Inc()
		observability.FromContext(ctx).Warn("retrying admin API call",
			slog.String("endpoint", cl.endpoint),
			slog.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed to call %s %s after %d attempts: %w", cl.method, cl.endpoint, attempts, lastErr)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, cl call, url string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	observability.BackendRequestDuration.WithLabelValues(cl.method, cl.endpoint, status).
		Observe(time.Since(start).Seconds())

	return resp, err
}

// apiError builds the error for a non-auth failure, reading the backend's
// message field when there is one.
func apiError(resp *http.Response) error {
	return &domain.APIError{
		Status:  resp.StatusCode,
		Message: messageFromBody(resp.Body, "Erro desconhecido", "Erro na requisição"),
	}
}

// messageFromBody extracts "message" from a JSON error body. NestJS-style
// validation errors carry a list of messages, which are joined.
func messageFromBody(body io.Reader, notJSON, noMessage string) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil {
		return notJSON
	}

	var single string
	if err := json.Unmarshal(payload.Message, &single); err == nil && single != "" {
		return single
	}
	var many []string
	if err := json.Unmarshal(payload.Message, &many); err == nil && len(many) > 0 {
		return strings.Join(many, "; ")
	}
	return noMessage
}
