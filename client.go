package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
)

// apiError is the machine-readable failure payload the running service
// returns on non-2xx responses.
type apiError struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func (e apiError) reason() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// HTTPClient wraps outbound requests to the running service. A credential
// set with SetCredential rides every subsequent request as a bearer
// Authorization header until cleared; only the SessionController writes
// that field, in lockstep with the TokenStore and session state. Requests
// carry ambient cookies via a shared jar for backends that pair bearer
// tokens with cookie sessions.
type HTTPClient struct {
	baseURL string
	httpc   *http.Client
	logger  Logger

	mu         sync.RWMutex
	credential string
}

// ClientOption customizes HTTPClient construction.
type ClientOption func(*HTTPClient)

// WithClientLogger overrides the default logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient injects a custom transport, e.g. httptest clients.
func WithHTTPClient(httpc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// NewHTTPClient returns a client rooted at baseURL. No timeouts are
// enforced; callers bound calls through their context if they need to.
func NewHTTPClient(baseURL string, opts ...ClientOption) *HTTPClient {
	jar, _ := cookiejar.New(nil)

	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Jar: jar},
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// SetCredential attaches token to every subsequent request.
func (c *HTTPClient) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = token
}

// ClearCredential removes the bearer attachment.
func (c *HTTPClient) ClearCredential() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = ""
}

// Credential returns the currently attached token ("" when none).
func (c *HTTPClient) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// Get issues a GET and decodes the JSON response into out.
func (c *HTTPClient) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

// Post issues a POST with a JSON body and decodes the response into out.
func (c *HTTPClient) Post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(payload), out)
}

// PostForm issues a POST with a url-encoded body and decodes the response
// into out.
func (c *HTTPClient) PostForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

// PostEmpty issues a bodyless POST and discards any response payload.
func (c *HTTPClient) PostEmpty(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodPost, path, "", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if token := c.Credential(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)

		c.logger.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode)
		return TransportError(resp.StatusCode, apiErr.reason())
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return err
	}

	return nil
}
