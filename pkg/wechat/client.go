package wechat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	apierrors "github.com/crazygit/ewerobot/pkg/errors"
)

const (
	// DefaultAPIBaseURL is the WeChat Official Account platform API host
	DefaultAPIBaseURL = "https://api.weixin.qq.com"
	// DefaultOpenBaseURL is the WeChat open-platform host used for the
	// web authorization redirect
	DefaultOpenBaseURL = "https://open.weixin.qq.com"

	defaultTimeout = 5 * time.Second
	maxAttempts    = 3
)

// Config holds the Official Account credentials and endpoints
type Config struct {
	AppID     string
	AppSecret string

	// SubscribeURL is where SubscribeRequired middleware sends visitors
	// who do not follow the account
	SubscribeURL string

	// APIBaseURL and OpenBaseURL default to the production hosts and are
	// overridable for tests
	APIBaseURL  string
	OpenBaseURL string
}

// Client talks to the WeChat Official Account platform API.
// All methods are safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	store      TokenStore

	// refreshMu serializes token grants so concurrent 40001 responses
	// trigger a single refresh
	refreshMu sync.Mutex
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenStore replaces the credential store. Multi-process deployments
// should plug in a shared store so every worker sees the same token.
func WithTokenStore(store TokenStore) Option {
	return func(c *Client) { c.store = store }
}

// NewClient creates a Client for the given Official Account
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.OpenBaseURL == "" {
		cfg.OpenBaseURL = DefaultOpenBaseURL
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		store:      NewMemoryTokenStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the client configuration
func (c *Client) Config() Config {
	return c.cfg
}

// apiRequest describes one platform API call
type apiRequest struct {
	method string
	path   string
	// params are the query parameters. A nil params means "just the
	// access_token". When params carry an "access_token" key it is
	// overwritten with a fresh base token on every attempt, unless
	// useOAuthToken marks it as a web-authorization token that must be
	// passed through untouched.
	params        url.Values
	body          any
	timeout       time.Duration
	useOAuthToken bool
}

// usesBaseToken reports whether the request authenticates with the cached
// account access_token (and can therefore be retried after a refresh)
func (r apiRequest) usesBaseToken() bool {
	if r.params == nil {
		return true
	}
	return r.params.Has("access_token") && !r.useOAuthToken
}

// do executes an API call with up to three attempts, retrying on request
// timeouts and on an invalid access_token (after forcing a refresh)
func (c *Client) do(ctx context.Context, req apiRequest, result any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := c.doOnce(ctx, req, result)
		if err == nil {
			return nil
		}
		lastErr = err

		if apierrors.IsCredentialInvalid(err) && req.usesBaseToken() {
			if _, rerr := c.RefreshAccessToken(ctx); rerr != nil {
				return rerr
			}
			continue
		}
		if isTimeout(err) && ctx.Err() == nil {
			continue
		}
		return err
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, req apiRequest, result any) error {
	params := req.params
	if params == nil {
		params = url.Values{}
		params.Set("access_token", "")
	}
	if params.Has("access_token") && !req.useOAuthToken {
		token, err := c.AccessToken(ctx)
		if err != nil {
			return err
		}
		params.Set("access_token", token)
	}

	var reqBody io.Reader
	if req.body != nil {
		jsonBytes, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	timeout := req.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL := fmt.Sprintf("%s%s?%s", c.cfg.APIBaseURL, req.path, params.Encode())
	httpReq, err := http.NewRequestWithContext(reqCtx, req.method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, string(data))
	}

	if err := checkError(data); err != nil {
		return err
	}
	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// checkError inspects the platform response envelope. Any body carrying a
// non-zero errcode is an error; errcode 40001 means the access_token was
// rejected and is reported as a CredentialError so do() can refresh.
func checkError(data []byte) error {
	var envelope struct {
		ErrCode int    `json:"errcode"`
		ErrMsg  string `json:"errmsg"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.ErrCode == 0 {
		return nil
	}
	if envelope.ErrCode == apierrors.ErrCodeInvalidCredential {
		return apierrors.NewCredentialError(envelope.ErrCode, envelope.ErrMsg)
	}
	return apierrors.NewAPIError(envelope.ErrCode, envelope.ErrMsg)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
