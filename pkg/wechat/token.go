package wechat

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// Credential kinds managed by a TokenStore
const (
	KindAccessToken = "access_token"
	KindJSAPITicket = "jsapi_ticket"
)

// expirySlack is how long before the platform expiry a credential is
// treated as already expired, so in-flight calls never race the deadline
const expirySlack = 60 * time.Second

// Credential is a platform-issued token or ticket with its expiry
type Credential struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the credential is usable for at least slack longer
func (c Credential) Valid(slack time.Duration) bool {
	return c.Value != "" && time.Until(c.ExpiresAt) > slack
}

// TokenStore persists platform credentials. The default in-memory store is
// enough for a single process; deployments with several workers should
// share one store (see persistence.TokenRepository) so the account token
// is not refreshed by every process independently.
type TokenStore interface {
	Get(ctx context.Context, kind string) (Credential, error)
	Set(ctx context.Context, kind string, cred Credential) error
}

// MemoryTokenStore keeps credentials in process memory
type MemoryTokenStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryTokenStore creates an empty in-memory store
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{creds: make(map[string]Credential)}
}

func (s *MemoryTokenStore) Get(_ context.Context, kind string) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds[kind], nil
}

func (s *MemoryTokenStore) Set(_ context.Context, kind string, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[kind] = cred
	return nil
}

// AccessToken returns the account access_token, refreshing it when the
// stored one is missing or within a minute of expiry
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	cred, err := c.store.Get(ctx, KindAccessToken)
	if err != nil {
		return "", err
	}
	if cred.Valid(expirySlack) {
		return cred.Value, nil
	}
	return c.RefreshAccessToken(ctx)
}

// RefreshAccessToken unconditionally grants a new access_token and stores
// it. Called by the request layer when the platform rejects the cached one.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	var granted struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	params := url.Values{}
	params.Set("grant_type", "client_credential")
	params.Set("appid", c.cfg.AppID)
	params.Set("secret", c.cfg.AppSecret)
	if err := c.do(ctx, apiRequest{
		method: "GET",
		path:   "/cgi-bin/token",
		params: params,
	}, &granted); err != nil {
		return "", err
	}

	cred := Credential{
		Value:     granted.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(granted.ExpiresIn) * time.Second),
	}
	if err := c.store.Set(ctx, KindAccessToken, cred); err != nil {
		return "", err
	}
	return cred.Value, nil
}

// JSAPITicket returns the jsapi_ticket used to sign JS-SDK configs,
// refreshing it with the same expiry slack as the access_token
func (c *Client) JSAPITicket(ctx context.Context) (string, error) {
	cred, err := c.store.Get(ctx, KindJSAPITicket)
	if err != nil {
		return "", err
	}
	if cred.Valid(expirySlack) {
		return cred.Value, nil
	}
	return c.RefreshJSAPITicket(ctx)
}

// RefreshJSAPITicket fetches and stores a new jsapi_ticket
func (c *Client) RefreshJSAPITicket(ctx context.Context) (string, error) {
	var resp struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int64  `json:"expires_in"`
	}
	params := url.Values{}
	params.Set("type", "jsapi")
	params.Set("access_token", "")
	if err := c.do(ctx, apiRequest{
		method: "GET",
		path:   "/cgi-bin/ticket/getticket",
		params: params,
	}, &resp); err != nil {
		return "", err
	}

	cred := Credential{
		Value:     resp.Ticket,
		ExpiresAt: time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}
	if err := c.store.Set(ctx, KindJSAPITicket, cred); err != nil {
		return "", err
	}
	return cred.Value, nil
}
