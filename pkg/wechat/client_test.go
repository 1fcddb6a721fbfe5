package wechat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/crazygit/ewerobot/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		AppID:       "wx0123456789",
		AppSecret:   "app-secret",
		APIBaseURL:  server.URL,
		OpenBaseURL: server.URL,
	})
}

func seedToken(t *testing.T, c *Client, token string) {
	t.Helper()
	err := c.store.Set(context.Background(), KindAccessToken, Credential{
		Value:     token,
		ExpiresAt: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
}

func TestRefreshAccessToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi-bin/token", r.URL.Path)
		assert.Equal(t, "client_credential", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "wx0123456789", r.URL.Query().Get("appid"))
		assert.Equal(t, "app-secret", r.URL.Query().Get("secret"))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "GRANTED",
			"expires_in":   7200,
		})
	}))

	token, err := client.AccessToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "GRANTED", token)

	cred, err := client.store.Get(context.Background(), KindAccessToken)
	assert.NoError(t, err)
	assert.True(t, cred.Valid(expirySlack))
}

func TestAccessTokenCached(t *testing.T) {
	var grants int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&grants, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "GRANTED",
			"expires_in":   7200,
		})
	}))

	for i := 0; i < 5; i++ {
		_, err := client.AccessToken(context.Background())
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), grants)
}

func TestAccessTokenExpirySlack(t *testing.T) {
	// A token 30s from expiry is inside the 60s slack and must be replaced
	var grants int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&grants, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "FRESH",
			"expires_in":   7200,
		})
	}))
	err := client.store.Set(context.Background(), KindAccessToken, Credential{
		Value:     "ALMOST_EXPIRED",
		ExpiresAt: time.Now().Add(30 * time.Second),
	})
	require.NoError(t, err)

	token, err := client.AccessToken(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "FRESH", token)
	assert.Equal(t, int32(1), grants)
}

func TestRetryOnInvalidCredential(t *testing.T) {
	// First call is rejected with errcode 40001; the client must grant a
	// new token and retry with it
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/cgi-bin/token" {
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "FRESH",
				"expires_in":   7200,
			})
			return
		}
		assert.Equal(t, "/cgi-bin/user/info", r.URL.Path)
		if atomic.AddInt32(&calls, 1) == 1 {
			assert.Equal(t, "STALE", r.URL.Query().Get("access_token"))
			json.NewEncoder(w).Encode(map[string]any{
				"errcode": 40001,
				"errmsg":  "invalid credential",
			})
			return
		}
		assert.Equal(t, "FRESH", r.URL.Query().Get("access_token"))
		json.NewEncoder(w).Encode(map[string]any{
			"openid":    "OPENID",
			"subscribe": 1,
		})
	}))
	seedToken(t, client, "STALE")

	user, err := client.UserInfo(context.Background(), "OPENID")
	assert.NoError(t, err)
	assert.True(t, user.IsSubscribed())
	assert.Equal(t, int32(2), calls)
}

func TestNoRetryOnOtherAPIError(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"errcode": 45009,
			"errmsg":  "reach max api daily quota limit",
		})
	}))
	seedToken(t, client, "TOKEN")

	_, err := client.UserInfo(context.Background(), "OPENID")
	require.Error(t, err)
	assert.True(t, apierrors.IsAPIError(err))
	assert.False(t, apierrors.IsCredentialInvalid(err))
	assert.Equal(t, int32(1), calls)
}

func TestRetryOnTimeout(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			time.Sleep(200 * time.Millisecond)
		}
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	seedToken(t, client, "TOKEN")

	err := client.do(context.Background(), apiRequest{
		method:  "GET",
		path:    "/anything",
		timeout: 50 * time.Millisecond,
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int32(3), calls)
}

func TestTimeoutAttemptsExhausted(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	seedToken(t, client, "TOKEN")

	err := client.do(context.Background(), apiRequest{
		method:  "GET",
		path:    "/anything",
		timeout: 30 * time.Millisecond,
	}, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(maxAttempts), calls)
}

func TestCheckError(t *testing.T) {
	assert.NoError(t, checkError([]byte(`{"errcode":0,"errmsg":"ok"}`)))
	assert.NoError(t, checkError([]byte(`{"openid":"abc"}`)))

	err := checkError([]byte(`{"errcode":40001,"errmsg":"invalid credential"}`))
	assert.True(t, apierrors.IsCredentialInvalid(err))

	err = checkError([]byte(`{"errcode":40003,"errmsg":"invalid openid"}`))
	require.Error(t, err)
	assert.True(t, apierrors.IsAPIError(err))
	assert.False(t, apierrors.IsCredentialInvalid(err))
}
