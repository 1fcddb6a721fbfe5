package wechat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeCodeURL(t *testing.T) {
	client := NewClient(Config{AppID: "wx0123456789", AppSecret: "app-secret"})

	raw := client.AuthorizeCodeURL(ScopeSNSAPIBase, "https://example.com/cb", "STATE")
	require.True(t, strings.HasSuffix(raw, "#wechat_redirect"))

	parsed, err := url.Parse(strings.TrimSuffix(raw, "#wechat_redirect"))
	require.NoError(t, err)
	assert.Equal(t, "open.weixin.qq.com", parsed.Host)
	assert.Equal(t, "/connect/oauth2/authorize", parsed.Path)

	q := parsed.Query()
	assert.Equal(t, "wx0123456789", q.Get("appid"))
	assert.Equal(t, "https://example.com/cb", q.Get("redirect_uri"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "snsapi_base", q.Get("scope"))
	assert.Equal(t, "STATE", q.Get("state"))
}

func TestOAuth2TokenByCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sns/oauth2/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "wx0123456789", q.Get("appid"))
		assert.Equal(t, "app-secret", q.Get("secret"))
		assert.Equal(t, "THE_CODE", q.Get("code"))
		assert.Equal(t, "authorization_code", q.Get("grant_type"))
		// The base access_token is never attached to this call
		assert.False(t, q.Has("access_token"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "OAUTH_TOKEN",
			"expires_in":    7200,
			"refresh_token": "REFRESH",
			"openid":        "OPENID",
			"scope":         "snsapi_base",
		})
	}))

	token, err := client.OAuth2TokenByCode(context.Background(), "THE_CODE")
	require.NoError(t, err)
	assert.Equal(t, "OAUTH_TOKEN", token.AccessToken)
	assert.Equal(t, "OPENID", token.OpenID)
	assert.Equal(t, "snsapi_base", token.Scope)
}

func TestSNSUserInfo(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sns/userinfo", r.URL.Path)
		q := r.URL.Query()
		// The oauth2 token must be passed through, not replaced with the
		// account access_token
		assert.Equal(t, "OAUTH_TOKEN", q.Get("access_token"))
		assert.Equal(t, "OPENID", q.Get("openid"))
		assert.Equal(t, "zh_CN", q.Get("lang"))

		json.NewEncoder(w).Encode(map[string]any{
			"openid":   "OPENID",
			"nickname": "测试用户",
			"sex":      1,
			"country":  "中国",
		})
	}))
	seedToken(t, client, "BASE_TOKEN")

	user, err := client.SNSUserInfo(context.Background(), "OAUTH_TOKEN", "OPENID", "")
	require.NoError(t, err)
	assert.Equal(t, "测试用户", user.Nickname)
	assert.Equal(t, 1, user.Sex)
}
