package wechat

import (
	"context"
	"net/url"
)

// Web authorization scopes.
// ScopeSNSAPIBase redirects silently and only yields the openid;
// ScopeSNSAPIUserInfo shows the consent page and additionally yields
// nickname, sex and location, even for users who do not follow the account.
const (
	ScopeSNSAPIBase     = "snsapi_base"
	ScopeSNSAPIUserInfo = "snsapi_userinfo"
)

// OAuth2Token is the web-authorization access token returned when a code
// is exchanged. It is distinct from the account access_token.
type OAuth2Token struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	OpenID       string `json:"openid"`
	Scope        string `json:"scope"`
}

// SNSUser is the profile returned by the sns/userinfo endpoint
type SNSUser struct {
	OpenID     string   `json:"openid"`
	Nickname   string   `json:"nickname"`
	Sex        int      `json:"sex"`
	Province   string   `json:"province"`
	City       string   `json:"city"`
	Country    string   `json:"country"`
	HeadImgURL string   `json:"headimgurl"`
	Privilege  []string `json:"privilege"`
	UnionID    string   `json:"unionid,omitempty"`
}

// AuthorizeCodeURL builds the link that sends a visitor to WeChat for web
// authorization (step 1 of the flow). WeChat redirects back to redirectURI
// with a code and the state. State may hold up to 128 bytes of [a-zA-Z0-9].
func (c *Client) AuthorizeCodeURL(scope, redirectURI, state string) string {
	params := url.Values{}
	params.Set("appid", c.cfg.AppID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", scope)
	params.Set("state", state)
	return c.cfg.OpenBaseURL + "/connect/oauth2/authorize?" + params.Encode() + "#wechat_redirect"
}

// OAuth2TokenByCode exchanges an authorization code for a web-authorization
// access token (step 2 of the flow)
func (c *Client) OAuth2TokenByCode(ctx context.Context, code string) (*OAuth2Token, error) {
	params := url.Values{}
	params.Set("appid", c.cfg.AppID)
	params.Set("secret", c.cfg.AppSecret)
	params.Set("code", code)
	params.Set("grant_type", "authorization_code")

	var token OAuth2Token
	if err := c.do(ctx, apiRequest{
		method: "GET",
		path:   "/sns/oauth2/access_token",
		params: params,
	}, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// SNSUserInfo fetches the user profile with a snsapi_userinfo authorization
// (step 4 of the flow). The oauth2 token is used as-is; it must not be
// replaced with the account access_token. lang defaults to zh_CN.
func (c *Client) SNSUserInfo(ctx context.Context, oauth2AccessToken, openid, lang string) (*SNSUser, error) {
	if lang == "" {
		lang = "zh_CN"
	}
	params := url.Values{}
	params.Set("access_token", oauth2AccessToken)
	params.Set("openid", openid)
	params.Set("lang", lang)

	var user SNSUser
	if err := c.do(ctx, apiRequest{
		method:        "GET",
		path:          "/sns/userinfo",
		params:        params,
		useOAuthToken: true,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
