package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crazygit/ewerobot/pkg/errors"
	"github.com/crazygit/ewerobot/pkg/wechat"
)

// Context keys set by the web-authorization middleware
const (
	ContextKeyOpenID      = "openid"
	ContextKeyOAuth2Token = "oauth2_access_token"
	ContextKeySNSUser     = "sns_user"
	ContextKeyUser        = "wechat_user"
)

// SNSOpenID resolves the visitor's openid via the silent snsapi_base flow.
// A request without a code is redirected to WeChat with a signed state;
// the callback leg validates the state, exchanges the code and stores the
// openid and oauth2 access token in the gin context.
func SNSOpenID(client *wechat.Client, signer *StateSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolveOpenID(c, client, signer)
	}
}

// SNSUserInfo resolves the openid like SNSOpenID and additionally fetches
// the visitor's profile with the oauth2 token. The page must have been
// authorized with the snsapi_userinfo scope.
func SNSUserInfo(client *wechat.Client, signer *StateSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !resolveOpenID(c, client, signer) {
			return
		}

		user, err := client.SNSUserInfo(c.Request.Context(),
			c.GetString(ContextKeyOAuth2Token), c.GetString(ContextKeyOpenID), "")
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set(ContextKeySNSUser, user)
	}
}

// SubscribeRequired resolves the openid, looks the visitor up with the
// account access_token and redirects non-followers to subscribeURL (or the
// client's configured subscribe URL when empty).
func SubscribeRequired(client *wechat.Client, signer *StateSigner, subscribeURL string) gin.HandlerFunc {
	if subscribeURL == "" {
		subscribeURL = client.Config().SubscribeURL
	}
	return func(c *gin.Context) {
		if !resolveOpenID(c, client, signer) {
			return
		}

		user, err := client.UserInfo(c.Request.Context(), c.GetString(ContextKeyOpenID))
		if err != nil {
			abortWithError(c, err)
			return
		}
		if !user.IsSubscribed() {
			c.Redirect(http.StatusFound, subscribeURL)
			c.Abort()
			return
		}
		c.Set(ContextKeyUser, user)
	}
}

// resolveOpenID performs the authorization round-trip. It returns false
// when the request was redirected or rejected, in which case the chain is
// already aborted.
func resolveOpenID(c *gin.Context, client *wechat.Client, signer *StateSigner) bool {
	if _, exists := c.Get(ContextKeyOpenID); exists {
		return true
	}

	code := c.Query("code")
	if code == "" {
		state, err := signer.Sign()
		if err != nil {
			abortWithError(c, errors.NewInternalError("failed to sign state", err))
			return false
		}
		c.Redirect(http.StatusFound,
			client.AuthorizeCodeURL(wechat.ScopeSNSAPIBase, currentURL(c), state))
		c.Abort()
		return false
	}

	if err := signer.Validate(c.Query("state")); err != nil {
		abortWithError(c, errors.NewUnauthorizedError("invalid oauth state"))
		return false
	}

	token, err := client.OAuth2TokenByCode(c.Request.Context(), code)
	if err != nil {
		abortWithError(c, err)
		return false
	}

	c.Set(ContextKeyOpenID, token.OpenID)
	c.Set(ContextKeyOAuth2Token, token.AccessToken)
	return true
}

// GetOpenID returns the resolved openid from the gin context
func GetOpenID(c *gin.Context) (string, bool) {
	openid := c.GetString(ContextKeyOpenID)
	return openid, openid != ""
}

// GetSNSUser returns the profile stored by SNSUserInfo
func GetSNSUser(c *gin.Context) (*wechat.SNSUser, bool) {
	v, exists := c.Get(ContextKeySNSUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*wechat.SNSUser)
	return user, ok
}

// GetUser returns the follower profile stored by SubscribeRequired
func GetUser(c *gin.Context) (*wechat.User, bool) {
	v, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*wechat.User)
	return user, ok
}

// currentURL rebuilds the URL the visitor requested, used as the
// authorization redirect target so WeChat sends the visitor straight back
func currentURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, c.Request.Host, c.Request.URL.RequestURI())
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.GetHTTPStatus(err), errors.ToResponse(err))
}
