package wechat

import (
	"context"
	"net/url"
)

// User is the follower profile returned by cgi-bin/user/info
type User struct {
	Subscribe     int    `json:"subscribe"`
	OpenID        string `json:"openid"`
	Nickname      string `json:"nickname"`
	Sex           int    `json:"sex"`
	Language      string `json:"language"`
	City          string `json:"city"`
	Province      string `json:"province"`
	Country       string `json:"country"`
	HeadImgURL    string `json:"headimgurl"`
	SubscribeTime int64  `json:"subscribe_time"`
	UnionID       string `json:"unionid,omitempty"`
	Remark        string `json:"remark"`
	GroupID       int    `json:"groupid"`
}

// IsSubscribed reports whether the user follows the account
func (u *User) IsSubscribed() bool {
	return u.Subscribe == 1
}

// UserInfo fetches a follower's profile by openid using the account
// access_token. Unsubscribed users come back with Subscribe == 0 and an
// otherwise empty profile.
func (c *Client) UserInfo(ctx context.Context, openid string) (*User, error) {
	params := url.Values{}
	params.Set("access_token", "")
	params.Set("openid", openid)
	params.Set("lang", "zh_CN")

	var user User
	if err := c.do(ctx, apiRequest{
		method: "GET",
		path:   "/cgi-bin/user/info",
		params: params,
	}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
