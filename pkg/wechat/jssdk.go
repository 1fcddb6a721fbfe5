package wechat

import (
	"context"
	"strconv"
	"time"

	"github.com/crazygit/ewerobot/pkg/utils"
)

// JSSDKConfig is the signed configuration a page passes to wx.config()
type JSSDKConfig struct {
	AppID     string `json:"appId"`
	Timestamp int64  `json:"timestamp"`
	NonceStr  string `json:"nonceStr"`
	Signature string `json:"signature"`
}

// JSSDKSign builds the signed JS-SDK configuration for a page. pageURL is
// the current page URL without the '#' fragment. The signature is the
// SHA-1 of the sorted key=value join of noncestr, jsapi_ticket, timestamp
// and url.
// Reference: https://mp.weixin.qq.com/wiki?t=resource/res_main&id=mp1421141115
func (c *Client) JSSDKSign(ctx context.Context, pageURL string) (*JSSDKConfig, error) {
	ticket, err := c.JSAPITicket(ctx)
	if err != nil {
		return nil, err
	}

	nonce := utils.RandomString(15, true)
	timestamp := time.Now().Unix()
	signature := utils.SignParams(map[string]string{
		"noncestr":     nonce,
		"jsapi_ticket": ticket,
		"timestamp":    strconv.FormatInt(timestamp, 10),
		"url":          pageURL,
	})

	return &JSSDKConfig{
		AppID:     c.cfg.AppID,
		Timestamp: timestamp,
		NonceStr:  nonce,
		Signature: signature,
	}, nil
}
