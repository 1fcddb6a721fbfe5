package wechat

import (
	"context"
	"time"

	apierrors "github.com/crazygit/ewerobot/pkg/errors"
)

// maxBroadcastTextBytes is the platform limit on mass text content
const maxBroadcastTextBytes = 2048

// BroadcastResult identifies a queued mass message
type BroadcastResult struct {
	MsgID     int64 `json:"msg_id"`
	MsgDataID int64 `json:"msg_data_id"`
}

// BroadcastText sends a text message to every follower of the account.
// Content longer than 2048 UTF-8 bytes is rejected before the API call.
// The platform queues the send, so this call gets a longer timeout.
func (c *Client) BroadcastText(ctx context.Context, content string) (*BroadcastResult, error) {
	if len(content) >= maxBroadcastTextBytes {
		return nil, apierrors.NewValidationError("content",
			"mass text content must be under 2048 bytes")
	}

	body := map[string]any{
		"filter": map[string]any{
			"is_to_all": true,
		},
		"text": map[string]any{
			"content": content,
		},
		"msgtype": "text",
		// clientmsgid guards against duplicate sends on retry
		"clientmsgid": time.Now().UnixMilli(),
	}

	var result BroadcastResult
	if err := c.do(ctx, apiRequest{
		method:  "POST",
		path:    "/cgi-bin/message/mass/sendall",
		body:    body,
		timeout: 10 * time.Second,
	}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendCustomText sends a customer-service text message to one follower
func (c *Client) SendCustomText(ctx context.Context, openid, content string) error {
	body := map[string]any{
		"touser":  openid,
		"msgtype": "text",
		"text": map[string]any{
			"content": content,
		},
	}
	return c.do(ctx, apiRequest{
		method: "POST",
		path:   "/cgi-bin/message/custom/send",
		body:   body,
	}, nil)
}
