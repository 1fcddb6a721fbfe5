package wechat

import (
	"context"
)

// Industry is one of the account's configured industry classes
type Industry struct {
	FirstClass  string `json:"first_class"`
	SecondClass string `json:"second_class"`
}

// IndustryInfo is the pair of industries configured for the account
type IndustryInfo struct {
	PrimaryIndustry   Industry `json:"primary_industry"`
	SecondaryIndustry Industry `json:"secondary_industry"`
}

// Template is one entry of the account's private template list
type Template struct {
	TemplateID      string `json:"template_id"`
	Title           string `json:"title"`
	PrimaryIndustry string `json:"primary_industry"`
	DeputyIndustry  string `json:"deputy_industry"`
	Content         string `json:"content"`
	Example         string `json:"example"`
}

// TemplateDataItem is one substituted field of a template message
type TemplateDataItem struct {
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// TemplateMessage is a template message addressed to one follower
type TemplateMessage struct {
	ToUser     string                      `json:"touser"`
	TemplateID string                      `json:"template_id"`
	URL        string                      `json:"url,omitempty"`
	Data       map[string]TemplateDataItem `json:"data"`
}

// SetIndustry configures the account's two industry classes.
// Industry codes: https://mp.weixin.qq.com/wiki?t=resource/res_main&id=mp1433751277
func (c *Client) SetIndustry(ctx context.Context, industryID1, industryID2 string) error {
	return c.do(ctx, apiRequest{
		method: "POST",
		path:   "/cgi-bin/template/api_set_industry",
		body: map[string]string{
			"industry_id1": industryID1,
			"industry_id2": industryID2,
		},
	}, nil)
}

// GetIndustry returns the account's configured industry classes
func (c *Client) GetIndustry(ctx context.Context) (*IndustryInfo, error) {
	var info IndustryInfo
	if err := c.do(ctx, apiRequest{
		method: "GET",
		path:   "/cgi-bin/template/get_industry",
	}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AddTemplate registers a template from the library by its short id
// ("TM**" or "OPENTMTM**" forms) and returns the template id
func (c *Client) AddTemplate(ctx context.Context, templateIDShort string) (string, error) {
	var resp struct {
		TemplateID string `json:"template_id"`
	}
	if err := c.do(ctx, apiRequest{
		method: "POST",
		path:   "/cgi-bin/template/api_add_template",
		body: map[string]string{
			"template_id_short": templateIDShort,
		},
	}, &resp); err != nil {
		return "", err
	}
	return resp.TemplateID, nil
}

// ListTemplates returns all templates registered for the account
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var resp struct {
		TemplateList []Template `json:"template_list"`
	}
	if err := c.do(ctx, apiRequest{
		method: "GET",
		path:   "/cgi-bin/template/get_all_private_template",
	}, &resp); err != nil {
		return nil, err
	}
	return resp.TemplateList, nil
}

// DeleteTemplate removes a registered template by its template id
func (c *Client) DeleteTemplate(ctx context.Context, templateID string) error {
	return c.do(ctx, apiRequest{
		method: "POST",
		path:   "/cgi-bin/template/del_private_template",
		body: map[string]string{
			"template_id": templateID,
		},
	}, nil)
}

// SendTemplateMessage delivers a template message and returns the msgid
func (c *Client) SendTemplateMessage(ctx context.Context, msg TemplateMessage) (int64, error) {
	var resp struct {
		MsgID int64 `json:"msgid"`
	}
	if err := c.do(ctx, apiRequest{
		method: "POST",
		path:   "/cgi-bin/message/template/send",
		body:   msg,
	}, &resp); err != nil {
		return 0, err
	}
	return resp.MsgID, nil
}
