package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"mailrelay/backend/internal/domain"
)

// MsgUnexpectedShape 响应成功但缺少必需字段时的错误文本
const MsgUnexpectedShape = "unexpected response shape"

// GenerateMailbox 创建临时邮箱
func (c *Client) GenerateMailbox(ctx context.Context, credential string, req domain.GenerateRequest) Result[domain.GeneratedMailbox] {
	res := call[domain.GeneratedMailbox](ctx, c, "generate_mailbox", credential, http.MethodPost, "/emails/generate", req)
	if res.OK() && res.Data.Email == "" {
		return failure[domain.GeneratedMailbox](MsgUnexpectedShape, 0)
	}
	return res
}

// ListMailboxes 列出邮箱，cursor 为空表示第一页
func (c *Client) ListMailboxes(ctx context.Context, credential, cursor string) Result[domain.MailboxPage] {
	return call[domain.MailboxPage](ctx, c, "list_mailboxes", credential, http.MethodGet, withCursor("/emails", cursor), nil)
}

// ListMessages 列出邮箱中的邮件
func (c *Client) ListMessages(ctx context.Context, credential, mailboxID, cursor string) Result[domain.MessagePage] {
	path := withCursor("/emails/"+url.PathEscape(mailboxID), cursor)
	return call[domain.MessagePage](ctx, c, "list_messages", credential, http.MethodGet, path, nil)
}

type messageEnvelope struct {
	Message *domain.Message `json:"message"`
}

// GetMessage 获取单封邮件，响应缺少 message 对象时返回失败
func (c *Client) GetMessage(ctx context.Context, credential, mailboxID, messageID string) Result[domain.Message] {
	path := "/emails/" + url.PathEscape(mailboxID) + "/" + url.PathEscape(messageID)
	res := call[messageEnvelope](ctx, c, "get_message", credential, http.MethodGet, path, nil)
	if !res.OK() {
		return Result[domain.Message]{StatusCode: res.StatusCode, Err: res.Err}
	}
	if res.Data.Message == nil {
		return failure[domain.Message](MsgUnexpectedShape, 0)
	}
	return Result[domain.Message]{Data: *res.Data.Message, StatusCode: res.StatusCode}
}

// DeleteMailbox 删除邮箱
func (c *Client) DeleteMailbox(ctx context.Context, credential, mailboxID string) Result[struct{}] {
	return call[struct{}](ctx, c, "delete_mailbox", credential, http.MethodDelete, "/emails/"+url.PathEscape(mailboxID), nil)
}

// domainConfig 兼容两种上游配置格式：逗号分隔的 emailDomains 或 domains 数组
type domainConfig struct {
	EmailDomains string   `json:"emailDomains"`
	Domains      []string `json:"domains"`
}

// ListDomains 读取上游可用域名
func (c *Client) ListDomains(ctx context.Context, credential string) Result[[]string] {
	res := call[domainConfig](ctx, c, "list_domains", credential, http.MethodGet, "/config", nil)
	if !res.OK() {
		return Result[[]string]{StatusCode: res.StatusCode, Err: res.Err}
	}

	domains := make([]string, 0, len(res.Data.Domains))
	for _, d := range res.Data.Domains {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	for _, d := range strings.Split(res.Data.EmailDomains, ",") {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	if len(domains) == 0 {
		return failure[[]string](MsgUnexpectedShape, 0)
	}
	return Result[[]string]{Data: domains, StatusCode: res.StatusCode}
}

func withCursor(path, cursor string) string {
	if cursor == "" {
		return path
	}
	return path + "?" + url.Values{"cursor": {cursor}}.Encode()
}
