package httptransport

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/format"
)

const pageStyle = `body{font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif;max-width:860px;margin:0 auto;padding:24px;color:#222;line-height:1.6}
h1{font-size:1.4em;word-break:break-word}
.meta{background:#f5f5f5;border-radius:6px;padding:12px 16px;margin-bottom:20px}
.meta p{margin:4px 0;word-break:break-all}
.body{border-top:1px solid #ddd;padding-top:16px;overflow-x:auto}
pre{white-space:pre-wrap;word-break:break-word}
.error{color:#b00020}`

var viewTemplates = template.Must(template.New("view").Parse(`
{{define "message"}}<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>{{.Subject}}</title>
<style>{{.Style}}</style>
</head>
<body>
<h1>{{.Subject}}</h1>
<div class="meta">
<p><strong>发件人:</strong> {{.From}}</p>
<p><strong>接收时间:</strong> {{.ReceivedAt}}</p>
<p><strong>邮件 ID:</strong> {{.MessageID}}</p>
</div>
<div class="body">{{.Body}}</div>
</body>
</html>{{end}}
{{define "error"}}<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta name="robots" content="noindex">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body>
<h1 class="error">{{.Title}}</h1>
<p>{{.Detail}}</p>
</body>
</html>{{end}}
`))

type messagePage struct {
	Style      template.CSS
	Subject    string
	From       string
	ReceivedAt string
	MessageID  string
	Body       template.HTML
}

type errorPage struct {
	Style  template.CSS
	Title  string
	Detail string
}

// viewMessage 以网页形式展示单封邮件，使用路径中用户保存的 API Key 访问上游
func (h *Handler) viewMessage(c *gin.Context) {
	rawUser := c.Param("userID")
	mailboxID := c.Param("mailboxID")
	messageID := c.Param("messageID")

	userID, err := strconv.ParseInt(rawUser, 10, 64)
	if !isDigits(rawUser) || err != nil || !domain.IsCanonicalID(mailboxID) || !domain.IsCanonicalID(messageID) {
		h.renderError(c, http.StatusNotFound, "无法加载邮件", MsgViewInvalidLink)
		return
	}

	ctx := c.Request.Context()
	credential, err := h.store.GetCredential(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.renderError(c, http.StatusForbidden, "无法加载邮件", MsgViewNoCredential)
		return
	case err != nil:
		h.log.Error("load credential for web view failed", zap.Int64("user_id", userID), zap.Error(err))
		h.renderError(c, http.StatusServiceUnavailable, "无法加载邮件", MsgViewStoreUnavailable)
		return
	}

	res := h.mailboxes.GetMessage(ctx, credential, mailboxID, messageID)
	if !res.OK() {
		if res.Status() == http.StatusNotFound {
			h.renderError(c, http.StatusNotFound, "邮件未找到", MsgViewNotFound)
			return
		}
		status := res.Status()
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		h.renderError(c, status, "无法加载邮件", res.Err.Message)
		return
	}

	msg := res.Data
	subject := msg.Subject
	if subject == "" {
		subject = "(无主题)"
	}
	h.render(c, http.StatusOK, "message", messagePage{
		Style:      template.CSS(pageStyle),
		Subject:    subject,
		From:       orDefault(msg.FromAddress, "未知发件人"),
		ReceivedAt: format.Time(msg.ReceivedAt, h.location()),
		MessageID:  orDefault(msg.ID, messageID),
		Body:       h.messageBody(msg),
	})
}

// messageBody 优先使用净化后的 HTML 正文，其次是转义后的纯文本
func (h *Handler) messageBody(msg domain.Message) template.HTML {
	switch {
	case msg.HTML != "":
		return template.HTML(h.sanitizer.Sanitize(msg.HTML))
	case msg.Content != "":
		return template.HTML("<pre>" + template.HTMLEscapeString(msg.Content) + "</pre>")
	default:
		return template.HTML("<p><em>此邮件没有可显示的内容。</em></p>")
	}
}

func (h *Handler) renderError(c *gin.Context, status int, title, detail string) {
	h.render(c, status, "error", errorPage{
		Style:  template.CSS(pageStyle),
		Title:  title,
		Detail: detail,
	})
}

func (h *Handler) render(c *gin.Context, status int, name string, data interface{}) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(status)
	if err := viewTemplates.ExecuteTemplate(c.Writer, name, data); err != nil {
		h.log.Error("render view page failed", zap.String("template", name), zap.Error(err))
	}
}

func (h *Handler) location() *time.Location {
	if h.cfg.Mailbox.Location == nil {
		return time.UTC
	}
	return h.cfg.Mailbox.Location
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
