package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/format"
	"mailrelay/backend/internal/htmlstrip"
	"mailrelay/backend/internal/upstream"
	"mailrelay/backend/internal/wizard"
)

const (
	msgUnknownUser    = "抱歉，无法识别您的用户ID。"
	msgUnknownCommand = "未知命令，发送 /help 查看可用命令。"
	msgKeyUsage       = "请提供您的 API Key。\n用法: <code>/key YOUR_API_KEY</code>"
	msgKeySaved       = "✅ 您的 API Key 已成功保存！"
	msgKeySaveFailed  = "❌ 保存 API Key 时发生错误，请稍后再试。"
	msgMailUsage      = "请提供有效的邮箱ID。\n用法: <code>/mail &lt;emailId&gt; [cursor]</code>"
	msgViewUsage      = "参数不足或过多。\n用法: <code>/view &lt;emailId&gt; &lt;messageId&gt;</code>"
	msgViewInvalidID  = "邮箱ID或邮件ID格式无效。\n用法: <code>/view &lt;emailId&gt; &lt;messageId&gt;</code>"
	msgDeleteUsage    = "请提供有效的邮箱ID。\n用法: <code>/del &lt;emailId&gt;</code>"
	msgNoMailboxes    = "您还没有创建任何临时邮箱，或当前列表为空。"
	msgUnknownError   = "未知错误"
	viewContentLimit  = 2000
)

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID
	if msg.From == nil {
		return h.send(chatID, msgUnknownUser)
	}
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		return h.send(chatID, h.helpText(ctx, userID))
	case "key":
		return h.send(chatID, h.setKey(ctx, userID, args))
	case "list":
		return h.send(chatID, h.listDomains(ctx, userID))
	case "add":
		if args == "" {
			return h.render(chatID, 0, "", h.wizard.Start(ctx, userID))
		}
		return h.render(chatID, 0, "", h.wizard.QuickCreate(ctx, userID, args))
	case "cancel":
		return h.render(chatID, 0, "", h.wizard.Cancel(ctx, userID))
	case "box":
		return h.withCredential(ctx, chatID, userID, func(credential string) error {
			return h.send(chatID, h.listMailboxes(ctx, credential, args))
		})
	case "mail":
		return h.withCredential(ctx, chatID, userID, func(credential string) error {
			return h.send(chatID, h.listMessages(ctx, credential, args))
		})
	case "view":
		return h.withCredential(ctx, chatID, userID, func(credential string) error {
			return h.viewMessage(ctx, chatID, userID, credential, args)
		})
	case "del":
		return h.withCredential(ctx, chatID, userID, func(credential string) error {
			return h.send(chatID, h.deleteMailbox(ctx, credential, args))
		})
	default:
		return h.send(chatID, msgUnknownCommand)
	}
}

// withCredential 读取用户凭据后执行 fn；凭据缺失或存储不可用时直接回复用户
func (h *Handler) withCredential(ctx context.Context, chatID, userID int64, fn func(credential string) error) error {
	credential, err := h.store.GetCredential(ctx, userID)
	switch {
	case err == nil:
		return fn(credential)
	case errors.Is(err, domain.ErrNotFound):
		return h.send(chatID, wizard.MsgNeedCredential)
	case errors.Is(err, domain.ErrStoreUnavailable):
		return h.send(chatID, wizard.MsgStoreUnavailable)
	default:
		h.log.Error("failed to read credential", zap.Int64("user_id", userID), zap.Error(err))
		return h.send(chatID, wizard.MsgStoreUnavailable)
	}
}

func (h *Handler) helpText(ctx context.Context, userID int64) string {
	_, err := h.store.GetCredential(ctx, userID)
	hasKey := err == nil

	var b strings.Builder
	b.WriteString("你好！👋 这是一个临时邮件和通知机器人。\n\n")
	b.WriteString("📬 <b>邮件通知 Webhook:</b>\n")
	if h.publicURL != "" {
		fmt.Fprintf(&b, "你的专属邮件通知 Webhook 地址是:\n<code>%s/%d</code>\n", format.Escape(h.publicURL), userID)
		b.WriteString("请把它配置到邮箱服务商的个人资料页。\n\n")
	} else {
		fmt.Fprintf(&b, "服务未配置对外地址，Webhook 路径为 <code>/%d</code>。\n\n", userID)
	}

	b.WriteString("🔑 <b>API Key 管理:</b>\n")
	b.WriteString("<code>/key</code> &lt;你的API_Key&gt; - 设置/更新你的 API Key。\n")
	if hasKey {
		b.WriteString("✅ 当前已设置 API Key。\n\n")
	} else {
		b.WriteString("❌ 当前未设置 API Key。请使用 /key 设置以使用邮箱管理功能。\n\n")
	}

	b.WriteString("📧 <b>临时邮箱管理 (需设置API Key):</b>\n")
	b.WriteString("/list - 查看可用的邮箱域名。\n")
	b.WriteString("<code>/add</code> - 创建临时邮箱 (交互式引导)。\n")
	b.WriteString("<code>/add</code> &lt;域名&gt; [前缀] [1h|1d|3d|perm] - 一条命令创建邮箱。\n")
	b.WriteString("<code>/cancel</code> - 取消当前的邮箱创建流程。\n")
	b.WriteString("/box [cursor] - 查看你创建的所有临时邮箱列表。\n")
	b.WriteString("<code>/mail</code> &lt;emailId&gt; [cursor] - 查看指定邮箱内的邮件列表。\n")
	b.WriteString("<code>/view</code> &lt;emailId&gt; &lt;messageId&gt; - 查看指定邮件内容。\n")
	b.WriteString("<code>/del</code> &lt;emailId&gt; - 删除指定的临时邮箱。\n\n")

	if h.codes != nil && h.codes.Enabled() {
		fmt.Fprintf(&b, "✨ <b>AI 功能:</b> 已启用AI验证码提取 (模型: %s)。\n", format.Escape(h.model))
	} else {
		b.WriteString("ℹ️ <b>AI 功能:</b> AI验证码提取未启用。\n")
	}
	b.WriteString("\n祝您使用愉快！")
	return b.String()
}

func (h *Handler) setKey(ctx context.Context, userID int64, key string) string {
	if key == "" {
		return msgKeyUsage
	}
	err := h.store.SaveCredential(ctx, userID, key)
	switch {
	case err == nil:
		h.log.Info("credential saved", zap.Int64("user_id", userID))
		return msgKeySaved
	case errors.Is(err, domain.ErrStoreUnavailable):
		return wizard.MsgStoreUnavailable
	default:
		h.log.Error("failed to save credential", zap.Int64("user_id", userID), zap.Error(err))
		return msgKeySaveFailed
	}
}

// listDomains 优先使用上游返回的域名列表，失败时回退到配置
func (h *Handler) listDomains(ctx context.Context, userID int64) string {
	domains := h.domains
	if credential, err := h.store.GetCredential(ctx, userID); err == nil {
		if res := h.mailboxes.ListDomains(ctx, credential); res.OK() {
			domains = res.Data
		}
	}

	var b strings.Builder
	b.WriteString("可用的邮箱域名列表:\n")
	for _, d := range domains {
		fmt.Fprintf(&b, "  - <code>%s</code>\n", format.Escape(d))
	}
	return b.String()
}

func (h *Handler) listMailboxes(ctx context.Context, credential, cursor string) string {
	res := h.mailboxes.ListMailboxes(ctx, credential, cursor)
	if !res.OK() {
		return "获取您的邮箱列表失败: " + errorText(res.Err)
	}
	if len(res.Data.Mailboxes) == 0 {
		return msgNoMailboxes
	}

	var b strings.Builder
	b.WriteString("您的临时邮箱列表:\n\n")
	for _, mb := range res.Data.Mailboxes {
		fmt.Fprintf(&b, "📧 <b>地址:</b> <code>%s</code>\n", format.Escape(mb.DisplayAddress()))
		fmt.Fprintf(&b, "<b>ID:</b> <code>%s</code>\n", format.Escape(mb.ID))
		fmt.Fprintf(&b, "<b>创建于:</b> %s\n", format.Time(mb.CreatedAt, h.loc))
		fmt.Fprintf(&b, "<b>过期于:</b> %s\n", format.Expiry(mb, h.loc))
		fmt.Fprintf(&b, "（使用 <code>/mail %s</code> 查看当前邮箱中的邮件）\n\n", format.Escape(mb.ID))
	}
	if next := res.Data.NextCursor; next != nil && *next != "" {
		fmt.Fprintf(&b, "若要获取更多邮箱，请使用命令:\n<code>/box %s</code>", format.Escape(*next))
	} else {
		b.WriteString("没有更多邮箱了。")
	}
	return b.String()
}

func (h *Handler) listMessages(ctx context.Context, credential, args string) string {
	fields := strings.Fields(args)
	if len(fields) == 0 || len(fields) > 2 || !domain.IsCanonicalID(fields[0]) {
		return msgMailUsage
	}
	mailboxID := fields[0]
	var cursor string
	if len(fields) == 2 {
		cursor = fields[1]
	}

	res := h.mailboxes.ListMessages(ctx, credential, mailboxID, cursor)
	if !res.OK() {
		return fmt.Sprintf("获取邮箱 <code>%s</code> 内的邮件列表失败: %s", mailboxID, errorText(res.Err))
	}
	if len(res.Data.Messages) == 0 {
		return fmt.Sprintf("邮箱 <code>%s</code> 内没有邮件，或列表为空。", mailboxID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "邮箱 <code>%s</code> 内的邮件:\n\n", mailboxID)
	for _, m := range res.Data.Messages {
		fmt.Fprintf(&b, "📩 <b>主题:</b> %s\n", format.Escape(orDefault(m.Subject, "无主题")))
		fmt.Fprintf(&b, "<b>来自:</b> %s\n", format.Escape(orDefault(m.FromAddress, "未知发件人")))
		fmt.Fprintf(&b, "<b>时间:</b> %s\n", format.Time(m.ReceivedAt, h.loc))
		fmt.Fprintf(&b, "<b>邮件ID:</b> <code>%s</code>\n", format.Escape(m.ID))
		fmt.Fprintf(&b, "(查看详情: <code>/view %s %s</code>)\n\n", mailboxID, format.Escape(m.ID))
	}
	if next := res.Data.NextCursor; next != nil && *next != "" {
		fmt.Fprintf(&b, "若要获取更多邮件，请使用命令:\n<code>/mail %s %s</code>", mailboxID, format.Escape(*next))
	} else {
		b.WriteString("没有更多邮件了。")
	}
	return b.String()
}

// viewMessage 发送邮件详情，随后是网页查看链接与提取到的验证码
func (h *Handler) viewMessage(ctx context.Context, chatID, userID int64, credential, args string) error {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return h.send(chatID, msgViewUsage)
	}
	mailboxID, messageID := fields[0], fields[1]
	if !domain.IsCanonicalID(mailboxID) || !domain.IsCanonicalID(messageID) {
		return h.send(chatID, msgViewInvalidID)
	}

	res := h.mailboxes.GetMessage(ctx, credential, mailboxID, messageID)
	if !res.OK() {
		return h.send(chatID, "获取邮件内容失败: "+errorText(res.Err))
	}

	mail := res.Data
	body := plainBody(mail.Content, mail.HTML)

	var b strings.Builder
	b.WriteString("📬 <b>邮件详情</b>\n\n")
	fmt.Fprintf(&b, "<b>来自:</b> %s\n", format.Escape(orDefault(mail.FromAddress, "未知发件人")))
	fmt.Fprintf(&b, "<b>主题:</b> %s\n", format.Escape(orDefault(mail.Subject, "无主题")))
	fmt.Fprintf(&b, "<b>时间:</b> %s\n\n", format.Time(mail.ReceivedAt, h.loc))
	b.WriteString("<b>内容:</b>\n")
	content := orDefault(body, "无纯文本内容。")
	if runes := []rune(content); len(runes) > viewContentLimit {
		b.WriteString(format.Escape(string(runes[:viewContentLimit])))
		b.WriteString("\n...(内容过长，已截断)")
	} else {
		b.WriteString(format.Escape(content))
	}
	if err := h.send(chatID, b.String()); err != nil {
		return err
	}

	if link := h.viewURL(userID, mailboxID, messageID); link != "" {
		text := fmt.Sprintf("🌐 <b>网页查看:</b> <a href=\"%s\">点击查看完整邮件</a>", format.Escape(link))
		if err := h.send(chatID, text); err != nil {
			return err
		}
	}

	if h.codes == nil || (mail.Subject == "" && body == "") {
		return nil
	}
	if code := h.codes.Extract(ctx, mail.Subject, body); code.Found {
		return h.send(chatID, fmt.Sprintf("🔑 <b>验证码:</b> <code>%s</code>", format.Escape(code.Code)))
	}
	return nil
}

func (h *Handler) deleteMailbox(ctx context.Context, credential, args string) string {
	if !domain.IsCanonicalID(args) {
		return msgDeleteUsage
	}

	res := h.mailboxes.DeleteMailbox(ctx, credential, args)
	if res.OK() {
		return "✅ 邮箱已成功删除。"
	}

	var reason string
	switch res.Status() {
	case http.StatusNotFound:
		reason = "未找到该邮箱"
	case http.StatusForbidden:
		reason = "没有权限删除此邮箱"
	default:
		reason = errorText(res.Err)
	}
	return "❌ 删除失败: " + reason
}

// viewURL 返回网页查看地址，未配置对外地址时为空
func (h *Handler) viewURL(userID int64, mailboxID, messageID string) string {
	if h.publicURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/view/%d/%s/%s", h.publicURL, userID, mailboxID, messageID)
}

// plainBody 优先使用纯文本内容，只有 HTML 时转换为文本
func plainBody(content, html string) string {
	if strings.TrimSpace(content) != "" {
		return content
	}
	if html != "" {
		return htmlstrip.Text(html)
	}
	return ""
}

func errorText(err *upstream.Error) string {
	if err == nil || err.Message == "" {
		return msgUnknownError
	}
	return format.Escape(err.Message)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
