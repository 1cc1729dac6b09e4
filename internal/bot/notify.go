package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/format"
)

// ErrDeliveryFailed 通知已处理但 Telegram 拒绝投递
var ErrDeliveryFailed = errors.New("telegram delivery failed")

const previewLimit = 250

// Notify 把新邮件通知转发给 chatID
//
// 验证码提取失败不影响通知；发送失败时返回包装了 ErrDeliveryFailed 的错误。
func (h *Handler) Notify(ctx context.Context, chatID int64, ev domain.NewMessageEvent) error {
	body := plainBody(ev.Content, ev.HTML)

	var code string
	if h.codes != nil {
		if res := h.codes.Extract(ctx, ev.Subject, body); res.Found {
			code = res.Code
		}
	}

	if _, err := h.sender.Send(htmlMessage(chatID, h.notificationText(chatID, ev, body, code))); err != nil {
		h.metrics.RecordNotification("undeliverable")
		h.log.Warn("notification not delivered",
			zap.Int64("chat_id", chatID),
			zap.String("email_id", ev.EmailID),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	h.metrics.RecordNotification("delivered")
	h.log.Info("notification delivered", zap.Int64("chat_id", chatID), zap.String("email_id", ev.EmailID))
	return nil
}

func (h *Handler) notificationText(chatID int64, ev domain.NewMessageEvent, body, code string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📧 <b>新邮件抵达 (%s)</b>\n\n", format.Escape(ev.ToAddress))
	fmt.Fprintf(&b, "<b>发件人:</b> %s\n", format.Escape(orDefault(ev.FromAddress, "未知发件人")))
	fmt.Fprintf(&b, "<b>主题:</b> %s\n", format.Escape(ev.Subject))
	fmt.Fprintf(&b, "<b>时间:</b> %s\n\n", format.Time(ev.ReceivedAt, h.loc))
	fmt.Fprintf(&b, "<b>内容预览:</b>\n%s", format.Escape(format.Truncate(orDefault(body, "无纯文本内容"), previewLimit)))

	if code != "" {
		fmt.Fprintf(&b, "\n\n🔑 <b>AI提取的验证码:</b> <code>%s</code>", format.Escape(code))
	}

	fmt.Fprintf(&b, "\n\n📱 查看完整邮件：<code>/view %s %s</code>", format.Escape(ev.EmailID), format.Escape(ev.MessageID))
	if link := h.viewURL(chatID, ev.EmailID, ev.MessageID); link != "" {
		fmt.Fprintf(&b, "\n🌐 网页查看：%s", format.Escape(link))
	}
	return b.String()
}
