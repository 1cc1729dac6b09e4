package httptransport

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mailrelay/backend/internal/storage"
)

// status 静态状态页，只读取启动时确定的配置，不发起任何网络调用
func (h *Handler) status(c *gin.Context) {
	publicURL := h.cfg.Server.PublicURL
	if publicURL == "" {
		publicURL = "(未配置)"
	}

	ai := "未启用 (未配置 OpenAI API Key)"
	if h.aiEnabled {
		ai = fmt.Sprintf("已启用 (模型: %s)", h.cfg.OpenAI.Model)
	}

	store := "不可用"
	switch h.storeMode {
	case storage.ModeRedis:
		store = "可用 (Redis)"
	case storage.ModeMemory:
		store = "可用 (内存，重启后丢失)"
	}

	var b strings.Builder
	b.WriteString("Telegram 邮件通知机器人正在运行。\n\n")
	fmt.Fprintf(&b, "部署地址: %s\n", publicURL)
	fmt.Fprintf(&b, "Telegram Webhook 路径: %s\n", h.cfg.Telegram.WebhookPath)
	fmt.Fprintf(&b, "临时邮箱 API: %s\n", h.cfg.Upstream.BaseURL)
	fmt.Fprintf(&b, "邮件通知格式: POST %s/<USER_ID> (X-Webhook-Event: new_message)\n", h.cfg.Server.PublicURL)
	fmt.Fprintf(&b, "可用域名: %s\n", strings.Join(h.cfg.Mailbox.Domains, ", "))
	fmt.Fprintf(&b, "AI 验证码提取: %s\n", ai)
	fmt.Fprintf(&b, "状态存储: %s\n", store)

	c.Header("Cache-Control", "no-store")
	plain(c, http.StatusOK, b.String())
}
