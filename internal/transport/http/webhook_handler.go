package httptransport

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"mailrelay/backend/internal/bot"
	"mailrelay/backend/internal/domain"
)

const (
	headerWebhookEvent  = "X-Webhook-Event"
	headerTelegramToken = "X-Telegram-Bot-Api-Secret-Token"
)

// ========== Telegram Webhook ==========

// telegramUpdate 接收 Telegram 推送的更新
//
// 处理失败只记录日志，始终返回 200，避免 Telegram 反复重试同一更新。
func (h *Handler) telegramUpdate(c *gin.Context) {
	if c.GetHeader(headerWebhookEvent) != "" {
		plain(c, http.StatusBadRequest, MsgMisroutedNotification)
		return
	}

	if secret := h.cfg.Telegram.WebhookSecret; secret != "" {
		got := c.GetHeader(headerTelegramToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			plain(c, http.StatusUnauthorized, MsgInvalidSecret)
			return
		}
	}

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		plain(c, http.StatusBadRequest, MsgInvalidUpdate)
		return
	}

	if err := h.updates.HandleUpdate(c.Request.Context(), update); err != nil {
		h.log.Warn("telegram update not fully handled",
			zap.Int("update_id", update.UpdateID),
			zap.Error(err),
		)
	}
	c.Status(http.StatusOK)
}

// ========== 新邮件通知 ==========

// receiveNotification 接收服务商推送的新邮件通知并转发给对应的 Telegram 用户
func (h *Handler) receiveNotification(c *gin.Context) {
	raw := c.Param("userID")
	if !isDigits(raw) {
		notFound(c)
		return
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		notFound(c)
		return
	}

	if c.GetHeader(headerWebhookEvent) != domain.WebhookEventNewMessage {
		plain(c, http.StatusBadRequest, MsgInvalidEvent)
		return
	}
	if !strings.Contains(strings.ToLower(c.ContentType()), "application/json") {
		plain(c, http.StatusUnsupportedMediaType, MsgInvalidContentType)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			plain(c, http.StatusRequestEntityTooLarge, MsgPayloadTooLarge)
			return
		}
		plain(c, http.StatusBadRequest, MsgInvalidPayload)
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		plain(c, http.StatusBadRequest, MsgInvalidPayload)
		return
	}
	if !present(fields, "content") && !present(fields, "html") && !present(fields, "subject") {
		plain(c, http.StatusBadRequest, MsgMissingBody)
		return
	}
	for _, name := range domain.NotificationRequiredFields {
		if !present(fields, name) {
			plain(c, http.StatusBadRequest, fmt.Sprintf(MsgMissingField, name))
			return
		}
	}

	var ev domain.NewMessageEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		plain(c, http.StatusBadRequest, MsgInvalidPayload)
		return
	}

	if err := h.notifier.Notify(c.Request.Context(), chatID, ev); err != nil {
		if errors.Is(err, bot.ErrDeliveryFailed) {
			plain(c, http.StatusAccepted, MsgNotificationAccepted)
			return
		}
		h.log.Error("notification handling failed", zap.Int64("chat_id", chatID), zap.Error(err))
		plain(c, http.StatusInternalServerError, MsgNotificationFailed)
		return
	}

	plain(c, http.StatusOK, MsgNotificationOK)
}

// present 字段存在且不为 null
func present(fields map[string]json.RawMessage, name string) bool {
	v, ok := fields[name]
	return ok && string(v) != "null"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
