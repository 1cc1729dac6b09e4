package httptransport

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mailrelay/backend/internal/domain"
)

// 注意：兼容API沿用旧客户端的响应格式（{data:{email}} / {error}），调用方自带 API Key

// errorResponse 兼容API错误响应（旧格式）
type errorResponse struct {
	Error string `json:"error"`
}

// CompatHandler 兼容API处理器
type CompatHandler struct {
	mailboxes Mailboxes
	log       *zap.Logger
}

// NewCompatHandler 创建兼容API处理器
func NewCompatHandler(mailboxes Mailboxes, log *zap.Logger) *CompatHandler {
	return &CompatHandler{
		mailboxes: mailboxes,
		log:       log.Named("compat"),
	}
}

// ========== 请求/响应结构体 ==========

type createAliasRequest struct {
	Domain      interface{} `json:"domain"`      // 目标域名，必须是非空字符串
	Description string      `json:"description"` // 旧客户端会携带，上游不使用
}

type aliasData struct {
	Email string `json:"email"`
}

type createAliasResponse struct {
	Data aliasData `json:"data"`
}

// CreateAlias 创建别名邮箱
// POST /api/v1/aliases
//
// 使用请求头中的 Bearer API Key 在上游创建一个 1 天有效期、随机前缀的邮箱。
func (h *CompatHandler) CreateAlias(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if len(auth) < len("Bearer ") || !strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: MsgMissingAPIKey})
		return
	}
	credential := strings.TrimSpace(auth[len("Bearer "):])
	if credential == "" {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: MsgEmptyAPIKey})
		return
	}

	var req createAliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgInvalidJSON})
		return
	}
	target, ok := req.Domain.(string)
	target = strings.TrimSpace(target)
	if !ok || target == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: MsgInvalidDomain})
		return
	}

	res := h.mailboxes.GenerateMailbox(c.Request.Context(), credential, domain.GenerateRequest{
		Domain:     target,
		ExpiryTime: domain.DurationOneDay.ExpiryMillis(),
	})
	if !res.OK() {
		status := http.StatusInternalServerError
		switch res.Status() {
		case http.StatusUnauthorized, http.StatusForbidden:
			status = http.StatusUnauthorized
		case http.StatusBadRequest:
			status = http.StatusBadRequest
		}
		h.log.Warn("create alias failed",
			zap.String("domain", target),
			zap.Int("upstream_status", res.Status()),
			zap.String("error", res.Err.Message),
		)
		c.JSON(status, errorResponse{Error: fmt.Sprintf(MsgAliasCreateFailed, res.Err.Message)})
		return
	}

	c.JSON(http.StatusCreated, createAliasResponse{Data: aliasData{Email: res.Data.Email}})
}
