package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// plain 纯文本响应，Webhook 调用方只关心状态码和一行说明
func plain(c *gin.Context, status int, msg string) {
	c.String(status, msg)
}

// notFound 未匹配任何端点
func notFound(c *gin.Context) {
	plain(c, http.StatusNotFound, MsgEndpointNotFound)
}
