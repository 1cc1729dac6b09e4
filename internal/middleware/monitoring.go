package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"mailrelay/backend/internal/monitoring"
)

// HTTPMetrics HTTP 指标中间件
//
// 使用路由模板而不是原始路径作为标签，避免 /:userID 造成标签基数膨胀。
func HTTPMetrics(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start))
	}
}
