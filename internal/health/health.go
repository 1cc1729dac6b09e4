package health

import (
	"context"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"mailrelay/backend/internal/domain"
)

const (
	storePingTimeout   = 2 * time.Second
	goroutineThreshold = 10000
)

// HealthChecker 健康检查器
//
// 存活检查只看进程本身；就绪检查额外 ping 状态存储，存储不可用时服务仍在运行但未就绪。
type HealthChecker struct {
	health healthcheck.Handler
	store  domain.StateStore
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(store domain.StateStore, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger.Named("health"),
	}

	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(goroutineThreshold))
	hc.health.AddReadinessCheck("state-store", hc.pingStore)

	return hc
}

func (hc *HealthChecker) pingStore() error {
	ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
	defer cancel()

	if err := hc.store.Ping(ctx); err != nil {
		hc.logger.Warn("state store not ready", zap.Error(err))
		return err
	}
	return nil
}

// LiveHandler 存活检查端点
func (hc *HealthChecker) LiveHandler() http.HandlerFunc {
	return hc.health.LiveEndpoint
}

// ReadyHandler 就绪检查端点
func (hc *HealthChecker) ReadyHandler() http.HandlerFunc {
	return hc.health.ReadyEndpoint
}
