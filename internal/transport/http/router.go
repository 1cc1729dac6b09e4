package httptransport

import (
	"context"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"mailrelay/backend/internal/config"
	"mailrelay/backend/internal/domain"
	"mailrelay/backend/internal/health"
	"mailrelay/backend/internal/middleware"
	"mailrelay/backend/internal/monitoring"
	"mailrelay/backend/internal/storage"
	"mailrelay/backend/internal/upstream"
)

// UpdateHandler 处理 Telegram 更新，*bot.Handler 满足该接口
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// Notifier 投递新邮件通知，*bot.Handler 满足该接口
type Notifier interface {
	Notify(ctx context.Context, chatID int64, ev domain.NewMessageEvent) error
}

// Mailboxes 网页查看与别名 API 需要的上游接口，*upstream.Client 满足该接口
type Mailboxes interface {
	GetMessage(ctx context.Context, credential, mailboxID, messageID string) upstream.Result[domain.Message]
	GenerateMailbox(ctx context.Context, credential string, req domain.GenerateRequest) upstream.Result[domain.GeneratedMailbox]
}

// Handler 聚合所有 HTTP 处理逻辑。
type Handler struct {
	cfg       *config.Config
	updates   UpdateHandler
	notifier  Notifier
	store     domain.StateStore
	storeMode storage.Mode
	mailboxes Mailboxes
	sanitizer *bluemonday.Policy
	aiEnabled bool
	log       *zap.Logger
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config    *config.Config
	Updates   UpdateHandler
	Notifier  Notifier
	Store     domain.StateStore
	StoreMode storage.Mode
	Mailboxes Mailboxes
	AIEnabled bool // 状态页展示验证码提取是否启用
	Health    *health.HealthChecker
	Metrics   *monitoring.Metrics
	Logger    *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.RecoveryHandler(log, deps.Metrics))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(deps.Config.Server.MaxBodyBytes))
	router.Use(middleware.HTTPMetrics(deps.Metrics))

	handler := &Handler{
		cfg:       deps.Config,
		updates:   deps.Updates,
		notifier:  deps.Notifier,
		store:     deps.Store,
		storeMode: deps.StoreMode,
		mailboxes: deps.Mailboxes,
		sanitizer: bluemonday.UGCPolicy(),
		aiEnabled: deps.AIEnabled,
		log:       log.Named("http"),
	}
	compatHandler := NewCompatHandler(deps.Mailboxes, log)

	// Telegram 更新
	router.POST(deps.Config.Telegram.WebhookPath, handler.telegramUpdate)

	// 新邮件通知，路径为接收通知的 Telegram 用户 ID
	router.POST("/:userID", handler.receiveNotification)

	// 状态页
	router.GET("/", handler.status)

	// 网页查看邮件
	router.GET("/view/:userID/:mailboxID/:messageID", handler.viewMessage)

	// 别名兼容 API
	api := router.Group("/api/v1")
	api.Use(gincors.New(corsConfig(deps.Config.CORS)))
	{
		api.POST("/aliases", compatHandler.CreateAlias)
		api.OPTIONS("/aliases", func(c *gin.Context) {})
	}

	// 健康检查与指标
	if deps.Health != nil {
		router.GET("/health/live", gin.WrapF(deps.Health.LiveHandler()))
		router.GET("/health/ready", gin.WrapF(deps.Health.ReadyHandler()))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	router.NoRoute(notFound)

	return router
}

func corsConfig(cfg config.CORSConfig) gincors.Config {
	corsConfig := gincors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowAllOrigins = true
			corsConfig.AllowCredentials = false
			break
		}
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	return corsConfig
}
