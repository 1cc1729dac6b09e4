package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host         string        // 监听地址，默认 "0.0.0.0"
	Port         int           // 监听端口，默认 8080
	Mode         string        // gin 运行模式: debug, release, test
	PublicURL    string        // 对外访问地址，用于生成通知 Webhook 与网页查看链接，不带结尾斜杠
	ReadTimeout  time.Duration // 读取请求超时
	WriteTimeout time.Duration // 写入响应超时
	MaxBodyBytes int64         // 请求体大小上限
}

// TelegramConfig 定义 Telegram 机器人配置
type TelegramConfig struct {
	BotToken      string // 机器人令牌（必填）
	WebhookPath   string // Telegram 更新推送路径，默认 "/telegram-webhook"
	WebhookSecret string // 可选，校验 X-Telegram-Bot-Api-Secret-Token 请求头
	APIEndpoint   string // Bot API 地址模板，默认官方地址
}

// UpstreamConfig 定义临时邮箱服务商 API 配置
type UpstreamConfig struct {
	BaseURL string        // API 根地址，默认 "https://unsend.de/api"
	Timeout time.Duration // 单次请求超时
}

// OpenAIConfig 定义验证码提取所用的补全服务配置
type OpenAIConfig struct {
	APIKey  string        // 留空表示关闭验证码提取
	BaseURL string        // 兼容 OpenAI 协议的服务地址
	Model   string        // 模型名称
	Timeout time.Duration // 单次请求超时
}

// MailboxConfig 定义邮箱创建相关配置
type MailboxConfig struct {
	Domains  []string       // 可选域名列表，创建向导按下标选择
	Location *time.Location // 时间显示时区
}

// RedisConfig 定义 Redis 状态存储配置
type RedisConfig struct {
	Address   string        // Redis 服务地址，留空表示使用内存存储
	Password  string        // Redis 认证密码，留空表示无密码
	DB        int           // Redis 数据库编号，默认 0
	KeyPrefix string        // 键前缀
	WizardTTL time.Duration // 创建向导状态有效期，0 表示不过期
}

// StoreConfig 定义状态存储的加密配置
type StoreConfig struct {
	SecretKey []byte // 32 字节密钥，设置后 API Key 加密存储
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空只输出到控制台
	MaxSizeMB   int    // 单个日志文件大小上限
	MaxBackups  int    // 保留的旧文件数量
	MaxAgeDays  int    // 旧文件保留天数
	Compress    bool   // 是否压缩旧文件
}

// Config 是系统配置的根结构体
type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Upstream UpstreamConfig
	OpenAI   OpenAIConfig
	Mailbox  MailboxConfig
	Redis    RedisConfig
	Store    StoreConfig
	CORS     CORSConfig
	Log      LogConfig
}

// legacyEnv 兼容旧部署使用的环境变量名
var legacyEnv = map[string]string{
	"telegram.bot_token": "TELEGRAM_BOT_TOKEN",
	"upstream.base_url":  "UNSEND_API_BASE_URL",
	"mailbox.domains":    "EMAIL_DOMAINS",
	"openai.api_key":     "OPENAI_API_KEY",
	"openai.base_url":    "OPENAI_API_BASE_URL",
	"openai.model":       "OPENAI_MODEL",
	"server.public_url":  "DENO_DEPLOY_URL",
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. MAILRELAY_ 前缀的环境变量
//  2. 旧版环境变量名（TELEGRAM_BOT_TOKEN 等）
//  3. .env 文件
//  4. 默认值
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("mailrelay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "MAILRELAY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 2<<20)
	v.SetDefault("telegram.webhook_path", "/telegram-webhook")
	v.SetDefault("telegram.api_endpoint", "https://api.telegram.org/bot%s/%s")
	v.SetDefault("upstream.base_url", "https://unsend.de/api")
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-3.5-turbo")
	v.SetDefault("openai.timeout", "20s")
	v.SetDefault("mailbox.domains", "unsend.de")
	v.SetDefault("mailbox.timezone", "Asia/Shanghai")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "mailrelay:")
	v.SetDefault("redis.wizard_ttl", "1h")
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", true)

	botToken := strings.TrimSpace(v.GetString("telegram.bot_token"))
	if botToken == "" {
		return nil, fmt.Errorf("telegram.bot_token is required (set MAILRELAY_TELEGRAM_BOT_TOKEN or TELEGRAM_BOT_TOKEN)")
	}

	webhookPath := v.GetString("telegram.webhook_path")
	if !strings.HasPrefix(webhookPath, "/") || webhookPath == "/" {
		return nil, fmt.Errorf("invalid telegram.webhook_path %q: must start with / and not be the root path", webhookPath)
	}

	switch mode := v.GetString("server.mode"); mode {
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("invalid server.mode %q: expected debug, release or test", mode)
	}

	upstreamBase, err := parseBaseURL(v.GetString("upstream.base_url"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream.base_url: %w", err)
	}

	openaiBase, err := parseBaseURL(v.GetString("openai.base_url"))
	if err != nil {
		return nil, fmt.Errorf("invalid openai.base_url: %w", err)
	}

	publicURL := strings.TrimRight(strings.TrimSpace(v.GetString("server.public_url")), "/")
	if publicURL != "" {
		if _, err := parseBaseURL(publicURL); err != nil {
			return nil, fmt.Errorf("invalid server.public_url: %w", err)
		}
	}

	domains := parseDomains(v.GetString("mailbox.domains"))
	if len(domains) == 0 {
		return nil, fmt.Errorf("mailbox.domains must not be empty")
	}

	location, err := time.LoadLocation(v.GetString("mailbox.timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid mailbox.timezone: %w", err)
	}

	durations := map[string]time.Duration{}
	for _, key := range []string{"server.read_timeout", "server.write_timeout", "upstream.timeout", "openai.timeout", "redis.wizard_ttl"} {
		d, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid %s: must not be negative", key)
		}
		durations[key] = d
	}

	var secretKey []byte
	if raw := strings.TrimSpace(v.GetString("store.secret_key")); raw != "" {
		secretKey, err = hex.DecodeString(raw)
		if err != nil || len(secretKey) != 32 {
			return nil, fmt.Errorf("invalid store.secret_key: expected 64 hex characters")
		}
	}

	corsOrigins := parseList(v.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("server.host"),
			Port:         v.GetInt("server.port"),
			Mode:         v.GetString("server.mode"),
			PublicURL:    publicURL,
			ReadTimeout:  durations["server.read_timeout"],
			WriteTimeout: durations["server.write_timeout"],
			MaxBodyBytes: v.GetInt64("server.max_body_bytes"),
		},
		Telegram: TelegramConfig{
			BotToken:      botToken,
			WebhookPath:   webhookPath,
			WebhookSecret: v.GetString("telegram.webhook_secret"),
			APIEndpoint:   v.GetString("telegram.api_endpoint"),
		},
		Upstream: UpstreamConfig{
			BaseURL: upstreamBase,
			Timeout: durations["upstream.timeout"],
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(v.GetString("openai.api_key")),
			BaseURL: openaiBase,
			Model:   v.GetString("openai.model"),
			Timeout: durations["openai.timeout"],
		},
		Mailbox: MailboxConfig{
			Domains:  domains,
			Location: location,
		},
		Redis: RedisConfig{
			Address:   v.GetString("redis.address"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
			WizardTTL: durations["redis.wizard_ttl"],
		},
		Store: StoreConfig{
			SecretKey: secretKey,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
			MaxSizeMB:   v.GetInt("log.max_size_mb"),
			MaxBackups:  v.GetInt("log.max_backups"),
			MaxAgeDays:  v.GetInt("log.max_age_days"),
			Compress:    v.GetBool("log.compress"),
		},
	}

	return cfg, nil
}

// Addr 返回 HTTP 监听地址
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AIEnabled 报告是否配置了补全服务密钥
func (c OpenAIConfig) AIEnabled() bool {
	return c.APIKey != ""
}

// parseBaseURL 校验绝对 http(s) 地址并去掉结尾斜杠
func parseBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	return raw, nil
}

// parseDomains 解析域名列表，兼容 "|" 与 "," 两种分隔符，结果转为小写并保持顺序
func parseDomains(value string) []string {
	out := parseList(strings.ReplaceAll(value, "|", ","))
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件，已存在的环境变量不会被覆盖
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
