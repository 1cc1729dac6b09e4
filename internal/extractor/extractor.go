// Package extractor 调用 OpenAI 兼容的补全服务，从邮件中提取验证码
package extractor

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"mailrelay/backend/internal/config"
	"mailrelay/backend/internal/monitoring"
)

const (
	maxSubjectRunes = 200
	maxBodyRunes    = 6000
	notFound        = "NOT_FOUND"
	temperature     = 0.1
	maxTokens       = 50
)

var codePattern = regexp.MustCompile(`^[a-zA-Z0-9-]{3,20}$`)

const promptTemplate = `从下面的邮件中找出注册或登录验证码。
验证码一般为 4 到 8 位数字或字母，可能带连字符，例如 123-456、AB12CD。
找到时只输出验证码本身；找不到时只输出 NOT_FOUND。不要输出任何解释。

主题:
%s

正文:
%s`

// Result 提取结果，Found 为 false 时 Code 为空
type Result struct {
	Found bool
	Code  string
}

// Completer 抽象补全接口，*openai.Client 满足该接口
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor 验证码提取器；未配置密钥时不发起任何网络请求
type Extractor struct {
	client  Completer
	model   string
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// New 按配置创建提取器，APIKey 为空时返回的提取器始终报告未找到
func New(cfg config.OpenAIConfig, metrics *monitoring.Metrics, log *zap.Logger) *Extractor {
	if !cfg.AIEnabled() {
		return &Extractor{metrics: metrics, log: log.Named("extractor")}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return NewWithCompleter(openai.NewClientWithConfig(clientCfg), cfg.Model, metrics, log)
}

// NewWithCompleter 使用自定义补全客户端创建提取器
func NewWithCompleter(client Completer, model string, metrics *monitoring.Metrics, log *zap.Logger) *Extractor {
	return &Extractor{
		client:  client,
		model:   model,
		metrics: metrics,
		log:     log.Named("extractor"),
	}
}

// Enabled 报告是否配置了补全服务
func (e *Extractor) Enabled() bool {
	return e != nil && e.client != nil
}

// Extract 尝试提取验证码，任何失败都折叠为未找到，不向调用方返回错误
func (e *Extractor) Extract(ctx context.Context, subject, body string) Result {
	if !e.Enabled() {
		return Result{}
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: fmt.Sprintf(promptTemplate, truncate(subject, maxSubjectRunes), truncate(body, maxBodyRunes)),
		}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		e.log.Warn("code extraction request failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		e.metrics.RecordExtraction("error")
		return Result{}
	}
	if len(resp.Choices) == 0 {
		e.metrics.RecordExtraction("empty")
		return Result{}
	}

	code := strings.TrimSpace(resp.Choices[0].Message.Content)
	if !Valid(code) {
		e.log.Debug("no verification code", zap.String("reply", truncate(code, 40)))
		e.metrics.RecordExtraction("not_found")
		return Result{}
	}

	e.metrics.RecordExtraction("found")
	return Result{Found: true, Code: code}
}

// Valid 校验模型返回值是否可作为验证码：不是 NOT_FOUND，3-20 位字母数字或连字符，且不含 "/" 与 ":"
func Valid(code string) bool {
	if code == "" || code == notFound {
		return false
	}
	if strings.ContainsAny(code, "/:") {
		return false
	}
	return codePattern.MatchString(code)
}

// truncate 按字符截断
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
