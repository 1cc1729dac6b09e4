package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailrelay/backend/internal/monitoring"
)

// maxResponseBytes 单次响应读取上限
const maxResponseBytes = 4 << 20

// Error 上游调用失败，StatusCode 为 0 表示没有收到 HTTP 响应或响应体无法解析
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

// Result 上游调用结果，Err 为 nil 表示成功
type Result[T any] struct {
	Data       T
	StatusCode int
	Err        *Error
}

// OK 报告调用是否成功
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Status 返回失败时的 HTTP 状态码，成功或网络失败时为 0
func (r Result[T]) Status() int {
	if r.Err == nil {
		return 0
	}
	return r.Err.StatusCode
}

func failure[T any](message string, status int) Result[T] {
	return Result[T]{StatusCode: status, Err: &Error{Message: message, StatusCode: status}}
}

// Client 临时邮箱服务商 API 客户端，凭据由调用方逐次传入
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *monitoring.Metrics
	log        *zap.Logger
}

// Option 客户端可选项
type Option func(*Client)

// WithHTTPClient 替换默认 HTTP 客户端
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics 记录上游调用指标
func WithMetrics(m *monitoring.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger 设置日志记录器
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New 创建客户端，baseURL 不带结尾斜杠，例如 https://unsend.de/api
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Named("upstream")
	return c
}

// BaseURL 返回 API 根地址
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call 以 credential 调用 path 并把 JSON 响应解码为 T
//
// HTTP 层错误、网络错误与解码错误都以失败结果返回，不会返回 error。
func Call[T any](ctx context.Context, c *Client, credential, method, path string, body any) Result[T] {
	return call[T](ctx, c, "custom", credential, method, path, body)
}

func call[T any](ctx context.Context, c *Client, endpoint, credential, method, path string, body any) Result[T] {
	start := time.Now()
	res := do[T](ctx, c, credential, method, path, body)
	c.metrics.RecordUpstreamCall(endpoint, res.StatusCode, time.Since(start))

	if res.Err != nil {
		c.log.Warn("upstream call failed",
			zap.String("endpoint", endpoint),
			zap.String("method", method),
			zap.Int("status", res.Err.StatusCode),
			zap.String("error", res.Err.Message),
		)
	} else {
		c.log.Debug("upstream call succeeded",
			zap.String("endpoint", endpoint),
			zap.Int("status", res.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return res
}

func do[T any](ctx context.Context, c *Client, credential, method, path string, body any) Result[T] {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return failure[T](fmt.Sprintf("请求编码失败: %v", err), 0)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return failure[T](fmt.Sprintf("请求构造失败: %v", err), 0)
	}
	req.Header.Set("X-API-Key", credential)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failure[T](fmt.Sprintf("网络请求失败: %v", err), 0)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return failure[T](fmt.Sprintf("API 错误: %d - %s", resp.StatusCode, text), resp.StatusCode)
	}

	if readErr != nil {
		return failure[T](fmt.Sprintf("读取响应失败: %v", readErr), 0)
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return Result[T]{StatusCode: resp.StatusCode}
	}

	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		return failure[T](fmt.Sprintf("响应格式错误: %v", err), 0)
	}
	return Result[T]{Data: data, StatusCode: resp.StatusCode}
}
