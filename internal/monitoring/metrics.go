package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
//
// 所有 Record 方法允许 nil 接收者，未启用监控的组件可以直接传 nil。
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 上游 API 指标
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec

	// 业务指标
	NotificationsTotal *prometheus.CounterVec
	ExtractionsTotal   *prometheus.CounterVec
	WizardEventsTotal  *prometheus.CounterVec
	BotUpdatesTotal    *prometheus.CounterVec

	// 错误指标
	PanicsTotal prometheus.Counter
}

// NewMetrics 在独立的 registry 上创建监控指标，并注册 Go 运行时与进程采集器
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrelay_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailrelay_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrelay_upstream_requests_total",
				Help: "Total number of mailbox provider API calls",
			},
			[]string{"endpoint", "status_code"},
		),

		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mailrelay_upstream_request_duration_seconds",
				Help:    "Mailbox provider API call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrelay_notifications_total",
				Help: "New-mail notifications by outcome",
			},
			[]string{"outcome"},
		),

		ExtractionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrelay_code_extractions_total",
				Help: "Verification code extraction attempts by result",
			},
			[]string{"result"},
		),

		WizardEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrelay_wizard_events_total",
				Help: "Mailbox creation wizard events",
			},
			[]string{"event"},
		),

		BotUpdatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mailrelay_bot_updates_total",
				Help: "Telegram updates by kind",
			},
			[]string{"kind"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mailrelay_panics_total",
				Help: "Total number of recovered panics",
			},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordUpstreamCall 记录上游 API 调用，statusCode 为 0 表示网络层失败
func (m *Metrics) RecordUpstreamCall(endpoint string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	m.UpstreamRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordNotification 记录新邮件通知处理结果
func (m *Metrics) RecordNotification(outcome string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordExtraction 记录验证码提取结果
func (m *Metrics) RecordExtraction(result string) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(result).Inc()
}

// RecordWizardEvent 记录创建向导事件
func (m *Metrics) RecordWizardEvent(event string) {
	if m == nil {
		return
	}
	m.WizardEventsTotal.WithLabelValues(event).Inc()
}

// RecordBotUpdate 记录 Telegram 更新
func (m *Metrics) RecordBotUpdate(kind string) {
	if m == nil {
		return
	}
	m.BotUpdatesTotal.WithLabelValues(kind).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	if m == nil {
		return
	}
	m.PanicsTotal.Inc()
}

// Registry 返回指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPHandler 返回 Prometheus 指标处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
