package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("记录指标", func(t *testing.T) {
		m := NewMetrics()
		m.RecordNotification("delivered")
		m.RecordNotification("delivered")
		m.RecordUpstreamCall("list_mailboxes", 200, 15*time.Millisecond)
		m.RecordExtraction("found")

		body := scrape(t, m)
		assert.Contains(t, body, `mailrelay_notifications_total{outcome="delivered"} 2`)
		assert.Contains(t, body, `mailrelay_upstream_requests_total{endpoint="list_mailboxes",status_code="200"} 1`)
		assert.Contains(t, body, `mailrelay_code_extractions_total{result="found"} 1`)
	})

	t.Run("多个实例互不冲突", func(t *testing.T) {
		assert.NotPanics(t, func() {
			NewMetrics()
			NewMetrics()
		})
	})

	t.Run("nil接收者安全", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() {
			m.RecordHTTPRequest("GET", "/", 200, time.Millisecond)
			m.RecordWizardEvent("started")
			m.RecordPanic()
		})
	})

	t.Run("暴露指标", func(t *testing.T) {
		m := NewMetrics()
		m.RecordBotUpdate("message")

		assert.Contains(t, scrape(t, m), "mailrelay_bot_updates_total")
	})
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	m.HTTPHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}
