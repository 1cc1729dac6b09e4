package health

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"mailrelay/backend/internal/storage"
	"mailrelay/backend/internal/storage/memory"
)

func TestHealthChecker(t *testing.T) {
	t.Run("内存存储就绪", func(t *testing.T) {
		hc := NewHealthChecker(memory.NewStore(0), zap.NewNop())

		w := httptest.NewRecorder()
		hc.ReadyHandler()(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("存储不可用时存活但未就绪", func(t *testing.T) {
		hc := NewHealthChecker(storage.Unavailable(errors.New("connection refused")), zap.NewNop())

		live := httptest.NewRecorder()
		hc.LiveHandler()(live, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, live.Code)

		ready := httptest.NewRecorder()
		hc.ReadyHandler()(ready, httptest.NewRequest(http.MethodGet, "/health/ready?full=1", nil))
		assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
		assert.Contains(t, ready.Body.String(), "state-store")
	})
}
