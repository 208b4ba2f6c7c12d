package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"lejio/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDunning struct {
	sent, failed int
	err          error
	calls        int
}

func (s *stubDunning) Schedule(ctx context.Context, inv *models.Invoice) error { return nil }
func (s *stubDunning) Cancel(ctx context.Context, invoiceID string) error      { return nil }
func (s *stubDunning) Dispatch(ctx context.Context) (int, int, error) {
	s.calls++
	return s.sent, s.failed, s.err
}

type stubSubscriptions struct {
	created int
	err     error
	calls   int
}

func (s *stubSubscriptions) Register(ctx context.Context, sub *models.Subscription) error {
	return nil
}

func (s *stubSubscriptions) Advance(ctx context.Context) (int, error) {
	s.calls++
	return s.created, s.err
}

func postEvent(t *testing.T, handler *SchedulerHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/scheduler", handler.TriggerSweep)

	req := httptest.NewRequest(http.MethodPost, "/scheduler", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTriggerSweep(t *testing.T) {
	t.Run("dunning sweep returns counts", func(t *testing.T) {
		dunningStub := &stubDunning{sent: 4, failed: 1}
		handler := NewSchedulerHandler(dunningStub, &stubSubscriptions{}, zap.NewNop())

		rec := postEvent(t, handler, `{"event":"process_dunning"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"reminders_sent":4,"reminders_failed":1}`, rec.Body.String())
		assert.Equal(t, 1, dunningStub.calls)
	})

	t.Run("subscription sweep returns invoice count", func(t *testing.T) {
		subsStub := &stubSubscriptions{created: 3}
		handler := NewSchedulerHandler(&stubDunning{}, subsStub, zap.NewNop())

		rec := postEvent(t, handler, `{"event":"process_subscription_billing"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"invoices_created":3}`, rec.Body.String())
		assert.Equal(t, 1, subsStub.calls)
	})

	t.Run("unknown event rejected", func(t *testing.T) {
		handler := NewSchedulerHandler(&stubDunning{}, &stubSubscriptions{}, zap.NewNop())
		rec := postEvent(t, handler, `{"event":"reticulate_splines"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing event rejected", func(t *testing.T) {
		handler := NewSchedulerHandler(&stubDunning{}, &stubSubscriptions{}, zap.NewNop())
		rec := postEvent(t, handler, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("sweep failure maps to 500", func(t *testing.T) {
		handler := NewSchedulerHandler(&stubDunning{err: assert.AnError}, &stubSubscriptions{}, zap.NewNop())
		rec := postEvent(t, handler, `{"event":"process_dunning"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
