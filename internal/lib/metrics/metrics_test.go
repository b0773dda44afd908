package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/diary/days/{date}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/diary/days/{date}", "418"))

	req := httptest.NewRequest(http.MethodGet, "/diary/days/2024-03-15", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusTeapot, rr.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/diary/days/{date}", "418"))
	assert.Equal(t, before+1, after)
}

func TestRecorders(t *testing.T) {
	before := testutil.ToFloat64(dayWritesTotal.WithLabelValues("work"))
	RecordDayWrite("work")
	assert.Equal(t, before+1, testutil.ToFloat64(dayWritesTotal.WithLabelValues("work")))

	beforeErr := testutil.ToFloat64(notificationsTotal.WithLabelValues("send", "ends_today", "error"))
	RecordNotification("send", "ends_today", errors.New("smtp down"))
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(notificationsTotal.WithLabelValues("send", "ends_today", "error")))

	beforeTrials := testutil.ToFloat64(trialsCreatedTotal)
	RecordTrialCreated()
	assert.Equal(t, beforeTrials+1, testutil.ToFloat64(trialsCreatedTotal))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	RecordGateDecision("allowed")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "workdiary_subscription_gate_decisions_total"))
}
