package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAdmission(t *testing.T) {
	before := testutil.ToFloat64(admissionDecisions.WithLabelValues("create", "no_capacity"))

	ObserveAdmission("create", "no_capacity")
	ObserveAdmission("create", "no_capacity")

	after := testutil.ToFloat64(admissionDecisions.WithLabelValues("create", "no_capacity"))
	assert.Equal(t, before+2, after)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	ObserveActivity("ticket_created", "ok")
	ObserveHTTP(http.MethodGet, "/api/v1/events", http.StatusOK, 15*time.Millisecond)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "ticket_activities_processed_total")
	assert.Contains(t, body, `http_request_duration_seconds_count{method="GET",route="/api/v1/events",status="200"}`)
}
