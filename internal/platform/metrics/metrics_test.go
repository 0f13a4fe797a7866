package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywithme/internal/platform/metrics"
)

func TestEscalationCounterIsExposed(t *testing.T) {
	before := testutil.ToFloat64(metrics.Escalations.WithLabelValues("2", "test"))
	metrics.Escalations.WithLabelValues("2", "test").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.Escalations.WithLabelValues("2", "test")))

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "staywithme_escalations_total"))
}

func TestResult(t *testing.T) {
	assert.Equal(t, "success", metrics.Result(nil))
	assert.Equal(t, "failure", metrics.Result(errors.New("boom")))
}
