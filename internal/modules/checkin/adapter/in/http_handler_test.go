package in_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	checkinin "staywithme/internal/modules/checkin/adapter/in"
)

func newRouter(h *harness) *mux.Router {
	r := mux.NewRouter()
	checkinin.NewHTTPHandler(h.uc, nil).Routes(r)
	return r
}

func serve(r http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestHTTPStatusWithoutSessionIsNotFound(t *testing.T) {
	r := newRouter(newHarness(t, ""))

	rec := serve(r, http.MethodGet, "/v1/session")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no active session")

	rec = serve(r, http.MethodPost, "/v1/session/checkin")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodDelete, "/v1/session").Code)
}

func TestHTTPStatusEvaluateAndRemoteCheckIn(t *testing.T) {
	h := newHarness(t, "")
	session := startSession(t, h, 2*time.Hour)
	r := newRouter(h)
	h.clk.Advance(31 * time.Minute)

	rec := serve(r, http.MethodPost, "/v1/session/evaluate")
	require.Equal(t, http.StatusOK, rec.Code)
	var eval map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &eval))
	assert.Equal(t, session.ID, eval["session_id"])
	assert.Equal(t, float64(1), eval["level"])
	assert.Equal(t, true, eval["dispatched"])

	rec = serve(r, http.MethodGet, "/v1/session")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, float64(1), status["level"])
	assert.Equal(t, float64(30), status["interval_minutes"])
	assert.Equal(t, float64(89*60), status["remaining_seconds"])
	assert.NotContains(t, status, "last_confirmed_at")

	rec = serve(r, http.MethodPost, "/v1/session/checkin")
	require.Equal(t, http.StatusOK, rec.Code)
	status = map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, float64(0), status["level"])
	assert.Contains(t, status, "last_confirmed_at")
	assert.Equal(t, 1, h.dispatcher.resets)
}
