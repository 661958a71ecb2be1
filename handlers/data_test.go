package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestData_CheckInsUseSessionCredential(t *testing.T) {
	f := newShell(t)

	w := f.do(http.MethodGet, "/data/checkins", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	f.login(t)
	w = f.do(http.MethodGet, "/data/checkins", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":4,"mood":"calm","stress_level":2,"notes":"","created_at":"2024-01-01T00:00:00"}]`, w.Body.String())
}

func TestData_BookingStatusPassesThrough(t *testing.T) {
	f := newShell(t)
	f.login(t)

	w := f.do(http.MethodPost, "/data/bookings", `{"counselor_id":1,"slot_id":2}`)
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.JSONEq(t, `{"detail":"Premium required"}`, w.Body.String())

	w = f.do(http.MethodPost, "/data/bookings", `{"counselor_id":1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestData_AnalyticsNeverFails(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodGet, "/data/analytics/overview", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}

func TestData_TimeoutIsGatewayTimeout(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodGet, "/data/counselors", "")
	require.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestData_TransportFailureIsBadGateway(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := newShellAt(t, url)
	w := f.do(http.MethodGet, "/data/resources", "")
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestData_UpgradeUpdatesSessionPlan(t *testing.T) {
	f := newShell(t)
	f.login(t)
	require.Equal(t, "free", f.store.Plan())

	w := f.do(http.MethodPost, "/data/billing/upgrade", `{"code":"PREMIUM-2024"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"plan":"premium"}`, w.Body.String())
	assert.Equal(t, "premium", f.store.Plan())
}

func TestData_InvalidID(t *testing.T) {
	f := newShell(t)
	w := f.do(http.MethodGet, "/data/chat/sessions/abc/messages", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
