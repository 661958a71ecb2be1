package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mindcareplus/mindcare/client/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func originEngine() *gin.Engine {
	g := gin.New()
	g.Use(LocalOnly(OriginPolicy{AllowedOrigins: []string{"http://localhost:5173/"}, Hosts: []string{"0.0.0.0", "mindcare.local"}}))
	g.GET("/data", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.POST("/write", RequireJSON(), func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	g.DELETE("/write", RequireJSON(), func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return g
}

func serve(g *gin.Engine, method, host, origin, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if method == http.MethodPost {
		req = httptest.NewRequest(method, "/write", strings.NewReader(`{}`))
	} else if method == http.MethodDelete {
		req = httptest.NewRequest(method, "/write", nil)
	} else {
		req = httptest.NewRequest(method, "/data", nil)
	}
	req.Host = host
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestLocalOnly_Hosts(t *testing.T) {
	g := originEngine()
	for _, host := range []string{"127.0.0.1:8080", "localhost:8080", "[::1]:8080", "mindcare.local:8080", "127.0.0.1"} {
		assert.Equal(t, http.StatusOK, serve(g, http.MethodGet, host, "", "").Code, host)
	}

	before := testutil.ToFloat64(metrics.ShellRejected.WithLabelValues("host"))
	for _, host := range []string{"evil.example:8080", "0.0.0.0:8080", "10.0.0.5:8080"} {
		assert.Equal(t, http.StatusForbidden, serve(g, http.MethodGet, host, "", "").Code, host)
	}
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.ShellRejected.WithLabelValues("host")))
}

func TestLocalOnly_Origins(t *testing.T) {
	g := originEngine()

	w := serve(g, http.MethodGet, "127.0.0.1:8080", "https://evil.example", "")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(g, http.MethodGet, "127.0.0.1:8080", "null", "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = serve(g, http.MethodGet, "127.0.0.1:8080", "http://LOCALHOST:5173", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))

	// same origin needs no configuration
	w = serve(g, http.MethodGet, "127.0.0.1:8080", "http://127.0.0.1:8080", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(g, http.MethodOptions, "127.0.0.1:8080", "http://localhost:5173", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(g, http.MethodOptions, "127.0.0.1:8080", "https://evil.example", "")
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequireJSON(t *testing.T) {
	g := originEngine()
	assert.Equal(t, http.StatusOK, serve(g, http.MethodPost, "127.0.0.1:8080", "", "application/json; charset=utf-8").Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, serve(g, http.MethodPost, "127.0.0.1:8080", "", "text/plain").Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, serve(g, http.MethodPost, "127.0.0.1:8080", "", "").Code)
	assert.Equal(t, http.StatusUnsupportedMediaType, serve(g, http.MethodPost, "127.0.0.1:8080", "", "application/x-www-form-urlencoded").Code)
	assert.Equal(t, http.StatusOK, serve(g, http.MethodDelete, "127.0.0.1:8080", "", "").Code)
}
