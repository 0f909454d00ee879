package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amaumene/gostremiocz/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(log logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(log), CORS(), Gzip())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong "+GetRequestID(c))
	})
	r.GET("/:configuration/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestRequestIDAssigned(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(logger.Discard()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, "pong "+id, w.Body.String())
}

func TestRequestIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	newEngine(logger.Discard()).ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "pong abc-123", w.Body.String())
}

func TestGzip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set(RequestIDHeader, "z")
	w := httptest.NewRecorder()
	newEngine(logger.Discard()).ServeHTTP(w, req)

	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "pong z", string(body))
}

func TestCORSPreflight(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine(logger.Discard()).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggerMasksConfiguration(t *testing.T) {
	var out bytes.Buffer
	log := logger.NewWithWriters("debug", &out, &out)

	w := httptest.NewRecorder()
	newEngine(log).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/c2VjcmV0/ping", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, out.String(), "/***/ping")
	assert.False(t, strings.Contains(out.String(), "c2VjcmV0"))
}
