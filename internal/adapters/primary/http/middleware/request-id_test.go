package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Logging())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyRequestID))
	})
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("store unreachable"))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
	return r
}

func serve(r *gin.Engine, path, requestID string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if requestID != "" {
		req.Header.Set(HeaderRequestID, requestID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := newTestRouter()

	w := serve(r, "/ping", "")
	generated := w.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = serve(r, "/ping", "req-123")
	assert.Equal(t, "req-123", w.Header().Get(HeaderRequestID))
	assert.Equal(t, "req-123", w.Body.String())
}

func TestRequestID_RejectsUnusableHeader(t *testing.T) {
	r := newTestRouter()

	for _, id := range []string{"has space", strings.Repeat("x", maxRequestIDLen+1)} {
		w := serve(r, "/ping", id)
		got := w.Header().Get(HeaderRequestID)
		assert.NotEqual(t, id, got)
		assert.NotEmpty(t, got)
	}
}

func TestLogging_RecordsRequestID(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	log.SetLevel(log.InfoLevel)
	r := newTestRouter()

	w := serve(r, "/ping", "")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.InfoLevel, entry.Level)
	assert.Equal(t, w.Header().Get(HeaderRequestID), entry.Data["request_id"])
	assert.Equal(t, "/ping", entry.Data["route"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])

	hook.Reset()
	serve(r, "/ping", "req-456")
	entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "req-456", entry.Data["request_id"])
}

func TestLogging_ServerErrorIncludesCause(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()
	log.SetLevel(log.InfoLevel)
	r := newTestRouter()

	serve(r, "/fail", "req-789")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.ErrorLevel, entry.Level)
	assert.Equal(t, "req-789", entry.Data["request_id"])
	assert.Contains(t, entry.Data["errors"], "store unreachable")
}
