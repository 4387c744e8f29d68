package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsRouter(allowed []string) *gin.Engine {
	r := gin.New()
	r.Use(CORS(allowed))
	r.GET("/alerts", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })
	return r
}

func preflight(r *gin.Engine, origin, headers string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/alerts", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	if headers != "" {
		req.Header.Set("Access-Control-Request-Headers", headers)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_WildcardPreflight(t *testing.T) {
	w := preflight(corsRouter([]string{"*"}), "https://app.example.com", "X-Api-Key")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	r := corsRouter([]string{"https://radar.example.com"})

	w := preflight(r, "https://radar.example.com", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://radar.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(r, "https://evil.example.com", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_SimpleRequestExposesRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), CORS(nil))
	r.GET("/alerts", func(c *gin.Context) { c.JSON(http.StatusOK, []string{}) })

	req := httptest.NewRequest(http.MethodGet, "/alerts", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.EqualFold(requestIDHeader, w.Header().Get("Access-Control-Expose-Headers")),
		w.Header().Get("Access-Control-Expose-Headers"))
}
