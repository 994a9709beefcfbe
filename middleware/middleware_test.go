package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tahuri-backend/utils"
)

const testAuthSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/admin/me", Auth(testAuthSecret), func(c *gin.Context) {
		id, ok := AdminID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"admin_id": id.String(), "email": Claims(c).Email})
	})
	return r
}

func TestAuth(t *testing.T) {
	adminID := uuid.New()
	valid, _, err := utils.GenerateToken(adminID.String(), "admin@tahuri.id", testAuthSecret, time.Hour)
	require.NoError(t, err)
	expired, _, err := utils.GenerateToken(adminID.String(), "admin@tahuri.id", testAuthSecret, -time.Hour)
	require.NoError(t, err)
	notUUID, _, err := utils.GenerateToken("admin-1", "admin@tahuri.id", testAuthSecret, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid format", "InvalidFormat", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"subject not a uuid", "Bearer " + notUUID, http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			protectedRouter().ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, rr.Body.String(), adminID.String())
				assert.Contains(t, rr.Body.String(), "admin@tahuri.id")
			} else {
				assert.Contains(t, rr.Body.String(), `"error"`)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/api/v1/events/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/events/SEM-01", nil))

	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, `"status":404`)
	assert.Contains(t, out, `"route":"/api/v1/events/:id"`)
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Recovery(slog.New(slog.NewTextHandler(&buf, nil))))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, buf.String(), "recovered from panic")
}

func TestMetrics(t *testing.T) {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_duration_seconds"}, []string{"method", "route", "status"})

	r := gin.New()
	r.Use(Metrics(hist))
	r.GET("/tickets/:ticketNumber", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/tickets/THR-A-1", "/tickets/THR-B-2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2, testutil.CollectAndCount(hist))
}
