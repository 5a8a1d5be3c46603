package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	"github.com/noah-isme/skillmatrix-api/internal/service"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type recordingAudit struct {
	logs []*models.AuditLog
	err  error
}

func (r *recordingAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func newRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middlewares...)
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTAndRoles(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Username: "trainer", Role: models.RoleTrainer}
	r := newRouter(JWT(stubValidator{claims: claims}))
	r.GET("/open", func(c *gin.Context) { c.String(http.StatusOK, ClaimsFromContext(c).Username) })
	r.GET("/admin", RequireRoles(models.RoleAdmin, models.RoleDCC), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, http.MethodGet, "/open", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/open", "bad")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/open", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trainer", w.Body.String())

	w = do(r, http.MethodGet, "/admin", "good")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(t, w))
}

func TestAuditRecordsSuccessfulRequestsOnly(t *testing.T) {
	audit := &recordingAudit{err: errors.New("db down")}
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleHR}
	r := newRouter(JWT(stubValidator{claims: claims}))
	r.GET("/exports/:number", Audit(audit, nil, models.AuditActionExport, "employee"), func(c *gin.Context) {
		if c.Param("number") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	w := do(r, http.MethodGet, "/exports/E-001?format=csv", "good")
	assert.Equal(t, http.StatusOK, w.Code)
	do(r, http.MethodGet, "/exports/missing", "good")

	require.Len(t, audit.logs, 1)
	log := audit.logs[0]
	assert.Equal(t, models.AuditActionExport, log.Action)
	assert.Equal(t, "u1", *log.UserID)
	assert.Equal(t, "E-001", *log.ResourceID)
	assert.Contains(t, string(log.NewValues), `"format":["csv"]`)
}

func TestResponseMetaAndMetrics(t *testing.T) {
	metrics := service.NewMetricsService()
	r := newRouter(Metrics(metrics, "/metrics"), WithResponseMeta())
	var meta map[string]interface{}
	r.GET("/stats", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ResponseMeta(c)
		c.Status(http.StatusOK)
	})
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/stats", "")
	do(r, http.MethodGet, "/metrics", "")

	assert.Equal(t, true, meta[cacheHitKey])
	assert.Contains(t, meta, processingKey)
	assert.NotContains(t, meta, processingStartKey)
	assert.Equal(t, uint64(1), metrics.Snapshot().RequestsTotal)
}
