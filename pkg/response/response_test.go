package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/skillmatrix-api/internal/models"
	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
	"github.com/noah-isme/skillmatrix-api/pkg/middleware/requestid"
)

func record(t *testing.T, handle gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	r.GET("/", handle)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	body := map[string]json.RawMessage{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "text/csv" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestErrorCarriesRequestID(t *testing.T) {
	w, body := record(t, func(c *gin.Context) {
		Error(c, appErrors.Clone(appErrors.ErrNotFound, "employee not found"))
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `"req-42"`, string(body["requestId"]))
	assert.Contains(t, string(body["error"]), "employee not found")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestPageAndMeta(t *testing.T) {
	_, body := record(t, func(c *gin.Context) {
		Page(c, []string{"a"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1})
	})
	assert.Contains(t, body, "pagination")
	assert.NotContains(t, body, "requestId")

	_, body = record(t, func(c *gin.Context) { OK(c, "x", Meta{"cache": "hit"}) })
	assert.JSONEq(t, `{"cache":"hit"}`, string(body["meta"]))

	_, body = record(t, func(c *gin.Context) { OK(c, "x", Meta{}) })
	assert.NotContains(t, body, "meta")
}

func TestDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="a_b.csv"`, disposition(`a"b.csv`))
	assert.Equal(t, `attachment; filename="J_rgen.pdf"; filename*=UTF-8''J%C3%BCrgen.pdf`, disposition("Jürgen.pdf"))
}

func TestAttachmentQuotesUnsafeNames(t *testing.T) {
	w, _ := record(t, func(c *gin.Context) {
		Attachment(c, "training E-001.csv", "text/csv", []byte("a,b\n"))
	})
	assert.Equal(t, `attachment; filename="training E-001.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", w.Body.String())
}
