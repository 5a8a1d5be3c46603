package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/skillmatrix-api/internal/service"
)

func probe(h gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))
	return rec
}

func TestReadyReportsEachCheck(t *testing.T) {
	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	h := NewMetricsHandler(service.NewMetricsService(), map[string]Pinger{"postgres": up})
	rec := probe(h.Ready)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"postgres":"up"}}`, rec.Body.String())

	h = NewMetricsHandler(nil, map[string]Pinger{"postgres": up, "redis": down})
	rec = probe(h.Ready)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"up","redis":"down"}}`, rec.Body.String())
}

func TestPrometheusWithoutMetrics(t *testing.T) {
	rec := probe(NewMetricsHandler(nil, nil).Prometheus)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = probe(NewMetricsHandler(service.NewMetricsService(), nil).Prometheus)
	assert.Equal(t, http.StatusOK, rec.Code)
}
