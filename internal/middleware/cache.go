package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	processingKey   = "processing_time_ms"

	processingStartKey = "_started"
)

// WithResponseMeta prepares a per-request metadata map that handlers enrich
// and the response envelope carries.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{processingStartKey: time.Now()})
		c.Next()
	}
}

// SetCacheHit records whether the payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// ResponseMeta returns the public metadata for the current response with the
// elapsed processing time filled in.
func ResponseMeta(c *gin.Context) map[string]interface{} {
	meta := ensureMeta(c)
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		if k == processingStartKey {
			continue
		}
		out[k] = v
	}
	if started, ok := meta[processingStartKey].(time.Time); ok {
		out[processingKey] = time.Since(started).Milliseconds()
	}
	return out
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	meta := map[string]interface{}{processingStartKey: time.Now()}
	c.Set(responseMetaKey, meta)
	return meta
}
