package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/skillmatrix-api/pkg/errors"
)

func TestCacheRepositoryKeyPrefix(t *testing.T) {
	repo := NewCacheRepository(nil, "skillmatrix:", nil)
	assert.Equal(t, "skillmatrix:compliance:all", repo.key("compliance:all"))
	assert.Equal(t, "dashboard:stats", NewCacheRepository(nil, "", nil).key("dashboard:stats"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "skillmatrix:", nil)
	ctx := context.Background()

	var out map[string]int
	assert.ErrorIs(t, repo.Get(ctx, "compliance:all", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "compliance:all", map[string]int{"a": 1}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "compliance:*"))
}
