package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern invalidates a key pattern, logging instead of failing
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes cache keys, logging instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateQuestionCache drops every cached question listing
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Question, "*")
}

// InvalidateAdminCache drops the cached lookups for one admin
func InvalidateAdminCache(ctx context.Context, cm *CacheManager, username string) {
	SafeDelete(ctx, cm.Admin, "username:"+username, "main")
}
