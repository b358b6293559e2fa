package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateCourseCache invalidates all course-related caches
func InvalidateCourseCache(ctx context.Context, cm *CacheManager, courseID uint, creatorID string) {
	SafeDelete(ctx, cm.Course,
		fmt.Sprintf("id:%d", courseID),
		fmt.Sprintf("details:%d", courseID))

	SafeInvalidatePattern(ctx, cm.Course, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Course, "list:*")
	SafeInvalidatePattern(ctx, cm.Module, fmt.Sprintf("course:%d:*", courseID))
}

// InvalidateModuleCache invalidates a module's caches and the parent
// course detail view that embeds it
func InvalidateModuleCache(ctx context.Context, cm *CacheManager, moduleID, courseID uint) {
	SafeDelete(ctx, cm.Module,
		fmt.Sprintf("id:%d", moduleID),
		fmt.Sprintf("details:%d", moduleID))
	SafeDelete(ctx, cm.Course, fmt.Sprintf("details:%d", courseID))
	SafeInvalidatePattern(ctx, cm.Module, fmt.Sprintf("course:%d:*", courseID))
}
