package shared

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"reserve/shared/cache"
)

// BuildCacheKey joins a key prefix with its discriminating parts, e.g.
// "reservation:get:<id>".
func BuildCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}

	return prefix + ":" + strings.Join(parts, ":")
}

// InvalidateCaches drops every cached entry under the given prefix. Invalidation is
// best-effort: a failed delete only logs, the write that triggered it has already
// been committed.
func InvalidateCaches(ctx context.Context, c cache.RedisCache, prefix string) {
	if err := c.Clear(ctx, prefix+"*"); err != nil {
		log.Error().Err(err).Str("prefix", prefix).Msg("failed to invalidate cache")
	}
}
