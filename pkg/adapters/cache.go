package adapters

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shouni/vision-weaver-kit/pkg/domain"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeySearch = "search:"
	cacheKeyTags   = "tags:"
)

// CachedSearchProvider は検索結果を TTL 付きで保持し、同じクエリの同時検索を1回にまとめます。
// プレースホルダーの結果はキャッシュしません。
type CachedSearchProvider struct {
	next  ImageSearchProvider
	cache ImageCacher
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedSearchProvider は next をキャッシュで包みます。
func NewCachedSearchProvider(next ImageSearchProvider, cache ImageCacher, ttl time.Duration) (*CachedSearchProvider, error) {
	if next == nil {
		return nil, errors.New("next is required")
	}
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	return &CachedSearchProvider{next: next, cache: cache, ttl: ttl}, nil
}

// Search はキャッシュにあればそれを、なければ next の結果を返します。
func (c *CachedSearchProvider) Search(ctx context.Context, query string) []domain.InspirationImage {
	key := cacheKeySearch + normalizeKey(query)
	if v, ok := c.cache.Get(key); ok {
		if images, ok := v.([]domain.InspirationImage); ok {
			return slices.Clone(images)
		}
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		images := c.next.Search(ctx, query)
		if len(images) > 0 && !slices.ContainsFunc(images, IsFallbackImage) {
			c.cache.Set(key, images, c.ttl)
		}
		return images, nil
	})
	return slices.Clone(v.([]domain.InspirationImage))
}

// CachedTagExpander はタグ展開の結果を TTL 付きで保持します。
// 代替タグが返った場合はキャッシュしません。
type CachedTagExpander struct {
	next  TagExpander
	cache ImageCacher
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedTagExpander は next をキャッシュで包みます。
func NewCachedTagExpander(next TagExpander, cache ImageCacher, ttl time.Duration) (*CachedTagExpander, error) {
	if next == nil {
		return nil, errors.New("next is required")
	}
	if cache == nil {
		return nil, errors.New("cache is required")
	}
	return &CachedTagExpander{next: next, cache: cache, ttl: ttl}, nil
}

// Expand はキャッシュにあればそれを、なければ next の結果を返します。
func (c *CachedTagExpander) Expand(ctx context.Context, prompt string) []string {
	key := cacheKeyTags + normalizeKey(prompt)
	if v, ok := c.cache.Get(key); ok {
		if tags, ok := v.([]string); ok {
			return slices.Clone(tags)
		}
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		tags := c.next.Expand(ctx, prompt)
		if len(tags) > 0 && !slices.Equal(tags, FallbackTags()) {
			c.cache.Set(key, tags, c.ttl)
		}
		return tags, nil
	})
	return slices.Clone(v.([]string))
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
