package recommender

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"SipSound/logger"
	"SipSound/metrics"

	"github.com/go-redis/redis/v8"
)

const (
	cacheKeyPrefix = "aidj:recommend:"
	// 单次 Redis 读写的上限，Redis 卡住时不能拖慢推荐阶段
	defaultCacheOpTimeout = 250 * time.Millisecond
)

// CachedRecommender 用 Redis 缓存推荐服务的非空响应
type CachedRecommender struct {
	next      Recommender
	rdb       *redis.Client
	ttl       time.Duration
	opTimeout time.Duration
	deadline  func() time.Duration
}

// CacheOption 配置 CachedRecommender
type CacheOption func(*CachedRecommender)

// WithCallDeadline bounds the cache lookup and the downstream call together.
// deadline is read on every call so reloaded settings apply.
func WithCallDeadline(deadline func() time.Duration) CacheOption {
	return func(c *CachedRecommender) { c.deadline = deadline }
}

// WithCacheOpTimeout 设置单次 Redis 操作超时
func WithCacheOpTimeout(d time.Duration) CacheOption {
	return func(c *CachedRecommender) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// NewCachedRecommender wraps next. A zero ttl or nil client disables caching.
func NewCachedRecommender(next Recommender, rdb *redis.Client, ttl time.Duration, opts ...CacheOption) *CachedRecommender {
	c := &CachedRecommender{next: next, rdb: rdb, ttl: ttl, opTimeout: defaultCacheOpTimeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// cacheKeyFields 与推荐服务自身的缓存键一致，不含 historyWithDates：
// 只收藏过的歌曲带的是请求时间，每秒都会变
type cacheKeyFields struct {
	History []string `json:"history"`
	Genres  []string `json:"genres"`
	Artists []string `json:"artists"`
	Limit   int      `json:"limit"`
}

// CacheKey hashes history, genres, artists and limit.
func CacheKey(req *Request) (string, error) {
	body, err := json.Marshal(cacheKeyFields{
		History: req.History,
		Genres:  req.Genres,
		Artists: req.Artists,
		Limit:   req.Limit,
	})
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(body)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}

func (c *CachedRecommender) enabled() bool {
	return c.rdb != nil && c.ttl > 0
}

// Recommend 先查缓存，未命中时调用下游并写回
func (c *CachedRecommender) Recommend(ctx context.Context, req *Request) (*Response, error) {
	if !c.enabled() {
		return c.next.Recommend(ctx, req)
	}

	// 写回不受调用截止时间影响
	writeCtx := context.WithoutCancel(ctx)
	if c.deadline != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.deadline())
		defer cancel()
	}

	key, err := CacheKey(req)
	if err != nil {
		return c.next.Recommend(ctx, req)
	}

	if cached, ok := c.lookup(ctx, key); ok {
		return cached, nil
	}

	resp, err := c.next.Recommend(ctx, req)
	if err != nil || resp == nil || len(resp.Recommendations) == 0 {
		return resp, err
	}

	c.store(writeCtx, key, resp)
	return resp, nil
}

func (c *CachedRecommender) store(ctx context.Context, key string, resp *Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		metrics.RecommenderCache.WithLabelValues("error").Inc()
		logger.Warn("Failed to cache recommender response", logger.ErrorField(err))
	}
}

func (c *CachedRecommender) lookup(ctx context.Context, key string) (*Response, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.RecommenderCache.WithLabelValues("miss").Inc()
		} else {
			metrics.RecommenderCache.WithLabelValues("error").Inc()
			logger.Warn("Recommender cache lookup failed", logger.ErrorField(err))
		}
		return nil, false
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		metrics.RecommenderCache.WithLabelValues("error").Inc()
		logger.Warn("Discarding unreadable recommender cache entry", logger.String("key", key), logger.ErrorField(err))
		_ = c.rdb.Del(ctx, key).Err()
		return nil, false
	}
	resp.Cached = true
	metrics.RecommenderCache.WithLabelValues("hit").Inc()
	return &resp, true
}

// Purge 删除全部推荐缓存
func Purge(ctx context.Context, rdb *redis.Client) (int, error) {
	var removed int
	iter := rdb.Scan(ctx, 0, cacheKeyPrefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, iter.Err()
}
