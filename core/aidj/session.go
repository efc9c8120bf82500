package aidj

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"SipSound/core/recommender"
	"SipSound/logger"
	"SipSound/metrics"
)

// Limits bounds the requested queue length.
type Limits struct {
	Default int
	Max     int
}

// Engine 组装 AI DJ 会话。除了随机源之外不持有可变共享状态
type Engine struct {
	engagement  EngagementStore
	catalog     CatalogStore
	recommender recommender.Recommender
	shuffle     ShuffleFunc
	now         func() time.Time
	limits      atomic.Pointer[Limits]
}

// Option 配置 Engine
type Option func(*Engine)

// WithShuffle 注入随机打乱函数，测试中用于得到确定的结果
func WithShuffle(fn ShuffleFunc) Option {
	return func(e *Engine) { e.shuffle = fn }
}

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLimits 设置默认和最大条数
func WithLimits(l Limits) Option {
	return func(e *Engine) { e.SetLimits(l) }
}

// NewEngine creates an Engine. rec may be nil, in which case every session
// goes straight to the fallback tier.
func NewEngine(engagement EngagementStore, catalog CatalogStore, rec recommender.Recommender, opts ...Option) *Engine {
	e := &Engine{
		engagement:  engagement,
		catalog:     catalog,
		recommender: rec,
		shuffle:     NewRandShuffle(time.Now().UnixNano()),
		now:         time.Now,
	}
	e.SetLimits(Limits{Default: 25, Max: 50})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetLimits 原子替换条数限制，配置热更新时调用
func (e *Engine) SetLimits(l Limits) {
	if l.Max <= 0 {
		l.Max = 50
	}
	if l.Default <= 0 || l.Default > l.Max {
		l.Default = min(25, l.Max)
	}
	e.limits.Store(&l)
}

// NormalizeLimit maps non-positive values to the default and caps at the max.
func (e *Engine) NormalizeLimit(requested int) int {
	l := e.limits.Load()
	if requested <= 0 {
		return l.Default
	}
	if requested > l.Max {
		return l.Max
	}
	return requested
}

// BuildSession extracts the listener profile, asks the recommender for
// candidates and resolves them against the catalog, falling back to the catalog when the recommender yields nothing. Every
// failure, including a panic, is reported as ErrSessionBuild and no partial
// result is returned.
//
// The caller's cancellation is not propagated: a disconnected client does
// not interrupt the build. Only the recommender call is time-boxed.
func (e *Engine) BuildSession(ctx context.Context, req Request) (result *SessionResult, err error) {
	start := time.Now()
	ctx = context.WithoutCancel(ctx)
	limit := e.NormalizeLimit(req.Limit)

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: panic: %v", ErrSessionBuild, r)
		}
		elapsed := time.Since(start)
		if err != nil {
			metrics.SessionFailures.Inc()
			logger.Error("AI DJ session failed",
				logger.String("request_id", req.RequestID),
				logger.String("user_id", req.UserID),
				logger.Int("limit", limit),
				logger.Duration("duration", elapsed),
				logger.ErrorField(err))
			return
		}
		metrics.SessionsTotal.WithLabelValues(string(result.Source)).Inc()
		metrics.SessionDuration.WithLabelValues(string(result.Source)).Observe(elapsed.Seconds())
		metrics.SessionTracks.Observe(float64(len(result.Tracks)))
		logger.Info("AI DJ session built",
			logger.String("request_id", req.RequestID),
			logger.String("user_id", req.UserID),
			logger.String("source", string(result.Source)),
			logger.Int("tracks", len(result.Tracks)),
			logger.Int("matched", result.MatchedCount()),
			logger.Int("limit", limit),
			logger.Duration("duration", elapsed))
	}()

	result, err = e.build(ctx, req, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionBuild, err)
	}
	return result, nil
}

func (e *Engine) build(ctx context.Context, req Request, limit int) (*SessionResult, error) {
	profile, err := e.extractProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	candidates := e.callRecommender(ctx, req, profile, limit)
	if len(candidates) > 0 {
		tracks, err := e.resolve(ctx, candidates, limit)
		if err != nil {
			return nil, err
		}
		if len(tracks) > 0 {
			return newResult(tracks, SourceMLService), nil
		}
		logger.Info("No recommended tracks resolved against catalog, using fallback",
			logger.String("request_id", req.RequestID),
			logger.Int("candidates", len(candidates)))
	}

	return e.fallback(ctx, req.UserID, profile, limit)
}

// callRecommender never fails: every error becomes an empty candidate list.
// The outcome label only feeds logs and metrics.
func (e *Engine) callRecommender(ctx context.Context, req Request, profile *Profile, limit int) []recommender.Candidate {
	if e.recommender == nil {
		return nil
	}

	start := time.Now()
	resp, err := e.recommender.Recommend(ctx, profile.RecommendRequest(limit))
	metrics.RecommenderDuration.Observe(time.Since(start).Seconds())

	outcome := recommender.OutcomeOf(resp, err)
	metrics.RecommenderRequests.WithLabelValues(outcome).Inc()

	rid := logger.String("request_id", req.RequestID)
	switch outcome {
	case recommender.OutcomeOK:
		logger.Info("Recommender returned candidates",
			rid,
			logger.Int("count", len(resp.Recommendations)),
			logger.String("method", resp.Method),
			logger.Bool("cached", resp.Cached))
		return resp.Recommendations
	case recommender.OutcomeEmpty:
		logger.Info("Recommender returned no candidates", rid)
	case recommender.OutcomeTimeout:
		logger.Warn("Recommender timed out", rid, logger.Duration("elapsed", time.Since(start)))
	case recommender.OutcomeAborted:
		logger.Info("Recommender call aborted", rid)
	case recommender.OutcomeCircuitOpen:
		logger.Warn("Recommender circuit open, skipping call", rid)
	case recommender.OutcomeBadStatus:
		var se *recommender.StatusError
		status := 0
		if errors.As(err, &se) {
			status = se.StatusCode
		}
		logger.Warn("Recommender returned non-success status", rid, logger.Int("status", status))
	case recommender.OutcomeMalformed:
		logger.Warn("Recommender returned malformed payload", rid, logger.ErrorField(err))
	default:
		logger.Warn("Recommender unavailable", rid, logger.String("outcome", outcome), logger.ErrorField(err))
	}
	return nil
}
