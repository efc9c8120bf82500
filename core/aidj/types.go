// Package aidj builds AI DJ sessions: a personalised, ordered queue of
// published catalog tracks, produced by the external recommender when it
// can and by popularity-based fallbacks when it cannot.
package aidj

import (
	"context"
	"errors"

	"SipSound/model"
)

// Source 标识会话由哪一层策略产生
type Source string

const (
	SourceMLService    Source = "ml-service"
	SourcePopular      Source = "db-popular"
	SourcePersonalized Source = "db-personalized"
)

const (
	signalWindow         = 20 // 最近收藏/播放各取多少条
	recommendHistorySize = 20
	topPreferences       = 5
	minFallbackPool      = 100
)

// ErrSessionBuild is the only error BuildSession returns; the cause is wrapped
// for logging and must not be shown to callers.
var ErrSessionBuild = errors.New("failed to build AI DJ session")

// Request 一次会话请求。UserID 为空表示匿名听众
type Request struct {
	UserID    string
	Limit     int
	RequestID string
}

// SessionResult is constructed once per request and never mutated.
type SessionResult struct {
	Tracks  []*model.Track `json:"tracks"`
	Source  Source         `json:"source"`
	Matched *int           `json:"matched,omitempty"` // 只在 ml-service 时出现
}

// MatchedCount returns 0 for fallback results.
func (r *SessionResult) MatchedCount() int {
	if r == nil || r.Matched == nil {
		return 0
	}
	return *r.Matched
}

func newResult(tracks []*model.Track, source Source) *SessionResult {
	if tracks == nil {
		tracks = []*model.Track{}
	}
	res := &SessionResult{Tracks: tracks, Source: source}
	if source == SourceMLService {
		matched := len(tracks)
		res.Matched = &matched
	}
	return res
}

// EngagementStore 用户行为数据，按时间倒序返回
type EngagementStore interface {
	RecentLikes(ctx context.Context, userID string, limit int) ([]*model.LikedTrack, error)
	RecentPlays(ctx context.Context, userID string, limit int) ([]*model.PlayHistory, error)
}

// CatalogStore 曲库只读接口
type CatalogStore interface {
	// FindPublishedTrack returns nil, nil when no published track has this id.
	FindPublishedTrack(ctx context.Context, id string) (*model.Track, error)
	ListPopularTracks(ctx context.Context, limit int) ([]*model.Track, error)
}
