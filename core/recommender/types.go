package recommender

import (
	"context"
	"time"
)

// Recommender 外部推荐服务的调用能力
type Recommender interface {
	Recommend(ctx context.Context, req *Request) (*Response, error)
}

// Request is the body of POST /recommend.
type Request struct {
	History          []string       `json:"history"`
	HistoryWithDates []HistoryEntry `json:"historyWithDates"`
	Genres           []string       `json:"genres"`
	Artists          []string       `json:"artists"`
	Limit            int            `json:"limit"`
}

// HistoryEntry 带播放时间的历史记录
type HistoryEntry struct {
	ID       string `json:"id"`
	PlayedAt string `json:"playedAt"` // RFC3339, UTC
}

// NewHistoryEntry formats playedAt the way the recommendation service parses it.
func NewHistoryEntry(id string, playedAt time.Time) HistoryEntry {
	return HistoryEntry{ID: id, PlayedAt: playedAt.UTC().Format(time.RFC3339)}
}

// Candidate 推荐服务返回的一条候选，尚未与曲库核对
type Candidate struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	Genre  string `json:"genre,omitempty"`
}

// Response is the body returned by POST /recommend.
type Response struct {
	Recommendations []Candidate `json:"recommendations"`
	Method          string      `json:"method"`
	Count           int         `json:"count,omitempty"`
	Cached          bool        `json:"cached,omitempty"`
}

// Health is the body returned by GET /health.
type Health struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	TracksCount int    `json:"tracks_count"`
	ModelType   string `json:"model_type,omitempty"`
	CacheSize   int    `json:"cache_size"`
}
