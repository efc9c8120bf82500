package aidj

import (
	"context"
	"fmt"
	"sort"
	"time"

	"SipSound/core/recommender"
	"SipSound/model"

	"golang.org/x/sync/errgroup"
)

// Profile 单次请求内的听众偏好，不做持久化也不缓存
type Profile struct {
	History  []string             // 收藏在前、播放在后，可重复
	PlayedAt map[string]time.Time // 每首歌一个时间，播放时间优先于收藏的近似时间
	Genres   []string
	Artists  []string
}

func emptyProfile() *Profile {
	return &Profile{
		History:  []string{},
		PlayedAt: map[string]time.Time{},
		Genres:   []string{},
		Artists:  []string{},
	}
}

// HasSignal reports whether any genre or artist preference was found.
func (p *Profile) HasSignal() bool {
	return len(p.Genres) > 0 || len(p.Artists) > 0
}

// RecommendRequest 构造推荐服务请求。匿名用户得到全空数组
func (p *Profile) RecommendRequest(limit int) *recommender.Request {
	history := p.History
	if len(history) > recommendHistorySize {
		history = history[:recommendHistorySize]
	}

	dated := make([]recommender.HistoryEntry, 0, len(history))
	seen := make(map[string]struct{}, len(history))
	for _, id := range history {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if at, ok := p.PlayedAt[id]; ok {
			dated = append(dated, recommender.NewHistoryEntry(id, at))
		}
	}

	return &recommender.Request{
		History:          append([]string{}, history...),
		HistoryWithDates: dated,
		Genres:           append([]string{}, p.Genres...),
		Artists:          append([]string{}, p.Artists...),
		Limit:            limit,
	}
}

// extractProfile reads likes and plays concurrently. Store errors are fatal
// for the request.
func (e *Engine) extractProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return emptyProfile(), nil
	}

	var (
		likes []*model.LikedTrack
		plays []*model.PlayHistory
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(guarded(func() error {
		var err error
		likes, err = e.engagement.RecentLikes(gctx, userID, signalWindow)
		if err != nil {
			return fmt.Errorf("load liked tracks: %w", err)
		}
		return nil
	}))
	g.Go(guarded(func() error {
		var err error
		plays, err = e.engagement.RecentPlays(gctx, userID, signalWindow)
		if err != nil {
			return fmt.Errorf("load play history: %w", err)
		}
		return nil
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildProfile(likes, plays, e.now()), nil
}

// guarded turns a panic inside an errgroup goroutine into an error so the
// session boundary can report it.
func guarded(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}
}

// buildProfile derives the profile from engagement records. Likes carry no
// timestamp and get requestTime; the newest play of a track replaces it.
func buildProfile(likes []*model.LikedTrack, plays []*model.PlayHistory, requestTime time.Time) *Profile {
	p := emptyProfile()
	explicit := make(map[string]bool)
	tracks := make([]*model.Track, 0, len(likes)+len(plays))

	for _, l := range likes {
		if l == nil || l.TrackID == "" {
			continue
		}
		p.History = append(p.History, l.TrackID)
		if _, ok := p.PlayedAt[l.TrackID]; !ok {
			p.PlayedAt[l.TrackID] = requestTime
		}
		tracks = append(tracks, l.Track)
	}

	for _, h := range plays {
		if h == nil || h.TrackID == "" {
			continue
		}
		p.History = append(p.History, h.TrackID)
		// 播放记录按时间倒序，第一次出现的就是最近一次
		if !explicit[h.TrackID] {
			p.PlayedAt[h.TrackID] = h.PlayedAt
			explicit[h.TrackID] = true
		}
		tracks = append(tracks, h.Track)
	}

	p.Genres = topNames(tracks, (*model.Track).GenreName, topPreferences)
	p.Artists = topNames(tracks, (*model.Track).ArtistName, topPreferences)
	return p
}

// topNames ranks names by frequency, ties broken by first appearance.
func topNames(tracks []*model.Track, name func(*model.Track) string, n int) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, t := range tracks {
		v := name(t)
		if v == "" {
			continue
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > n {
		order = order[:n]
	}
	return order
}
