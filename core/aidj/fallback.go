package aidj

import (
	"context"
	"fmt"

	"SipSound/model"
)

// fallbackPoolSize 候选池大小 max(4*limit, 100)
func fallbackPoolSize(limit int) int {
	if n := 4 * limit; n > minFallbackPool {
		return n
	}
	return minFallbackPool
}

// fallback ranks the popularity pool when the recommender produced nothing
// usable. Anonymous listeners and listeners without genre/artist signal get
// a random sample of popular tracks; everyone else gets three weighted passes.
func (e *Engine) fallback(ctx context.Context, userID string, profile *Profile, limit int) (*SessionResult, error) {
	pool, err := e.catalog.ListPopularTracks(ctx, fallbackPoolSize(limit))
	if err != nil {
		return nil, fmt.Errorf("load popular tracks: %w", err)
	}

	if userID == "" || !profile.HasSignal() {
		p := newPicker(limit)
		p.pass(shuffled(pool, e.shuffle), func(*model.Track) bool { return true })
		return newResult(p.tracks, SourcePopular), nil
	}

	genres := toSet(profile.Genres)
	artists := toSet(profile.Artists)

	p := newPicker(limit)
	// 每一轮独立打乱，同等条件的歌曲随机排序
	p.pass(shuffled(pool, e.shuffle), func(t *model.Track) bool {
		return inSet(genres, t.GenreName())
	})
	p.pass(shuffled(pool, e.shuffle), func(t *model.Track) bool {
		return inSet(artists, t.ArtistName())
	})
	p.pass(shuffled(pool, e.shuffle), func(*model.Track) bool { return true })

	return newResult(p.tracks, SourcePersonalized), nil
}

// picker collects up to limit distinct tracks across passes.
type picker struct {
	limit  int
	seen   map[string]struct{}
	tracks []*model.Track
}

func newPicker(limit int) *picker {
	return &picker{
		limit:  limit,
		seen:   make(map[string]struct{}, limit),
		tracks: make([]*model.Track, 0, limit),
	}
}

func (p *picker) pass(candidates []*model.Track, keep func(*model.Track) bool) {
	for _, t := range candidates {
		if len(p.tracks) >= p.limit {
			return
		}
		if t == nil {
			continue
		}
		if _, dup := p.seen[t.ID]; dup {
			continue
		}
		if keep(t) {
			p.seen[t.ID] = struct{}{}
			p.tracks = append(p.tracks, t)
		}
	}
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func inSet(set map[string]struct{}, name string) bool {
	if name == "" {
		return false
	}
	_, ok := set[name]
	return ok
}
