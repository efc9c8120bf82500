package aidj

import (
	"context"
	"fmt"
	"sync"

	"SipSound/core/recommender"
	"SipSound/model"
)

// noShuffle keeps catalog order so fallback results are predictable.
func noShuffle(int, func(i, j int)) {}

func newTrack(id, genre, artist string) *model.Track {
	t := &model.Track{ID: id, Title: "Track " + id, IsPublished: true}
	if genre != "" {
		t.Genre = &model.Genre{ID: "g-" + genre, Name: genre}
	}
	if artist != "" {
		t.Artist = &model.Artist{ID: "a-" + artist, Name: artist}
	}
	return t
}

func trackIDs(tracks []*model.Track) []string {
	ids := make([]string, 0, len(tracks))
	for _, t := range tracks {
		ids = append(ids, t.ID)
	}
	return ids
}

func candidates(ids ...string) []recommender.Candidate {
	out := make([]recommender.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, recommender.Candidate{ID: id})
	}
	return out
}

type stubEngagement struct {
	likes    []*model.LikedTrack
	plays    []*model.PlayHistory
	likesErr error
	playsErr error
	panicMsg string

	mu    sync.Mutex
	calls int
}

func (s *stubEngagement) RecentLikes(ctx context.Context, _ string, _ int) ([]*model.LikedTrack, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.likes, s.likesErr
}

func (s *stubEngagement) RecentPlays(ctx context.Context, _ string, _ int) ([]*model.PlayHistory, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.plays, s.playsErr
}

type stubCatalog struct {
	published map[string]*model.Track
	popular   []*model.Track
	findErr   error
	listErr   error

	lookups  []string
	poolSize int
}

func newStubCatalog(tracks ...*model.Track) *stubCatalog {
	c := &stubCatalog{published: map[string]*model.Track{}}
	for _, t := range tracks {
		c.published[t.ID] = t
	}
	return c
}

func (s *stubCatalog) FindPublishedTrack(ctx context.Context, id string) (*model.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.lookups = append(s.lookups, id)
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.published[id], nil
}

func (s *stubCatalog) ListPopularTracks(ctx context.Context, limit int) ([]*model.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.poolSize = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.popular) > limit {
		return s.popular[:limit], nil
	}
	return s.popular, nil
}

type stubRecommender struct {
	resp    *recommender.Response
	err     error
	lastReq *recommender.Request
	calls   int
}

func (s *stubRecommender) Recommend(_ context.Context, req *recommender.Request) (*recommender.Response, error) {
	s.calls++
	s.lastReq = req
	return s.resp, s.err
}

func recommending(ids ...string) *stubRecommender {
	return &stubRecommender{resp: &recommender.Response{Recommendations: candidates(ids...), Method: "ml_db_embeddings"}}
}

func catalogOf(n int, prefix, genre, artist string) []*model.Track {
	out := make([]*model.Track, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, newTrack(fmt.Sprintf("%s%02d", prefix, i), genre, artist))
	}
	return out
}
