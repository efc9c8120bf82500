package aidj

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"SipSound/core/recommender"
	"SipSound/model"

	"github.com/stretchr/testify/require"
)

func like(t *model.Track) *model.LikedTrack {
	return &model.LikedTrack{UserID: "u1", TrackID: t.ID, Track: t}
}

func play(t *model.Track, at time.Time) *model.PlayHistory {
	return &model.PlayHistory{UserID: "u1", TrackID: t.ID, Track: t, PlayedAt: at}
}

func TestBuildProfileOrderAndTimestamps(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	a := newTrack("a", "Rock", "Alpha")
	b := newTrack("b", "Jazz", "Beta")
	c := newTrack("c", "Rock", "Gamma")

	p := buildProfile(
		[]*model.LikedTrack{like(a), like(b)},
		[]*model.PlayHistory{
			play(b, now.Add(-time.Hour)),
			play(c, now.Add(-2*time.Hour)),
			play(b, now.Add(-3*time.Hour)),
		},
		now,
	)

	require.Equal(t, []string{"a", "b", "b", "c", "b"}, p.History)
	require.Equal(t, now, p.PlayedAt["a"], "liked-only tracks use request time")
	require.Equal(t, now.Add(-time.Hour), p.PlayedAt["b"], "newest play beats approximated like time")
	require.Equal(t, now.Add(-2*time.Hour), p.PlayedAt["c"])
}

func TestBuildProfileRanksGenresAndArtists(t *testing.T) {
	now := time.Now()
	rockA := newTrack("1", "Rock", "Alpha")
	jazzB := newTrack("2", "Jazz", "Beta")
	popC := newTrack("3", "Pop", "Gamma")
	rockB := newTrack("4", "Rock", "Beta")
	bare := newTrack("5", "", "")

	p := buildProfile(
		[]*model.LikedTrack{like(jazzB), like(popC), like(bare)},
		[]*model.PlayHistory{play(rockA, now), play(rockB, now), play(jazzB, now)},
		now,
	)

	// Rock 2, Jazz 2, Pop 1; Jazz was seen before Rock.
	require.Equal(t, []string{"Jazz", "Rock", "Pop"}, p.Genres)
	require.Equal(t, []string{"Beta", "Gamma", "Alpha"}, p.Artists)
	require.True(t, p.HasSignal())
}

func TestTopNamesKeepsFive(t *testing.T) {
	var tracks []*model.Track
	for i := 0; i < 7; i++ {
		tracks = append(tracks, newTrack(fmt.Sprint(i), fmt.Sprintf("G%d", i), ""))
	}
	tracks = append(tracks, newTrack("x", "G6", ""))

	got := topNames(tracks, (*model.Track).GenreName, 5)
	require.Equal(t, []string{"G6", "G0", "G1", "G2", "G3"}, got)
}

func TestBuildProfileSkipsRecordsWithoutTrack(t *testing.T) {
	p := buildProfile(
		[]*model.LikedTrack{{TrackID: "orphan"}, nil, {TrackID: ""}},
		nil,
		time.Now(),
	)
	require.Equal(t, []string{"orphan"}, p.History)
	require.False(t, p.HasSignal())
}

func TestRecommendRequestShape(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := emptyProfile()
	for i := 0; i < 30; i++ {
		id := fmt.Sprintf("t%02d", i%25)
		p.History = append(p.History, id)
		p.PlayedAt[id] = now
	}
	p.Genres = []string{"Rock"}

	req := p.RecommendRequest(12)

	require.Len(t, req.History, 20)
	require.Len(t, req.HistoryWithDates, 20)
	require.Equal(t, "t00", req.HistoryWithDates[0].ID)
	require.Equal(t, "2026-01-01T00:00:00Z", req.HistoryWithDates[0].PlayedAt)
	require.Equal(t, []string{"Rock"}, req.Genres)
	require.NotNil(t, req.Artists)
	require.Empty(t, req.Artists)
	require.Equal(t, 12, req.Limit)
}

func TestRecommendRequestDedupesDatedHistory(t *testing.T) {
	p := emptyProfile()
	p.History = []string{"a", "b", "a"}
	p.PlayedAt["a"] = time.Now()
	p.PlayedAt["b"] = time.Now()

	req := p.RecommendRequest(5)
	require.Equal(t, []string{"a", "b", "a"}, req.History)
	require.Len(t, req.HistoryWithDates, 2)
}

func TestExtractProfileAnonymousSkipsStore(t *testing.T) {
	store := &stubEngagement{likesErr: errors.New("must not be called")}
	e := NewEngine(store, newStubCatalog(), nil)

	p, err := e.extractProfile(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, p.History)
	require.False(t, p.HasSignal())
	require.Zero(t, store.calls)
}

func TestExtractProfileStoreFailureIsFatal(t *testing.T) {
	store := &stubEngagement{playsErr: errors.New("connection refused")}
	e := NewEngine(store, newStubCatalog(), nil)

	p, err := e.extractProfile(context.Background(), "u1")
	require.Nil(t, p)
	require.ErrorContains(t, err, "load play history")
}

func TestExtractProfileReadsBothSources(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	a := newTrack("a", "Rock", "Alpha")
	b := newTrack("b", "Rock", "Beta")
	store := &stubEngagement{
		likes: []*model.LikedTrack{like(a)},
		plays: []*model.PlayHistory{play(b, now.Add(-time.Minute))},
	}
	e := NewEngine(store, newStubCatalog(), nil, WithClock(func() time.Time { return now }))

	p, err := e.extractProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
	require.Equal(t, []string{"a", "b"}, p.History)
	require.Equal(t, now, p.PlayedAt["a"])
	require.Equal(t, []string{"Rock"}, p.Genres)
	require.Equal(t, []string{"Alpha", "Beta"}, p.Artists)
}

func TestRecommendCacheKeyStableAcrossRequestTimes(t *testing.T) {
	t0 := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	likes := []*model.LikedTrack{like(newTrack("a", "Rock", "Alpha")), like(newTrack("b", "Jazz", "Beta"))}

	first, err := recommender.CacheKey(buildProfile(likes, nil, t0).RecommendRequest(25))
	require.NoError(t, err)
	second, err := recommender.CacheKey(buildProfile(likes, nil, t0.Add(time.Second)).RecommendRequest(25))
	require.NoError(t, err)

	require.Equal(t, first, second)
}
