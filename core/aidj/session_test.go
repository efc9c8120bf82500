package aidj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SipSound/core/recommender"
	"SipSound/model"

	"github.com/stretchr/testify/require"
)

func listener(genre string, n int) *stubEngagement {
	now := time.Now()
	s := &stubEngagement{}
	for i := 0; i < n; i++ {
		t := newTrack(fmt.Sprintf("h%02d", i), genre, "Alpha")
		s.plays = append(s.plays, &model.PlayHistory{UserID: "u1", TrackID: t.ID, Track: t, PlayedAt: now})
	}
	return s
}

func TestBuildSessionUsesRecommenderFirst(t *testing.T) {
	catalog := newStubCatalog(catalogOf(30, "t", "Rock", "Alpha")...)
	catalog.popular = catalogOf(30, "p", "Rock", "Alpha")
	rec := recommending("t03", "t01", "t02", "t04", "t05")
	e := NewEngine(listener("Rock", 3), catalog, rec, WithShuffle(noShuffle))

	res, err := e.BuildSession(context.Background(), Request{UserID: "u1", Limit: 4})

	require.NoError(t, err)
	require.Equal(t, SourceMLService, res.Source)
	require.Equal(t, []string{"t03", "t01", "t02", "t04"}, trackIDs(res.Tracks))
	require.Equal(t, 4, res.MatchedCount())
	require.Zero(t, catalog.poolSize, "fallback pool must not be loaded")
	require.Equal(t, 4, rec.lastReq.Limit)
	require.Equal(t, []string{"Rock"}, rec.lastReq.Genres)
}

func TestBuildSessionPartialYieldStaysWithRecommender(t *testing.T) {
	var ids []string
	for i := 0; i < 30; i++ {
		ids = append(ids, fmt.Sprintf("c%02d", i))
	}
	// Every third candidate is published.
	var published []*model.Track
	for i := 0; i < 30; i += 3 {
		published = append(published, newTrack(ids[i], "", ""))
	}
	catalog := newStubCatalog(published...)
	e := NewEngine(listener("Rock", 2), catalog, recommending(ids...))

	res, err := e.BuildSession(context.Background(), Request{UserID: "u1", Limit: 25})

	require.NoError(t, err)
	require.Equal(t, SourceMLService, res.Source)
	require.Len(t, res.Tracks, 10)
	require.Equal(t, 10, res.MatchedCount())
}

func TestBuildSessionFallsBackOnRecommenderFailure(t *testing.T) {
	failures := map[string]error{
		"timeout":   recommender.ErrTimeout,
		"transport": fmt.Errorf("%w: connection refused", recommender.ErrTransport),
		"status":    &recommender.StatusError{StatusCode: http.StatusServiceUnavailable},
		"malformed": recommender.ErrMalformedResponse,
		"circuit":   recommender.ErrCircuitOpen,
		"unknown":   errors.New("boom"),
	}
	for name, failure := range failures {
		t.Run(name, func(t *testing.T) {
			catalog := newStubCatalog()
			catalog.popular = catalogOf(10, "p", "Rock", "Alpha")
			e := NewEngine(listener("Rock", 2), catalog, &stubRecommender{err: failure}, WithShuffle(noShuffle))

			res, err := e.BuildSession(context.Background(), Request{UserID: "u1", Limit: 5})

			require.NoError(t, err)
			require.Equal(t, SourcePersonalized, res.Source)
			require.Len(t, res.Tracks, 5)
			require.Nil(t, res.Matched)
		})
	}
}

func TestBuildSessionFallsBackOnEmptyOrUnresolved(t *testing.T) {
	for name, rec := range map[string]*stubRecommender{
		"empty":      recommending(),
		"nil":        {},
		"unresolved": recommending("gone1", "gone2"),
	} {
		t.Run(name, func(t *testing.T) {
			catalog := newStubCatalog()
			catalog.popular = catalogOf(10, "p", "", "")
			e := NewEngine(&stubEngagement{}, catalog, rec, WithShuffle(noShuffle))

			res, err := e.BuildSession(context.Background(), Request{UserID: "u1", Limit: 3})

			require.NoError(t, err)
			require.Equal(t, SourcePopular, res.Source)
			require.Equal(t, []string{"p00", "p01", "p02"}, trackIDs(res.Tracks))
		})
	}
}

func TestBuildSessionAnonymous(t *testing.T) {
	catalog := newStubCatalog(catalogOf(5, "t", "", "")...)
	catalog.popular = catalogOf(10, "p", "Rock", "Alpha")
	rec := recommending()
	store := &stubEngagement{likesErr: errors.New("must not be called")}
	e := NewEngine(store, catalog, rec, WithShuffle(noShuffle))

	res, err := e.BuildSession(context.Background(), Request{Limit: 5})

	require.NoError(t, err)
	require.Equal(t, SourcePopular, res.Source)
	require.Len(t, res.Tracks, 5)
	require.Zero(t, store.calls)

	body, err := json.Marshal(rec.lastReq)
	require.NoError(t, err)
	require.JSONEq(t, `{"history":[],"historyWithDates":[],"genres":[],"artists":[],"limit":5}`, string(body))
}

func TestBuildSessionAnonymousWithRecommendations(t *testing.T) {
	catalog := newStubCatalog(catalogOf(5, "t", "", "")...)
	e := NewEngine(&stubEngagement{}, catalog, recommending("t00", "t01"))

	res, err := e.BuildSession(context.Background(), Request{Limit: 5})
	require.NoError(t, err)
	require.Equal(t, SourceMLService, res.Source)
	require.Equal(t, 2, res.MatchedCount())
}

func TestBuildSessionStoreFailures(t *testing.T) {
	cases := map[string]func() *Engine{
		"engagement": func() *Engine {
			return NewEngine(&stubEngagement{likesErr: errors.New("db down")}, newStubCatalog(), recommending())
		},
		"pool": func() *Engine {
			c := newStubCatalog()
			c.listErr = errors.New("db down")
			return NewEngine(&stubEngagement{}, c, recommending())
		},
		"resolve": func() *Engine {
			c := newStubCatalog()
			c.findErr = errors.New("db down")
			return NewEngine(&stubEngagement{}, c, recommending("a"))
		},
		"panic": func() *Engine {
			return NewEngine(&stubEngagement{panicMsg: "nil map"}, newStubCatalog(), recommending())
		},
	}
	for name, mk := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := mk().BuildSession(context.Background(), Request{UserID: "u1", Limit: 5})
			require.Nil(t, res)
			require.ErrorIs(t, err, ErrSessionBuild)
		})
	}
}

func TestBuildSessionIgnoresCallerCancellation(t *testing.T) {
	catalog := newStubCatalog()
	catalog.popular = catalogOf(5, "p", "", "")
	e := NewEngine(&stubEngagement{}, catalog, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := e.BuildSession(ctx, Request{UserID: "u1", Limit: 5})
	require.NoError(t, err)
	require.Len(t, res.Tracks, 5)
}

func TestBuildSessionWithoutRecommender(t *testing.T) {
	catalog := newStubCatalog()
	catalog.popular = catalogOf(3, "p", "", "")
	e := NewEngine(&stubEngagement{}, catalog, nil)

	res, err := e.BuildSession(context.Background(), Request{UserID: "u1"})
	require.NoError(t, err)
	require.Equal(t, SourcePopular, res.Source)
	require.Len(t, res.Tracks, 3)
	require.Equal(t, 100, catalog.poolSize)
}

func TestBuildSessionRecommenderTimeoutGenreScenario(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client := recommender.NewClient(recommender.Settings{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client())

	now := time.Now()
	store := &stubEngagement{}
	for i, g := range []string{"Rock", "Jazz", "Metal"} {
		tr := newTrack(fmt.Sprintf("h%d", i), g, "")
		store.plays = append(store.plays, &model.PlayHistory{TrackID: tr.ID, Track: tr, PlayedAt: now})
	}
	catalog := newStubCatalog()
	catalog.popular = append(catalogOf(2, "rock", "Rock", ""), catalogOf(2, "jazz", "Jazz", "")...)
	catalog.popular = append(catalog.popular, catalogOf(6, "pop", "Pop", "")...)
	e := NewEngine(store, catalog, client)

	res, err := e.BuildSession(context.Background(), Request{UserID: "u1", Limit: 6})

	require.NoError(t, err)
	require.Equal(t, SourcePersonalized, res.Source)
	require.Len(t, res.Tracks, 6)
	for _, tr := range res.Tracks[:4] {
		require.Contains(t, []string{"Rock", "Jazz"}, tr.GenreName())
	}
	for _, tr := range res.Tracks[4:] {
		require.Equal(t, "Pop", tr.GenreName())
	}
}

func TestNormalizeLimit(t *testing.T) {
	e := NewEngine(&stubEngagement{}, newStubCatalog(), nil)

	require.Equal(t, 25, e.NormalizeLimit(0))
	require.Equal(t, 25, e.NormalizeLimit(-3))
	require.Equal(t, 1, e.NormalizeLimit(1))
	require.Equal(t, 50, e.NormalizeLimit(50))
	require.Equal(t, 50, e.NormalizeLimit(51))
}

func TestSetLimits(t *testing.T) {
	e := NewEngine(&stubEngagement{}, newStubCatalog(), nil, WithLimits(Limits{Default: 10, Max: 20}))
	require.Equal(t, 10, e.NormalizeLimit(0))
	require.Equal(t, 20, e.NormalizeLimit(100))

	e.SetLimits(Limits{Default: 40, Max: 30})
	require.Equal(t, 25, e.NormalizeLimit(0))
	require.Equal(t, 30, e.NormalizeLimit(31))

	e.SetLimits(Limits{})
	require.Equal(t, 25, e.NormalizeLimit(0))
	require.Equal(t, 50, e.NormalizeLimit(99))
}
