package aidj

import (
	"math/rand"
	"sync"

	"SipSound/model"
)

// ShuffleFunc has the signature of rand.Shuffle so a seeded source can be
// injected in tests.
type ShuffleFunc func(n int, swap func(i, j int))

// NewRandShuffle returns a uniform Fisher-Yates shuffle backed by a seeded
// source. It is safe for concurrent use.
func NewRandShuffle(seed int64) ShuffleFunc {
	r := rand.New(rand.NewSource(seed))
	var mu sync.Mutex
	return func(n int, swap func(i, j int)) {
		mu.Lock()
		defer mu.Unlock()
		r.Shuffle(n, swap)
	}
}

// shuffled 返回打乱后的副本，原切片不变
func shuffled(pool []*model.Track, shuffle ShuffleFunc) []*model.Track {
	out := make([]*model.Track, len(pool))
	copy(out, pool)
	shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
