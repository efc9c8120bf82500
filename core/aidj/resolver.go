package aidj

import (
	"context"
	"fmt"

	"SipSound/core/recommender"
	"SipSound/logger"
	"SipSound/metrics"
	"SipSound/model"
)

// resolve maps candidates to published tracks in candidate order. It stops
// once limit tracks are found or 2*limit candidates were examined.
func (e *Engine) resolve(ctx context.Context, candidates []recommender.Candidate, limit int) ([]*model.Track, error) {
	budget := 2 * limit
	tracks := make([]*model.Track, 0, limit)
	seen := make(map[string]struct{}, limit)

	for i, c := range candidates {
		if i >= budget || len(tracks) >= limit {
			break
		}
		if c.ID == "" {
			metrics.ResolverLookups.WithLabelValues("skipped").Inc()
			continue
		}
		if _, dup := seen[c.ID]; dup {
			metrics.ResolverLookups.WithLabelValues("skipped").Inc()
			continue
		}

		track, err := e.catalog.FindPublishedTrack(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("resolve candidate %s: %w", c.ID, err)
		}
		if track == nil {
			metrics.ResolverLookups.WithLabelValues("miss").Inc()
			logger.Debug("Recommended track not in published catalog",
				logger.String("track_id", c.ID),
				logger.String("title", c.Title))
			continue
		}

		metrics.ResolverLookups.WithLabelValues("hit").Inc()
		seen[track.ID] = struct{}{}
		tracks = append(tracks, track)
	}
	return tracks, nil
}
