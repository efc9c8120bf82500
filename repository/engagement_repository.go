package repository

import (
	"context"

	"SipSound/model"

	"gorm.io/gorm"
)

// EngagementRepository 用户收藏和播放记录的只读查询
type EngagementRepository interface {
	// RecentLikes 最近收藏的歌曲，新的在前
	RecentLikes(ctx context.Context, userID string, limit int) ([]*model.LikedTrack, error)

	// RecentPlays 最近播放记录，按播放时间倒序
	RecentPlays(ctx context.Context, userID string, limit int) ([]*model.PlayHistory, error)
}

type gormEngagementRepository struct {
	db *gorm.DB
}

// NewGormEngagementRepository 创建 GORM 行为记录仓库
func NewGormEngagementRepository(db *gorm.DB) EngagementRepository {
	return &gormEngagementRepository{db: db}
}

// 只需要流派和艺人名用于偏好统计
func withTrackSignals(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Track").
		Preload("Track.Artist", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Preload("Track.Genre", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		})
}

func (r *gormEngagementRepository) RecentLikes(ctx context.Context, userID string, limit int) ([]*model.LikedTrack, error) {
	var likes []*model.LikedTrack
	err := withTrackSignals(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (r *gormEngagementRepository) RecentPlays(ctx context.Context, userID string, limit int) ([]*model.PlayHistory, error) {
	var plays []*model.PlayHistory
	err := withTrackSignals(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("played_at DESC").
		Limit(limit).
		Find(&plays).Error
	if err != nil {
		return nil, err
	}
	return plays, nil
}
