package repository

import (
	"context"
	"errors"

	"SipSound/model"

	"gorm.io/gorm"
)

// TrackRepository 曲库只读查询，供推荐会话使用
type TrackRepository interface {
	// FindPublishedTrack 根据ID获取已发布的歌曲，不存在时返回 nil, nil
	FindPublishedTrack(ctx context.Context, id string) (*model.Track, error)

	// ListPopularTracks 按播放量倒序列出已发布歌曲
	ListPopularTracks(ctx context.Context, limit int) ([]*model.Track, error)
}

// gormTrackRepository GORM 实现
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository 创建 GORM 曲库仓库
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// withProjections 预加载响应需要的艺人/专辑/流派字段
func withProjections(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Artist", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "image_url", "verified")
		}).
		Preload("Album", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "year", "cover_url")
		}).
		Preload("Genre", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "color")
		})
}

// FindPublishedTrack 根据ID获取已发布的歌曲
func (r *gormTrackRepository) FindPublishedTrack(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := withProjections(r.db.WithContext(ctx)).
		Where("id = ? AND is_published = ?", id, true).
		First(&track).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// ListPopularTracks 按播放量倒序列出已发布歌曲
func (r *gormTrackRepository) ListPopularTracks(ctx context.Context, limit int) ([]*model.Track, error) {
	var tracks []*model.Track
	if limit <= 0 {
		return tracks, nil
	}
	err := withProjections(r.db.WithContext(ctx)).
		Where("is_published = ?", true).
		Order("plays_count DESC").
		Limit(limit).
		Find(&tracks).Error
	if err != nil {
		return nil, err
	}
	return tracks, nil
}
