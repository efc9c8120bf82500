package model

import "time"

// LikedTrack 用户收藏的歌曲。记录本身没有收藏时间，自增ID代表先后顺序
type LikedTrack struct {
	ID      int64  `gorm:"primaryKey;autoIncrement"`
	UserID  string `gorm:"size:36;not null;uniqueIndex:idx_liked_user_track"`
	TrackID string `gorm:"size:36;not null;uniqueIndex:idx_liked_user_track"`
	Track   *Track `gorm:"foreignKey:TrackID"`
}

func (LikedTrack) TableName() string {
	return "liked_tracks"
}

// PlayHistory 一次播放记录
type PlayHistory struct {
	ID       int64     `gorm:"primaryKey;autoIncrement"`
	UserID   string    `gorm:"size:36;not null;index:idx_history_user_played,priority:1"`
	TrackID  string    `gorm:"size:36;not null;index"`
	PlayedAt time.Time `gorm:"not null;index:idx_history_user_played,priority:2"`
	Track    *Track    `gorm:"foreignKey:TrackID"`
}

func (PlayHistory) TableName() string {
	return "play_history"
}

// CatalogModels 列出迁移需要的全部模型
func CatalogModels() []interface{} {
	return []interface{}{&Artist{}, &Album{}, &Genre{}, &Track{}, &LikedTrack{}, &PlayHistory{}}
}
