package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Track 曲库中的一首歌曲
type Track struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Duration    int       `json:"duration"` // 秒
	CoverURL    *string   `json:"coverUrl" gorm:"size:512"`
	Explicit    bool      `json:"explicit" gorm:"default:false"`
	PlaysCount  int64     `json:"playsCount" gorm:"default:0;index"`
	IsPublished bool      `json:"-" gorm:"not null;index"`
	ArtistID    *string   `json:"-" gorm:"size:36;index"`
	AlbumID     *string   `json:"-" gorm:"size:36;index"`
	GenreID     *string   `json:"-" gorm:"size:36;index"`
	Artist      *Artist   `json:"artist" gorm:"foreignKey:ArtistID"`
	Album       *Album    `json:"album" gorm:"foreignKey:AlbumID"`
	Genre       *Genre    `json:"genre" gorm:"foreignKey:GenreID"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName 指定表名
func (Track) TableName() string {
	return "tracks"
}

// BeforeCreate 为新歌曲分配 UUID
func (t *Track) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// GenreName returns "" when the track has no genre.
func (t *Track) GenreName() string {
	if t == nil || t.Genre == nil {
		return ""
	}
	return t.Genre.Name
}

// ArtistName returns "" when the track has no artist.
func (t *Track) ArtistName() string {
	if t == nil || t.Artist == nil {
		return ""
	}
	return t.Artist.Name
}

// Artist 艺人
type Artist struct {
	ID       string  `json:"id" gorm:"primaryKey;size:36"`
	Name     string  `json:"name" gorm:"size:255;uniqueIndex;not null"`
	ImageURL *string `json:"imageUrl" gorm:"size:512"`
	Verified bool    `json:"verified" gorm:"default:false"`
}

func (Artist) TableName() string {
	return "artists"
}

func (a *Artist) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Genre 流派
type Genre struct {
	ID    string  `json:"id" gorm:"primaryKey;size:36"`
	Name  string  `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Color *string `json:"color" gorm:"size:16"`
}

func (Genre) TableName() string {
	return "genres"
}

func (g *Genre) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
