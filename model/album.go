package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Album 表示一张专辑
type Album struct {
	ID       string  `json:"id" gorm:"primaryKey;size:36"`
	Title    string  `json:"title" gorm:"size:255;not null"`
	Year     *int    `json:"year"`
	CoverURL *string `json:"coverUrl" gorm:"size:512"` // 外链或 MinIO 对象键 covers/...
}

// TableName 指定表名
func (Album) TableName() string {
	return "albums"
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
