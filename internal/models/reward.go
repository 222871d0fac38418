package model

import "time"

type Reward struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Reference string    `gorm:"size:36;uniqueIndex;not null" json:"reference"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	TaskID    int64     `gorm:"uniqueIndex;not null" json:"task_id"`
	Points    int       `gorm:"not null" json:"points"`
	CreatedAt time.Time `json:"created_at"`
}
