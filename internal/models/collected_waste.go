package model

import (
	"time"

	"waste-collector.com/waste-collector/internal/constants"
)

type CollectedWaste struct {
	ID             int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskID         int64                `gorm:"uniqueIndex;not null" json:"task_id"`
	CollectorID    int64                `gorm:"index;not null" json:"collector_id"`
	CollectionDate time.Time            `gorm:"not null" json:"collection_date"`
	Status         constants.TaskStatus `gorm:"type:varchar(20);not null" json:"status"`
}

func AllModels() []any {
	return []any{&Task{}, &User{}, &Reward{}, &CollectedWaste{}}
}
