package model

import (
	"time"

	"waste-collector.com/waste-collector/internal/constants"
)

type Task struct {
	ID          int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	Location    string               `gorm:"not null" json:"location"`
	WasteType   string               `gorm:"not null" json:"waste_type"`
	Amount      string               `gorm:"not null" json:"amount"`
	Status      constants.TaskStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Date        time.Time            `gorm:"not null" json:"date"`
	CollectorID *int64               `gorm:"index" json:"collector_id"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// ClaimedBy reports whether userID holds the task.
func (t *Task) ClaimedBy(userID int64) bool {
	return t.CollectorID != nil && *t.CollectorID == userID
}
