package repository

import (
	"context"

	"gorm.io/gorm"

	model "waste-collector.com/waste-collector/internal/models"
)

type RewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

func (r *RewardRepository) ListByUser(ctx context.Context, userID int64) ([]model.Reward, error) {
	var rewards []model.Reward
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rewards).Error
	return rewards, err
}

func (r *RewardRepository) CountByTask(ctx context.Context, taskID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Reward{}).Where("task_id = ?", taskID).Count(&count).Error
	return count, err
}

func (r *RewardRepository) Points(ctx context.Context) ([]int, error) {
	var points []int
	err := r.db.WithContext(ctx).Model(&model.Reward{}).Pluck("points", &points).Error
	return points, err
}
