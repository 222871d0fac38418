package services

import (
	"context"
	"fmt"

	apperrors "waste-collector.com/waste-collector/internal/errors"
	model "waste-collector.com/waste-collector/internal/models"
	repository "waste-collector.com/waste-collector/internal/repositories"
	"waste-collector.com/waste-collector/internal/rewards"
)

type RewardService struct {
	rewards *repository.RewardRepository
	tasks   *repository.TaskRepository
}

type Balance struct {
	UserID  int64          `json:"user_id"`
	Total   int            `json:"total"`
	Rewards []model.Reward `json:"rewards"`
}

func NewRewardService(rewards *repository.RewardRepository, tasks *repository.TaskRepository) *RewardService {
	return &RewardService{rewards: rewards, tasks: tasks}
}

func (s *RewardService) Balance(ctx context.Context, user *model.User) (*Balance, error) {
	if user == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	records, err := s.rewards.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}

	balance := &Balance{UserID: user.ID, Rewards: records}
	for _, r := range records {
		balance.Total += r.Points
	}
	return balance, nil
}

func (s *RewardService) Impact(ctx context.Context) (rewards.Impact, error) {
	amounts, err := s.tasks.Amounts(ctx)
	if err != nil {
		return rewards.Impact{}, fmt.Errorf("load task amounts: %w", err)
	}

	points, err := s.rewards.Points(ctx)
	if err != nil {
		return rewards.Impact{}, fmt.Errorf("load reward points: %w", err)
	}

	return rewards.Summarize(amounts, points), nil
}
