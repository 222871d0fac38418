package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	config "waste-collector.com/waste-collector/internal/configs"
	"waste-collector.com/waste-collector/internal/queue"
	repository "waste-collector.com/waste-collector/internal/repositories"
	"waste-collector.com/waste-collector/internal/rewards"
	"waste-collector.com/waste-collector/internal/services"
	"waste-collector.com/waste-collector/internal/verification"
)

// app holds the wired services and everything that must be closed on exit.
type app struct {
	db            *gorm.DB
	tasks         *repository.TaskRepository
	taskService   *services.TaskService
	verifyService *services.VerificationService
	rewardService *services.RewardService
	closers       []func() error
}

func openStore(cfg config.Config) (*app, error) {
	db, err := config.OpenDatabase(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	a := &app{
		db:      db,
		tasks:   repository.NewTaskRepository(db),
		closers: []func() error{sqlDB.Close},
	}
	a.taskService = services.NewTaskService(a.tasks, repository.NewUserRepository(db), cfg.TaskListLimit)
	a.rewardService = services.NewRewardService(repository.NewRewardRepository(db), a.tasks)

	return a, nil
}

func buildApp(ctx context.Context, cfg config.Config) (*app, error) {
	a, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	tokens, err := newTokenManager(ctx, cfg, a)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	vision, err := newVisionClient(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.closers = append(a.closers, vision.Close)

	a.verifyService = services.NewVerificationService(
		a.tasks,
		vision,
		tokens,
		rewards.Policy{
			BasePoints:    cfg.RewardBasePoints,
			PointsPerUnit: cfg.RewardPointsPerUnit,
		},
		services.RetryPolicy{
			MaxAttempts:   cfg.VerifyMaxAttempts,
			BaseDelay:     cfg.VerifyBackoff(),
			MinConfidence: cfg.VerifyMinConfidence,
		},
	)

	return a, nil
}

func newTokenManager(ctx context.Context, cfg config.Config, a *app) (queue.TokenManager, error) {
	if cfg.SlotBackend == config.SlotBackendMemory {
		return queue.NewMemoryTokenManager(cfg.VerifySlots), nil
	}

	redisClient, err := config.NewRedisClient(cfg.RedisAddr())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		redisClient.Close()
		return nil
	})

	tokens := queue.NewRedisTokenManager(redisClient, cfg.VerifySlotKey, cfg.VerifySlots)
	if err := tokens.InitializeTokens(ctx, cfg.VerifySlots); err != nil {
		return nil, fmt.Errorf("failed to initialize verification slots: %w", err)
	}
	log.Printf("verification slots: %d in redis key %s", cfg.VerifySlots, cfg.VerifySlotKey)

	return tokens, nil
}

func newVisionClient(ctx context.Context, cfg config.Config) (verification.Client, error) {
	return verification.New(ctx, verification.Config{
		Provider:  cfg.VisionProvider,
		Model:     cfg.VisionModel,
		APIKey:    cfg.VisionAPIKey,
		MaxTokens: cfg.VisionMaxTokens,
	})
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
