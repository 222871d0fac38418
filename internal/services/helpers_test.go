package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	model "waste-collector.com/waste-collector/internal/models"
	"waste-collector.com/waste-collector/internal/queue"
	repository "waste-collector.com/waste-collector/internal/repositories"
	"waste-collector.com/waste-collector/internal/rewards"
	"waste-collector.com/waste-collector/internal/verification"
)

type fakeResponse struct {
	text string
	err  error
}

// fakeVision replays canned answers in order; the last one repeats.
type fakeVision struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	onCall    func(n int)
}

func (f *fakeVision) Verify(ctx context.Context, claim verification.Claim, image []byte) (string, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	idx := n - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	resp := f.responses[idx]
	hook := f.onCall
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return resp.text, resp.err
}

func (f *fakeVision) Ping(ctx context.Context) (string, error) {
	return "ready", nil
}

func (f *fakeVision) Close() error {
	return nil
}

func (f *fakeVision) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const (
	acceptVerdict = "```json\n{\"wasteTypeMatch\": true, \"quantityMatch\": true, \"confidence\": 0.92}\n```"
	rejectVerdict = `{"wasteTypeMatch": false, "quantityMatch": true, "confidence": 0.95}`
)

type fixture struct {
	db      *gorm.DB
	tasks   *repository.TaskRepository
	rewards *repository.RewardRepository
	taskSvc *TaskService
	verify  *VerificationService
	vision  *fakeVision
	tokens  *queue.MemoryTokenManager
	sleeps  []time.Duration
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

func newFixture(t *testing.T, responses ...fakeResponse) *fixture {
	db := setupTestDB(t)
	f := &fixture{
		db:      db,
		tasks:   repository.NewTaskRepository(db),
		rewards: repository.NewRewardRepository(db),
		vision:  &fakeVision{responses: responses},
		tokens:  queue.NewMemoryTokenManager(2),
	}

	f.taskSvc = NewTaskService(f.tasks, repository.NewUserRepository(db), 0)
	f.verify = NewVerificationService(
		f.tasks,
		f.vision,
		f.tokens,
		rewards.Policy{BasePoints: 10, PointsPerUnit: 1},
		RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MinConfidence: 0.7},
	)
	f.verify.sleep = func(ctx context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return ctx.Err()
	}

	return f
}

func (f *fixture) pendingTask(t *testing.T, location string) *model.Task {
	task, err := f.tasks.CreateTask(context.Background(), location, "plastic", "5 kg", time.Now())
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (f *fixture) claimedTask(t *testing.T, user *model.User) *model.Task {
	task := f.pendingTask(t, "Riverside")
	if _, err := f.taskSvc.Claim(context.Background(), task.ID, user); err != nil {
		t.Fatalf("claim task: %v", err)
	}
	return task
}

func (f *fixture) rewardCount(t *testing.T, taskID int64) int64 {
	count, err := f.rewards.CountByTask(context.Background(), taskID)
	if err != nil {
		t.Fatalf("count rewards: %v", err)
	}
	return count
}

func (f *fixture) reload(t *testing.T, taskID int64) *model.Task {
	task, err := f.tasks.FindByID(context.Background(), taskID)
	if err != nil {
		t.Fatalf("find task: %v", err)
	}
	return task
}
