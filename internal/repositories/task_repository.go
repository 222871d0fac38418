package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"waste-collector.com/waste-collector/internal/constants"
	model "waste-collector.com/waste-collector/internal/models"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) CreateTask(ctx context.Context, location, wasteType, amount string, date time.Time) (*model.Task, error) {
	task := &model.Task{
		Location:  location,
		WasteType: wasteType,
		Amount:    amount,
		Status:    constants.StatusPending,
		Date:      date.UTC(),
	}

	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, err
	}

	return task, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns tasks newest first. A limit of zero returns every task.
func (r *TaskRepository) List(ctx context.Context, limit int) ([]model.Task, error) {
	var tasks []model.Task
	query := r.db.WithContext(ctx).Order("date desc").Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) Amounts(ctx context.Context) ([]string, error) {
	var amounts []string
	err := r.db.WithContext(ctx).Model(&model.Task{}).Pluck("amount", &amounts).Error
	return amounts, err
}

// UpdateTaskStatus moves a task from one status to another in a single
// conditional UPDATE. Leaving pending requires an unassigned task; any other
// move requires the task to already belong to collectorID. Returns
// ErrConditionFailed when no row matched.
func (r *TaskRepository) UpdateTaskStatus(
	ctx context.Context,
	taskID int64,
	from constants.TaskStatus,
	to constants.TaskStatus,
	collectorID int64,
) (*model.Task, error) {
	query := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ?", taskID, from)

	if from == constants.StatusPending {
		query = query.Where("collector_id IS NULL")
	} else {
		query = query.Where("collector_id = ?", collectorID)
	}

	res := query.Updates(map[string]interface{}{
		"status":       to,
		"collector_id": collectorID,
		"updated_at":   time.Now().UTC(),
	})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConditionFailed
	}

	return r.FindByID(ctx, taskID)
}

// Settle marks a claimed task verified and records the reward and the
// collection in one transaction. Returns ErrConditionFailed, with nothing
// written, when the task is no longer settleable by collectorID.
func (r *TaskRepository) Settle(ctx context.Context, taskID, collectorID int64, points int) (*model.Reward, error) {
	now := time.Now().UTC()
	reward := &model.Reward{
		Reference: uuid.NewString(),
		UserID:    collectorID,
		TaskID:    taskID,
		Points:    points,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Task{}).
			Where("id = ? AND collector_id = ? AND status IN ?", taskID, collectorID,
				[]constants.TaskStatus{constants.StatusInProgress, constants.StatusCompleted}).
			Updates(map[string]interface{}{
				"status":     constants.StatusVerified,
				"updated_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConditionFailed
		}

		if err := tx.Create(reward).Error; err != nil {
			return err
		}

		return tx.Create(&model.CollectedWaste{
			TaskID:         taskID,
			CollectorID:    collectorID,
			CollectionDate: now,
			Status:         constants.StatusVerified,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return reward, nil
}
