package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"waste-collector.com/waste-collector/internal/constants"
	apperrors "waste-collector.com/waste-collector/internal/errors"
	"waste-collector.com/waste-collector/internal/identity"
	model "waste-collector.com/waste-collector/internal/models"
	repository "waste-collector.com/waste-collector/internal/repositories"
)

const DefaultPageSize = 5

type TaskService struct {
	tasks     *repository.TaskRepository
	users     *repository.UserRepository
	listLimit int
}

type TaskFilter struct {
	Query    string
	Page     int
	PageSize int
}

type TaskPage struct {
	Tasks     []model.Task `json:"tasks"`
	Page      int          `json:"page"`
	PageSize  int          `json:"page_size"`
	PageCount int          `json:"page_count"`
	Total     int          `json:"total"`
}

func NewTaskService(
	tasks *repository.TaskRepository,
	users *repository.UserRepository,
	listLimit int,
) *TaskService {
	return &TaskService{
		tasks:     tasks,
		users:     users,
		listLimit: listLimit,
	}
}

// ResolveUser maps the signed-in identity to its user record.
func (s *TaskService) ResolveUser(ctx context.Context, id identity.Identity) (*model.User, error) {
	if !id.SignedIn() {
		return nil, apperrors.ErrNotAuthenticated
	}

	user, err := s.users.FindByEmail(ctx, id.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUnknownUser
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	return user, nil
}

func (s *TaskService) RegisterUser(ctx context.Context, email, name string) (*model.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, errors.New("email is required")
	}
	return s.users.Upsert(ctx, email, name)
}

// ReportTask records a new pending task.
func (s *TaskService) ReportTask(ctx context.Context, location, wasteType, amount string, date time.Time) (*model.Task, error) {
	return s.tasks.CreateTask(ctx, location, wasteType, amount, date)
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrTaskNotFound
	}
	return task, err
}

// ListTasks filters tasks by a case-insensitive location substring and
// returns the requested page. Pages past the end are empty.
func (s *TaskService) ListTasks(ctx context.Context, filter TaskFilter) (*TaskPage, error) {
	if filter.Page < 1 || filter.PageSize < 1 {
		return nil, apperrors.ErrInvalidPage
	}

	tasks, err := s.tasks.List(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	query := strings.ToLower(filter.Query)
	matched := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if strings.Contains(strings.ToLower(task.Location), query) {
			matched = append(matched, task)
		}
	}

	total := len(matched)
	pageCount := total / filter.PageSize
	if total%filter.PageSize != 0 {
		pageCount++
	}

	// Offsets are computed only for pages that exist, so they cannot overflow.
	start, end := total, total
	if filter.Page <= pageCount {
		start = (filter.Page - 1) * filter.PageSize
		end = total
		if filter.PageSize < total-start {
			end = start + filter.PageSize
		}
	}

	return &TaskPage{
		Tasks:     matched[start:end],
		Page:      filter.Page,
		PageSize:  filter.PageSize,
		PageCount: pageCount,
		Total:     total,
	}, nil
}

// Claim assigns a pending task to user. Of concurrent claims on one task
// exactly one succeeds; the rest get ErrInvalidTransition.
func (s *TaskService) Claim(ctx context.Context, taskID int64, user *model.User) (*model.Task, error) {
	if user == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	task, err := s.tasks.UpdateTaskStatus(ctx, taskID, constants.StatusPending, constants.StatusInProgress, user.ID)
	if err == nil {
		log.Printf("task %d claimed by user %d", taskID, user.ID)
		return task, nil
	}

	if errors.Is(err, repository.ErrConditionFailed) {
		if _, findErr := s.GetTask(ctx, taskID); findErr != nil {
			return nil, findErr
		}
		return nil, apperrors.ErrInvalidTransition
	}

	return nil, fmt.Errorf("claim task %d: %w", taskID, err)
}
