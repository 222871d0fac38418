package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"waste-collector.com/waste-collector/internal/constants"
	apperrors "waste-collector.com/waste-collector/internal/errors"
	model "waste-collector.com/waste-collector/internal/models"
	"waste-collector.com/waste-collector/internal/queue"
	repository "waste-collector.com/waste-collector/internal/repositories"
	"waste-collector.com/waste-collector/internal/rewards"
	"waste-collector.com/waste-collector/internal/verification"
)

type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MinConfidence float64
}

// Backoff is the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BaseDelay << attempt
}

// RejectedError is a conclusive negative verdict. It matches
// ErrVerificationRejected and carries the verdict for the operator.
type RejectedError struct {
	TaskID int64
	Result verification.Result
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf(
		"task %d: %s (waste type match %t, quantity match %t, confidence %.2f)",
		e.TaskID, apperrors.ErrVerificationRejected.Message,
		e.Result.WasteTypeMatch, e.Result.QuantityMatch, e.Result.Confidence,
	)
}

func (e *RejectedError) Unwrap() error {
	return apperrors.ErrVerificationRejected
}

type Settlement struct {
	Task   *model.Task         `json:"task"`
	Reward *model.Reward       `json:"reward"`
	Result verification.Result `json:"result"`
}

type VerificationService struct {
	tasks  *repository.TaskRepository
	vision verification.Client
	tokens queue.TokenManager
	policy rewards.Policy
	retry  RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewVerificationService(
	tasks *repository.TaskRepository,
	vision verification.Client,
	tokens queue.TokenManager,
	policy rewards.Policy,
	retry RetryPolicy,
) *VerificationService {
	return &VerificationService{
		tasks:  tasks,
		vision: vision,
		tokens: tokens,
		policy: policy,
		retry:  retry,
		sleep:  sleepContext,
	}
}

// SubmitVerification checks the claimant's photo with the vision model and,
// on acceptance, settles the task. Canceling ctx abandons any remaining
// attempts without touching the task.
func (s *VerificationService) SubmitVerification(
	ctx context.Context,
	taskID int64,
	user *model.User,
	image []byte,
) (*Settlement, error) {
	if user == nil {
		return nil, apperrors.ErrNotAuthenticated
	}

	task, err := s.findSubmittable(ctx, taskID, user)
	if err != nil {
		return nil, err
	}

	if len(image) == 0 {
		return nil, apperrors.ErrMissingEvidence
	}

	if err := s.acquireSlot(ctx); err != nil {
		return nil, err
	}
	defer s.releaseSlot(context.WithoutCancel(ctx), taskID)

	result, err := s.verifyWithRetry(ctx, task, image)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !result.Accepted(s.retry.MinConfidence) {
		log.Printf("task %d: verification rejected (confidence %.2f)", taskID, result.Confidence)
		return nil, &RejectedError{TaskID: taskID, Result: result}
	}

	return s.settle(ctx, task, user, result)
}

func (s *VerificationService) findSubmittable(ctx context.Context, taskID int64, user *model.User) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("load task %d: %w", taskID, err)
	}

	switch {
	case task.Status == constants.StatusVerified:
		return nil, apperrors.ErrAlreadySettled
	case !task.Status.Settleable():
		return nil, apperrors.ErrInvalidTransition
	case !task.ClaimedBy(user.ID):
		return nil, apperrors.ErrNotClaimant
	}

	return task, nil
}

func (s *VerificationService) acquireSlot(ctx context.Context) error {
	err := s.tokens.AcquireToken(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if !errors.Is(err, queue.ErrNoTokenAvailable) {
		log.Printf("verification slot acquire failed: %v", err)
	}
	return fmt.Errorf("%w: %v", apperrors.ErrVerificationUnavailable, err)
}

func (s *VerificationService) releaseSlot(ctx context.Context, taskID int64) {
	if err := s.tokens.ReleaseToken(ctx); err != nil {
		log.Printf("task %d: failed to release verification slot: %v", taskID, err)
	}
}

// verifyWithRetry returns the first verdict that parses. Transport and parse
// failures are retried with exponential backoff; a parsed verdict, positive
// or negative, ends the loop.
func (s *VerificationService) verifyWithRetry(ctx context.Context, task *model.Task, image []byte) (verification.Result, error) {
	claim := verification.Claim{WasteType: task.WasteType, Amount: task.Amount}

	var lastErr error
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		result, err := s.attempt(ctx, claim, image)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return verification.Result{}, ctxErr
		}

		lastErr = err
		log.Printf("task %d: verification attempt %d/%d failed: %v", task.ID, attempt, s.retry.MaxAttempts, err)

		if attempt == s.retry.MaxAttempts {
			break
		}
		if err := s.sleep(ctx, s.retry.Backoff(attempt)); err != nil {
			return verification.Result{}, err
		}
	}

	return verification.Result{}, fmt.Errorf("%w: %d attempts failed, last error: %v",
		apperrors.ErrVerificationUnavailable, s.retry.MaxAttempts, lastErr)
}

func (s *VerificationService) attempt(ctx context.Context, claim verification.Claim, image []byte) (verification.Result, error) {
	text, err := s.vision.Verify(ctx, claim, image)
	if err != nil {
		return verification.Result{}, err
	}
	return verification.Parse(text)
}

func (s *VerificationService) settle(
	ctx context.Context,
	task *model.Task,
	user *model.User,
	result verification.Result,
) (*Settlement, error) {
	points := s.policy.Points(task.Amount)

	reward, err := s.tasks.Settle(ctx, task.ID, user.ID, points)
	if err != nil {
		if !errors.Is(err, repository.ErrConditionFailed) {
			return nil, fmt.Errorf("settle task %d: %w", task.ID, err)
		}

		current, findErr := s.tasks.FindByID(ctx, task.ID)
		if findErr != nil {
			return nil, fmt.Errorf("reload task %d: %w", task.ID, findErr)
		}
		if current.Status == constants.StatusVerified {
			return nil, apperrors.ErrAlreadySettled
		}
		return nil, apperrors.ErrInvalidTransition
	}

	settled, err := s.tasks.FindByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("reload task %d: %w", task.ID, err)
	}

	log.Printf("task %d verified, %d points rewarded to user %d", task.ID, points, user.ID)

	return &Settlement{Task: settled, Reward: reward, Result: result}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
