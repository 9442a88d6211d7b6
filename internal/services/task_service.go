package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"worksite/internal/models"
	"worksite/internal/repository"
	"worksite/internal/storage"
	"worksite/internal/viewstate"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	repo   TaskRepository
	photos PhotoStore
}

func NewTaskService(
	logger zerolog.Logger,
	repo TaskRepository,
	photos PhotoStore,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		repo:   repo,
		photos: photos,
	}
}

func (s *taskServiceImpl) Create(ctx context.Context, actor models.Actor, params CreateTaskParams) (*models.Task, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	title := strings.TrimSpace(params.Title)
	description := strings.TrimSpace(params.Description)
	rawDate := strings.TrimSpace(params.TaskDate)
	if title == "" || description == "" || rawDate == "" {
		return nil, ErrMissingRequiredField
	}

	taskDate, ok := viewstate.ParseDate(rawDate)
	if !ok {
		return nil, ErrInvalidTaskDate
	}

	uploaded := s.photos.Upload(ctx, params.AdminPhotos, storage.PrefixTasks)

	task := &models.Task{
		Title:        title,
		Description:  description,
		TaskDate:     taskDate,
		Status:       models.StatusAssigned,
		AdminPhotos:  storage.SavedURLs(uploaded),
		WorkerPhotos: []string{},
	}
	taskID, err := s.repo.Insert(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to create task")
		return nil, err
	}
	task.ID = taskID

	s.logger.Info().
		Int64("task_id", taskID).
		Str("task_date", rawDate).
		Int("admin_photos", len(task.AdminPhotos)).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) Start(ctx context.Context, actor models.Actor, taskID int64) error {
	if taskID <= 0 {
		return ErrInvalidTaskID
	}

	matched, err := s.repo.MarkInProgress(ctx, taskID)
	if err != nil {
		return err
	}
	if !matched {
		// Surfaced as success, matching the original contract: the
		// status already moved on or the id never existed.
		s.logGuardConflict("start", taskID, models.StatusAssigned)
		return nil
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Msg("started task")
	return nil
}

func (s *taskServiceImpl) SubmitResult(ctx context.Context, actor models.Actor, params SubmitResultParams) error {
	if params.TaskID <= 0 {
		return ErrInvalidTaskID
	}

	description := strings.TrimSpace(params.WorkerDescription)
	if description == "" {
		return ErrMissingResultDescription
	}

	oldPhotos, err := s.repo.GetWorkerPhotos(ctx, params.TaskID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		// A vanished task falls through to the guarded update, which
		// then matches zero rows.
		oldPhotos = nil
	}

	uploaded := s.photos.Upload(ctx, params.WorkerPhotos, storage.PrefixResults)
	merged := mergePhotos(oldPhotos, storage.SavedURLs(uploaded))

	matched, err := s.repo.SaveResult(ctx, params.TaskID, description, merged)
	if err != nil {
		return err
	}
	if !matched {
		s.logGuardConflict("submit_result", params.TaskID, models.StatusInProgress)
		return nil
	}

	s.logger.Info().
		Int64("task_id", params.TaskID).
		Int("worker_photos", len(merged)).
		Msg("submitted task result")
	return nil
}

func (s *taskServiceImpl) Review(ctx context.Context, actor models.Actor, taskID int64, decision string) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if taskID <= 0 {
		return ErrInvalidTaskID
	}

	var (
		matched bool
		err     error
	)
	switch decision {
	case DecisionApprove:
		matched, err = s.repo.Approve(ctx, taskID)
	case DecisionReject:
		matched, err = s.repo.Reject(ctx, taskID, time.Now())
	default:
		return ErrInvalidDecision
	}
	if err != nil {
		return err
	}
	if !matched {
		s.logGuardConflict("review", taskID, models.StatusPending)
		return nil
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Str("decision", decision).
		Msg("reviewed task")
	return nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, actor models.Actor, taskID int64) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	if taskID <= 0 {
		return ErrInvalidTaskID
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	if !models.IsValidStatus(task.Status) {
		return ErrTaskNotDeletable
	}

	urls := make([]string, 0, len(task.AdminPhotos)+len(task.WorkerPhotos)+1)
	urls = append(urls, task.AdminPhotos...)
	urls = append(urls, task.WorkerPhotos...)
	if task.PhotoURL != "" {
		urls = append(urls, task.PhotoURL)
	}
	// Best effort: the record goes away regardless of how the purge
	// went.
	s.photos.Delete(ctx, urls)

	deleted, err := s.repo.Delete(ctx, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrDeleteFailed
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Int("photos_purged", len(urls)).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) logGuardConflict(action string, taskID int64, expected string) {
	s.logger.Warn().
		Str("action", action).
		Int64("task_id", taskID).
		Str("expected_status", expected).
		Msg("status guard conflict")
}

// mergePhotos appends the freshly uploaded URLs to the existing set,
// dropping empty entries. Duplicates are kept as-is.
func mergePhotos(old, fresh []string) []string {
	merged := make([]string, 0, len(old)+len(fresh))
	for _, p := range old {
		if p != "" {
			merged = append(merged, p)
		}
	}
	for _, p := range fresh {
		if p != "" {
			merged = append(merged, p)
		}
	}
	return merged
}
