package services

import (
	"context"
	"errors"
	"time"

	"worksite/internal/models"
	"worksite/internal/repository"
	"worksite/internal/storage"
	"worksite/internal/viewstate"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

var (
	ErrPermissionDenied         = errors.New("permission denied")
	ErrInvalidTaskID            = errors.New("invalid task id")
	ErrTaskNotFound             = errors.New("task not found")
	ErrMissingRequiredField     = errors.New("missing required field")
	ErrInvalidTaskDate          = errors.New("invalid task date")
	ErrMissingResultDescription = errors.New("result description required")
	ErrInvalidDecision          = errors.New("invalid review decision")
	ErrTaskNotDeletable         = errors.New("task is not in a deletable state")
	ErrDeleteFailed             = errors.New("failed to delete task")
)

// TaskRepository is the persistence surface the engines require. The
// guarded mutations report whether the status precondition matched.
type TaskRepository interface {
	Insert(ctx context.Context, task *models.Task) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	GetWorkerPhotos(ctx context.Context, id int64) ([]string, error)
	MarkInProgress(ctx context.Context, id int64) (bool, error)
	SaveResult(ctx context.Context, id int64, description string, photos []string) (bool, error)
	Approve(ctx context.Context, id int64) (bool, error)
	Reject(ctx context.Context, id int64, at time.Time) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountFiltered(ctx context.Context, f repository.Filter) (int, error)
	ListFiltered(ctx context.Context, f repository.Filter, limit, offset int) ([]*models.Task, error)
	ListDeletable(ctx context.Context) ([]*models.Task, error)
}

// PhotoStore is the attachment storage surface. Both operations are
// best effort and never fail the caller.
type PhotoStore interface {
	Upload(ctx context.Context, files []storage.File, prefix string) []storage.UploadResult
	Delete(ctx context.Context, urls []string) int
}

type TaskService interface {
	// Create assigns a new task with the uploaded admin photos.
	// Admin only.
	Create(ctx context.Context, actor models.Actor, params CreateTaskParams) (*models.Task, error)

	// Start moves an assigned task to in_progress. A task that is no
	// longer assigned is left untouched without an error, matching
	// the status-guard contract.
	Start(ctx context.Context, actor models.Actor, taskID int64) error

	// SubmitResult merges the uploaded worker photos into the
	// existing set, overwrites the worker description and moves the
	// task from in_progress to pending.
	SubmitResult(ctx context.Context, actor models.Actor, params SubmitResultParams) error

	// Review approves or rejects a pending task. Approval clears the
	// rejection marker; rejection loops the task back to in_progress
	// and records the rejection time. Admin only.
	Review(ctx context.Context, actor models.Actor, taskID int64, decision string) error

	// Delete purges every photo reference (admin, worker and legacy)
	// from object storage and removes the task record. Admin only.
	Delete(ctx context.Context, actor models.Actor, taskID int64) error
}

type CreateTaskParams struct {
	Title       string
	Description string
	// TaskDate is the raw YYYY-MM-DD form value.
	TaskDate    string
	AdminPhotos []storage.File
}

type SubmitResultParams struct {
	TaskID            int64
	WorkerDescription string
	WorkerPhotos      []storage.File
}

type ListingService interface {
	// List runs the count and fetch queries for the resolved view
	// state and returns the page together with the unwindowed
	// per-status badge counts.
	List(ctx context.Context, state viewstate.State) (*ListResult, error)

	// DeleteCandidates returns every task (id, title, date, status)
	// for the admin delete panel. Admin only.
	DeleteCandidates(ctx context.Context, actor models.Actor) ([]*models.Task, error)
}

type ListResult struct {
	Tasks        []*models.Task
	TotalRows    int
	TotalPages   int
	Page         int
	StatusCounts map[string]int
	WeekStart    time.Time
	WeekEnd      time.Time
}
