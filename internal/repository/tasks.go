// Package repository owns the persisted task records. Every lifecycle
// mutation is a conditional update guarded by the expected current
// status; the affected-row count is the only concurrency signal.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"worksite/internal/models"
)

var (
	ErrNotFound      = errors.New("task not found")
	ErrInvalidStatus = errors.New("invalid task status")
)

// deletableLimit caps the admin delete-candidates listing.
const deletableLimit = 2000

// Filter selects tasks for the listing queries. When Windowed is set,
// task_date is restricted to the inclusive [From, To] range.
type Filter struct {
	Status   string
	Windowed bool
	From     time.Time
	To       time.Time
}

type Tasks struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewTasks(logger zerolog.Logger, pgPool *pgxpool.Pool) *Tasks {
	return &Tasks{
		logger: logger,
		pgPool: pgPool,
	}
}

// EnsureSchema creates the tasks table and its indexes if absent.
func (r *Tasks) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
    id                 BIGSERIAL PRIMARY KEY,
    title              TEXT NOT NULL,
    description        TEXT NOT NULL,
    task_date          DATE NOT NULL,
    status             TEXT NOT NULL DEFAULT 'assigned'
        CHECK (status IN ('assigned', 'in_progress', 'pending', 'approved')),
    admin_photos       JSONB NOT NULL DEFAULT '[]',
    worker_description TEXT NOT NULL DEFAULT '',
    worker_photos      JSONB NOT NULL DEFAULT '[]',
    rejected_flag      BOOLEAN NOT NULL DEFAULT FALSE,
    rejected_at        TIMESTAMPTZ,
    photo_url          TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_status_date ON tasks (status, task_date)`,
	}

	for _, stmt := range statements {
		_, err := r.pgPool.Exec(ctx, stmt)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to ensure tasks schema")
			return err
		}
	}
	return nil
}

func (r *Tasks) Insert(ctx context.Context, task *models.Task) (int64, error) {
	adminPhotos, err := json.Marshal(photosOrEmpty(task.AdminPhotos))
	if err != nil {
		return 0, err
	}
	workerPhotos, err := json.Marshal(photosOrEmpty(task.WorkerPhotos))
	if err != nil {
		return 0, err
	}

	const insertTaskQuery = `
INSERT INTO tasks (title,
                   description,
                   task_date,
                   status,
                   admin_photos,
                   worker_description,
                   worker_photos,
                   rejected_flag,
                   rejected_at,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NULL, $8, $8)
RETURNING id
`
	var taskID int64
	err = r.pgPool.QueryRow(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Description,
		task.TaskDate,
		task.Status,
		adminPhotos,
		task.WorkerDescription,
		workerPhotos,
		time.Now(),
	).Scan(&taskID)
	if err != nil {
		if isCheckViolation(err) {
			return 0, ErrInvalidStatus
		}
		r.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return 0, err
	}

	r.logger.Debug().
		Int64("task_id", taskID).
		Msg("inserted task")
	return taskID, nil
}

const taskColumns = `id, title, description, task_date, status,
       admin_photos, worker_description, worker_photos,
       rejected_flag, rejected_at, photo_url, created_at, updated_at`

func (r *Tasks) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	const selectTaskQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1
`
	task, err := scanTask(r.pgPool.QueryRow(ctx, selectTaskQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select task")
		return nil, err
	}
	return task, nil
}

func (r *Tasks) GetWorkerPhotos(ctx context.Context, id int64) ([]string, error) {
	const selectWorkerPhotosQuery = `
SELECT worker_photos
FROM tasks
WHERE id = $1
`
	var raw []byte
	err := r.pgPool.QueryRow(ctx, selectWorkerPhotosQuery, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to select worker photos")
		return nil, err
	}
	return unmarshalPhotos(raw)
}

// MarkInProgress moves an assigned task to in_progress. It reports
// false without error when the status guard does not match.
func (r *Tasks) MarkInProgress(ctx context.Context, id int64) (bool, error) {
	const startTaskQuery = `
UPDATE tasks
SET status = 'in_progress',
    updated_at = now()
WHERE id = $1 AND status = 'assigned'
`
	return r.guardedExec(ctx, startTaskQuery, id)
}

// SaveResult stores the worker's description and merged photo list and
// moves the task from in_progress to pending.
func (r *Tasks) SaveResult(ctx context.Context, id int64, description string, photos []string) (bool, error) {
	workerPhotos, err := json.Marshal(photosOrEmpty(photos))
	if err != nil {
		return false, err
	}

	const saveResultQuery = `
UPDATE tasks
SET worker_description = $2,
    worker_photos = $3,
    status = 'pending',
    updated_at = now()
WHERE id = $1 AND status = 'in_progress'
`
	tag, err := r.pgPool.Exec(ctx, saveResultQuery, id, description, workerPhotos)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to save task result")
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Approve moves a pending task to approved and clears the rejection
// marker.
func (r *Tasks) Approve(ctx context.Context, id int64) (bool, error) {
	const approveTaskQuery = `
UPDATE tasks
SET status = 'approved',
    rejected_flag = FALSE,
    rejected_at = NULL,
    updated_at = now()
WHERE id = $1 AND status = 'pending'
`
	return r.guardedExec(ctx, approveTaskQuery, id)
}

// Reject loops a pending task back to in_progress and records the
// rejection time.
func (r *Tasks) Reject(ctx context.Context, id int64, at time.Time) (bool, error) {
	const rejectTaskQuery = `
UPDATE tasks
SET status = 'in_progress',
    rejected_flag = TRUE,
    rejected_at = $2,
    updated_at = now()
WHERE id = $1 AND status = 'pending'
`
	tag, err := r.pgPool.Exec(ctx, rejectTaskQuery, id, at)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to reject task")
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Tasks) Delete(ctx context.Context, id int64) (bool, error) {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := r.pgPool.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to delete task")
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountByStatus returns task counts for every status, regardless of
// any date window. Statuses without tasks count as zero.
func (r *Tasks) CountByStatus(ctx context.Context) (map[string]int, error) {
	const countByStatusQuery = `
SELECT status, COUNT(*)
FROM tasks
GROUP BY status
`
	rows, err := r.pgPool.Query(ctx, countByStatusQuery)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to count tasks by status")
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		err = rows.Scan(&status, &count)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to scan status count")
			return nil, err
		}
		if _, known := counts[status]; known {
			counts[status] = count
		}
	}

	err = rows.Err()
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to iterate over status counts")
		return nil, err
	}
	return counts, nil
}

func (r *Tasks) CountFiltered(ctx context.Context, f Filter) (int, error) {
	const countQuery = `
SELECT COUNT(*)
FROM tasks
WHERE status = $1
`
	const countWindowedQuery = countQuery + `  AND task_date BETWEEN $2 AND $3
`
	var (
		count int
		err   error
	)
	if f.Windowed {
		err = r.pgPool.QueryRow(ctx, countWindowedQuery, f.Status, f.From, f.To).Scan(&count)
	} else {
		err = r.pgPool.QueryRow(ctx, countQuery, f.Status).Scan(&count)
	}
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("status", f.Status).
			Msg("failed to count filtered tasks")
		return 0, err
	}
	return count, nil
}

// ListFiltered returns one page of tasks under the filter, newest
// first.
func (r *Tasks) ListFiltered(ctx context.Context, f Filter, limit, offset int) ([]*models.Task, error) {
	const listQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE status = $1
ORDER BY id DESC
LIMIT $2 OFFSET $3
`
	const listWindowedQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE status = $1 AND task_date BETWEEN $4 AND $5
ORDER BY id DESC
LIMIT $2 OFFSET $3
`
	var (
		rows pgx.Rows
		err  error
	)
	if f.Windowed {
		rows, err = r.pgPool.Query(ctx, listWindowedQuery, f.Status, limit, offset, f.From, f.To)
	} else {
		rows, err = r.pgPool.Query(ctx, listQuery, f.Status, limit, offset)
	}
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("status", f.Status).
			Msg("failed to select filtered tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0, limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return tasks, nil
}

// ListDeletable returns the id, title, date and status of every task,
// newest first, capped for the admin delete panel.
func (r *Tasks) ListDeletable(ctx context.Context) ([]*models.Task, error) {
	const listDeletableQuery = `
SELECT id, title, task_date, status
FROM tasks
ORDER BY id DESC
LIMIT $1
`
	rows, err := r.pgPool.Query(ctx, listDeletableQuery, deletableLimit)
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to select deletable tasks")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := new(models.Task)
		err = rows.Scan(&task.ID, &task.Title, &task.TaskDate, &task.Status)
		if err != nil {
			r.logger.Error().
				Err(err).
				Msg("failed to scan deletable task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		r.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return tasks, nil
}

func (r *Tasks) guardedExec(ctx context.Context, query string, id int64) (bool, error) {
	tag, err := r.pgPool.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("task_id", id).
			Msg("failed to execute guarded update")
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		task         models.Task
		adminPhotos  []byte
		workerPhotos []byte
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.TaskDate,
		&task.Status,
		&adminPhotos,
		&task.WorkerDescription,
		&workerPhotos,
		&task.RejectedFlag,
		&task.RejectedAt,
		&task.PhotoURL,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.AdminPhotos, err = unmarshalPhotos(adminPhotos)
	if err != nil {
		return nil, err
	}
	task.WorkerPhotos, err = unmarshalPhotos(workerPhotos)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func unmarshalPhotos(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var photos []string
	err := json.Unmarshal(raw, &photos)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []string{}
	}
	return photos, nil
}

func photosOrEmpty(photos []string) []string {
	if photos == nil {
		return []string{}
	}
	return photos
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation
}
