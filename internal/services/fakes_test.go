package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"worksite/internal/models"
	"worksite/internal/repository"
	"worksite/internal/storage"
)

// fakeTaskRepo is an in-memory TaskRepository with the same
// status-guard semantics as the Postgres implementation.
type fakeTaskRepo struct {
	nextID int64
	tasks  map[int64]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[int64]*models.Task)}
}

func (r *fakeTaskRepo) add(task models.Task) *models.Task {
	r.nextID++
	task.ID = r.nextID
	r.tasks[task.ID] = &task
	return &task
}

func (r *fakeTaskRepo) Insert(_ context.Context, task *models.Task) (int64, error) {
	return r.add(*task).ID, nil
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id int64) (*models.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (r *fakeTaskRepo) GetWorkerPhotos(_ context.Context, id int64) ([]string, error) {
	task, ok := r.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]string{}, task.WorkerPhotos...), nil
}

func (r *fakeTaskRepo) MarkInProgress(_ context.Context, id int64) (bool, error) {
	task, ok := r.tasks[id]
	if !ok || task.Status != models.StatusAssigned {
		return false, nil
	}
	task.Status = models.StatusInProgress
	return true, nil
}

func (r *fakeTaskRepo) SaveResult(_ context.Context, id int64, description string, photos []string) (bool, error) {
	task, ok := r.tasks[id]
	if !ok || task.Status != models.StatusInProgress {
		return false, nil
	}
	task.WorkerDescription = description
	task.WorkerPhotos = append([]string{}, photos...)
	task.Status = models.StatusPending
	return true, nil
}

func (r *fakeTaskRepo) Approve(_ context.Context, id int64) (bool, error) {
	task, ok := r.tasks[id]
	if !ok || task.Status != models.StatusPending {
		return false, nil
	}
	task.Status = models.StatusApproved
	task.RejectedFlag = false
	task.RejectedAt = nil
	return true, nil
}

func (r *fakeTaskRepo) Reject(_ context.Context, id int64, at time.Time) (bool, error) {
	task, ok := r.tasks[id]
	if !ok || task.Status != models.StatusPending {
		return false, nil
	}
	task.Status = models.StatusInProgress
	task.RejectedFlag = true
	task.RejectedAt = &at
	return true, nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func (r *fakeTaskRepo) CountByStatus(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(models.Statuses))
	for _, s := range models.Statuses {
		counts[s] = 0
	}
	for _, task := range r.tasks {
		counts[task.Status]++
	}
	return counts, nil
}

func (r *fakeTaskRepo) matches(task *models.Task, f repository.Filter) bool {
	if task.Status != f.Status {
		return false
	}
	if f.Windowed && (task.TaskDate.Before(f.From) || task.TaskDate.After(f.To)) {
		return false
	}
	return true
}

func (r *fakeTaskRepo) CountFiltered(_ context.Context, f repository.Filter) (int, error) {
	count := 0
	for _, task := range r.tasks {
		if r.matches(task, f) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTaskRepo) ListFiltered(_ context.Context, f repository.Filter, limit, offset int) ([]*models.Task, error) {
	matched := make([]*models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		if r.matches(task, f) {
			matched = append(matched, task)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	if offset >= len(matched) {
		return []*models.Task{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *fakeTaskRepo) ListDeletable(_ context.Context) ([]*models.Task, error) {
	all := make([]*models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		all = append(all, task)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all, nil
}

// fakePhotoStore turns every allowed upload into a deterministic URL
// and records which URLs were purged.
type fakePhotoStore struct {
	uploads int
	deleted []string
}

func (p *fakePhotoStore) Upload(_ context.Context, files []storage.File, prefix string) []storage.UploadResult {
	results := make([]storage.UploadResult, 0, len(files))
	for _, f := range files {
		p.uploads++
		results = append(results, storage.UploadResult{
			Name: f.Name,
			URL:  fmt.Sprintf("https://photos.test/%s/%s", prefix, f.Name),
		})
	}
	return results
}

func (p *fakePhotoStore) Delete(_ context.Context, urls []string) int {
	p.deleted = append(p.deleted, urls...)
	return len(urls)
}
