package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"worksite/internal/models"
	"worksite/internal/services"
	"worksite/internal/viewstate"
)

type taskResponse struct {
	ID                int64      `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	TaskDate          string     `json:"task_date"`
	Status            string     `json:"status"`
	AdminPhotos       []string   `json:"admin_photos"`
	WorkerDescription string     `json:"worker_description"`
	WorkerPhotos      []string   `json:"worker_photos"`
	RejectedFlag      bool       `json:"rejected_flag"`
	RejectedAt        *time.Time `json:"rejected_at"`
	Thumbnail         string     `json:"thumbnail,omitempty"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:                task.ID,
		Title:             task.Title,
		Description:       task.Description,
		TaskDate:          task.TaskDate.Format(viewstate.DateLayout),
		Status:            task.Status,
		AdminPhotos:       task.AdminPhotos,
		WorkerDescription: task.WorkerDescription,
		WorkerPhotos:      task.WorkerPhotos,
		RejectedFlag:      task.RejectedFlag,
		RejectedAt:        task.RejectedAt,
		Thumbnail:         task.Thumbnail(),
	}
}

type listTasksResponse struct {
	Tasks        []taskResponse `json:"tasks"`
	TotalRows    int            `json:"total_rows"`
	TotalPages   int            `json:"total_pages"`
	Page         int            `json:"page"`
	Tab          string         `json:"tab"`
	View         string         `json:"view"`
	WeekStart    string         `json:"week_start"`
	WeekEnd      string         `json:"week_end"`
	StatusCounts map[string]int `json:"status_counts"`
	// Message echoes the err query parameter a failed action
	// redirected here with.
	Message string `json:"message,omitempty"`
}

// HandleListTasks resolves tab/view/ws/page and returns one listing
// page plus the per-status badge counts.
func (h *handlerImpl) HandleListTasks(c *gin.Context) {
	state := viewstate.Resolve(
		c.Query("tab"),
		c.Query("view"),
		c.Query("wf"),
		c.Query("ws"),
		c.Query("page"),
		time.Now(),
	)

	result, err := h.listing.List(c, state)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	tasks := make([]taskResponse, len(result.Tasks))
	for i, task := range result.Tasks {
		tasks[i] = newTaskResponse(task)
	}

	c.JSON(http.StatusOK, listTasksResponse{
		Tasks:        tasks,
		TotalRows:    result.TotalRows,
		TotalPages:   result.TotalPages,
		Page:         result.Page,
		Tab:          state.Tab,
		View:         state.View,
		WeekStart:    result.WeekStart.Format(viewstate.DateLayout),
		WeekEnd:      result.WeekEnd.Format(viewstate.DateLayout),
		StatusCounts: result.StatusCounts,
		Message:      c.Query("err"),
	})
}

type deleteCandidateResponse struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	TaskDate string `json:"task_date"`
	Status   string `json:"status"`
}

// HandleDeleteCandidates feeds the admin delete panel with every
// task's id, title, date and status.
func (h *handlerImpl) HandleDeleteCandidates(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	candidates, err := h.listing.DeleteCandidates(c, actor)
	if err != nil {
		if errors.Is(err, services.ErrPermissionDenied) {
			abort(c, newForbiddenError(services.ErrPermissionDenied.Error()))
			return
		}
		h.logger.Error().
			Err(err).
			Msg("failed to list delete candidates")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]deleteCandidateResponse, len(candidates))
	for i, task := range candidates {
		response[i] = deleteCandidateResponse{
			ID:       task.ID,
			Title:    task.Title,
			TaskDate: task.TaskDate.Format(viewstate.DateLayout),
			Status:   task.Status,
		}
	}
	c.JSON(http.StatusOK, response)
}
