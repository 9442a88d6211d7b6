package v1

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"worksite/internal/models"
	"worksite/internal/services"
	"worksite/internal/storage"
	"worksite/internal/viewstate"
)

// HandleCreateTask assigns a new task from a multipart form with
// title, description, task_date and optional admin_photos[].
func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	files := h.formFiles(c, "admin_photos")
	defer closeFiles(files)

	_, err := h.tasks.Create(c, actor, services.CreateTaskParams{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		TaskDate:    c.PostForm("task_date"),
		AdminPhotos: files,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		redirectError(c, err)
		return
	}

	redirectTo(c, "tab="+models.StatusAssigned)
}

func (h *handlerImpl) HandleStartTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	err := h.tasks.Start(c, actor, taskIDParam(c))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to start task")
		redirectError(c, err)
		return
	}

	redirectTo(c, "tab="+models.StatusInProgress)
}

// HandleSubmitResult takes a multipart form with worker_description
// and optional worker_photos[].
func (h *handlerImpl) HandleSubmitResult(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	files := h.formFiles(c, "worker_photos")
	defer closeFiles(files)

	err := h.tasks.SubmitResult(c, actor, services.SubmitResultParams{
		TaskID:            taskIDParam(c),
		WorkerDescription: c.PostForm("worker_description"),
		WorkerPhotos:      files,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to submit task result")
		redirectError(c, err)
		return
	}

	redirectTo(c, "tab="+models.StatusPending)
}

func (h *handlerImpl) HandleReviewTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	decision := c.PostForm("decision")
	err := h.tasks.Review(c, actor, taskIDParam(c), decision)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("decision", decision).
			Msg("failed to review task")
		redirectError(c, err)
		return
	}

	// approval lands on the approved tab, rejection follows the task
	// back to in_progress
	tab := models.StatusApproved
	if decision == services.DecisionReject {
		tab = models.StatusInProgress
	}
	redirectTo(c, "tab="+tab)
}

// HandleDeleteTask removes a task and echoes the caller's view state
// (back_tab, back_view, back_ws, back_page) into the redirect so the
// next render shows the same slice.
func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		h.logger.Error().Msg("no actor found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	err := h.tasks.Delete(c, actor, taskIDParam(c))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		redirectError(c, err)
		return
	}

	back := viewstate.Resolve(
		c.PostForm("back_tab"),
		c.PostForm("back_view"),
		"",
		c.PostForm("back_ws"),
		c.PostForm("back_page"),
		time.Now(),
	)
	redirectTo(c, back.Encode())
}

func taskIDParam(c *gin.Context) int64 {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		// the engine rejects non-positive ids as invalid
		return 0
	}
	return id
}

// formFiles collects the multipart uploads for the given field. A
// request without a multipart body simply yields no files.
func (h *handlerImpl) formFiles(c *gin.Context, field string) []storage.File {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}

	headers := form.File[field]
	files := make([]storage.File, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			h.logger.Warn().
				Err(err).
				Str("file", header.Filename).
				Msg("failed to open uploaded file")
			continue
		}
		files = append(files, storage.File{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        f,
		})
	}
	return files
}

func closeFiles(files []storage.File) {
	for _, f := range files {
		if closer, ok := f.Data.(io.Closer); ok {
			_ = closer.Close()
		}
	}
}
