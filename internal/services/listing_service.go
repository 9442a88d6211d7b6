package services

import (
	"context"

	"github.com/rs/zerolog"

	"worksite/internal/models"
	"worksite/internal/repository"
	"worksite/internal/viewstate"
)

type listingServiceImpl struct {
	logger zerolog.Logger
	repo   TaskRepository
}

func NewListingService(
	logger zerolog.Logger,
	repo TaskRepository,
) ListingService {
	return &listingServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

func (s *listingServiceImpl) List(ctx context.Context, state viewstate.State) (*ListResult, error) {
	// Badge counts ignore the view filter on purpose: switching the
	// week window must never change them.
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	from, to := state.Window()
	filter := repository.Filter{
		Status:   state.Tab,
		Windowed: state.Windowed(),
		From:     from,
		To:       to,
	}

	totalRows, err := s.repo.CountFiltered(ctx, filter)
	if err != nil {
		return nil, err
	}
	totalPages := state.ClampPage(totalRows)

	tasks, err := s.repo.ListFiltered(ctx, filter, viewstate.PerPage, state.Offset())
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("tab", state.Tab).
		Str("view", state.View).
		Int("page", state.Page).
		Int("total_rows", totalRows).
		Msg("listed tasks")

	return &ListResult{
		Tasks:        tasks,
		TotalRows:    totalRows,
		TotalPages:   totalPages,
		Page:         state.Page,
		StatusCounts: counts,
		WeekStart:    from,
		WeekEnd:      to,
	}, nil
}

func (s *listingServiceImpl) DeleteCandidates(ctx context.Context, actor models.Actor) ([]*models.Task, error) {
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	return s.repo.ListDeletable(ctx)
}
