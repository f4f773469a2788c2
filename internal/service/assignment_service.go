package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"MarsAI_Festival/internal/model"
)

type AssignResult struct {
	FilmID  uint64 `json:"film_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AssignmentService 超级评委把影片分配给评委
type AssignmentService struct {
	assignments AssignmentStore
	films       FilmStore
	users       UserStore
	threshold   int
	log         *slog.Logger
	now         func() time.Time
}

func NewAssignmentService(assignments AssignmentStore, films FilmStore, users UserStore, threshold int, log *slog.Logger) *AssignmentService {
	if threshold < 1 {
		threshold = DefaultReviewThreshold
	}
	return &AssignmentService{
		assignments: assignments,
		films:       films,
		users:       users,
		threshold:   threshold,
		log:         log,
		now:         time.Now,
	}
}

// Assign 逐部影片独立写入，单部失败不影响其余，结果按输入顺序返回
func (s *AssignmentService) Assign(ctx context.Context, juryID uint64, filmIDs []uint64, assignedBy uint64) ([]AssignResult, error) {
	if len(filmIDs) == 0 {
		return nil, fmt.Errorf("%w: film_ids must not be empty", ErrInvalidInput)
	}
	if err := s.requireJuror(ctx, juryID); err != nil {
		return nil, err
	}

	pending, err := s.films.ListSummaries(ctx, model.FilmPending)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.FilmSummary, len(pending))
	for _, f := range pending {
		byID[f.ID] = f
	}

	results := make([]AssignResult, 0, len(filmIDs))
	for _, filmID := range filmIDs {
		res := AssignResult{FilmID: filmID}
		if reason := s.checkAssignable(ctx, byID, filmID); reason != "" {
			res.Error = reason
			results = append(results, res)
			continue
		}
		err = s.assignments.Upsert(ctx, &model.Assignment{
			JuryID:     juryID,
			FilmID:     filmID,
			AssignedBy: assignedBy,
			AssignedAt: s.now(),
		})
		if err != nil {
			s.log.WarnContext(ctx, "assign film failed",
				slog.Uint64("jury_id", juryID), slog.Uint64("film_id", filmID), slog.Any("error", err))
			res.Error = "assignment failed"
		} else {
			res.Success = true
		}
		results = append(results, res)
	}
	s.log.InfoContext(ctx, "films assigned",
		slog.Uint64("jury_id", juryID), slog.Uint64("assigned_by", assignedBy), slog.Int("requested", len(filmIDs)))
	return results, nil
}

// Unassign 幂等
func (s *AssignmentService) Unassign(ctx context.Context, juryID, filmID uint64) error {
	return s.assignments.Delete(ctx, juryID, filmID)
}

func (s *AssignmentService) ListAssignedFilms(ctx context.Context, juryID uint64) ([]model.AssignedFilm, error) {
	list, err := s.assignments.ListAssignedFilms(ctx, juryID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.AssignedFilm{}
	}
	return list, nil
}

// requireJuror 分配目标必须持有评委角色
func (s *AssignmentService) requireJuror(ctx context.Context, juryID uint64) error {
	user, err := s.users.FindByID(ctx, juryID)
	if err != nil {
		return mapNotFound(err, ErrJuryNotFound)
	}
	if !user.HasRole(model.RoleJury) {
		return ErrJuryNotFound
	}
	return nil
}

// checkAssignable 返回空串表示可以分配
func (s *AssignmentService) checkAssignable(ctx context.Context, pending map[uint64]model.FilmSummary, filmID uint64) string {
	f, ok := pending[filmID]
	if !ok {
		exists, err := s.films.Exists(ctx, filmID)
		if err != nil || !exists {
			return ErrFilmNotFound.Error()
		}
		return "film is not pending"
	}
	if IsReviewComplete(f.RatingCount, s.threshold) {
		return "film review already complete"
	}
	return ""
}
