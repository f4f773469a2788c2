package service

import (
	"context"
	"fmt"
	"log/slog"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"
)

const DefaultRandomSubsetSize = 50

type SuperJuryService struct {
	films       FilmStore
	users       UserStore
	assignments *AssignmentService
	threshold   int
	subsetSize  int
	log         *slog.Logger
}

func NewSuperJuryService(films FilmStore, users UserStore, assignments *AssignmentService, threshold, subsetSize int, log *slog.Logger) *SuperJuryService {
	if threshold < 1 {
		threshold = DefaultReviewThreshold
	}
	if subsetSize < 1 {
		subsetSize = DefaultRandomSubsetSize
	}
	return &SuperJuryService{
		films:       films,
		users:       users,
		assignments: assignments,
		threshold:   threshold,
		subsetSize:  subsetSize,
		log:         log,
	}
}

// ListFilms 所有待审影片带评分聚合，按阈值分组
func (s *SuperJuryService) ListFilms(ctx context.Context) (Classification, error) {
	films, err := s.films.ListSummaries(ctx, model.FilmPending)
	if err != nil {
		return Classification{}, err
	}
	return Classify(films, s.threshold), nil
}

func (s *SuperJuryService) Members(ctx context.Context) ([]model.JuryMember, error) {
	members, err := s.users.ListByRole(ctx, model.RoleJury)
	if err != nil {
		return nil, err
	}
	if members == nil {
		members = []model.JuryMember{}
	}
	return members, nil
}

func (s *SuperJuryService) MemberFilms(ctx context.Context, juryID uint64) ([]model.AssignedFilm, error) {
	if err := s.assignments.requireJuror(ctx, juryID); err != nil {
		return nil, err
	}
	return s.assignments.ListAssignedFilms(ctx, juryID)
}

type RandomSubset struct {
	Films   []model.FilmSummary `json:"films"`
	Results []AssignResult      `json:"results,omitempty"`
}

// RandomSubset 从待评组中不放回地均匀抽取 count 部；给了 juryID 时顺带分配
func (s *SuperJuryService) RandomSubset(ctx context.Context, count int, juryID *uint64, assignedBy uint64) (*RandomSubset, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must be positive", ErrInvalidInput)
	}
	if count == 0 {
		count = s.subsetSize
	}
	cls, err := s.ListFilms(ctx)
	if err != nil {
		return nil, err
	}
	picked, err := pkg.Sample(cls.NeedsReview, count)
	if err != nil {
		return nil, err
	}
	out := &RandomSubset{Films: picked}
	if juryID == nil || len(picked) == 0 {
		return out, nil
	}

	ids := make([]uint64, 0, len(picked))
	for _, f := range picked {
		ids = append(ids, f.ID)
	}
	if out.Results, err = s.assignments.Assign(ctx, *juryID, ids, assignedBy); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "random subset assigned",
		slog.Uint64("jury_id", *juryID), slog.Int("count", len(ids)))
	return out, nil
}
