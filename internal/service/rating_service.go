package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"MarsAI_Festival/internal/model"

	"gorm.io/gorm"
)

// cacheSecondDelete 延迟二删，覆盖并发读回填旧值的窗口
const cacheSecondDelete = 500 * time.Millisecond

type RatingService struct {
	ratings   RatingStore
	cache     RatingCache
	threshold int
	log       *slog.Logger
}

func NewRatingService(ratings RatingStore, cache RatingCache, threshold int, log *slog.Logger) *RatingService {
	if threshold < 1 {
		threshold = DefaultReviewThreshold
	}
	return &RatingService{ratings: ratings, cache: cache, threshold: threshold, log: log}
}

type FilmRatingState struct {
	FilmID         uint64   `json:"film_id"`
	AverageRating  *float64 `json:"average_rating"`
	RatingCount    int64    `json:"rating_count"`
	ReviewComplete bool     `json:"review_complete"`
}

type RateResult struct {
	Rating *model.Rating    `json:"rating"`
	Film   FilmRatingState `json:"film"`
}

// Rate 评委给影片打分，重复打分覆盖旧分
func (s *RatingService) Rate(ctx context.Context, filmID, jurorID uint64, score int, comment *string) (*RateResult, error) {
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if trimmed == "" {
			comment = nil
		} else {
			comment = &trimmed
		}
	}
	stored, summary, err := s.ratings.Upsert(ctx, filmID, jurorID, score, comment, int64(s.threshold))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFilmNotFound
		}
		return nil, err
	}
	if s.cache != nil {
		if err = s.cache.Invalidate(ctx, filmID, cacheSecondDelete); err != nil {
			s.log.WarnContext(ctx, "invalidate rating cache", slog.Uint64("film_id", filmID), slog.Any("error", err))
		}
	}
	s.log.InfoContext(ctx, "film rated",
		slog.Uint64("film_id", filmID), slog.Uint64("juror_id", jurorID),
		slog.Int("rating", score), slog.Int64("rating_count", summary.Count))
	return &RateResult{Rating: stored, Film: s.state(filmID, summary)}, nil
}

// Summary 先读缓存，未命中再聚合并回填
func (s *RatingService) Summary(ctx context.Context, filmID uint64) (FilmRatingState, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, filmID)
		if err != nil {
			s.log.WarnContext(ctx, "read rating cache", slog.Uint64("film_id", filmID), slog.Any("error", err))
		} else if hit {
			return s.state(filmID, cached), nil
		}
	}
	summary, err := s.ratings.Average(ctx, filmID)
	if err != nil {
		return FilmRatingState{}, err
	}
	if s.cache != nil {
		if err = s.cache.Set(ctx, filmID, summary); err != nil {
			s.log.WarnContext(ctx, "fill rating cache", slog.Uint64("film_id", filmID), slog.Any("error", err))
		}
	}
	return s.state(filmID, summary), nil
}

// OwnRating 评委自己的评分，没有时为 nil
func (s *RatingService) OwnRating(ctx context.Context, filmID, jurorID uint64) (*model.Rating, error) {
	return s.ratings.FindByFilmAndJuror(ctx, filmID, jurorID)
}

func (s *RatingService) Threshold() int { return s.threshold }

func (s *RatingService) state(filmID uint64, summary model.RatingSummary) FilmRatingState {
	return FilmRatingState{
		FilmID:         filmID,
		AverageRating:  summary.Average,
		RatingCount:    summary.Count,
		ReviewComplete: IsReviewComplete(summary.Count, s.threshold),
	}
}
