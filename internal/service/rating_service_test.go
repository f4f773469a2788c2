package service

import (
	"context"
	"errors"
	"testing"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/repository/mysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	ratings := new(mockRatingStore)
	cache := new(mockRatingCache)
	svc := NewRatingService(ratings, cache, 3, quietLogger())

	stored := &model.Rating{ID: 9, FilmID: 1, JurorID: 2, Rating: 4}
	ratings.On("Upsert", ctx, uint64(1), uint64(2), 4, mock.MatchedBy(func(c *string) bool {
		return c != nil && *c == "good"
	}), int64(3)).Return(stored, model.RatingSummary{Average: avg(4), Count: 3}, nil)
	cache.On("Invalidate", ctx, uint64(1)).Return(nil)

	comment := "  good  "
	res, err := svc.Rate(ctx, 1, 2, 4, &comment)
	require.NoError(t, err)
	assert.Equal(t, stored, res.Rating)
	assert.True(t, res.Film.ReviewComplete)
	assert.Equal(t, int64(3), res.Film.RatingCount)
	assert.InDelta(t, 4.0, *res.Film.AverageRating, 1e-9)
	ratings.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestRateBlankCommentIsNil(t *testing.T) {
	ctx := context.Background()
	ratings := new(mockRatingStore)
	svc := NewRatingService(ratings, nil, 3, quietLogger())

	ratings.On("Upsert", ctx, uint64(1), uint64(2), 5, (*string)(nil), int64(3)).
		Return(&model.Rating{}, model.RatingSummary{Count: 1}, nil)

	blank := "   "
	res, err := svc.Rate(ctx, 1, 2, 5, &blank)
	require.NoError(t, err)
	assert.False(t, res.Film.ReviewComplete)
	ratings.AssertExpectations(t)
}

func TestRateErrors(t *testing.T) {
	ctx := context.Background()
	ratings := new(mockRatingStore)
	cache := new(mockRatingCache)
	svc := NewRatingService(ratings, cache, 3, quietLogger())

	ratings.On("Upsert", ctx, uint64(1), uint64(2), 9, (*string)(nil), int64(3)).
		Return(nil, model.RatingSummary{}, mysql.ErrRatingOutOfRange)
	ratings.On("Upsert", ctx, uint64(404), uint64(2), 3, (*string)(nil), int64(3)).
		Return(nil, model.RatingSummary{}, gorm.ErrRecordNotFound)

	_, err := svc.Rate(ctx, 1, 2, 9, nil)
	assert.ErrorIs(t, err, ErrRatingOutOfRange)
	_, err = svc.Rate(ctx, 404, 2, 3, nil)
	assert.ErrorIs(t, err, ErrFilmNotFound)
	cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestSummaryCacheAside(t *testing.T) {
	ctx := context.Background()
	ratings := new(mockRatingStore)
	cache := new(mockRatingCache)
	svc := NewRatingService(ratings, cache, 2, quietLogger())

	// 命中
	cache.On("Get", ctx, uint64(1)).Return(model.RatingSummary{Average: avg(3), Count: 2}, true, nil).Once()
	st, err := svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.True(t, st.ReviewComplete)
	ratings.AssertNotCalled(t, "Average", mock.Anything, mock.Anything)

	// 未命中回源并回填
	fresh := model.RatingSummary{Average: avg(2), Count: 1}
	cache.On("Get", ctx, uint64(2)).Return(model.RatingSummary{}, false, nil).Once()
	ratings.On("Average", ctx, uint64(2)).Return(fresh, nil).Once()
	cache.On("Set", ctx, uint64(2), fresh).Return(nil).Once()
	st, err = svc.Summary(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.RatingCount)
	assert.False(t, st.ReviewComplete)

	// 缓存故障不影响读
	cache.On("Get", ctx, uint64(3)).Return(model.RatingSummary{}, false, errors.New("redis down")).Once()
	ratings.On("Average", ctx, uint64(3)).Return(model.RatingSummary{}, nil).Once()
	cache.On("Set", ctx, uint64(3), model.RatingSummary{}).Return(errors.New("redis down")).Once()
	st, err = svc.Summary(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, st.AverageRating)

	cache.AssertExpectations(t)
	ratings.AssertExpectations(t)
}
