package mysql

import (
	"context"
	"errors"
	"fmt"

	"MarsAI_Festival/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRatingOutOfRange = fmt.Errorf("rating must be between %d and %d", model.MinRating, model.MaxRating)

type RatingRepository struct {
	DB *gorm.DB
}

// Upsert 每个 (film, juror) 只保留一条评分，重复评分覆盖分数和评语。
// 新增评分使计数恰好到达 reviewThreshold 时，同事务写入 film.review_complete 事件。
func (r *RatingRepository) Upsert(ctx context.Context, filmID, jurorID uint64, score int, comment *string, reviewThreshold int64) (*model.Rating, model.RatingSummary, error) {
	if score < model.MinRating || score > model.MaxRating {
		return nil, model.RatingSummary{}, ErrRatingOutOfRange
	}

	var (
		stored  model.Rating
		summary model.RatingSummary
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先锁影片行再读计数，同一影片的评分串行执行，review_complete 只会写一次
		var film model.Film
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&film, filmID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&model.Rating{}).
			Where("film_id = ? AND juror_id = ?", filmID, jurorID).
			Count(&existing).Error; err != nil {
			return err
		}

		row := &model.Rating{FilmID: filmID, JurorID: jurorID, Rating: score, Comment: comment}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "film_id"}, {Name: "juror_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).Create(row).Error; err != nil {
			return err
		}
		// 冲突更新时回填的主键不可靠，按唯一键重读
		if err := tx.Where("film_id = ? AND juror_id = ?", filmID, jurorID).First(&stored).Error; err != nil {
			return err
		}

		var err error
		if summary, err = average(tx, filmID); err != nil {
			return err
		}
		if existing == 0 && reviewThreshold > 0 && summary.Count == reviewThreshold {
			return insertOutbox(tx, model.EventFilmReviewComplete, &film, map[string]any{
				"rating_count":   summary.Count,
				"average_rating": summary.Average,
			})
		}
		return nil
	})
	if err != nil {
		return nil, model.RatingSummary{}, err
	}
	return &stored, summary, nil
}

// Average 平均分和评分数；没有评分时 Average 为 nil
func (r *RatingRepository) Average(ctx context.Context, filmID uint64) (model.RatingSummary, error) {
	return average(r.DB.WithContext(ctx), filmID)
}

// FindByFilmAndJuror 评委自己的评分，没有时返回 nil
func (r *RatingRepository) FindByFilmAndJuror(ctx context.Context, filmID, jurorID uint64) (*model.Rating, error) {
	var rating model.Rating
	err := r.DB.WithContext(ctx).
		Where("film_id = ? AND juror_id = ?", filmID, jurorID).
		First(&rating).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

func average(db *gorm.DB, filmID uint64) (model.RatingSummary, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := db.Model(&model.Rating{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("film_id = ?", filmID).
		Scan(&row).Error
	if err != nil {
		return model.RatingSummary{}, err
	}
	if row.Count == 0 {
		row.Average = nil
	}
	return model.RatingSummary{Average: row.Average, Count: row.Count}, nil
}
