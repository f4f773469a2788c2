package mysql

import (
	"context"
	"errors"
	"time"

	"MarsAI_Festival/internal/model"

	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

type FilmRepository struct {
	DB *gorm.DB
}

// summaryColumns 评分数、平均分、分配数都按行即时聚合
const summaryColumns = `
	f.id, f.title, f.country, f.director_firstname, f.director_lastname,
	f.poster_url, f.thumbnail_url, f.status, f.created_at,
	(SELECT COUNT(*) FROM ratings r WHERE r.film_id = f.id) AS rating_count,
	(SELECT AVG(r.rating) FROM ratings r WHERE r.film_id = f.id) AS average_rating,
	(SELECT COUNT(*) FROM assignments a WHERE a.film_id = f.id) AS assignment_count`

// Create 写入影片并记录 film.submitted 事件
func (r *FilmRepository) Create(ctx context.Context, film *model.Film) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		film.Status = model.FilmPending
		if err := tx.Omit("Categories.*").Create(film).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventFilmSubmitted, film, nil)
	})
}

func (r *FilmRepository) FindByID(ctx context.Context, id uint64) (*model.Film, error) {
	var film model.Film
	if err := r.DB.WithContext(ctx).Preload("Categories").First(&film, id).Error; err != nil {
		return nil, err
	}
	return &film, nil
}

func (r *FilmRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Film{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// ListByStatus 最新投稿在前
func (r *FilmRepository) ListByStatus(ctx context.Context, status model.FilmStatus) ([]model.Film, error) {
	var list []model.Film
	err := r.DB.WithContext(ctx).
		Preload("Categories").
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// CountRecentByEmail 某导演邮箱在 since 之后的投稿数
func (r *FilmRepository) CountRecentByEmail(ctx context.Context, email string, since time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Film{}).
		Where("director_email = ? AND created_at > ?", email, since).
		Count(&n).Error
	return n, err
}

// UpdateStatus 只允许从 pending 迁移；条件更新防止并发重复审核
func (r *FilmRepository) UpdateStatus(ctx context.Context, id uint64, next model.FilmStatus, reason *string, operatorID uint64) (*model.Film, error) {
	var film model.Film
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&film, id).Error; err != nil {
			return err
		}
		if !film.Status.CanTransition(next) {
			return model.ErrIllegalTransition
		}
		now := time.Now()
		if next != model.FilmRejected {
			reason = nil
		}
		res := tx.Model(&model.Film{}).
			Where("id = ? AND status = ?", id, model.FilmPending).
			Updates(map[string]any{
				"status":            next,
				"rejection_reason":  reason,
				"status_changed_by": operatorID,
				"status_changed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrIllegalTransition
		}
		film.Status = next
		film.RejectionReason = reason
		film.StatusChangedBy = &operatorID
		film.StatusChangedAt = &now

		event := model.EventFilmApproved
		extra := map[string]any{}
		if next == model.FilmRejected {
			event = model.EventFilmRejected
			if reason != nil {
				extra["rejection_reason"] = *reason
			}
		}
		return insertOutbox(tx, event, &film, extra)
	})
	if err != nil {
		return nil, err
	}
	return &film, nil
}

// Delete 硬删除影片及其评分、分配、分类关联
func (r *FilmRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		film := model.Film{ID: id}
		if err := tx.Model(&film).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Where("film_id = ?", id).Delete(&model.Rating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("film_id = ?", id).Delete(&model.Assignment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Film{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// SetCategories 用给定分类整体替换影片分类
func (r *FilmRepository) SetCategories(ctx context.Context, id uint64, categoryIDs []uint64) (*model.Film, error) {
	var film model.Film
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&film, id).Error; err != nil {
			return err
		}
		var cats []model.Category
		if len(categoryIDs) > 0 {
			if err := tx.Where("id IN ?", categoryIDs).Find(&cats).Error; err != nil {
				return err
			}
			if len(cats) != len(uniqueIDs(categoryIDs)) {
				return ErrCategoryNotFound
			}
		}
		if err := tx.Model(&film).Association("Categories").Replace(cats); err != nil {
			return err
		}
		film.Categories = cats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &film, nil
}

// ListSummaries 某状态下的影片及评分聚合，最新投稿在前
func (r *FilmRepository) ListSummaries(ctx context.Context, status model.FilmStatus) ([]model.FilmSummary, error) {
	var list []model.FilmSummary
	err := r.DB.WithContext(ctx).Raw(`SELECT `+summaryColumns+`
		FROM films f
		WHERE f.status = ?
		ORDER BY f.created_at DESC, f.id DESC`, status).
		Scan(&list).Error
	return list, err
}

// Rankings 至少有一条评分的影片，平均分降序，其次评分数降序
func (r *FilmRepository) Rankings(ctx context.Context) ([]model.FilmSummary, error) {
	var list []model.FilmSummary
	err := r.DB.WithContext(ctx).Raw(`SELECT * FROM (SELECT `+summaryColumns+`
		FROM films f
		WHERE f.status <> ?) s
		WHERE s.rating_count > 0
		ORDER BY s.average_rating DESC, s.rating_count DESC, s.id ASC`, model.FilmRejected).
		Scan(&list).Error
	return list, err
}

func uniqueIDs(ids []uint64) map[uint64]struct{} {
	set := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
