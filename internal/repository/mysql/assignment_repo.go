package mysql

import (
	"context"

	"MarsAI_Festival/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository struct {
	DB *gorm.DB
}

// Upsert 重复分配只刷新分配人和时间，不产生重复行
func (r *AssignmentRepository) Upsert(ctx context.Context, a *model.Assignment) error {
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "jury_id"}, {Name: "film_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"assigned_by", "assigned_at"}),
	}).Create(a).Error
}

// Delete 幂等删除：不存在也视为成功
func (r *AssignmentRepository) Delete(ctx context.Context, juryID, filmID uint64) error {
	return r.DB.WithContext(ctx).
		Where("jury_id = ? AND film_id = ?", juryID, filmID).
		Delete(&model.Assignment{}).Error
}

func (r *AssignmentRepository) CountByJury(ctx context.Context, juryID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Assignment{}).Where("jury_id = ?", juryID).Count(&n).Error
	return n, err
}

func (r *AssignmentRepository) Exists(ctx context.Context, juryID, filmID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Assignment{}).
		Where("jury_id = ? AND film_id = ?", juryID, filmID).
		Count(&n).Error
	return n > 0, err
}

// ListAssignedFilms 评委的待评队列，带上自己的评分，最近分配在前
func (r *AssignmentRepository) ListAssignedFilms(ctx context.Context, juryID uint64) ([]model.AssignedFilm, error) {
	var list []model.AssignedFilm
	err := r.DB.WithContext(ctx).Raw(`
		SELECT f.id, f.title, f.country, f.description,
		       f.director_firstname, f.director_lastname,
		       f.film_url, f.youtube_link, f.poster_url, f.thumbnail_url, f.status,
		       a.assigned_at,
		       r.rating AS my_rating, r.comment AS my_comment
		FROM assignments a
		JOIN films f ON f.id = a.film_id
		LEFT JOIN ratings r ON r.film_id = f.id AND r.juror_id = a.jury_id
		WHERE a.jury_id = ?
		ORDER BY a.assigned_at DESC, f.id DESC`, juryID).
		Scan(&list).Error
	return list, err
}
