package mysql

import (
	"context"
	"encoding/json"
	"time"

	"MarsAI_Festival/internal/model"

	"gorm.io/gorm"
)

// MaxOutboxRetry 超过次数的失败事件不再自动重投
const MaxOutboxRetry = 5

type OutboxRepository struct {
	DB *gorm.DB
}

// List 按 id 顺序取待投递和可重试的事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.FilmOutbox, error) {
	var list []model.FilmOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, MaxOutboxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate outbox记录消息失败重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.FilmOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate outbox成功记录消息更新
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.FilmOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

// insertOutbox 与业务写入同一事务落库
func insertOutbox(tx *gorm.DB, event string, film *model.Film, extra map[string]any) error {
	body := map[string]any{
		"event":      event,
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"film_id":    film.ID,
		"title":      film.Title,
		"status":     film.Status,
		"director": map[string]string{
			"firstname": film.DirectorFirstname,
			"lastname":  film.DirectorLastname,
			"email":     film.DirectorEmail,
		},
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tx.Create(&model.FilmOutbox{
		EventType: event,
		FilmID:    film.ID,
		Payload:   string(payload),
		Status:    model.OutboxPending,
	}).Error
}
