package mysql

import (
	"context"
	"errors"
	"time"

	"MarsAI_Festival/internal/model"

	"gorm.io/gorm"
)

var ErrInvitationConsumed = errors.New("invitation already used")

type InvitationRepository struct {
	DB *gorm.DB
}

func (r *InvitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	return r.DB.WithContext(ctx).Create(inv).Error
}

func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// HasOpen 是否存在未使用且未过期的邀请
func (r *InvitationRepository) HasOpen(ctx context.Context, email string, now time.Time) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Invitation{}).
		Where("email = ? AND used_at IS NULL AND expires_at > ?", email, now).
		Count(&n).Error
	return n > 0, err
}

// ListOpen 未使用的邀请，最新在前
func (r *InvitationRepository) ListOpen(ctx context.Context) ([]model.Invitation, error) {
	var list []model.Invitation
	err := r.DB.WithContext(ctx).
		Where("used_at IS NULL").
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

func (r *InvitationRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&model.Invitation{}, id)
	return res.RowsAffected > 0, res.Error
}

// Accept 标记邀请已用并创建受邀用户，二者同一事务
func (r *InvitationRepository) Accept(ctx context.Context, inv *model.Invitation, user *model.User, now time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uRepo := &UserRepository{DB: tx}

		res := tx.Model(&model.Invitation{}).
			Where("id = ? AND used_at IS NULL", inv.ID).
			Update("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInvitationConsumed
		}
		if err := uRepo.Create(ctx, user, inv.Role); err != nil {
			return err
		}
		inv.UsedAt = &now
		return nil
	})
}
