package mysql

import (
	"context"
	"errors"
	"fmt"

	"MarsAI_Festival/internal/model"

	"gorm.io/gorm"
)

var ErrRoleNotFound = errors.New("role not found")

type UserRepository struct {
	DB *gorm.DB
}

// Create 在同一事务里写用户和角色关联
func (r *UserRepository) Create(ctx context.Context, user *model.User, roles ...model.RoleName) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rs, err := findRoles(tx, roles)
		if err != nil {
			return err
		}
		user.Roles = rs
		// 角色行已由种子写入，这里只写关联表
		return tx.Omit("Roles.*").Create(user).Error
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("Roles").First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var list []model.User
	err := r.DB.WithContext(ctx).Preload("Roles").Order("id ASC").Find(&list).Error
	return list, err
}

// Delete 删除用户及其角色、分配和评分；用户不存在时返回 false
func (r *UserRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	var deleted bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := model.User{ID: id}
		if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
			return err
		}
		if err := tx.Where("jury_id = ?", id).Delete(&model.Assignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("juror_id = ?", id).Delete(&model.Rating{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}

// AddRole 幂等地给用户加角色
func (r *UserRepository) AddRole(ctx context.Context, userID uint64, role model.RoleName) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rs, err := findRoles(tx, []model.RoleName{role})
		if err != nil {
			return err
		}
		user := model.User{ID: userID}
		if err = tx.First(&user, userID).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Roles").Append(&rs[0])
	})
}

// RemoveRole 幂等地移除角色
func (r *UserRepository) RemoveRole(ctx context.Context, userID uint64, role model.RoleName) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rs, err := findRoles(tx, []model.RoleName{role})
		if err != nil {
			return err
		}
		user := model.User{ID: userID}
		if err = tx.First(&user, userID).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Roles").Delete(&rs[0])
	})
}

// ListByRole 持有某角色的用户，附带分配数和已评分数
func (r *UserRepository) ListByRole(ctx context.Context, role model.RoleName) ([]model.JuryMember, error) {
	var list []model.JuryMember
	err := r.DB.WithContext(ctx).Raw(`
		SELECT u.id, u.name, u.email,
		       (SELECT COUNT(*) FROM assignments a WHERE a.jury_id = u.id) AS assigned_films,
		       (SELECT COUNT(*) FROM ratings rt WHERE rt.juror_id = u.id) AS rated_films
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id
		JOIN roles ro ON ro.id = ur.role_id
		WHERE ro.name = ?
		ORDER BY u.name ASC, u.id ASC`, role).
		Scan(&list).Error
	return list, err
}

func findRoles(tx *gorm.DB, names []model.RoleName) ([]model.Role, error) {
	if len(names) == 0 {
		return nil, nil
	}
	var rs []model.Role
	if err := tx.Where("name IN ?", names).Find(&rs).Error; err != nil {
		return nil, err
	}
	if len(rs) != len(uniqueRoles(names)) {
		return nil, fmt.Errorf("%w: %v", ErrRoleNotFound, names)
	}
	return rs, nil
}

func uniqueRoles(names []model.RoleName) map[model.RoleName]struct{} {
	set := make(map[model.RoleName]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
