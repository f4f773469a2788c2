package service

import (
	"context"
	"fmt"
	"log/slog"

	"MarsAI_Festival/internal/model"
)

// UserService 管理员维护账号和角色
type UserService struct {
	users    UserStore
	sessions SessionStore
	log      *slog.Logger
}

func NewUserService(users UserStore, sessions SessionStore, log *slog.Logger) *UserService {
	return &UserService{users: users, sessions: sessions, log: log}
}

func (s *UserService) Create(ctx context.Context, name, email, password string, roles []model.RoleName) (*model.User, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("%w: at least one role is required", ErrInvalidInput)
	}
	user, err := createUser(ctx, s.users, name, email, password, roles...)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "user created by admin", slog.Uint64("user_id", user.ID), slog.Any("roles", roles))
	return user, nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, operatorID, userID uint64) error {
	if operatorID == userID {
		return ErrCannotDeleteSelf
	}
	ok, err := s.users.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUserNotFound
	}
	s.dropSession(ctx, userID)
	return nil
}

func (s *UserService) AddRole(ctx context.Context, userID uint64, role model.RoleName) (*model.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := s.users.AddRole(ctx, userID, role); err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	s.dropSession(ctx, userID)
	return s.reload(ctx, userID)
}

func (s *UserService) RemoveRole(ctx context.Context, userID uint64, role model.RoleName) (*model.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := s.users.RemoveRole(ctx, userID, role); err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	s.dropSession(ctx, userID)
	return s.reload(ctx, userID)
}

func (s *UserService) reload(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return user, nil
}

// dropSession 令牌里带着角色，删号或改角色后强制重新登录
func (s *UserService) dropSession(ctx context.Context, userID uint64) {
	if err := s.sessions.DeleteUserToken(ctx, userID); err != nil {
		s.log.WarnContext(ctx, "drop user session", slog.Uint64("user_id", userID), slog.Any("error", err))
	}
}
