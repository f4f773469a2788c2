package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLen = 6

type AuthService struct {
	users    UserStore
	sessions SessionStore
	tokens   *pkg.TokenManager
	log      *slog.Logger
}

func NewAuthService(users UserStore, sessions SessionStore, tokens *pkg.TokenManager, log *slog.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, tokens: tokens, log: log}
}

// Register 自助注册，默认角色为导演
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, *pkg.Pair, error) {
	user, err := createUser(ctx, s.users, name, email, password, model.RoleDirector)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.log.InfoContext(ctx, "user registered", slog.Uint64("user_id", user.ID))
	return user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, *pkg.Pair, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}
	// 将token写入redis，顶掉旧会话
	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	return s.sessions.DeleteUserToken(ctx, userID)
}

// Refresh 用 refresh token 换新的一对令牌，角色从库里重新读取
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return s.issue(ctx, user)
}

func (s *AuthService) Profile(ctx context.Context, userID uint64) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapNotFound(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *model.User) (*pkg.Pair, error) {
	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}
	if err = s.sessions.AddUserToken(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	return pair, nil
}

// createUser 校验输入、查重并写入用户
func createUser(ctx context.Context, users UserStore, name, email, password string, roles ...model.RoleName) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLen)
	}
	for _, r := range roles {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, r)
		}
	}
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Name: name, Email: email, Password: hash}
	if err = users.Create(ctx, user, roles...); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
