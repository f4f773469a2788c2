package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"
	"MarsAI_Festival/internal/repository/mysql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationService struct {
	invitations InvitationStore
	users       UserStore
	auth        *AuthService
	mailer      Mailer
	frontendURL string
	log         *slog.Logger
	now         func() time.Time
}

func NewInvitationService(invitations InvitationStore, users UserStore, auth *AuthService, mailer Mailer, frontendURL string, log *slog.Logger) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		users:       users,
		auth:        auth,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		log:         log,
		now:         time.Now,
	}
}

// Link 邀请落地页地址
func (s *InvitationService) Link(token string) string {
	return fmt.Sprintf("%s/invite/%s", s.frontendURL, token)
}

// Invite 已有账号或已有未过期邀请的邮箱不能再邀请
func (s *InvitationService) Invite(ctx context.Context, inviterID uint64, email string, role model.RoleName) (*model.Invitation, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}
	now := s.now()
	open, err := s.invitations.HasOpen(ctx, email, now)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrInvitationPending
	}

	inv := &model.Invitation{
		Email:     email,
		Role:      role,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(model.InvitationTTL),
		InvitedBy: inviterID,
	}
	if err = s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}

	// 发信失败不回滚邀请，管理员可以从列表里拿到链接
	if err = s.mailer.SendInvitation(ctx, pkg.InvitationMail{To: email, Role: string(role), Link: s.Link(inv.Token)}); err != nil {
		s.log.ErrorContext(ctx, "send invitation mail", slog.String("email", email), slog.Any("error", err))
	}
	s.log.InfoContext(ctx, "invitation created", slog.String("email", email), slog.String("role", string(role)), slog.Uint64("invited_by", inviterID))
	return inv, nil
}

func (s *InvitationService) ListOpen(ctx context.Context) ([]model.Invitation, error) {
	return s.invitations.ListOpen(ctx)
}

func (s *InvitationService) Revoke(ctx context.Context, id uint64) error {
	ok, err := s.invitations.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvitationNotFound
	}
	return nil
}

// Lookup 公开校验邀请令牌
func (s *InvitationService) Lookup(ctx context.Context, token string) (*model.Invitation, error) {
	inv, err := s.invitations.FindByToken(ctx, token)
	if err != nil {
		return nil, mapNotFound(err, ErrInvitationNotFound)
	}
	if !inv.Usable(s.now()) {
		return nil, ErrInvitationExpired
	}
	return inv, nil
}

// Accept 用邀请创建账号并直接登录
func (s *InvitationService) Accept(ctx context.Context, token, name, password string) (*model.User, *pkg.Pair, error) {
	inv, err := s.Lookup(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLen {
		return nil, nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLen)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{Name: name, Email: inv.Email, Password: hash}
	if err = s.invitations.Accept(ctx, inv, user, s.now()); err != nil {
		switch {
		case errors.Is(err, mysql.ErrInvitationConsumed):
			return nil, nil, ErrInvitationExpired
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, err
	}
	pair, err := s.auth.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.log.InfoContext(ctx, "invitation accepted", slog.Uint64("user_id", user.ID), slog.String("role", string(inv.Role)))
	return user, pair, nil
}
