package service

import (
	"context"
	"testing"
	"time"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTokens() *pkg.TokenManager {
	return pkg.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	sessions := new(mockSessionStore)
	svc := NewAuthService(users, sessions, newTokens(), quietLogger())

	users.On("ExistsByEmail", ctx, "ana@example.com").Return(false, nil)
	users.On("Create", ctx, mock.AnythingOfType("*model.User"), []model.RoleName{model.RoleDirector}).
		Run(func(args mock.Arguments) {
			u := args.Get(1).(*model.User)
			u.ID = 3
			u.Roles = []model.Role{{Name: model.RoleDirector}}
		}).Return(nil)
	sessions.On("AddUserToken", ctx, uint64(3), mock.AnythingOfType("string")).Return(nil)

	user, pair, err := svc.Register(ctx, " Ana ", " ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret1")))

	claims, err := newTokens().ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), claims.UserID)
	assert.Equal(t, []model.RoleName{model.RoleDirector}, claims.Roles)
	sessions.AssertCalled(t, "AddUserToken", ctx, uint64(3), pair.AccessToken)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	svc := NewAuthService(users, new(mockSessionStore), newTokens(), quietLogger())

	_, _, err := svc.Register(ctx, "", "a@b.c", "secret1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = svc.Register(ctx, "Ana", "a@b.c", "12345")
	assert.ErrorIs(t, err, ErrInvalidInput)

	users.On("ExistsByEmail", ctx, "taken@b.c").Return(true, nil)
	_, _, err = svc.Register(ctx, "Ana", "taken@b.c", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// 并发注册撞唯一索引
	users.On("ExistsByEmail", ctx, "race@b.c").Return(false, nil)
	users.On("Create", ctx, mock.Anything, mock.Anything).Return(gorm.ErrDuplicatedKey)
	_, _, err = svc.Register(ctx, "Ana", "race@b.c", "secret1")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	sessions := new(mockSessionStore)
	svc := NewAuthService(users, sessions, newTokens(), quietLogger())

	hash, err := hashPassword("secret1")
	require.NoError(t, err)
	stored := &model.User{ID: 4, Email: "jury@example.com", Password: hash, Roles: []model.Role{{Name: model.RoleJury}}}
	users.On("FindByEmail", ctx, "jury@example.com").Return(stored, nil)
	users.On("FindByEmail", ctx, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
	sessions.On("AddUserToken", ctx, uint64(4), mock.Anything).Return(nil)

	_, _, err = svc.Login(ctx, "jury@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "ghost@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, pair, err := svc.Login(ctx, "Jury@Example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), user.ID)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestRefreshRereadsRoles(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	sessions := new(mockSessionStore)
	tokens := newTokens()
	svc := NewAuthService(users, sessions, tokens, quietLogger())

	old, err := tokens.GeneratePair(&model.User{ID: 4})
	require.NoError(t, err)
	users.On("FindByID", ctx, uint64(4)).Return(&model.User{ID: 4, Roles: []model.Role{{Name: model.RoleAdmin}}}, nil)
	sessions.On("AddUserToken", ctx, uint64(4), mock.Anything).Return(nil)

	pair, err := svc.Refresh(ctx, old.RefreshToken)
	require.NoError(t, err)
	claims, err := tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, []model.RoleName{model.RoleAdmin}, claims.Roles)

	_, err = svc.Refresh(ctx, old.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrRefreshInvalid)
}

func TestUserServiceDelete(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	sessions := new(mockSessionStore)
	svc := NewUserService(users, sessions, quietLogger())

	assert.ErrorIs(t, svc.Delete(ctx, 1, 1), ErrCannotDeleteSelf)

	users.On("Delete", ctx, uint64(2)).Return(false, nil)
	assert.ErrorIs(t, svc.Delete(ctx, 1, 2), ErrUserNotFound)

	users.On("Delete", ctx, uint64(3)).Return(true, nil)
	sessions.On("DeleteUserToken", ctx, uint64(3)).Return(nil)
	assert.NoError(t, svc.Delete(ctx, 1, 3))
	sessions.AssertExpectations(t)
}

func TestUserServiceRoles(t *testing.T) {
	ctx := context.Background()
	users := new(mockUserStore)
	sessions := new(mockSessionStore)
	svc := NewUserService(users, sessions, quietLogger())

	_, err := svc.Create(ctx, "Bo", "bo@example.com", "secret1", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddRole(ctx, 2, "boss")
	assert.ErrorIs(t, err, ErrInvalidInput)

	users.On("AddRole", ctx, uint64(9), model.RoleJury).Return(gorm.ErrRecordNotFound)
	_, err = svc.AddRole(ctx, 9, model.RoleJury)
	assert.ErrorIs(t, err, ErrUserNotFound)

	reloaded := &model.User{ID: 2, Roles: []model.Role{{Name: model.RoleDirector}, {Name: model.RoleJury}}}
	users.On("AddRole", ctx, uint64(2), model.RoleJury).Return(nil)
	users.On("FindByID", ctx, uint64(2)).Return(reloaded, nil)
	sessions.On("DeleteUserToken", ctx, uint64(2)).Return(nil)
	user, err := svc.AddRole(ctx, 2, model.RoleJury)
	require.NoError(t, err)
	assert.True(t, user.HasRole(model.RoleJury))
	sessions.AssertExpectations(t)
}
