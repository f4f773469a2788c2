package service

import (
	"errors"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"
	"MarsAI_Festival/internal/repository/mysql"

	"gorm.io/gorm"
)

var (
	ErrInvalidInput = errors.New("invalid input")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("a user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrJuryNotFound       = errors.New("jury member not found")
	ErrCannotDeleteSelf   = errors.New("cannot delete your own account")

	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationPending  = errors.New("an invitation has already been sent to this email")
	ErrInvitationExpired  = errors.New("invitation expired or already used")

	ErrFilmNotFound       = errors.New("film not found")
	ErrTooManySubmissions = errors.New("too many submissions for this email, please try again later")
	ErrMissingFile        = errors.New("poster and film files are required")

	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")

	// 以下直接复用下层定义，方便调用方只依赖 service 包
	ErrIllegalTransition = model.ErrIllegalTransition
	ErrRatingOutOfRange  = mysql.ErrRatingOutOfRange
	ErrFileTooLarge      = pkg.ErrFileTooLarge
	ErrUnsupportedFormat = pkg.ErrUnsupportedFormat
)

// mapNotFound 把仓储层的记录不存在换成业务错误
func mapNotFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
