package service

import (
	"context"
	"mime/multipart"
	"time"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"
)

// 业务层只依赖这些接口，mysql/redis 仓储实现它们，测试里用 mock 替换

type UserStore interface {
	Create(ctx context.Context, user *model.User, roles ...model.RoleName) error
	FindByID(ctx context.Context, id uint64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]model.User, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	AddRole(ctx context.Context, userID uint64, role model.RoleName) error
	RemoveRole(ctx context.Context, userID uint64, role model.RoleName) error
	ListByRole(ctx context.Context, role model.RoleName) ([]model.JuryMember, error)
}

type SessionStore interface {
	AddUserToken(ctx context.Context, userID uint64, token string) error
	GetUserToken(ctx context.Context, userID uint64) (string, error)
	ExtendUserToken(ctx context.Context, userID uint64) error
	DeleteUserToken(ctx context.Context, userID uint64) error
}

type FilmStore interface {
	Create(ctx context.Context, film *model.Film) error
	FindByID(ctx context.Context, id uint64) (*model.Film, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	ListByStatus(ctx context.Context, status model.FilmStatus) ([]model.Film, error)
	CountRecentByEmail(ctx context.Context, email string, since time.Time) (int64, error)
	UpdateStatus(ctx context.Context, id uint64, next model.FilmStatus, reason *string, operatorID uint64) (*model.Film, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	SetCategories(ctx context.Context, id uint64, categoryIDs []uint64) (*model.Film, error)
	ListSummaries(ctx context.Context, status model.FilmStatus) ([]model.FilmSummary, error)
	Rankings(ctx context.Context) ([]model.FilmSummary, error)
}

type RatingStore interface {
	Upsert(ctx context.Context, filmID, jurorID uint64, score int, comment *string, reviewThreshold int64) (*model.Rating, model.RatingSummary, error)
	Average(ctx context.Context, filmID uint64) (model.RatingSummary, error)
	FindByFilmAndJuror(ctx context.Context, filmID, jurorID uint64) (*model.Rating, error)
}

type RatingCache interface {
	Get(ctx context.Context, filmID uint64) (model.RatingSummary, bool, error)
	Set(ctx context.Context, filmID uint64, s model.RatingSummary) error
	Invalidate(ctx context.Context, filmID uint64, delay ...time.Duration) error
}

type AssignmentStore interface {
	Upsert(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, juryID, filmID uint64) error
	ListAssignedFilms(ctx context.Context, juryID uint64) ([]model.AssignedFilm, error)
}

type InvitationStore interface {
	Create(ctx context.Context, inv *model.Invitation) error
	FindByToken(ctx context.Context, token string) (*model.Invitation, error)
	HasOpen(ctx context.Context, email string, now time.Time) (bool, error)
	ListOpen(ctx context.Context) ([]model.Invitation, error)
	Delete(ctx context.Context, id uint64) (bool, error)
	Accept(ctx context.Context, inv *model.Invitation, user *model.User, now time.Time) error
}

type CategoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	List(ctx context.Context) ([]model.Category, error)
	Delete(ctx context.Context, id uint64) (bool, error)
}

type OutboxStore interface {
	List(ctx context.Context, batchSize int) ([]model.FilmOutbox, error)
	RetryUpdate(ctx context.Context, id uint64) error
	SuccessUpdate(ctx context.Context, id uint64) error
}

type FileStorage interface {
	Save(fh *multipart.FileHeader, kind pkg.UploadKind) (*pkg.StoredFile, error)
	Locate(url string) (*pkg.StoredFile, bool)
	Remove(files ...*pkg.StoredFile)
}

type Mailer interface {
	SendSubmissionConfirmation(ctx context.Context, d pkg.FilmMail) error
	SendApproval(ctx context.Context, d pkg.FilmMail) error
	SendRejection(ctx context.Context, d pkg.FilmMail) error
	SendInvitation(ctx context.Context, d pkg.InvitationMail) error
}
