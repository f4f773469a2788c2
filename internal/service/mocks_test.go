package service

import (
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"

	"github.com/stretchr/testify/mock"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, user *model.User, roles ...model.RoleName) error {
	args := m.Called(ctx, user, roles)
	return args.Error(0)
}

func (m *mockUserStore) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *mockUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	l, _ := args.Get(0).([]model.User)
	return l, args.Error(1)
}

func (m *mockUserStore) Delete(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserStore) AddRole(ctx context.Context, userID uint64, role model.RoleName) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *mockUserStore) RemoveRole(ctx context.Context, userID uint64, role model.RoleName) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *mockUserStore) ListByRole(ctx context.Context, role model.RoleName) ([]model.JuryMember, error) {
	args := m.Called(ctx, role)
	l, _ := args.Get(0).([]model.JuryMember)
	return l, args.Error(1)
}

type mockSessionStore struct{ mock.Mock }

func (m *mockSessionStore) AddUserToken(ctx context.Context, userID uint64, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *mockSessionStore) GetUserToken(ctx context.Context, userID uint64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockSessionStore) ExtendUserToken(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSessionStore) DeleteUserToken(ctx context.Context, userID uint64) error {
	return m.Called(ctx, userID).Error(0)
}

type mockFilmStore struct{ mock.Mock }

func (m *mockFilmStore) Create(ctx context.Context, film *model.Film) error {
	return m.Called(ctx, film).Error(0)
}

func (m *mockFilmStore) FindByID(ctx context.Context, id uint64) (*model.Film, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*model.Film)
	return f, args.Error(1)
}

func (m *mockFilmStore) Exists(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockFilmStore) ListByStatus(ctx context.Context, status model.FilmStatus) ([]model.Film, error) {
	args := m.Called(ctx, status)
	l, _ := args.Get(0).([]model.Film)
	return l, args.Error(1)
}

func (m *mockFilmStore) CountRecentByEmail(ctx context.Context, email string, since time.Time) (int64, error) {
	args := m.Called(ctx, email, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockFilmStore) UpdateStatus(ctx context.Context, id uint64, next model.FilmStatus, reason *string, operatorID uint64) (*model.Film, error) {
	args := m.Called(ctx, id, next, reason, operatorID)
	f, _ := args.Get(0).(*model.Film)
	return f, args.Error(1)
}

func (m *mockFilmStore) Delete(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockFilmStore) SetCategories(ctx context.Context, id uint64, categoryIDs []uint64) (*model.Film, error) {
	args := m.Called(ctx, id, categoryIDs)
	f, _ := args.Get(0).(*model.Film)
	return f, args.Error(1)
}

func (m *mockFilmStore) ListSummaries(ctx context.Context, status model.FilmStatus) ([]model.FilmSummary, error) {
	args := m.Called(ctx, status)
	l, _ := args.Get(0).([]model.FilmSummary)
	return l, args.Error(1)
}

func (m *mockFilmStore) Rankings(ctx context.Context) ([]model.FilmSummary, error) {
	args := m.Called(ctx)
	l, _ := args.Get(0).([]model.FilmSummary)
	return l, args.Error(1)
}

type mockRatingStore struct{ mock.Mock }

func (m *mockRatingStore) Upsert(ctx context.Context, filmID, jurorID uint64, score int, comment *string, reviewThreshold int64) (*model.Rating, model.RatingSummary, error) {
	args := m.Called(ctx, filmID, jurorID, score, comment, reviewThreshold)
	r, _ := args.Get(0).(*model.Rating)
	return r, args.Get(1).(model.RatingSummary), args.Error(2)
}

func (m *mockRatingStore) Average(ctx context.Context, filmID uint64) (model.RatingSummary, error) {
	args := m.Called(ctx, filmID)
	return args.Get(0).(model.RatingSummary), args.Error(1)
}

func (m *mockRatingStore) FindByFilmAndJuror(ctx context.Context, filmID, jurorID uint64) (*model.Rating, error) {
	args := m.Called(ctx, filmID, jurorID)
	r, _ := args.Get(0).(*model.Rating)
	return r, args.Error(1)
}

type mockRatingCache struct{ mock.Mock }

func (m *mockRatingCache) Get(ctx context.Context, filmID uint64) (model.RatingSummary, bool, error) {
	args := m.Called(ctx, filmID)
	return args.Get(0).(model.RatingSummary), args.Bool(1), args.Error(2)
}

func (m *mockRatingCache) Set(ctx context.Context, filmID uint64, s model.RatingSummary) error {
	return m.Called(ctx, filmID, s).Error(0)
}

func (m *mockRatingCache) Invalidate(ctx context.Context, filmID uint64, delay ...time.Duration) error {
	return m.Called(ctx, filmID).Error(0)
}

type mockAssignmentStore struct{ mock.Mock }

func (m *mockAssignmentStore) Upsert(ctx context.Context, a *model.Assignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAssignmentStore) Delete(ctx context.Context, juryID, filmID uint64) error {
	return m.Called(ctx, juryID, filmID).Error(0)
}

func (m *mockAssignmentStore) ListAssignedFilms(ctx context.Context, juryID uint64) ([]model.AssignedFilm, error) {
	args := m.Called(ctx, juryID)
	l, _ := args.Get(0).([]model.AssignedFilm)
	return l, args.Error(1)
}

type mockInvitationStore struct{ mock.Mock }

func (m *mockInvitationStore) Create(ctx context.Context, inv *model.Invitation) error {
	return m.Called(ctx, inv).Error(0)
}

func (m *mockInvitationStore) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	args := m.Called(ctx, token)
	i, _ := args.Get(0).(*model.Invitation)
	return i, args.Error(1)
}

func (m *mockInvitationStore) HasOpen(ctx context.Context, email string, now time.Time) (bool, error) {
	args := m.Called(ctx, email, now)
	return args.Bool(0), args.Error(1)
}

func (m *mockInvitationStore) ListOpen(ctx context.Context) ([]model.Invitation, error) {
	args := m.Called(ctx)
	l, _ := args.Get(0).([]model.Invitation)
	return l, args.Error(1)
}

func (m *mockInvitationStore) Delete(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockInvitationStore) Accept(ctx context.Context, inv *model.Invitation, user *model.User, now time.Time) error {
	return m.Called(ctx, inv, user, now).Error(0)
}

type mockOutboxStore struct{ mock.Mock }

func (m *mockOutboxStore) List(ctx context.Context, batchSize int) ([]model.FilmOutbox, error) {
	args := m.Called(ctx, batchSize)
	l, _ := args.Get(0).([]model.FilmOutbox)
	return l, args.Error(1)
}

func (m *mockOutboxStore) RetryUpdate(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOutboxStore) SuccessUpdate(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendSubmissionConfirmation(ctx context.Context, d pkg.FilmMail) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockMailer) SendApproval(ctx context.Context, d pkg.FilmMail) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockMailer) SendRejection(ctx context.Context, d pkg.FilmMail) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockMailer) SendInvitation(ctx context.Context, d pkg.InvitationMail) error {
	return m.Called(ctx, d).Error(0)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Save(fh *multipart.FileHeader, kind pkg.UploadKind) (*pkg.StoredFile, error) {
	args := m.Called(fh, kind)
	f, _ := args.Get(0).(*pkg.StoredFile)
	return f, args.Error(1)
}

func (m *mockStorage) Locate(url string) (*pkg.StoredFile, bool) {
	args := m.Called(url)
	f, _ := args.Get(0).(*pkg.StoredFile)
	return f, args.Bool(1)
}

func (m *mockStorage) Remove(files ...*pkg.StoredFile) {
	m.Called(files)
}
