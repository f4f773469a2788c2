package service

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"
	"time"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"
	"MarsAI_Festival/internal/repository/mysql"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type FilmServiceSuite struct {
	suite.Suite
	ctx     context.Context
	films   *mockFilmStore
	storage *mockStorage
	cache   *mockRatingCache
	svc     *FilmService
	now     time.Time
}

func (s *FilmServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.films = new(mockFilmStore)
	s.storage = new(mockStorage)
	s.cache = new(mockRatingCache)
	s.svc = NewFilmService(s.films, s.storage, s.cache, SubmissionLimits{
		PerEmail:     2,
		EmailWindow:  time.Hour,
		MaxFilmSize:  1 << 20,
		MaxImageSize: 1 << 10,
	}, quietLogger())
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.svc.now = func() time.Time { return s.now }
}

func (s *FilmServiceSuite) input() SubmitInput {
	return SubmitInput{
		Title:             " Red Dust ",
		Country:           "France",
		Description:       "A short film about Mars.",
		AICertification:   true,
		DirectorFirstname: "Ana",
		DirectorLastname:  "Lopez",
		DirectorEmail:     " Ana@Example.com ",
		Film:              &multipart.FileHeader{Filename: "film.mp4"},
		Poster:            &multipart.FileHeader{Filename: "poster.png"},
	}
}

func kindPrefix(prefix string) interface{} {
	return mock.MatchedBy(func(k pkg.UploadKind) bool { return k.Prefix == prefix })
}

func (s *FilmServiceSuite) TestSubmit() {
	in := s.input()
	filmFile := &pkg.StoredFile{URL: "/uploads/films/film_a.mp4"}
	poster := &pkg.StoredFile{URL: "/uploads/posters/poster_b.png"}

	s.films.On("CountRecentByEmail", s.ctx, "ana@example.com", s.now.Add(-time.Hour)).Return(int64(1), nil)
	s.storage.On("Save", in.Film, kindPrefix("film")).Return(filmFile, nil)
	s.storage.On("Save", in.Poster, kindPrefix("poster")).Return(poster, nil)
	s.films.On("Create", s.ctx, mock.AnythingOfType("*model.Film")).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Film).ID = 11
	}).Return(nil)

	film, err := s.svc.Submit(s.ctx, in)
	s.Require().NoError(err)
	s.Equal(uint64(11), film.ID)
	s.Equal("Red Dust", film.Title)
	s.Equal("ana@example.com", film.DirectorEmail)
	s.Equal(filmFile.URL, film.FilmURL)
	s.Equal(poster.URL, film.PosterURL)
	s.Nil(film.ThumbnailURL)
	s.Nil(film.YoutubeLink)
	s.True(film.AICertification)
	s.storage.AssertNotCalled(s.T(), "Remove", mock.Anything)
}

func (s *FilmServiceSuite) TestSubmitCleansUpOnFailure() {
	in := s.input()
	in.Thumbnail = &multipart.FileHeader{Filename: "thumb.png"}
	filmFile := &pkg.StoredFile{URL: "/uploads/films/film_a.mp4"}
	poster := &pkg.StoredFile{URL: "/uploads/posters/poster_b.png"}

	s.films.On("CountRecentByEmail", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	s.storage.On("Save", in.Film, kindPrefix("film")).Return(filmFile, nil)
	s.storage.On("Save", in.Poster, kindPrefix("poster")).Return(poster, nil)
	s.storage.On("Save", in.Thumbnail, kindPrefix("thumb")).Return(nil, pkg.ErrFileTooLarge)
	s.storage.On("Remove", []*pkg.StoredFile{filmFile, poster}).Return()

	_, err := s.svc.Submit(s.ctx, in)
	s.ErrorIs(err, ErrFileTooLarge)
	s.storage.AssertExpectations(s.T())
	s.films.AssertNotCalled(s.T(), "Create", mock.Anything, mock.Anything)
}

func (s *FilmServiceSuite) TestSubmitCleansUpWhenInsertFails() {
	in := s.input()
	filmFile := &pkg.StoredFile{URL: "/a"}
	poster := &pkg.StoredFile{URL: "/b"}

	s.films.On("CountRecentByEmail", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	s.storage.On("Save", in.Film, kindPrefix("film")).Return(filmFile, nil)
	s.storage.On("Save", in.Poster, kindPrefix("poster")).Return(poster, nil)
	s.films.On("Create", s.ctx, mock.Anything).Return(errors.New("db down"))
	s.storage.On("Remove", []*pkg.StoredFile{filmFile, poster}).Return()

	_, err := s.svc.Submit(s.ctx, in)
	s.EqualError(err, "db down")
	s.storage.AssertExpectations(s.T())
}

func (s *FilmServiceSuite) TestSubmitPerEmailLimit() {
	s.films.On("CountRecentByEmail", mock.Anything, "ana@example.com", mock.Anything).Return(int64(2), nil)
	_, err := s.svc.Submit(s.ctx, s.input())
	s.ErrorIs(err, ErrTooManySubmissions)
	s.storage.AssertNotCalled(s.T(), "Save", mock.Anything, mock.Anything)
}

func (s *FilmServiceSuite) TestSubmitValidation() {
	cases := map[string]func(in *SubmitInput){
		"missing title":    func(in *SubmitInput) { in.Title = "  " },
		"no ai cert":       func(in *SubmitInput) { in.AICertification = false },
		"bad email":        func(in *SubmitInput) { in.DirectorEmail = "nobody" },
		"title too long":   func(in *SubmitInput) { in.Title = strings.Repeat("x", 256) },
		"country too long": func(in *SubmitInput) { in.Country = strings.Repeat("é", 101) },
	}
	for name, mutate := range cases {
		in := s.input()
		mutate(&in)
		_, err := s.svc.Submit(s.ctx, in)
		s.ErrorIs(err, ErrInvalidInput, name)
	}

	in := s.input()
	in.Poster = nil
	_, err := s.svc.Submit(s.ctx, in)
	s.ErrorIs(err, ErrMissingFile)
	s.films.AssertNotCalled(s.T(), "CountRecentByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func (s *FilmServiceSuite) TestUpdateStatus() {
	approved := &model.Film{ID: 1, Status: model.FilmApproved}
	s.films.On("UpdateStatus", s.ctx, uint64(1), model.FilmApproved, (*string)(nil), uint64(5)).Return(approved, nil)
	s.films.On("UpdateStatus", s.ctx, uint64(2), model.FilmRejected, mock.Anything, uint64(5)).Return(nil, model.ErrIllegalTransition)
	s.films.On("UpdateStatus", s.ctx, uint64(3), model.FilmApproved, (*string)(nil), uint64(5)).Return(nil, gorm.ErrRecordNotFound)

	film, err := s.svc.UpdateStatus(s.ctx, 1, model.FilmApproved, "", 5)
	s.Require().NoError(err)
	s.Equal(model.FilmApproved, film.Status)

	_, err = s.svc.UpdateStatus(s.ctx, 2, model.FilmRejected, "off topic", 5)
	s.ErrorIs(err, ErrIllegalTransition)
	_, err = s.svc.UpdateStatus(s.ctx, 3, model.FilmApproved, "", 5)
	s.ErrorIs(err, ErrFilmNotFound)
	_, err = s.svc.UpdateStatus(s.ctx, 1, model.FilmPending, "", 5)
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *FilmServiceSuite) TestGetPublicHidesUnapproved() {
	s.films.On("FindByID", s.ctx, uint64(1)).Return(&model.Film{ID: 1, Status: model.FilmPending}, nil)
	s.films.On("FindByID", s.ctx, uint64(2)).Return(&model.Film{ID: 2, Status: model.FilmApproved}, nil)

	_, err := s.svc.GetPublic(s.ctx, 1)
	s.ErrorIs(err, ErrFilmNotFound)
	film, err := s.svc.GetPublic(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(uint64(2), film.ID)
}

func (s *FilmServiceSuite) TestDeleteAndCategories() {
	thumb := "/uploads/thumbnails/thumb_1.png"
	film := &model.Film{ID: 1, FilmURL: "/uploads/films/film_1.mp4", PosterURL: "/uploads/posters/poster_1.png", ThumbnailURL: &thumb}
	stored := map[string]*pkg.StoredFile{}
	for _, u := range []string{film.FilmURL, film.PosterURL, thumb} {
		stored[u] = &pkg.StoredFile{Path: "/data" + u, URL: u}
		s.storage.On("Locate", u).Return(stored[u], true).Once()
	}
	s.films.On("FindByID", s.ctx, uint64(1)).Return(film, nil).Once()
	s.films.On("Delete", s.ctx, uint64(1)).Return(true, nil).Once()
	s.storage.On("Remove", []*pkg.StoredFile{stored[film.FilmURL], stored[film.PosterURL], stored[thumb]}).Once()
	s.cache.On("Invalidate", s.ctx, uint64(1)).Return(errors.New("redis down")).Once()

	s.films.On("FindByID", s.ctx, uint64(2)).Return(nil, gorm.ErrRecordNotFound).Once()
	s.films.On("SetCategories", s.ctx, uint64(1), []uint64{9}).Return(nil, mysql.ErrCategoryNotFound)

	s.NoError(s.svc.Delete(s.ctx, 1))
	s.ErrorIs(s.svc.Delete(s.ctx, 2), ErrFilmNotFound)
	s.films.AssertNotCalled(s.T(), "Delete", s.ctx, uint64(2))
	_, err := s.svc.SetCategories(s.ctx, 1, []uint64{9})
	s.ErrorIs(err, ErrCategoryNotFound)

	s.storage.AssertExpectations(s.T())
	s.cache.AssertExpectations(s.T())
}

func (s *FilmServiceSuite) TestDeleteKeepsFilesWhenRowsSurvive() {
	film := &model.Film{ID: 3, FilmURL: "/uploads/films/film_3.mp4", PosterURL: "/uploads/posters/poster_3.png"}
	s.films.On("FindByID", s.ctx, uint64(3)).Return(film, nil)
	s.films.On("Delete", s.ctx, uint64(3)).Return(false, errors.New("deadlock"))

	s.Error(s.svc.Delete(s.ctx, 3))
	s.storage.AssertNotCalled(s.T(), "Remove", mock.Anything)
	s.cache.AssertNotCalled(s.T(), "Invalidate", mock.Anything, mock.Anything)
}

func (s *FilmServiceSuite) TestDeleteSkipsForeignURLs() {
	film := &model.Film{ID: 4, FilmURL: "/uploads/films/film_4.mp4", PosterURL: "https://cdn.example.com/p.png"}
	local := &pkg.StoredFile{Path: "/data/uploads/films/film_4.mp4", URL: film.FilmURL}
	s.films.On("FindByID", s.ctx, uint64(4)).Return(film, nil)
	s.films.On("Delete", s.ctx, uint64(4)).Return(true, nil)
	s.storage.On("Locate", film.FilmURL).Return(local, true)
	s.storage.On("Locate", film.PosterURL).Return(nil, false)
	s.storage.On("Remove", []*pkg.StoredFile{local}).Once()
	s.cache.On("Invalidate", s.ctx, uint64(4)).Return(nil)

	s.NoError(s.svc.Delete(s.ctx, 4))
	s.storage.AssertExpectations(s.T())
}

func TestFilmServiceSuite(t *testing.T) {
	suite.Run(t, new(FilmServiceSuite))
}
