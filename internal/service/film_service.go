package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"
	"unicode/utf8"

	"MarsAI_Festival/internal/model"
	"MarsAI_Festival/internal/pkg"
	"MarsAI_Festival/internal/repository/mysql"
)

// SubmissionLimits 投稿限额和上传大小
type SubmissionLimits struct {
	PerEmail     int
	EmailWindow  time.Duration
	MaxFilmSize  int64
	MaxImageSize int64
}

// SubmitInput 公开投稿表单
type SubmitInput struct {
	Title             string
	Country           string
	Description       string
	YoutubeLink       string
	AIToolsUsed       string
	AICertification   bool
	DirectorFirstname string
	DirectorLastname  string
	DirectorEmail     string
	DirectorBio       string
	DirectorSchool    string
	DirectorWebsite   string
	SocialInstagram   string
	SocialYoutube     string
	SocialVimeo       string

	Film      *multipart.FileHeader
	Poster    *multipart.FileHeader
	Thumbnail *multipart.FileHeader
}

type FilmService struct {
	films   FilmStore
	storage FileStorage
	cache   RatingCache
	limits  SubmissionLimits
	log     *slog.Logger
	now     func() time.Time
}

// cache 可以为 nil
func NewFilmService(films FilmStore, storage FileStorage, cache RatingCache, limits SubmissionLimits, log *slog.Logger) *FilmService {
	return &FilmService{films: films, storage: storage, cache: cache, limits: limits, log: log, now: time.Now}
}

// Submit 校验表单、限流、落盘后写库；任何一步失败都删掉本次写下的文件
func (s *FilmService) Submit(ctx context.Context, in SubmitInput) (*model.Film, error) {
	if in.Film == nil || in.Poster == nil {
		return nil, ErrMissingFile
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	if s.limits.PerEmail > 0 {
		n, err := s.films.CountRecentByEmail(ctx, in.DirectorEmail, s.now().Add(-s.limits.EmailWindow))
		if err != nil {
			return nil, err
		}
		if n >= int64(s.limits.PerEmail) {
			return nil, ErrTooManySubmissions
		}
	}

	var written []*pkg.StoredFile
	cleanup := func() { s.storage.Remove(written...) }

	filmFile, err := s.storage.Save(in.Film, pkg.FilmUpload(s.limits.MaxFilmSize))
	if err != nil {
		return nil, err
	}
	written = append(written, filmFile)
	poster, err := s.storage.Save(in.Poster, pkg.PosterUpload(s.limits.MaxImageSize))
	if err != nil {
		cleanup()
		return nil, err
	}
	written = append(written, poster)
	var thumbURL *string
	if in.Thumbnail != nil {
		thumb, err := s.storage.Save(in.Thumbnail, pkg.ThumbnailUpload(s.limits.MaxImageSize))
		if err != nil {
			cleanup()
			return nil, err
		}
		written = append(written, thumb)
		thumbURL = &thumb.URL
	}

	film := &model.Film{
		Title:             in.Title,
		Country:           in.Country,
		Description:       in.Description,
		FilmURL:           filmFile.URL,
		YoutubeLink:       optional(in.YoutubeLink),
		PosterURL:         poster.URL,
		ThumbnailURL:      thumbURL,
		AIToolsUsed:       optional(in.AIToolsUsed),
		AICertification:   true,
		DirectorFirstname: in.DirectorFirstname,
		DirectorLastname:  in.DirectorLastname,
		DirectorEmail:     in.DirectorEmail,
		DirectorBio:       optional(in.DirectorBio),
		DirectorSchool:    optional(in.DirectorSchool),
		DirectorWebsite:   optional(in.DirectorWebsite),
		SocialInstagram:   optional(in.SocialInstagram),
		SocialYoutube:     optional(in.SocialYoutube),
		SocialVimeo:       optional(in.SocialVimeo),
	}
	if err = s.films.Create(ctx, film); err != nil {
		cleanup()
		return nil, err
	}
	s.log.InfoContext(ctx, "film submitted", slog.Uint64("film_id", film.ID), slog.String("director_email", film.DirectorEmail))
	return film, nil
}

func (s *FilmService) Get(ctx context.Context, id uint64) (*model.Film, error) {
	film, err := s.films.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, ErrFilmNotFound)
	}
	return film, nil
}

// GetPublic 公开页只能看到已通过的影片
func (s *FilmService) GetPublic(ctx context.Context, id uint64) (*model.Film, error) {
	film, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if film.Status != model.FilmApproved {
		return nil, ErrFilmNotFound
	}
	return film, nil
}

func (s *FilmService) ListByStatus(ctx context.Context, status model.FilmStatus) ([]model.Film, error) {
	list, err := s.films.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Film{}
	}
	return list, nil
}

// UpdateStatus 审核：只能从 pending 变成 approved 或 rejected
func (s *FilmService) UpdateStatus(ctx context.Context, id uint64, status model.FilmStatus, reason string, operatorID uint64) (*model.Film, error) {
	if status != model.FilmApproved && status != model.FilmRejected {
		return nil, fmt.Errorf("%w: status must be 'approved' or 'rejected'", ErrInvalidInput)
	}
	if utf8.RuneCountInString(reason) > maxDescription {
		return nil, fmt.Errorf("%w: rejection_reason is too long", ErrInvalidInput)
	}
	film, err := s.films.UpdateStatus(ctx, id, status, optional(reason), operatorID)
	if err != nil {
		return nil, mapNotFound(err, ErrFilmNotFound)
	}
	s.log.InfoContext(ctx, "film status changed",
		slog.Uint64("film_id", id), slog.String("status", string(status)), slog.Uint64("operator_id", operatorID))
	return film, nil
}

// Delete 删库成功后再删上传文件和评分缓存；文件删除失败不回滚
func (s *FilmService) Delete(ctx context.Context, id uint64) error {
	film, err := s.films.FindByID(ctx, id)
	if err != nil {
		return mapNotFound(err, ErrFilmNotFound)
	}
	ok, err := s.films.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrFilmNotFound
	}

	s.storage.Remove(s.storedFiles(film)...)
	if s.cache != nil {
		if err = s.cache.Invalidate(ctx, id); err != nil {
			s.log.WarnContext(ctx, "invalidate rating cache", slog.Uint64("film_id", id), slog.Any("error", err))
		}
	}
	s.log.InfoContext(ctx, "film deleted", slog.Uint64("film_id", id))
	return nil
}

func (s *FilmService) storedFiles(film *model.Film) []*pkg.StoredFile {
	urls := []string{film.FilmURL, film.PosterURL}
	if film.ThumbnailURL != nil {
		urls = append(urls, *film.ThumbnailURL)
	}
	files := make([]*pkg.StoredFile, 0, len(urls))
	for _, u := range urls {
		if f, ok := s.storage.Locate(u); ok {
			files = append(files, f)
		} else if u != "" {
			s.log.Warn("film file outside upload storage", slog.Uint64("film_id", film.ID), slog.String("url", u))
		}
	}
	return files
}

func (s *FilmService) SetCategories(ctx context.Context, id uint64, categoryIDs []uint64) (*model.Film, error) {
	film, err := s.films.SetCategories(ctx, id, categoryIDs)
	if err != nil {
		if errors.Is(err, mysql.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, mapNotFound(err, ErrFilmNotFound)
	}
	return film, nil
}

func (s *FilmService) Rankings(ctx context.Context) ([]model.FilmSummary, error) {
	list, err := s.films.Rankings(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.FilmSummary{}
	}
	return list, nil
}

const (
	maxTitle       = 255
	maxCountry     = 100
	maxDescription = 2000
	maxAITools     = 255
	maxName        = 100
	maxEmail       = 255
	maxBio         = 2000
	maxShortText   = 255
	maxLink        = 512
)

func (in *SubmitInput) normalize() error {
	fields := []*string{
		&in.Title, &in.Country, &in.Description, &in.YoutubeLink, &in.AIToolsUsed,
		&in.DirectorFirstname, &in.DirectorLastname, &in.DirectorEmail, &in.DirectorBio,
		&in.DirectorSchool, &in.DirectorWebsite, &in.SocialInstagram, &in.SocialYoutube, &in.SocialVimeo,
	}
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
	in.DirectorEmail = strings.ToLower(in.DirectorEmail)

	if in.Title == "" || in.Country == "" || in.Description == "" ||
		in.DirectorFirstname == "" || in.DirectorLastname == "" || in.DirectorEmail == "" {
		return fmt.Errorf("%w: title, country, description, director_firstname, director_lastname, director_email are required", ErrInvalidInput)
	}
	if !in.AICertification {
		return fmt.Errorf("%w: AI certification is required", ErrInvalidInput)
	}
	if !strings.Contains(in.DirectorEmail, "@") {
		return fmt.Errorf("%w: director_email is not a valid email", ErrInvalidInput)
	}

	limits := []struct {
		val string
		max int
	}{
		{in.Title, maxTitle}, {in.Country, maxCountry}, {in.Description, maxDescription},
		{in.AIToolsUsed, maxAITools}, {in.DirectorFirstname, maxName}, {in.DirectorLastname, maxName},
		{in.DirectorEmail, maxEmail}, {in.DirectorBio, maxBio}, {in.DirectorSchool, maxShortText},
		{in.DirectorWebsite, maxShortText}, {in.SocialInstagram, maxShortText},
		{in.SocialYoutube, maxShortText}, {in.SocialVimeo, maxShortText}, {in.YoutubeLink, maxLink},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.val) > l.max {
			return fmt.Errorf("%w: one or more fields exceed the allowed length", ErrInvalidInput)
		}
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
