package model

import "time"

// FilmSummary 影片列表行，附带评分聚合
type FilmSummary struct {
	ID                uint64     `json:"id"`
	Title             string     `json:"title"`
	Country           string     `json:"country"`
	DirectorFirstname string     `json:"director_firstname"`
	DirectorLastname  string     `json:"director_lastname"`
	PosterURL         string     `json:"poster_url"`
	ThumbnailURL      *string    `json:"thumbnail_url"`
	Status            FilmStatus `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`

	RatingCount     int64    `json:"rating_count"`
	AverageRating   *float64 `json:"average_rating"`
	AssignmentCount int64    `json:"assignment_count"`
}

// AssignedFilm 评委队列里的一部影片，带上该评委自己的评分
type AssignedFilm struct {
	ID                uint64     `json:"id"`
	Title             string     `json:"title"`
	Country           string     `json:"country"`
	Description       string     `json:"description"`
	DirectorFirstname string     `json:"director_firstname"`
	DirectorLastname  string     `json:"director_lastname"`
	FilmURL           string     `json:"film_url"`
	YoutubeLink       *string    `json:"youtube_link"`
	PosterURL         string     `json:"poster_url"`
	ThumbnailURL      *string    `json:"thumbnail_url"`
	Status            FilmStatus `json:"status"`
	AssignedAt        time.Time  `json:"assigned_at"`
	MyRating          *int       `json:"my_rating"`
	MyComment         *string    `json:"my_comment"`
}

type JuryMember struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	AssignedFilms int64  `json:"assigned_films"`
	RatedFilms    int64  `json:"rated_films"`
}
