package model

import (
	"errors"
	"time"
)

type FilmStatus string

const (
	FilmPending  FilmStatus = "pending"
	FilmApproved FilmStatus = "approved"
	FilmRejected FilmStatus = "rejected"
)

var ErrIllegalTransition = errors.New("illegal film status transition")

// CanTransition reports whether a film may move from s to next.
// Only pending films move, and only to a terminal state.
func (s FilmStatus) CanTransition(next FilmStatus) bool {
	return s == FilmPending && (next == FilmApproved || next == FilmRejected)
}

type Film struct {
	ID              uint64  `gorm:"primaryKey" json:"id"`
	Title           string  `gorm:"size:255;not null" json:"title"`
	Country         string  `gorm:"size:100;not null" json:"country"`
	Description     string  `gorm:"type:text;not null" json:"description"`
	FilmURL         string  `gorm:"size:512" json:"film_url"`
	YoutubeLink     *string `gorm:"size:512" json:"youtube_link"`
	PosterURL       string  `gorm:"size:512" json:"poster_url"`
	ThumbnailURL    *string `gorm:"size:512" json:"thumbnail_url"`
	AIToolsUsed     *string `gorm:"size:255" json:"ai_tools_used"`
	AICertification bool    `gorm:"not null;default:false" json:"ai_certification"`

	DirectorFirstname string  `gorm:"size:100;not null" json:"director_firstname"`
	DirectorLastname  string  `gorm:"size:100;not null" json:"director_lastname"`
	DirectorEmail     string  `gorm:"size:255;not null;index:idx_director_email_time,priority:1" json:"director_email"`
	DirectorBio       *string `gorm:"type:text" json:"director_bio"`
	DirectorSchool    *string `gorm:"size:255" json:"director_school"`
	DirectorWebsite   *string `gorm:"size:255" json:"director_website"`
	SocialInstagram   *string `gorm:"size:255" json:"social_instagram"`
	SocialYoutube     *string `gorm:"size:255" json:"social_youtube"`
	SocialVimeo       *string `gorm:"size:255" json:"social_vimeo"`

	Status          FilmStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	RejectionReason *string    `gorm:"type:text" json:"rejection_reason"`
	StatusChangedBy *uint64    `json:"status_changed_by"`
	StatusChangedAt *time.Time `json:"status_changed_at"`

	Categories []Category `gorm:"many2many:film_categories;" json:"categories,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_director_email_time,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Category struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
