package model

import "time"

const (
	EventFilmSubmitted      = "film.submitted"
	EventFilmApproved       = "film.approved"
	EventFilmRejected       = "film.rejected"
	EventFilmReviewComplete = "film.review_complete"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// FilmOutbox 记录待投递的影片生命周期事件
type FilmOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:32;not null"`
	FilmID    uint64 `gorm:"not null;index"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (FilmOutbox) TableName() string { return "film_outbox" }
