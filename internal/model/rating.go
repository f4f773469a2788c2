package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Rating is one juror's score for one film; (film_id, juror_id) is unique.
type Rating struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	FilmID    uint64    `gorm:"not null;uniqueIndex:uk_film_juror;index" json:"film_id"`
	JurorID   uint64    `gorm:"not null;uniqueIndex:uk_film_juror;index" json:"juror_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   *string   `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Rating) TableName() string {
	return "ratings"
}

// RatingSummary is the aggregate of all ratings of a film.
// Average is nil when Count is zero.
type RatingSummary struct {
	Average *float64 `json:"average_rating"`
	Count   int64    `json:"rating_count"`
}
