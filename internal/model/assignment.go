package model

import "time"

// Assignment asks one juror to review one film; (jury_id, film_id) is unique.
type Assignment struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	JuryID     uint64    `gorm:"not null;uniqueIndex:uk_jury_film;index" json:"jury_id"`
	FilmID     uint64    `gorm:"not null;uniqueIndex:uk_jury_film;index" json:"film_id"`
	AssignedBy uint64    `gorm:"not null" json:"assigned_by"`
	AssignedAt time.Time `gorm:"not null" json:"assigned_at"`
}

func (Assignment) TableName() string {
	return "assignments"
}
