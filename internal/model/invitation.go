package model

import "time"

const InvitationTTL = 7 * 24 * time.Hour

type Invitation struct {
	ID        uint64     `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"size:255;not null;index" json:"email"`
	Role      RoleName   `gorm:"size:32;not null" json:"role"`
	Token     string     `gorm:"uniqueIndex;size:64;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	InvitedBy uint64     `gorm:"not null" json:"invited_by"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// Usable is false once the invitation was used or has expired.
func (i *Invitation) Usable(now time.Time) bool {
	return i.UsedAt == nil && now.Before(i.ExpiresAt)
}
