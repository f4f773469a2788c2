package model

import "time"

// RoleName is the closed set of roles a user can hold.
type RoleName string

const (
	RoleDirector  RoleName = "director"
	RoleJury      RoleName = "jury"
	RoleSuperJury RoleName = "super_jury"
	RoleAdmin     RoleName = "admin"
)

var AllRoles = []RoleName{RoleDirector, RoleJury, RoleSuperJury, RoleAdmin}

func (r RoleName) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

type Role struct {
	ID   uint64   `gorm:"primaryKey" json:"id"`
	Name RoleName `gorm:"uniqueIndex;size:32;not null" json:"name"`
}

type User struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Roles     []Role    `gorm:"many2many:user_roles;" json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RoleNames flattens the preloaded roles.
func (u *User) RoleNames() []RoleName {
	names := make([]RoleName, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

func (u *User) HasRole(role RoleName) bool {
	for _, r := range u.Roles {
		if r.Name == role {
			return true
		}
	}
	return false
}
