package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleSinger Role = "SINGER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSinger
}

type User struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Email      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	Role       Role      `gorm:"type:varchar(20);not null;default:'SINGER'" json:"role"`
	DefaultKey *Key      `gorm:"column:default_key;type:varchar(4)" json:"defaultKey"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	Adaptations []SongAdaptation `gorm:"foreignKey:SingerID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UserCreate is the admin request that adds a team member.
type UserCreate struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Role       string `json:"role"`
	DefaultKey string `json:"defaultKey"`
}

// UserUpdate carries optional changes; nil fields are left alone. An
// empty DefaultKey clears it.
type UserUpdate struct {
	Name       *string `json:"name"`
	Role       *string `json:"role"`
	DefaultKey *string `json:"defaultKey"`
	Password   *string `json:"password"`
}
