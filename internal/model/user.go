package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Email      string   `gorm:"size:255;unique;not null" json:"email"`
	Username   string   `gorm:"size:50;unique;not null" json:"username"`
	Password   string   `gorm:"size:255;not null" json:"-"`
	FacultyID  uint     `gorm:"not null;index" json:"facultyId"`
	ProgramID  uint     `gorm:"not null;index" json:"programId"`
	AvatarURL  string   `gorm:"size:255" json:"avatarUrl"`
	AvatarPath string   `gorm:"size:500" json:"-"`
	IsVerified bool     `gorm:"default:false;not null" json:"isVerified"`
	Role       UserRole `gorm:"size:20;default:'student'" json:"role"`

	LastLogin time.Time `json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}
