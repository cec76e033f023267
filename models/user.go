package models

import (
	"time"

	"Gin_postgres_redis_tool_issuance/shift"
)

const UserTable = "users"

const (
	RoleAdmin     = "admin"
	RoleAttendant = "attendant"
)

type User struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Username     string          `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash string          `gorm:"column:password;size:255;not null" json:"-"`
	Role         string          `gorm:"size:50;not null;default:'attendant'" json:"role"`
	Shift        string          `gorm:"size:10" json:"shift"`      // single letter, attendants only
	ShiftTime    shift.TimeOfDay `gorm:"size:20" json:"shift_time"` // morning / evening
	CreatedAt    time.Time       `json:"created_at"`
}

func (User) TableName() string { return UserTable }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
