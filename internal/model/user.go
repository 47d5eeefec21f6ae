package model

import (
	"time"
)

type UserRole string

const (
	Student    UserRole = "student"
	Instructor UserRole = "instructor"
	Admin      UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Email     string   `gorm:"size:100;unique;not null" json:"email"`
	Password  string   `gorm:"size:100;not null" json:"-"`
	FirstName string   `gorm:"size:100;not null" json:"firstName"`
	LastName  string   `gorm:"size:100;not null" json:"lastName"`
	Role      UserRole `gorm:"size:20;default:'student'" json:"role"`
	Avatar    string   `gorm:"size:255" json:"avatar"`
	Disabled  bool     `gorm:"default:false" json:"disabled"`

	// 平台级累计积分与连胜（跨课程）
	TotalPoints   int `gorm:"default:0" json:"totalPoints"`
	CurrentStreak int `gorm:"default:0" json:"currentStreak"`
	LongestStreak int `gorm:"default:0" json:"longestStreak"`

	LastLogin time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"lastLogin"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
