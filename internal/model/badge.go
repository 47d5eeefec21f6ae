package model

import "time"

// swagger:model Badge
type Badge struct {
	BaseModel
	UserID      uint      `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	IconURL     string    `gorm:"size:255" json:"iconUrl"`
	EarnedAt    time.Time `gorm:"not null" json:"earnedAt"`
}

func (Badge) TableName() string {
	return "badges"
}
