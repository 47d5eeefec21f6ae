package model

// swagger:model Quiz
type Quiz struct {
	BaseModel
	LessonID         uint   `gorm:"uniqueIndex;type:bigint unsigned;not null" json:"lessonId"`
	Title            string `gorm:"size:255;not null" json:"title"`
	Description      string `gorm:"type:text" json:"description"`
	TimeLimitMinutes int    `gorm:"default:30" json:"timeLimitMinutes"`
	PassingScore     int    `gorm:"default:70" json:"passingScore"` // 百分比 0-100
	MaxAttempts      int    `gorm:"default:3" json:"maxAttempts"`
	IsPublished      bool   `gorm:"default:false" json:"isPublished"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
