package model

// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID      uint   `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Title         string `gorm:"size:255;not null" json:"title"`
	Description   string `gorm:"type:text" json:"description"`
	Content       string `gorm:"type:text" json:"content"`
	VideoURL      string `gorm:"size:255" json:"videoUrl"`
	SequenceOrder int    `gorm:"default:1" json:"sequenceOrder"`
	IsPublished   bool   `gorm:"default:false" json:"isPublished"`
}

func (Lesson) TableName() string {
	return "lessons"
}
