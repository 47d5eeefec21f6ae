package model

import "time"

const (
	CourseStatusDraft     = "draft"
	CourseStatusPublished = "published"
	CourseStatusArchived  = "archived"
)

const (
	CourseDifficultyBeginner     = "beginner"
	CourseDifficultyIntermediate = "intermediate"
	CourseDifficultyAdvanced     = "advanced"
)

// swagger:model Course
type Course struct {
	BaseModel
	InstructorID uint   `gorm:"index;type:bigint unsigned;not null" json:"instructorId"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	ThumbnailURL string `gorm:"size:255" json:"thumbnailUrl"`
	Difficulty   string `gorm:"size:20;default:'beginner'" json:"difficulty"`
	Status       string `gorm:"size:20;default:'draft'" json:"status"`

	EntryFee       int64 `gorm:"default:0" json:"entryFee"`       // 报名费（分）
	TotalPrizePool int64 `gorm:"default:0" json:"totalPrizePool"` // 奖金池（分）

	MaxEnrollments      int        `gorm:"default:0" json:"maxEnrollments"` // 0 = unlimited
	EnrollmentStartDate *time.Time `json:"enrollmentStartDate,omitempty"`
	EnrollmentEndDate   *time.Time `json:"enrollmentEndDate,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}
