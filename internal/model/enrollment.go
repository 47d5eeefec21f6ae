package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	StudentID uint             `gorm:"index:idx_enrollment_student_course,unique;type:bigint unsigned;not null" json:"studentId"`
	CourseID  uint             `gorm:"index:idx_enrollment_student_course,unique;type:bigint unsigned;not null" json:"courseId"`
	Status    EnrollmentStatus `gorm:"size:20;default:'active'" json:"status"`

	ProgressPercentage int       `gorm:"default:0" json:"progressPercentage"`
	EnrolledAt         time.Time `gorm:"not null" json:"enrolledAt"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
