package model

import "time"

type AttemptStatus string

const (
	AttemptStarted   AttemptStatus = "started"
	AttemptSubmitted AttemptStatus = "submitted"
	AttemptExpired   AttemptStatus = "expired"
)

// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	QuizID    uint          `gorm:"index:idx_attempt_quiz_student;type:bigint unsigned;not null" json:"quizId"`
	StudentID uint          `gorm:"index:idx_attempt_quiz_student;type:bigint unsigned;not null" json:"studentId"`
	Status    AttemptStatus `gorm:"size:20;default:'started'" json:"status"`

	Score            int  `gorm:"default:0" json:"score"`        // 百分比 0-100
	PointsEarned     int  `gorm:"default:0" json:"pointsEarned"` // 加权得分（供积分与排行榜累计）
	Passed           bool `gorm:"default:false" json:"passed"`
	TimeTakenMinutes int  `gorm:"default:0" json:"timeTakenMinutes"`

	StartedAt   time.Time  `gorm:"not null" json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// Terminal 表示该次尝试是否已终结（提交或超时）
func (a *QuizAttempt) Terminal() bool {
	return a.Status == AttemptSubmitted || a.Status == AttemptExpired
}
