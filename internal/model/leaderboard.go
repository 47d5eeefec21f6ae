package model

import "time"

// LeaderboardEntry 课程维度的排名快照，每次重算整表替换。
// 积分为该课程下所有通过尝试的加权得分之和，与用户平台总分互相独立。
// swagger:model LeaderboardEntry
type LeaderboardEntry struct {
	BaseModel
	CourseID  uint `gorm:"index:idx_leaderboard_course_student,unique;type:bigint unsigned;not null" json:"courseId"`
	StudentID uint `gorm:"index:idx_leaderboard_course_student,unique;type:bigint unsigned;not null" json:"studentId"`

	TotalPoints  int `gorm:"default:0" json:"totalPoints"`
	RankPosition int `gorm:"not null" json:"rankPosition"` // dense rank, 1-based

	// 最近一次通过尝试的完成时间，用于同分排序；未通过过任何测验时为空
	LastQualifiedAt *time.Time `json:"lastQualifiedAt"`
}

func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}
