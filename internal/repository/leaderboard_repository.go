package repository

import (
	"edurace_backend/internal/model"

	"gorm.io/gorm"
)

type LeaderboardRepository struct {
	DB *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) *LeaderboardRepository {
	return &LeaderboardRepository{DB: db}
}

// ReplaceForCourse 一个事务内整表替换课程排名，读者看不到半新半旧的榜单
func (r *LeaderboardRepository) ReplaceForCourse(courseID uint, entries []model.LeaderboardEntry) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("course_id = ?", courseID).Delete(&model.LeaderboardEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
}

func (r *LeaderboardRepository) ListByCourse(courseID uint) ([]model.LeaderboardEntry, error) {
	var entries []model.LeaderboardEntry
	err := r.DB.Where("course_id = ?", courseID).
		Order("rank_position ASC, last_qualified_at ASC, student_id ASC").
		Find(&entries).Error
	return entries, err
}

func (r *LeaderboardRepository) FindByCourseAndStudent(courseID, studentID uint) (*model.LeaderboardEntry, error) {
	var e model.LeaderboardEntry
	err := r.DB.Where("course_id = ? AND student_id = ?", courseID, studentID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}
