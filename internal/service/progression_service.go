package service

import (
	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"

	"gorm.io/gorm"
)

// ProgressionService 把终结尝试的结果记入学生的平台积分与连胜。
// 本身不幂等：同一次尝试只允许应用一次，由编排方以终态转换做闸门。
type ProgressionService struct {
	UserRepo *repository.UserRepository
}

func NewProgressionService(userRepo *repository.UserRepository) *ProgressionService {
	return &ProgressionService{UserRepo: userRepo}
}

// Apply 在给定事务内做读-改-写；调用方需持有该学生的互斥锁，
// 否则并发提交会丢增量。
func (s *ProgressionService) Apply(tx *gorm.DB, studentID uint, passed bool, pointsEarned int) (*model.User, error) {
	var user model.User
	if err := tx.First(&user, studentID).Error; err != nil {
		return nil, err
	}

	applyOutcome(&user, passed, pointsEarned)

	if err := s.UserRepo.UpdateProgression(tx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// applyOutcome 连胜只数连续通过的尝试，跨课程全平台计
func applyOutcome(user *model.User, passed bool, pointsEarned int) {
	if passed {
		user.TotalPoints += pointsEarned
		user.CurrentStreak++
		if user.CurrentStreak > user.LongestStreak {
			user.LongestStreak = user.CurrentStreak
		}
		return
	}
	user.CurrentStreak = 0
}
