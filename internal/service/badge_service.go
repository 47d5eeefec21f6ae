package service

import (
	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"time"
)

// streak 里程碑对应的徽章，达到即颁发，一人一枚
var streakBadges = map[int]struct {
	name, description string
}{
	3:  {"Hat Trick", "Passed 3 quizzes in a row"},
	7:  {"On Fire", "Passed 7 quizzes in a row"},
	30: {"Unstoppable", "Passed 30 quizzes in a row"},
}

type BadgeService struct {
	BadgeRepo *repository.BadgeRepository
}

func NewBadgeService(badgeRepo *repository.BadgeRepository) *BadgeService {
	return &BadgeService{BadgeRepo: badgeRepo}
}

func (s *BadgeService) ListByUser(userID uint) ([]model.Badge, error) {
	return s.BadgeRepo.FindByUser(userID)
}

// MaybeAwardStreakBadge 检查当前连胜是否命中里程碑并颁发。
// 图标由媒体侧外部系统补齐，这里只记 URL 约定路径。
func (s *BadgeService) MaybeAwardStreakBadge(user *model.User) (*model.Badge, error) {
	meta, ok := streakBadges[user.CurrentStreak]
	if !ok {
		return nil, nil
	}

	exists, err := s.BadgeRepo.Exists(user.ID, meta.name)
	if err != nil || exists {
		return nil, err
	}

	badge := &model.Badge{
		UserID:      user.ID,
		Name:        meta.name,
		Description: meta.description,
		IconURL:     "/static/badges/" + meta.name + ".png",
		EarnedAt:    time.Now(),
	}
	if err := s.BadgeRepo.Create(badge); err != nil {
		return nil, err
	}
	return badge, nil
}
