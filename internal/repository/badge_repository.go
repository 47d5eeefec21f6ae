package repository

import (
	"edurace_backend/internal/model"

	"gorm.io/gorm"
)

type BadgeRepository struct {
	DB *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{DB: db}
}

func (r *BadgeRepository) Create(badge *model.Badge) error {
	return r.DB.Create(badge).Error
}

func (r *BadgeRepository) FindByUser(userID uint) ([]model.Badge, error) {
	var badges []model.Badge
	err := r.DB.Where("user_id = ?", userID).Order("earned_at DESC").Find(&badges).Error
	return badges, err
}

func (r *BadgeRepository) Exists(userID uint, name string) (bool, error) {
	var count int64
	err := r.DB.Model(&model.Badge{}).Where("user_id = ? AND name = ?", userID, name).Count(&count).Error
	return count > 0, err
}
