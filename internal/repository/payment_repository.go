package repository

import (
	"edurace_backend/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

func (r *PaymentRepository) Create(tx *gorm.DB, payment *model.Payment) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(payment).Error
}

func (r *PaymentRepository) ListByUser(userID uint) ([]model.Payment, error) {
	var payments []model.Payment
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&payments).Error
	return payments, err
}
