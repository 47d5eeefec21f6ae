package model

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment 报名费流水记录，网关对接由外部系统完成
// swagger:model Payment
type Payment struct {
	BaseModel
	UserID    uint          `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	CourseID  uint          `gorm:"index;type:bigint unsigned;not null" json:"courseId"`
	Amount    int64         `gorm:"not null" json:"amount"` // 分
	Status    PaymentStatus `gorm:"size:20;default:'pending'" json:"status"`
	Reference string        `gorm:"size:36;uniqueIndex" json:"reference"`
}

func (Payment) TableName() string {
	return "payments"
}
