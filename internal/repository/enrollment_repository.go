package repository

import (
	"edurace_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(tx *gorm.DB, enrollment *model.Enrollment) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(enrollment).Error
}

func (r *EnrollmentRepository) FindByStudentAndCourse(studentID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByStudent(studentID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Where("student_id = ?", studentID).Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountForCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Enrollment{}).Where("course_id = ?", courseID).Count(&count).Error
	return count, err
}

// ActiveStudentIDs 只有 ACTIVE 报名参与课程排行榜
func (r *EnrollmentRepository) ActiveStudentIDs(courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Enrollment{}).
		Where("course_id = ? AND status = ?", courseID, model.EnrollmentActive).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *EnrollmentRepository) Update(enrollment *model.Enrollment) error {
	return r.DB.Save(enrollment).Error
}
