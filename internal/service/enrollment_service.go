package service

import (
	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"edurace_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

// EnrollmentService 报名与报名费流水。支付网关对接在平台外部，
// 这里只落流水并把报名费计入课程奖金池。
type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	PaymentRepo    *repository.PaymentRepository
	DB             *gorm.DB
}

func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	paymentRepo *repository.PaymentRepository,
	db *gorm.DB,
) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		PaymentRepo:    paymentRepo,
		DB:             db,
	}
}

func (s *EnrollmentService) Enroll(studentID, courseID uint) (*model.Enrollment, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if course.Status != model.CourseStatusPublished {
		return nil, util.ErrEnrollmentClosed
	}

	now := time.Now()
	if course.EnrollmentStartDate != nil && now.Before(*course.EnrollmentStartDate) {
		return nil, util.ErrEnrollmentClosed
	}
	if course.EnrollmentEndDate != nil && now.After(*course.EnrollmentEndDate) {
		return nil, util.ErrEnrollmentClosed
	}

	if _, err := s.EnrollmentRepo.FindByStudentAndCourse(studentID, courseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if course.MaxEnrollments > 0 {
		count, err := s.EnrollmentRepo.CountForCourse(courseID)
		if err != nil {
			return nil, err
		}
		if int(count) >= course.MaxEnrollments {
			return nil, util.ErrEnrollmentClosed
		}
	}

	var enrollment *model.Enrollment
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		enrollment = &model.Enrollment{
			StudentID:  studentID,
			CourseID:   courseID,
			Status:     model.EnrollmentActive,
			EnrolledAt: now,
		}
		if err := s.EnrollmentRepo.Create(tx, enrollment); err != nil {
			return err
		}
		if course.EntryFee > 0 {
			payment := &model.Payment{
				UserID:    studentID,
				CourseID:  courseID,
				Amount:    course.EntryFee,
				Status:    model.PaymentCompleted,
				Reference: model.GenerateUUID(),
			}
			if err := s.PaymentRepo.Create(tx, payment); err != nil {
				return err
			}
			if err := s.CourseRepo.AddToPrizePool(tx, courseID, course.EntryFee); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *EnrollmentService) MyEnrollments(studentID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByStudent(studentID)
}

func (s *EnrollmentService) Drop(studentID, courseID uint) error {
	enrollment, err := s.EnrollmentRepo.FindByStudentAndCourse(studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrStudentNotEnrolled
		}
		return err
	}
	enrollment.Status = model.EnrollmentDropped
	return s.EnrollmentRepo.Update(enrollment)
}
