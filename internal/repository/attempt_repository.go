package repository

import (
	"edurace_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(tx *gorm.DB, attempt *model.QuizAttempt) error {
	if tx == nil {
		tx = r.DB
	}
	return tx.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CountTerminal 统计某学生在该测验下已终结的尝试数（进行中的不占名额）
func (r *AttemptRepository) CountTerminal(tx *gorm.DB, studentID, quizID uint) (int64, error) {
	if tx == nil {
		tx = r.DB
	}
	var count int64
	err := tx.Model(&model.QuizAttempt{}).
		Where("student_id = ? AND quiz_id = ? AND status IN ?", studentID, quizID,
			[]model.AttemptStatus{model.AttemptSubmitted, model.AttemptExpired}).
		Count(&count).Error
	return count, err
}

func (r *AttemptRepository) FindStarted(tx *gorm.DB, studentID, quizID uint) (*model.QuizAttempt, error) {
	if tx == nil {
		tx = r.DB
	}
	var a model.QuizAttempt
	err := tx.Where("student_id = ? AND quiz_id = ? AND status = ?", studentID, quizID, model.AttemptStarted).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Finalize 以 status='started' 为前置条件原子落盘终态。
// 返回 gorm.ErrRecordNotFound 表示尝试已被并发终结，由上层映射为业务错误。
func (r *AttemptRepository) Finalize(tx *gorm.DB, attempt *model.QuizAttempt) error {
	if tx == nil {
		tx = r.DB
	}
	res := tx.Model(&model.QuizAttempt{}).
		Where("id = ? AND status = ?", attempt.ID, model.AttemptStarted).
		Updates(map[string]interface{}{
			"status":             attempt.Status,
			"score":              attempt.Score,
			"points_earned":      attempt.PointsEarned,
			"passed":             attempt.Passed,
			"time_taken_minutes": attempt.TimeTakenMinutes,
			"completed_at":       attempt.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindOverdue 捞出超过截止时间仍未终结的尝试，供后台扫描过期。
// 时限在测验上而非尝试上，截止判断在内存里完成。
func (r *AttemptRepository) FindOverdue(now time.Time) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("status = ?", model.AttemptStarted).Find(&attempts).Error
	if err != nil || len(attempts) == 0 {
		return nil, err
	}

	quizIDs := make([]uint, 0, len(attempts))
	for _, a := range attempts {
		quizIDs = append(quizIDs, a.QuizID)
	}
	var quizzes []model.Quiz
	if err := r.DB.Where("id IN ?", quizIDs).Find(&quizzes).Error; err != nil {
		return nil, err
	}
	limits := make(map[uint]time.Duration, len(quizzes))
	for _, q := range quizzes {
		limits[q.ID] = time.Duration(q.TimeLimitMinutes) * time.Minute
	}

	overdue := attempts[:0]
	for _, a := range attempts {
		limit, ok := limits[a.QuizID]
		if ok && now.Sub(a.StartedAt) > limit {
			overdue = append(overdue, a)
		}
	}
	return overdue, nil
}

func (r *AttemptRepository) ListByStudentAndQuiz(studentID, quizID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		Order("started_at DESC").Find(&attempts).Error
	return attempts, err
}

// StudentPoints 课程内单个学生的积分聚合行
type StudentPoints struct {
	StudentID       uint
	Points          int
	LastQualifiedAt time.Time
}

// AggregateCoursePoints 汇总课程内每个学生所有通过尝试的加权得分，
// 以及其最近一次通过尝试的完成时间（同分排序依据）。
func (r *AttemptRepository) AggregateCoursePoints(courseID uint) ([]StudentPoints, error) {
	var attempts []model.QuizAttempt
	err := r.DB.
		Joins("JOIN quizzes ON quizzes.id = quiz_attempts.quiz_id").
		Joins("JOIN lessons ON lessons.id = quizzes.lesson_id").
		Where("lessons.course_id = ?", courseID).
		Where("quiz_attempts.status = ? AND quiz_attempts.passed = ?", model.AttemptSubmitted, true).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	byStudent := make(map[uint]*StudentPoints, len(attempts))
	order := make([]uint, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		sp, ok := byStudent[a.StudentID]
		if !ok {
			sp = &StudentPoints{StudentID: a.StudentID}
			byStudent[a.StudentID] = sp
			order = append(order, a.StudentID)
		}
		sp.Points += a.PointsEarned
		if a.CompletedAt != nil && a.CompletedAt.After(sp.LastQualifiedAt) {
			sp.LastQualifiedAt = *a.CompletedAt
		}
	}

	rows := make([]StudentPoints, 0, len(order))
	for _, id := range order {
		rows = append(rows, *byStudent[id])
	}
	return rows, nil
}
