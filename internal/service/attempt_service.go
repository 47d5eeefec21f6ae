package service

import (
	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"edurace_backend/internal/util"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AttemptService 管理单次测验尝试的状态机：
// STARTED -> SUBMITTED | EXPIRED，两个终态都不可再变。
type AttemptService struct {
	AttemptRepo *repository.AttemptRepository
	QuizRepo    *repository.QuizRepository
	DB          *gorm.DB

	startMu *util.KeyedMutex
	now     func() time.Time
}

func NewAttemptService(attemptRepo *repository.AttemptRepository, quizRepo *repository.QuizRepository, db *gorm.DB) *AttemptService {
	return &AttemptService{
		AttemptRepo: attemptRepo,
		QuizRepo:    quizRepo,
		DB:          db,
		startMu:     util.NewKeyedMutex(),
		now:         time.Now,
	}
}

func startKey(studentID, quizID uint) string {
	return fmt.Sprintf("start:%d:%d", studentID, quizID)
}

// Start 开始一次尝试。同一 (student, quiz) 上串行执行：
// 已有进行中的尝试或终结尝试数达到上限都会被拒绝。
func (s *AttemptService) Start(studentID, quizID uint) (*model.QuizAttempt, error) {
	quiz, err := s.QuizRepo.FindByID(nil, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}

	key := startKey(studentID, quizID)
	s.startMu.Lock(key)
	defer s.startMu.Unlock(key)

	var attempt *model.QuizAttempt
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if _, err := s.AttemptRepo.FindStarted(tx, studentID, quizID); err == nil {
			return util.ErrAttemptAlreadyInProgress
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		count, err := s.AttemptRepo.CountTerminal(tx, studentID, quizID)
		if err != nil {
			return err
		}
		if int(count) >= quiz.MaxAttempts {
			return util.ErrAttemptLimitExceeded
		}

		attempt = &model.QuizAttempt{
			QuizID:    quizID,
			StudentID: studentID,
			Status:    model.AttemptStarted,
			StartedAt: s.now(),
		}
		return s.AttemptRepo.Create(tx, attempt)
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// Submit 在给定事务内终结尝试。超时提交整体作废计 0 分（不部分给分），
// 否则判分并按及格线落盘。重复终结返回 ErrAttemptAlreadyFinalized，绝不重判。
func (s *AttemptService) Submit(tx *gorm.DB, attempt *model.QuizAttempt, answers map[uint]model.AnswerOption) (*ScoreResult, error) {
	if attempt.Terminal() {
		return nil, util.ErrAttemptAlreadyFinalized
	}

	// 终结链路的读写必须同一事务：单连接场景下走根句柄会拿不到连接
	quiz, err := s.QuizRepo.FindByID(tx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	elapsed := now.Sub(attempt.StartedAt)

	if elapsed > time.Duration(quiz.TimeLimitMinutes)*time.Minute {
		return nil, s.finalizeExpired(tx, attempt, now)
	}

	questions, err := s.QuizRepo.GetQuestions(tx, quiz.ID)
	if err != nil {
		return nil, err
	}

	result, err := ScoreSubmission(quiz, questions, answers)
	if err != nil {
		return nil, err
	}

	attempt.Status = model.AttemptSubmitted
	attempt.Score = result.Percent
	attempt.PointsEarned = result.PointsEarned
	attempt.Passed = result.Percent >= quiz.PassingScore
	attempt.TimeTakenMinutes = int(elapsed / time.Minute)
	attempt.CompletedAt = &now

	if err := s.finalize(tx, attempt); err != nil {
		return nil, err
	}
	return result, nil
}

// Expire 后台扫描用的时间驱动终结，效果等同迟到的 Submit
func (s *AttemptService) Expire(tx *gorm.DB, attempt *model.QuizAttempt) error {
	if attempt.Terminal() {
		return util.ErrAttemptAlreadyFinalized
	}
	return s.finalizeExpired(tx, attempt, s.now())
}

func (s *AttemptService) finalizeExpired(tx *gorm.DB, attempt *model.QuizAttempt, now time.Time) error {
	attempt.Status = model.AttemptExpired
	attempt.Score = 0
	attempt.PointsEarned = 0
	attempt.Passed = false
	attempt.TimeTakenMinutes = int(now.Sub(attempt.StartedAt) / time.Minute)
	attempt.CompletedAt = &now
	return s.finalize(tx, attempt)
}

func (s *AttemptService) finalize(tx *gorm.DB, attempt *model.QuizAttempt) error {
	err := s.AttemptRepo.Finalize(tx, attempt)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 并发提交抢先终结了这次尝试
		return util.ErrAttemptAlreadyFinalized
	}
	return err
}

// ListMine 学生查看自己在某测验下的全部尝试
func (s *AttemptService) ListMine(studentID, quizID uint) ([]model.QuizAttempt, error) {
	return s.AttemptRepo.ListByStudentAndQuiz(studentID, quizID)
}
