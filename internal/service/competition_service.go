package service

import (
	"context"
	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"edurace_backend/internal/util"
	"edurace_backend/pkg/logger"
	"edurace_backend/pkg/monitoring"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompetitionService 编排一次尝试终结的完整链路：
// 判分 -> 终结尝试 -> 记积分连胜 -> 重算课程排行榜。
// 终态转换是单向闸门，整条链路对每个尝试至多执行一次；
// 返回成功时排行榜已反映最新积分。
type CompetitionService struct {
	DB             *gorm.DB
	AttemptSvc     *AttemptService
	ProgressionSvc *ProgressionService
	LeaderboardSvc *LeaderboardService
	BadgeSvc       *BadgeService
	QuizRepo       *repository.QuizRepository
	EnrollmentRepo *repository.EnrollmentRepository

	userMu *util.KeyedMutex
}

func NewCompetitionService(
	db *gorm.DB,
	attemptSvc *AttemptService,
	progressionSvc *ProgressionService,
	leaderboardSvc *LeaderboardService,
	badgeSvc *BadgeService,
	quizRepo *repository.QuizRepository,
	enrollmentRepo *repository.EnrollmentRepository,
) *CompetitionService {
	return &CompetitionService{
		DB:             db,
		AttemptSvc:     attemptSvc,
		ProgressionSvc: progressionSvc,
		LeaderboardSvc: leaderboardSvc,
		BadgeSvc:       badgeSvc,
		QuizRepo:       quizRepo,
		EnrollmentRepo: enrollmentRepo,
		userMu:         util.NewKeyedMutex(),
	}
}

// SubmissionSummary 提交后的回执：分数、是否通过、名次变化
type SubmissionSummary struct {
	AttemptID    uint `json:"attemptId"`
	Score        int  `json:"score"`
	PointsEarned int  `json:"pointsEarned"`
	Passed       bool `json:"passed"`
	Expired      bool `json:"expired"`
	Rank         int  `json:"rank"`
	RankDelta    int  `json:"rankDelta"` // 正数表示名次上升
}

// StartAttempt 校验报名有效后开始一次尝试
func (s *CompetitionService) StartAttempt(studentID, quizID uint) (*model.QuizAttempt, error) {
	courseID, err := s.QuizRepo.CourseID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if err := s.requireActiveEnrollment(studentID, courseID); err != nil {
		return nil, err
	}
	return s.AttemptSvc.Start(studentID, quizID)
}

// SubmitAttempt 终结一次尝试并把结果推进积分与排行榜
func (s *CompetitionService) SubmitAttempt(ctx context.Context, studentID, attemptID uint, answers map[uint]model.AnswerOption) (*SubmissionSummary, error) {
	attempt, err := s.AttemptSvc.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Terminal() {
		return nil, util.ErrAttemptAlreadyFinalized
	}

	courseID, err := s.QuizRepo.CourseID(attempt.QuizID)
	if err != nil {
		return nil, err
	}

	prevRank, err := s.LeaderboardSvc.StudentRank(courseID, studentID)
	if err != nil {
		return nil, err
	}

	// 积分连胜是同一用户上的读-改-写，按用户串行
	var user *model.User
	err = s.withUserLock(studentID, func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			if _, err := s.AttemptSvc.Submit(tx, attempt, answers); err != nil {
				return err
			}
			user, err = s.ProgressionSvc.Apply(tx, studentID, attempt.Passed, attempt.PointsEarned)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.recordOutcome(attempt)
	s.awardBadges(user)

	// 返回前完成重算，调用方看到的排行榜已包含本次积分
	if err := s.LeaderboardSvc.Recompute(ctx, courseID); err != nil {
		return nil, err
	}

	newRank, err := s.LeaderboardSvc.StudentRank(courseID, studentID)
	if err != nil {
		return nil, err
	}

	summary := &SubmissionSummary{
		AttemptID:    attempt.ID,
		Score:        attempt.Score,
		PointsEarned: attempt.PointsEarned,
		Passed:       attempt.Passed,
		Expired:      attempt.Status == model.AttemptExpired,
		Rank:         newRank,
	}
	if prevRank > 0 && newRank > 0 {
		summary.RankDelta = prevRank - newRank
	}
	return summary, nil
}

// ExpireAttempt 时间驱动的终结：0 分、不通过、连胜清零，随后照常重算
func (s *CompetitionService) ExpireAttempt(ctx context.Context, attemptID uint) error {
	attempt, err := s.AttemptSvc.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAttemptNotFound
		}
		return err
	}
	if attempt.Terminal() {
		return util.ErrAttemptAlreadyFinalized
	}

	courseID, err := s.QuizRepo.CourseID(attempt.QuizID)
	if err != nil {
		return err
	}

	err = s.withUserLock(attempt.StudentID, func() error {
		return s.DB.Transaction(func(tx *gorm.DB) error {
			if err := s.AttemptSvc.Expire(tx, attempt); err != nil {
				return err
			}
			_, err := s.ProgressionSvc.Apply(tx, attempt.StudentID, false, 0)
			return err
		})
	})
	if err != nil {
		return err
	}

	s.recordOutcome(attempt)
	return s.LeaderboardSvc.Recompute(ctx, courseID)
}

// SweepExpired 周期扫描超时未终结的尝试，被后台定时触发
func (s *CompetitionService) SweepExpired(ctx context.Context) error {
	overdue, err := s.AttemptSvc.AttemptRepo.FindOverdue(time.Now())
	if err != nil {
		return err
	}
	for _, attempt := range overdue {
		if err := s.ExpireAttempt(ctx, attempt.ID); err != nil {
			if errors.Is(err, util.ErrAttemptAlreadyFinalized) {
				continue
			}
			logger.Log.Error("expire sweep failed",
				zap.Uint("attemptId", attempt.ID), zap.Error(err))
		}
	}
	return nil
}

// withUserLock 持锁执行 fn，panic 也保证释放
func (s *CompetitionService) withUserLock(studentID uint, fn func() error) error {
	key := fmt.Sprintf("user:%d", studentID)
	s.userMu.Lock(key)
	defer s.userMu.Unlock(key)
	return fn()
}

func (s *CompetitionService) requireActiveEnrollment(studentID, courseID uint) error {
	enrollment, err := s.EnrollmentRepo.FindByStudentAndCourse(studentID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrStudentNotEnrolled
		}
		return err
	}
	if enrollment.Status != model.EnrollmentActive {
		return util.ErrStudentNotEnrolled
	}
	return nil
}

func (s *CompetitionService) recordOutcome(attempt *model.QuizAttempt) {
	switch {
	case attempt.Status == model.AttemptExpired:
		monitoring.AttemptCounter.WithLabelValues("expired").Inc()
	case attempt.Passed:
		monitoring.AttemptCounter.WithLabelValues("passed").Inc()
	default:
		monitoring.AttemptCounter.WithLabelValues("failed").Inc()
	}
}

func (s *CompetitionService) awardBadges(user *model.User) {
	if user == nil || s.BadgeSvc == nil {
		return
	}
	if _, err := s.BadgeSvc.MaybeAwardStreakBadge(user); err != nil {
		logger.Log.Warn("badge award failed", zap.Uint("userId", user.ID), zap.Error(err))
	}
}
