package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"edurace_backend/internal/model"
	"edurace_backend/internal/util"
)

func TestStartAttemptRequiresActiveEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)

	outsider := model.User{
		Email: "outsider@example.com", Password: "x",
		FirstName: "No", LastName: "Body", Role: model.Student,
	}
	mustCreate(t, f.db, &outsider)

	_, err := svc.StartAttempt(outsider.ID, f.quiz.ID)
	if !errors.Is(err, util.ErrStudentNotEnrolled) {
		t.Fatalf("expected ErrStudentNotEnrolled, got %v", err)
	}
}

func TestStartAttemptRejectsDroppedEnrollment(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)

	if err := f.db.Model(&model.Enrollment{}).
		Where("student_id = ?", f.student.ID).
		Update("status", model.EnrollmentDropped).Error; err != nil {
		t.Fatalf("drop enrollment: %v", err)
	}

	_, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if !errors.Is(err, util.ErrStudentNotEnrolled) {
		t.Fatalf("expected ErrStudentNotEnrolled, got %v", err)
	}
}

func TestSubmitAttemptPassUpdatesProgressionAndLeaderboard(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	summary, err := svc.SubmitAttempt(ctx, f.student.ID, attempt.ID, f.correctAnswers())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if summary.Score != 100 || !summary.Passed || summary.Expired {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.PointsEarned != 2 {
		t.Errorf("points = %d, want 2", summary.PointsEarned)
	}
	if summary.Rank != 1 {
		t.Errorf("rank = %d, want 1", summary.Rank)
	}

	var user model.User
	if err := f.db.First(&user, f.student.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.TotalPoints != 2 || user.CurrentStreak != 1 || user.LongestStreak != 1 {
		t.Fatalf("progression not applied: %+v", user)
	}

	var entry model.LeaderboardEntry
	if err := f.db.Where("course_id = ? AND student_id = ?", f.course.ID, f.student.ID).
		First(&entry).Error; err != nil {
		t.Fatalf("leaderboard entry missing: %v", err)
	}
	if entry.TotalPoints != 2 || entry.RankPosition != 1 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestSubmitAttemptFailResetsStreakAndRanksWithZeroPoints(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	if err := f.db.Model(&model.User{}).Where("id = ?", f.student.ID).
		Updates(map[string]interface{}{"current_streak": 4, "longest_streak": 4, "total_points": 9}).Error; err != nil {
		t.Fatalf("seed streak: %v", err)
	}

	attempt, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// 只答对一题：50% 不及格
	summary, err := svc.SubmitAttempt(ctx, f.student.ID, attempt.ID,
		map[uint]model.AnswerOption{f.q1.ID: model.OptionA})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if summary.Passed || summary.Score != 50 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// 在读学生没有通过记录也上榜，课程积分为 0
	var entry model.LeaderboardEntry
	if err := f.db.Where("course_id = ? AND student_id = ?", f.course.ID, f.student.ID).
		First(&entry).Error; err != nil {
		t.Fatalf("leaderboard entry missing: %v", err)
	}
	if entry.TotalPoints != 0 || entry.RankPosition != 1 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.LastQualifiedAt != nil {
		t.Errorf("no qualifying attempt yet, LastQualifiedAt = %v", entry.LastQualifiedAt)
	}

	var user model.User
	if err := f.db.First(&user, f.student.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.CurrentStreak != 0 {
		t.Errorf("streak = %d, want 0", user.CurrentStreak)
	}
	if user.LongestStreak != 4 || user.TotalPoints != 9 {
		t.Errorf("fail must not touch points or longest streak: %+v", user)
	}
}

func TestSubmitAttemptExactlyOnce(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.SubmitAttempt(ctx, f.student.ID, attempt.ID, f.correctAnswers()); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, err = svc.SubmitAttempt(ctx, f.student.ID, attempt.ID, f.correctAnswers())
	if !errors.Is(err, util.ErrAttemptAlreadyFinalized) {
		t.Fatalf("expected ErrAttemptAlreadyFinalized, got %v", err)
	}

	var user model.User
	if err := f.db.First(&user, f.student.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.TotalPoints != 2 || user.CurrentStreak != 1 {
		t.Fatalf("double submit must not double-count: %+v", user)
	}
}

func TestSubmitAttemptOwnershipEnforced(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	other := f.enrollStudent(t, "rival@example.com")
	_, err = svc.SubmitAttempt(ctx, other.ID, attempt.ID, f.correctAnswers())
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestSubmitAttemptRanksTwoStudents(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	rival := f.enrollStudent(t, "rival@example.com")

	a1, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.SubmitAttempt(ctx, f.student.ID, a1.ID, f.correctAnswers()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	// 对手不及格，课程积分 0，排在满分者之后
	a2, err := svc.StartAttempt(rival.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	s2, err := svc.SubmitAttempt(ctx, rival.ID, a2.ID,
		map[uint]model.AnswerOption{f.q1.ID: model.OptionA})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if s2.Passed || s2.Rank != 2 {
		t.Fatalf("rival should rank last with zero points: %+v", s2)
	}

	entries, err := svc.LeaderboardSvc.LeaderboardRepo.ListByCourse(f.course.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both students on the board, got %+v", entries)
	}
	if entries[0].StudentID != f.student.ID || entries[0].TotalPoints != 2 || entries[0].RankPosition != 1 {
		t.Fatalf("unexpected leader: %+v", entries[0])
	}
	if entries[1].StudentID != rival.ID || entries[1].TotalPoints != 0 || entries[1].RankPosition != 2 {
		t.Fatalf("unexpected runner-up: %+v", entries[1])
	}
}

func TestUserLockReleasedWhenFinalizePanics(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	orig := svc.ProgressionSvc
	svc.ProgressionSvc = nil

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic from broken progression service")
			}
		}()
		svc.SubmitAttempt(ctx, f.student.ID, attempt.ID, f.correctAnswers())
	}()

	svc.ProgressionSvc = orig

	// 事务已回滚、锁已释放，同一学生重新提交应当完整走通
	done := make(chan error, 1)
	go func() {
		_, err := svc.SubmitAttempt(ctx, f.student.ID, attempt.ID, f.correctAnswers())
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("resubmit after panic failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("user lock not released after panic")
	}
}

func TestSweepExpiredFinalizesOverdueAttempts(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	started := time.Now().Add(-40 * time.Minute)
	svc.AttemptSvc.now = func() time.Time { return started }
	attempt, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	svc.AttemptSvc.now = time.Now

	if err := svc.SweepExpired(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	var stored model.QuizAttempt
	if err := f.db.First(&stored, attempt.ID).Error; err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if stored.Status != model.AttemptExpired || stored.Score != 0 || stored.Passed {
		t.Fatalf("attempt not voided: %+v", stored)
	}

	var user model.User
	if err := f.db.First(&user, f.student.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if user.CurrentStreak != 0 {
		t.Errorf("expiry must reset streak, got %d", user.CurrentStreak)
	}

	// 再扫一遍应当没有可处理目标
	if err := svc.SweepExpired(ctx); err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
}

func TestExpiredAttemptCountsTowardCap(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	if err := f.db.Model(&model.Quiz{}).Where("id = ?", f.quiz.ID).
		Update("max_attempts", 1).Error; err != nil {
		t.Fatalf("update quiz: %v", err)
	}

	started := time.Now().Add(-40 * time.Minute)
	svc.AttemptSvc.now = func() time.Time { return started }
	if _, err := svc.StartAttempt(f.student.ID, f.quiz.ID); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	svc.AttemptSvc.now = time.Now

	if err := svc.SweepExpired(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	_, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if !errors.Is(err, util.ErrAttemptLimitExceeded) {
		t.Fatalf("expected ErrAttemptLimitExceeded, got %v", err)
	}
}

func TestStreakBadgeAwardedOnce(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)

	user := model.User{CurrentStreak: 3}
	user.ID = f.student.ID

	badge, err := svc.BadgeSvc.MaybeAwardStreakBadge(&user)
	if err != nil {
		t.Fatalf("award failed: %v", err)
	}
	if badge == nil || badge.Name != "Hat Trick" {
		t.Fatalf("expected Hat Trick badge, got %+v", badge)
	}

	again, err := svc.BadgeSvc.MaybeAwardStreakBadge(&user)
	if err != nil {
		t.Fatalf("second award failed: %v", err)
	}
	if again != nil {
		t.Fatalf("badge must not duplicate, got %+v", again)
	}

	badges, err := svc.BadgeSvc.ListByUser(f.student.ID)
	if err != nil {
		t.Fatalf("list badges: %v", err)
	}
	if len(badges) != 1 {
		t.Fatalf("expected 1 badge, got %d", len(badges))
	}
}
