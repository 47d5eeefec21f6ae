package service

import (
	"errors"
	"testing"
	"time"

	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"edurace_backend/internal/util"

	"gorm.io/gorm"
)

func newAttemptService(f *fixture) *AttemptService {
	return NewAttemptService(
		repository.NewAttemptRepository(f.db),
		repository.NewQuizRepository(f.db),
		f.db,
	)
}

func TestStartRejectsUnpublishedQuiz(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)

	f.quiz.IsPublished = false
	if err := f.db.Save(&f.quiz).Error; err != nil {
		t.Fatalf("unpublish quiz: %v", err)
	}

	_, err := svc.Start(f.student.ID, f.quiz.ID)
	if !errors.Is(err, util.ErrQuizNotPublished) {
		t.Fatalf("expected ErrQuizNotPublished, got %v", err)
	}
}

func TestStartRejectsSecondInProgressAttempt(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)

	if _, err := svc.Start(f.student.ID, f.quiz.ID); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	_, err := svc.Start(f.student.ID, f.quiz.ID)
	if !errors.Is(err, util.ErrAttemptAlreadyInProgress) {
		t.Fatalf("expected ErrAttemptAlreadyInProgress, got %v", err)
	}
}

func TestAttemptCapCountsOnlyTerminalAttempts(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)

	f.quiz.MaxAttempts = 2
	if err := f.db.Save(&f.quiz).Error; err != nil {
		t.Fatalf("update quiz: %v", err)
	}

	// 进行中的尝试不占名额：第一次开始后名额仍是 2
	for i := 0; i < 2; i++ {
		attempt, err := svc.Start(f.student.ID, f.quiz.ID)
		if err != nil {
			t.Fatalf("start %d failed: %v", i+1, err)
		}
		if _, err := svc.Submit(f.db, attempt, f.correctAnswers()); err != nil {
			t.Fatalf("submit %d failed: %v", i+1, err)
		}
	}

	_, err := svc.Start(f.student.ID, f.quiz.ID)
	if !errors.Is(err, util.ErrAttemptLimitExceeded) {
		t.Fatalf("expected ErrAttemptLimitExceeded, got %v", err)
	}
}

func TestSubmitScoresAndFinalizes(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)

	attempt, err := svc.Start(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	result, err := svc.Submit(f.db, attempt, f.correctAnswers())
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Percent != 100 || result.PointsEarned != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	var stored model.QuizAttempt
	if err := f.db.First(&stored, attempt.ID).Error; err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if stored.Status != model.AttemptSubmitted {
		t.Errorf("status = %s, want submitted", stored.Status)
	}
	if !stored.Passed || stored.Score != 100 || stored.PointsEarned != 2 {
		t.Errorf("stored attempt = %+v", stored)
	}
	if stored.CompletedAt == nil {
		t.Error("completed_at not set")
	}
}

func TestSubmitBelowPassingScoreFails(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)

	attempt, err := svc.Start(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// 50% < 及格线 70
	result, err := svc.Submit(f.db, attempt, map[uint]model.AnswerOption{f.q1.ID: model.OptionA})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Percent != 50 {
		t.Fatalf("percent = %d, want 50", result.Percent)
	}
	if attempt.Passed {
		t.Error("attempt should not pass at 50%")
	}
}

// 测试库钉死单连接，终结链路若有任何读走根句柄就会在这里卡死
func TestSubmitReadsInsideCallerTransaction(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)

	attempt, err := svc.Start(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- f.db.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Submit(tx, attempt, f.correctAnswers())
			return err
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("submit inside transaction failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("submit blocked waiting for a free connection")
	}

	var stored model.QuizAttempt
	if err := f.db.First(&stored, attempt.ID).Error; err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if stored.Status != model.AttemptSubmitted || stored.Score != 100 {
		t.Fatalf("unexpected stored attempt: %+v", stored)
	}
}

func TestSubmitTwiceRejected(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)

	attempt, err := svc.Start(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Submit(f.db, attempt, f.correctAnswers()); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, err = svc.Submit(f.db, attempt, f.correctAnswers())
	if !errors.Is(err, util.ErrAttemptAlreadyFinalized) {
		t.Fatalf("expected ErrAttemptAlreadyFinalized, got %v", err)
	}
}

func TestLateSubmissionExpiresWithZeroScore(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)

	started := time.Now()
	svc.now = func() time.Time { return started }

	attempt, err := svc.Start(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// 时限 30 分钟，31 分钟后提交
	svc.now = func() time.Time { return started.Add(31 * time.Minute) }

	result, err := svc.Submit(f.db, attempt, f.correctAnswers())
	if err != nil {
		t.Fatalf("late submit failed: %v", err)
	}
	if result != nil {
		t.Fatalf("late submit should not score, got %+v", result)
	}

	var stored model.QuizAttempt
	if err := f.db.First(&stored, attempt.ID).Error; err != nil {
		t.Fatalf("reload attempt: %v", err)
	}
	if stored.Status != model.AttemptExpired {
		t.Errorf("status = %s, want expired", stored.Status)
	}
	if stored.Score != 0 || stored.PointsEarned != 0 || stored.Passed {
		t.Errorf("expired attempt must be void: %+v", stored)
	}
}

func TestFindOverduePicksOnlyTimedOutStarted(t *testing.T) {
	f := newFixture(t)
	svc := newAttemptService(f)
	repo := svc.AttemptRepo

	started := time.Now().Add(-40 * time.Minute)
	svc.now = func() time.Time { return started }
	stale, err := svc.Start(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	other := f.enrollStudent(t, "fresh@example.com")
	svc.now = time.Now
	fresh, err := svc.Start(other.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	overdue, err := repo.FindOverdue(time.Now())
	if err != nil {
		t.Fatalf("find overdue failed: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != stale.ID {
		t.Fatalf("expected only stale attempt %d, got %+v", stale.ID, overdue)
	}
	_ = fresh
}
