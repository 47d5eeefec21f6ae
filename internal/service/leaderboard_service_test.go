package service

import (
	"context"
	"testing"
	"time"

	"edurace_backend/internal/repository"
)

func points(studentID uint, pts int, qualified time.Time) repository.StudentPoints {
	return repository.StudentPoints{StudentID: studentID, Points: pts, LastQualifiedAt: qualified}
}

func TestRankCoursePointsDenseRanks(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []repository.StudentPoints{
		points(1, 100, base),
		points(2, 100, base.Add(time.Hour)),
		points(3, 90, base),
	}

	entries := RankCoursePoints(7, rows)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	wantRanks := []int{1, 1, 3}
	for i, want := range wantRanks {
		if entries[i].RankPosition != want {
			t.Errorf("entry %d rank = %d, want %d", i, entries[i].RankPosition, want)
		}
	}
	if entries[0].CourseID != 7 {
		t.Errorf("course id = %d, want 7", entries[0].CourseID)
	}
}

func TestRankCoursePointsTieBreaksByEarliestQualification(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []repository.StudentPoints{
		points(1, 50, base.Add(2*time.Hour)),
		points(2, 50, base),
	}

	entries := RankCoursePoints(1, rows)
	if entries[0].StudentID != 2 {
		t.Fatalf("expected earlier qualifier first, got student %d", entries[0].StudentID)
	}
	if entries[0].RankPosition != 1 || entries[1].RankPosition != 1 {
		t.Fatalf("tied students should share rank 1, got %d and %d",
			entries[0].RankPosition, entries[1].RankPosition)
	}
}

func TestRankCoursePointsTieBreaksByStudentID(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []repository.StudentPoints{
		points(9, 50, base),
		points(4, 50, base),
	}

	entries := RankCoursePoints(1, rows)
	if entries[0].StudentID != 4 || entries[1].StudentID != 9 {
		t.Fatalf("expected student id ascending on full tie, got %d then %d",
			entries[0].StudentID, entries[1].StudentID)
	}
}

func TestRankCoursePointsZeroPointStudentsRankAfterScorers(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []repository.StudentPoints{
		points(5, 0, time.Time{}),
		points(1, 40, base),
		points(3, 0, time.Time{}),
		points(2, 0, base.Add(time.Hour)),
	}

	entries := RankCoursePoints(1, rows)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].StudentID != 1 || entries[0].RankPosition != 1 {
		t.Fatalf("expected scorer first, got %+v", entries[0])
	}
	// 同为 0 分时，有通过记录者在前，其余按学生 ID 升序
	wantOrder := []uint{1, 2, 3, 5}
	for i, want := range wantOrder {
		if entries[i].StudentID != want {
			t.Errorf("entry %d student = %d, want %d", i, entries[i].StudentID, want)
		}
	}
	for _, e := range entries[1:] {
		if e.RankPosition != 2 {
			t.Errorf("zero-point students should share rank 2, got %d", e.RankPosition)
		}
	}
	if entries[2].LastQualifiedAt != nil {
		t.Errorf("student without passes must have nil LastQualifiedAt, got %v", entries[2].LastQualifiedAt)
	}
}

func TestRankCoursePointsEmpty(t *testing.T) {
	entries := RankCoursePoints(1, nil)
	if len(entries) != 0 {
		t.Fatalf("expected empty ranking, got %d entries", len(entries))
	}
}

func TestRankCoursePointsDoesNotMutateInput(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []repository.StudentPoints{
		points(1, 10, base),
		points(2, 20, base),
	}

	RankCoursePoints(1, rows)
	if rows[0].StudentID != 1 || rows[1].StudentID != 2 {
		t.Fatalf("input slice reordered: %+v", rows)
	}
}

func TestGetLeaderboardServesFromCacheAfterRecompute(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.SubmitAttempt(ctx, f.student.ID, attempt.ID, f.correctAnswers()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	entries, err := svc.LeaderboardSvc.GetLeaderboard(ctx, f.course.ID)
	if err != nil {
		t.Fatalf("get leaderboard failed: %v", err)
	}
	if len(entries) != 1 || entries[0].StudentID != f.student.ID || entries[0].RankPosition != 1 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}

	// 直接清库，缓存仍应命中
	if err := f.db.Exec("DELETE FROM leaderboard").Error; err != nil {
		t.Fatalf("clear table: %v", err)
	}
	cached, err := svc.LeaderboardSvc.GetLeaderboard(ctx, f.course.ID)
	if err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if len(cached) != 1 {
		t.Fatalf("expected cached entry, got %d", len(cached))
	}
}

func TestRecomputeIncludesActiveStudentsWithoutPasses(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	if err := svc.LeaderboardSvc.Recompute(ctx, f.course.ID); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	entries, err := svc.LeaderboardSvc.LeaderboardRepo.ListByCourse(f.course.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 || entries[0].StudentID != f.student.ID {
		t.Fatalf("enrolled student missing from board: %+v", entries)
	}
	if entries[0].TotalPoints != 0 || entries[0].RankPosition != 1 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
	if entries[0].LastQualifiedAt != nil {
		t.Errorf("no qualifying attempt, LastQualifiedAt = %v", entries[0].LastQualifiedAt)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.newCompetitionService(t)
	ctx := context.Background()

	attempt, err := svc.StartAttempt(f.student.ID, f.quiz.ID)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.SubmitAttempt(ctx, f.student.ID, attempt.ID, f.correctAnswers()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := svc.LeaderboardSvc.Recompute(ctx, f.course.ID); err != nil {
			t.Fatalf("recompute %d failed: %v", i, err)
		}
	}

	entries, err := svc.LeaderboardSvc.LeaderboardRepo.ListByCourse(f.course.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after repeated recompute, got %d", len(entries))
	}
	if entries[0].TotalPoints != 2 || entries[0].RankPosition != 1 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}
