package service

import (
	"testing"
	"time"

	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"edurace_backend/pkg/database"
	"edurace_backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	// :memory: 每个连接一份数据库，收紧到单连接
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

// fixture 聚合一套可直接开考的数据：已发布课程、课时、
// 两道 1 分题（正确答案 A、B）的已发布测验，以及一名已报名学生。
type fixture struct {
	db      *gorm.DB
	student model.User
	course  model.Course
	quiz    model.Quiz
	q1, q2  model.QuizQuestion
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{db: db}

	instructor := model.User{
		Email: "instructor@example.com", Password: "x",
		FirstName: "Ada", LastName: "Lovelace", Role: model.Instructor,
	}
	mustCreate(t, db, &instructor)

	f.student = model.User{
		Email: "student@example.com", Password: "x",
		FirstName: "Alan", LastName: "Turing", Role: model.Student,
	}
	mustCreate(t, db, &f.student)

	f.course = model.Course{
		InstructorID: instructor.ID,
		Title:        "Go 并发实战",
		Status:       model.CourseStatusPublished,
	}
	mustCreate(t, db, &f.course)

	lesson := model.Lesson{CourseID: f.course.ID, Title: "第一课", SequenceOrder: 1, IsPublished: true}
	mustCreate(t, db, &lesson)

	f.quiz = model.Quiz{
		LessonID:         lesson.ID,
		Title:            "第一课测验",
		TimeLimitMinutes: 30,
		PassingScore:     70,
		MaxAttempts:      3,
		IsPublished:      true,
	}
	mustCreate(t, db, &f.quiz)

	f.q1 = model.QuizQuestion{QuizID: f.quiz.ID, QuestionText: "1+1=?", OptionA: "2", OptionB: "3", CorrectAnswer: model.OptionA, Points: 1}
	f.q2 = model.QuizQuestion{QuizID: f.quiz.ID, QuestionText: "2+2=?", OptionA: "3", OptionB: "4", CorrectAnswer: model.OptionB, Points: 1}
	mustCreate(t, db, &f.q1)
	mustCreate(t, db, &f.q2)

	enrollment := model.Enrollment{
		StudentID:  f.student.ID,
		CourseID:   f.course.ID,
		Status:     model.EnrollmentActive,
		EnrolledAt: time.Now(),
	}
	mustCreate(t, db, &enrollment)

	return f
}

func (f *fixture) correctAnswers() map[uint]model.AnswerOption {
	return map[uint]model.AnswerOption{f.q1.ID: model.OptionA, f.q2.ID: model.OptionB}
}

func (f *fixture) enrollStudent(t *testing.T, email string) model.User {
	t.Helper()
	student := model.User{
		Email: email, Password: "x",
		FirstName: "T", LastName: "User", Role: model.Student,
	}
	mustCreate(t, f.db, &student)
	mustCreate(t, f.db, &model.Enrollment{
		StudentID:  student.ID,
		CourseID:   f.course.ID,
		Status:     model.EnrollmentActive,
		EnrolledAt: time.Now(),
	})
	return student
}

func (f *fixture) newCompetitionService(t *testing.T) *CompetitionService {
	t.Helper()
	attemptRepo := repository.NewAttemptRepository(f.db)
	quizRepo := repository.NewQuizRepository(f.db)
	enrollmentRepo := repository.NewEnrollmentRepository(f.db)
	userRepo := repository.NewUserRepository(f.db)
	leaderboardRepo := repository.NewLeaderboardRepository(f.db)
	badgeRepo := repository.NewBadgeRepository(f.db)

	attemptSvc := NewAttemptService(attemptRepo, quizRepo, f.db)
	progressionSvc := NewProgressionService(userRepo)
	leaderboardSvc := NewLeaderboardService(leaderboardRepo, attemptRepo, enrollmentRepo, userRepo, newTestRedis(t), 30*time.Second)
	badgeSvc := NewBadgeService(badgeRepo)

	return NewCompetitionService(f.db, attemptSvc, progressionSvc, leaderboardSvc, badgeSvc, quizRepo, enrollmentRepo)
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}
