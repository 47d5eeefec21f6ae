package service

import (
	"errors"
	"testing"

	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"edurace_backend/internal/util"
)

func newCourseService(f *fixture) *CourseService {
	return NewCourseService(
		repository.NewCourseRepository(f.db),
		repository.NewLessonRepository(f.db),
		repository.NewQuizRepository(f.db),
		f.db,
	)
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		q       QuizQuestionRequest
		wantErr bool
	}{
		{
			name: "two options answer A",
			q:    QuizQuestionRequest{OptionA: "x", OptionB: "y", CorrectAnswer: "A"},
		},
		{
			name: "four options answer D",
			q:    QuizQuestionRequest{OptionA: "a", OptionB: "b", OptionC: "c", OptionD: "d", CorrectAnswer: "D"},
		},
		{
			name:    "missing option B",
			q:       QuizQuestionRequest{OptionA: "a", CorrectAnswer: "A"},
			wantErr: true,
		},
		{
			name:    "option D without C",
			q:       QuizQuestionRequest{OptionA: "a", OptionB: "b", OptionD: "d", CorrectAnswer: "A"},
			wantErr: true,
		},
		{
			name:    "answer references empty option",
			q:       QuizQuestionRequest{OptionA: "a", OptionB: "b", CorrectAnswer: "C"},
			wantErr: true,
		},
		{
			name:    "answer key out of range",
			q:       QuizQuestionRequest{OptionA: "a", OptionB: "b", CorrectAnswer: "E"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateQuestion(tt.q)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateQuestion() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateQuizAppliesDefaults(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)

	lesson := model.Lesson{CourseID: f.course.ID, Title: "第二课", SequenceOrder: 2}
	mustCreate(t, f.db, &lesson)

	quiz, err := svc.CreateQuiz(f.course.InstructorID, lesson.ID, QuizCreateRequest{
		Title: "默认配置测验",
		Questions: []QuizQuestionRequest{
			{QuestionText: "q", OptionA: "a", OptionB: "b", CorrectAnswer: "A"},
		},
	})
	if err != nil {
		t.Fatalf("create quiz failed: %v", err)
	}
	if quiz.TimeLimitMinutes != 30 || quiz.MaxAttempts != 3 {
		t.Errorf("defaults not applied: %+v", quiz)
	}
	if quiz.IsPublished {
		t.Error("new quiz must start unpublished")
	}

	questions, err := svc.GetQuizQuestions(quiz.ID)
	if err != nil {
		t.Fatalf("get questions failed: %v", err)
	}
	if len(questions) != 1 || questions[0].Points != 1 {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestCreateQuizRejectsForeignInstructor(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)

	lesson := model.Lesson{CourseID: f.course.ID, Title: "第二课", SequenceOrder: 2}
	mustCreate(t, f.db, &lesson)

	intruder := model.User{
		Email: "intruder@example.com", Password: "x",
		FirstName: "In", LastName: "Truder", Role: model.Instructor,
	}
	mustCreate(t, f.db, &intruder)

	_, err := svc.CreateQuiz(intruder.ID, lesson.ID, QuizCreateRequest{Title: "偷用"})
	if !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateQuizRejectsBadPassingScore(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)

	lesson := model.Lesson{CourseID: f.course.ID, Title: "第二课", SequenceOrder: 2}
	mustCreate(t, f.db, &lesson)

	_, err := svc.CreateQuiz(f.course.InstructorID, lesson.ID, QuizCreateRequest{
		Title:        "越界及格线",
		PassingScore: 101,
	})
	if err == nil {
		t.Fatal("expected validation error for passing score 101")
	}
}

func TestPublishQuizTogglesVisibility(t *testing.T) {
	f := newFixture(t)
	svc := newCourseService(f)

	if err := svc.PublishQuiz(f.course.InstructorID, f.quiz.ID, false); err != nil {
		t.Fatalf("unpublish failed: %v", err)
	}
	quiz, err := svc.GetQuiz(f.quiz.ID)
	if err != nil {
		t.Fatalf("get quiz failed: %v", err)
	}
	if quiz.IsPublished {
		t.Error("quiz should be unpublished")
	}

	if err := svc.PublishQuiz(f.course.InstructorID, f.quiz.ID, true); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
}
