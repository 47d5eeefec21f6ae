package service

import (
	"edurace_backend/internal/model"
	"edurace_backend/internal/repository"
	"edurace_backend/internal/util"
	"errors"
	"time"

	"gorm.io/gorm"
)

// CourseService 课程/课时/测验的创作与发布，内容本身是薄 CRUD
type CourseService struct {
	CourseRepo *repository.CourseRepository
	LessonRepo *repository.LessonRepository
	QuizRepo   *repository.QuizRepository
	DB         *gorm.DB
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	quizRepo *repository.QuizRepository,
	db *gorm.DB,
) *CourseService {
	return &CourseService{
		CourseRepo: courseRepo,
		LessonRepo: lessonRepo,
		QuizRepo:   quizRepo,
		DB:         db,
	}
}

type CourseCreateRequest struct {
	Title               string     `json:"title" binding:"required"`
	Description         string     `json:"description"`
	ThumbnailURL        string     `json:"thumbnailUrl"`
	Difficulty          string     `json:"difficulty"`
	EntryFee            int64      `json:"entryFee"`
	MaxEnrollments      int        `json:"maxEnrollments"`
	EnrollmentStartDate *time.Time `json:"enrollmentStartDate"`
	EnrollmentEndDate   *time.Time `json:"enrollmentEndDate"`
}

func (s *CourseService) CreateCourse(instructorID uint, req CourseCreateRequest) (*model.Course, error) {
	if req.Title == "" {
		return nil, errors.New("title required")
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.CourseDifficultyBeginner
	}
	course := &model.Course{
		InstructorID:        instructorID,
		Title:               req.Title,
		Description:         req.Description,
		ThumbnailURL:        req.ThumbnailURL,
		Difficulty:          difficulty,
		Status:              model.CourseStatusDraft,
		EntryFee:            req.EntryFee,
		MaxEnrollments:      req.MaxEnrollments,
		EnrollmentStartDate: req.EnrollmentStartDate,
		EnrollmentEndDate:   req.EnrollmentEndDate,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

func (s *CourseService) ListCourses(page, limit int, status string) ([]model.Course, int64, error) {
	return s.CourseRepo.List(page, limit, status)
}

func (s *CourseService) PublishCourse(instructorID, courseID uint) error {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return err
	}
	if course.InstructorID != instructorID {
		return util.ErrPermissionDenied
	}
	course.Status = model.CourseStatusPublished
	return s.CourseRepo.Update(course)
}

type LessonCreateRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	Content       string `json:"content"`
	VideoURL      string `json:"videoUrl"`
	SequenceOrder int    `json:"sequenceOrder"`
	IsPublished   bool   `json:"isPublished"`
}

func (s *CourseService) AddLesson(instructorID, courseID uint, req LessonCreateRequest) (*model.Lesson, error) {
	course, err := s.GetCourse(courseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != instructorID {
		return nil, util.ErrPermissionDenied
	}
	lesson := &model.Lesson{
		CourseID:      courseID,
		Title:         req.Title,
		Description:   req.Description,
		Content:       req.Content,
		VideoURL:      req.VideoURL,
		SequenceOrder: req.SequenceOrder,
		IsPublished:   req.IsPublished,
	}
	if err := s.LessonRepo.Create(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) GetLessons(courseID uint) ([]model.Lesson, error) {
	return s.LessonRepo.FindByCourse(courseID)
}

type QuizQuestionRequest struct {
	QuestionText  string `json:"questionText" binding:"required"`
	OptionA       string `json:"optionA" binding:"required"`
	OptionB       string `json:"optionB" binding:"required"`
	OptionC       string `json:"optionC"`
	OptionD       string `json:"optionD"`
	CorrectAnswer string `json:"correctAnswer" binding:"required"`
	Points        int    `json:"points"`
}

type QuizCreateRequest struct {
	Title            string                `json:"title" binding:"required"`
	Description      string                `json:"description"`
	TimeLimitMinutes int                   `json:"timeLimitMinutes"`
	PassingScore     int                   `json:"passingScore"`
	MaxAttempts      int                   `json:"maxAttempts"`
	Questions        []QuizQuestionRequest `json:"questions"`
}

// CreateQuiz 每个课时至多一个测验；题目与测验同事务写入
func (s *CourseService) CreateQuiz(instructorID, lessonID uint, req QuizCreateRequest) (*model.Quiz, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	course, err := s.GetCourse(lesson.CourseID)
	if err != nil {
		return nil, err
	}
	if course.InstructorID != instructorID {
		return nil, util.ErrPermissionDenied
	}

	if req.TimeLimitMinutes < 1 {
		req.TimeLimitMinutes = 30
	}
	if req.PassingScore < 0 || req.PassingScore > 100 {
		return nil, errors.New("passing score must be between 0 and 100")
	}
	if req.MaxAttempts < 1 {
		req.MaxAttempts = 3
	}
	for _, q := range req.Questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
	}

	var quiz *model.Quiz
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		quiz = &model.Quiz{
			LessonID:         lessonID,
			Title:            req.Title,
			Description:      req.Description,
			TimeLimitMinutes: req.TimeLimitMinutes,
			PassingScore:     req.PassingScore,
			MaxAttempts:      req.MaxAttempts,
		}
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		for _, q := range req.Questions {
			points := q.Points
			if points < 1 {
				points = 1
			}
			question := &model.QuizQuestion{
				QuizID:        quiz.ID,
				QuestionText:  q.QuestionText,
				OptionA:       q.OptionA,
				OptionB:       q.OptionB,
				OptionC:       q.OptionC,
				OptionD:       q.OptionD,
				CorrectAnswer: model.AnswerOption(q.CorrectAnswer),
				Points:        points,
			}
			if err := tx.Create(question).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

// validateQuestion 选项 2-4 个，答案键必须落在已填选项内
func validateQuestion(q QuizQuestionRequest) error {
	if q.OptionA == "" || q.OptionB == "" {
		return errors.New("options A and B are required")
	}
	if q.OptionC == "" && q.OptionD != "" {
		return errors.New("option D requires option C")
	}
	switch model.AnswerOption(q.CorrectAnswer) {
	case model.OptionA, model.OptionB:
	case model.OptionC:
		if q.OptionC == "" {
			return errors.New("correct answer references empty option")
		}
	case model.OptionD:
		if q.OptionD == "" {
			return errors.New("correct answer references empty option")
		}
	default:
		return errors.New("correct answer must be one of A, B, C, D")
	}
	return nil
}

func (s *CourseService) PublishQuiz(instructorID, quizID uint, publish bool) error {
	quiz, err := s.QuizRepo.FindByID(nil, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuizNotFound
		}
		return err
	}
	lesson, err := s.LessonRepo.FindByID(quiz.LessonID)
	if err != nil {
		return err
	}
	course, err := s.GetCourse(lesson.CourseID)
	if err != nil {
		return err
	}
	if course.InstructorID != instructorID {
		return util.ErrPermissionDenied
	}
	quiz.IsPublished = publish
	return s.QuizRepo.Update(quiz)
}

func (s *CourseService) GetQuiz(quizID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(nil, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// GetQuizQuestions 学生侧读题：CorrectAnswer 字段 json:"-" 不外漏
func (s *CourseService) GetQuizQuestions(quizID uint) ([]model.QuizQuestion, error) {
	return s.QuizRepo.GetQuestions(nil, quizID)
}

func (s *CourseService) DeleteQuiz(instructorID, quizID uint) error {
	quiz, err := s.GetQuiz(quizID)
	if err != nil {
		return err
	}
	lesson, err := s.LessonRepo.FindByID(quiz.LessonID)
	if err != nil {
		return err
	}
	course, err := s.GetCourse(lesson.CourseID)
	if err != nil {
		return err
	}
	if course.InstructorID != instructorID {
		return util.ErrPermissionDenied
	}
	return s.QuizRepo.Delete(quizID)
}
