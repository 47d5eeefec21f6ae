package repository

import (
	"edurace_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

// FindByID 读测验。传 tx 时在该事务内读，避免与持有连接的事务互相等待
func (r *QuizRepository) FindByID(tx *gorm.DB, id uint) (*model.Quiz, error) {
	if tx == nil {
		tx = r.DB
	}
	var quiz model.Quiz
	if err := tx.First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindByLesson(lessonID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.DB.Where("lesson_id = ?", lessonID).First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

// Delete 级联删除测验与其题目、尝试
func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizAttempt{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

// CourseID 通过所属课时回查课程
func (r *QuizRepository) CourseID(quizID uint) (uint, error) {
	var lesson model.Lesson
	err := r.DB.Select("lessons.course_id").
		Joins("JOIN quizzes ON quizzes.lesson_id = lessons.id").
		Where("quizzes.id = ?", quizID).
		Table("lessons").
		First(&lesson).Error
	if err != nil {
		return 0, err
	}
	return lesson.CourseID, nil
}

func (r *QuizRepository) CreateQuestion(q *model.QuizQuestion) error {
	return r.DB.Create(q).Error
}

func (r *QuizRepository) CreateQuestions(qs []model.QuizQuestion) error {
	if len(qs) == 0 {
		return nil
	}
	return r.DB.Create(&qs).Error
}

func (r *QuizRepository) FindQuestionByID(id uint) (*model.QuizQuestion, error) {
	var q model.QuizQuestion
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuizRepository) GetQuestions(tx *gorm.DB, quizID uint) ([]model.QuizQuestion, error) {
	if tx == nil {
		tx = r.DB
	}
	var questions []model.QuizQuestion
	err := tx.Where("quiz_id = ?", quizID).Order("id ASC").Find(&questions).Error
	return questions, err
}

func (r *QuizRepository) UpdateQuestion(q *model.QuizQuestion) error {
	return r.DB.Save(q).Error
}

func (r *QuizRepository) DeleteQuestion(id uint) error {
	return r.DB.Delete(&model.QuizQuestion{}, id).Error
}
