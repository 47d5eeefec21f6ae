package model

type AnswerOption string

const (
	OptionA AnswerOption = "A"
	OptionB AnswerOption = "B"
	OptionC AnswerOption = "C"
	OptionD AnswerOption = "D"
)

// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID        uint         `gorm:"index;type:bigint unsigned;not null" json:"quizId"`
	QuestionText  string       `gorm:"type:text;not null" json:"questionText"`
	OptionA       string       `gorm:"size:255;not null" json:"optionA"`
	OptionB       string       `gorm:"size:255;not null" json:"optionB"`
	OptionC       string       `gorm:"size:255" json:"optionC"`
	OptionD       string       `gorm:"size:255" json:"optionD"`
	CorrectAnswer AnswerOption `gorm:"size:1;not null" json:"-"`
	Points        int          `gorm:"default:1" json:"points"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// Weight 返回题目的计分权重，未设置时按 1 计
func (q *QuizQuestion) Weight() int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}
