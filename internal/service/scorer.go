package service

import (
	"edurace_backend/internal/model"
	"edurace_backend/internal/util"
)

// ScoreResult 一次判分的完整输出。Percent 用于及格判定，
// PointsEarned 为答对题目的加权得分，供积分累计与课程排行榜使用。
type ScoreResult struct {
	Percent      int           `json:"percent"`
	PointsEarned int           `json:"pointsEarned"`
	TotalPoints  int           `json:"totalPoints"`
	Correct      map[uint]bool `json:"correct"`
}

// ScoreSubmission 按答案键给一份提交判分，无状态纯函数。
// 未作答按错误计；提交中未知的题目 ID 忽略，不影响分母。
func ScoreSubmission(quiz *model.Quiz, questions []model.QuizQuestion, answers map[uint]model.AnswerOption) (*ScoreResult, error) {
	if !quiz.IsPublished {
		return nil, util.ErrQuizNotPublished
	}
	if len(questions) == 0 {
		// 显式挡掉除零
		return nil, util.ErrInvalidSubmission
	}

	result := &ScoreResult{
		Correct: make(map[uint]bool, len(questions)),
	}

	earnedWeight := 0
	totalWeight := 0
	for i := range questions {
		q := &questions[i]
		w := q.Weight()
		totalWeight += w

		chosen, answered := answers[q.ID]
		correct := answered && chosen == q.CorrectAnswer
		result.Correct[q.ID] = correct
		if correct {
			earnedWeight += w
		}
	}

	result.PointsEarned = earnedWeight
	result.TotalPoints = totalWeight
	result.Percent = 100 * earnedWeight / totalWeight // 向下取整

	return result, nil
}
