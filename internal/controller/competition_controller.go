package controller

import (
	"edurace_backend/internal/model"
	"edurace_backend/internal/service"
	"edurace_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CompetitionController struct {
	CompetitionService *service.CompetitionService
	AttemptService     *service.AttemptService
}

func NewCompetitionController(competitionService *service.CompetitionService, attemptService *service.AttemptService) *CompetitionController {
	return &CompetitionController{
		CompetitionService: competitionService,
		AttemptService:     attemptService,
	}
}

// StartAttempt godoc
// @Summary 开始测验尝试
// @Description 校验报名与尝试次数后创建一次进行中的尝试
// @Tags 竞赛
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Success 201 {object} util.Response{data=model.QuizAttempt}
// @Failure 409 {object} util.Response "已有进行中的尝试"
// @Failure 422 {object} util.Response "次数用尽或测验未发布"
// @Router /api/quizzes/{id}/attempts [post]
func (c *CompetitionController) StartAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	attempt, err := c.CompetitionService.StartAttempt(claims.UserID, quizID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// SubmitAttemptRequest 答案集合，键为题目ID
type SubmitAttemptRequest struct {
	Answers map[uint]model.AnswerOption `json:"answers" binding:"required"`
}

// SubmitAttempt godoc
// @Summary 提交测验尝试
// @Description 判分、累计积分与连胜、刷新课程排行榜，返回回执
// @Tags 竞赛
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "尝试ID"
// @Param   body body SubmitAttemptRequest true "题目答案"
// @Success 200 {object} util.Response{data=service.SubmissionSummary}
// @Failure 409 {object} util.Response "该尝试已经结束"
// @Router /api/attempts/{id}/submit [post]
func (c *CompetitionController) SubmitAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	attemptID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid attempt id")
		return
	}

	var req SubmitAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.CompetitionService.SubmitAttempt(ctx.Request.Context(), claims.UserID, attemptID, req.Answers)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// MyAttempts godoc
// @Summary 我的测验尝试
// @Description 按开始时间倒序返回当前用户在某测验的全部尝试
// @Tags 竞赛
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=[]model.QuizAttempt}
// @Router /api/quizzes/{id}/attempts/me [get]
func (c *CompetitionController) MyAttempts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	attempts, err := c.AttemptService.ListMine(claims.UserID, quizID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, attempts)
}
