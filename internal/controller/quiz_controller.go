package controller

import (
	"edurace_backend/internal/service"
	"edurace_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	CourseService *service.CourseService
}

func NewQuizController(courseService *service.CourseService) *QuizController {
	return &QuizController{CourseService: courseService}
}

// CreateQuiz godoc
// @Summary 创建测验
// @Description 讲师为课时创建测验，每个课时至多一个
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课时ID"
// @Param   body body service.QuizCreateRequest true "测验与题目"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response "题目校验失败"
// @Router /api/lessons/{id}/quiz [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	lessonID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid lesson id")
		return
	}

	var req service.QuizCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.CourseService.CreateQuiz(claims.UserID, lessonID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// PublishQuizRequest 发布/下架测验
type PublishQuizRequest struct {
	Published bool `json:"published"`
}

// PublishQuiz godoc
// @Summary 发布或下架测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Param   body body PublishQuizRequest true "发布状态"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id}/publish [put]
func (c *QuizController) PublishQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	var req PublishQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.CourseService.PublishQuiz(claims.UserID, quizID, req.Published); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"published": req.Published})
}

// GetQuiz godoc
// @Summary 测验详情
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.Quiz}
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quizID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	quiz, err := c.CourseService.GetQuiz(quizID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, quiz)
}

// GetQuizQuestions godoc
// @Summary 测验题目
// @Description 返回题目与选项，不包含正确答案
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=[]model.QuizQuestion}
// @Router /api/quizzes/{id}/questions [get]
func (c *QuizController) GetQuizQuestions(ctx *gin.Context) {
	quizID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	questions, err := c.CourseService.GetQuizQuestions(quizID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// DeleteQuiz godoc
// @Summary 删除测验
// @Tags 测验
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/quizzes/{id} [delete]
func (c *QuizController) DeleteQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	quizID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid quiz id")
		return
	}

	if err := c.CourseService.DeleteQuiz(claims.UserID, quizID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"deleted": true})
}
