package controller

import (
	"edurace_backend/internal/service"
	"edurace_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CourseController struct {
	CourseService     *service.CourseService
	EnrollmentService *service.EnrollmentService
}

func NewCourseController(courseService *service.CourseService, enrollmentService *service.EnrollmentService) *CourseController {
	return &CourseController{
		CourseService:     courseService,
		EnrollmentService: enrollmentService,
	}
}

// CreateCourse godoc
// @Summary 创建课程
// @Description 讲师创建课程，初始为草稿状态
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.CourseCreateRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	var req service.CourseCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.CreateCourse(claims.UserID, req)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, course)
}

// ListCourses godoc
// @Summary 课程列表
// @Description 分页获取课程列表
// @Tags 课程
// @Produce  json
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Param   status query string false "课程状态"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	status := ctx.Query("status")

	courses, total, err := c.CourseService.ListCourses(page, limit, status)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  courses,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	course, err := c.CourseService.GetCourse(id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, course)
}

// PublishCourse godoc
// @Summary 发布课程
// @Description 讲师将草稿课程发布，发布后可报名
// @Tags 课程
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "非课程讲师"
// @Router /api/courses/{id}/publish [post]
func (c *CourseController) PublishCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	id, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	if err := c.CourseService.PublishCourse(claims.UserID, id); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"published": true})
}

// AddLesson godoc
// @Summary 添加课时
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Param   body body service.LessonCreateRequest true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Router /api/courses/{id}/lessons [post]
func (c *CourseController) AddLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	var req service.LessonCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.CourseService.AddLesson(claims.UserID, courseID, req)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// GetLessons godoc
// @Summary 课时列表
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Lesson}
// @Router /api/courses/{id}/lessons [get]
func (c *CourseController) GetLessons(ctx *gin.Context) {
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	lessons, err := c.CourseService.GetLessons(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, lessons)
}

// Enroll godoc
// @Summary 报名课程
// @Description 学生报名已发布课程，报名费计入奖金池
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 409 {object} util.Response "已报名"
// @Router /api/courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(claims.UserID, courseID)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Created(ctx, enrollment)
}

// MyEnrollments godoc
// @Summary 我的报名
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Router /api/enrollments/me [get]
func (c *CourseController) MyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollments, err := c.EnrollmentService.MyEnrollments(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// DropEnrollment godoc
// @Summary 退出课程
// @Description 退出后不再出现在该课程排行榜
// @Tags 报名
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response
// @Router /api/courses/{id}/enroll [delete]
func (c *CourseController) DropEnrollment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	courseID, err := parseUintParam(ctx, "id")
	if err != nil {
		util.BadRequest(ctx, "invalid course id")
		return
	}

	if err := c.EnrollmentService.Drop(claims.UserID, courseID); err != nil {
		respondServiceError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"dropped": true})
}

func parseUintParam(ctx *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

// respondServiceError 把业务哨兵错误映射为 HTTP 状态码
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrCourseNotFound),
		errors.Is(err, util.ErrLessonNotFound),
		errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrAttemptNotFound),
		errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrAlreadyEnrolled):
		util.Conflict(ctx, "已报名该课程")
	case errors.Is(err, util.ErrEnrollmentClosed):
		util.Error(ctx, 422, "课程当前不可报名")
	case errors.Is(err, util.ErrStudentNotEnrolled):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrQuizNotPublished):
		util.Error(ctx, 422, "测验尚未发布")
	case errors.Is(err, util.ErrAttemptLimitExceeded):
		util.Error(ctx, 422, "已达到最大尝试次数")
	case errors.Is(err, util.ErrAttemptAlreadyInProgress):
		util.Conflict(ctx, "已有进行中的尝试")
	case errors.Is(err, util.ErrAttemptAlreadyFinalized):
		util.Conflict(ctx, "该尝试已经结束")
	case errors.Is(err, util.ErrInvalidSubmission):
		util.BadRequest(ctx, "提交内容无效")
	case errors.Is(err, util.ErrStorageUnavailable):
		util.Error(ctx, 503, "存储暂不可用，请稍后重试")
	default:
		util.LogInternalError(ctx, err)
	}
}
