package app

import (
	"edurace_backend/docs"
	"edurace_backend/internal/config"
	"edurace_backend/internal/middleware"
	"edurace_backend/internal/model"

	"edurace_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)

		// 课程目录与榜单对游客开放
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)
		public.GET("/courses/:id/lessons", c.course.GetLessons)
		public.GET("/courses/:id/leaderboard", c.leaderboard.GetCourseLeaderboard)
		public.GET("/ranking", c.leaderboard.GetGlobalRanking)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/users/me", c.auth.Me)
	rg.GET("/users/me/badges", c.user.MyBadges)
	rg.GET("/users/me/payments", c.user.MyPayments)

	// 报名
	rg.POST("/courses/:id/enroll", c.course.Enroll)
	rg.DELETE("/courses/:id/enroll", c.course.DropEnrollment)
	rg.GET("/enrollments/me", c.course.MyEnrollments)
	rg.GET("/courses/:id/leaderboard/me", c.leaderboard.GetMyRank)

	// 测验与竞赛
	rg.GET("/quizzes/:id", c.quiz.GetQuiz)
	rg.GET("/quizzes/:id/questions", c.quiz.GetQuizQuestions)
	rg.POST("/quizzes/:id/attempts", c.competition.StartAttempt)
	rg.GET("/quizzes/:id/attempts/me", c.competition.MyAttempts)
	rg.POST("/attempts/:id/submit", c.competition.SubmitAttempt)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		instructor.POST("/courses", c.course.CreateCourse)
		instructor.POST("/courses/:id/publish", c.course.PublishCourse)
		instructor.POST("/courses/:id/lessons", c.course.AddLesson)

		instructor.POST("/lessons/:id/quiz", c.quiz.CreateQuiz)
		instructor.PUT("/quizzes/:id/publish", c.quiz.PublishQuiz)
		instructor.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
	}
}
