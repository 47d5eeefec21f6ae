package app

import (
	"context"
	"edurace_backend/internal/config"
	"edurace_backend/internal/controller"
	"edurace_backend/internal/repository"
	"edurace_backend/internal/service"
	"edurace_backend/pkg/database"
	"edurace_backend/pkg/logger"
	"edurace_backend/pkg/monitoring"
	"edurace_backend/pkg/security"
	"edurace_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	services *services

	stopBackground context.CancelFunc
}

type repositories struct {
	user        *repository.UserRepository
	course      *repository.CourseRepository
	lesson      *repository.LessonRepository
	quiz        *repository.QuizRepository
	attempt     *repository.AttemptRepository
	enrollment  *repository.EnrollmentRepository
	leaderboard *repository.LeaderboardRepository
	badge       *repository.BadgeRepository
	payment     *repository.PaymentRepository
}

type services struct {
	auth        *service.AuthService
	course      *service.CourseService
	enrollment  *service.EnrollmentService
	attempt     *service.AttemptService
	progression *service.ProgressionService
	leaderboard *service.LeaderboardService
	badge       *service.BadgeService
	competition *service.CompetitionService
}

type controllers struct {
	auth        *controller.AuthController
	course      *controller.CourseController
	quiz        *controller.QuizController
	competition *controller.CompetitionController
	leaderboard *controller.LeaderboardController
	user        *controller.UserController
	health      *controller.HealthController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		course:      repository.NewCourseRepository(db),
		lesson:      repository.NewLessonRepository(db),
		quiz:        repository.NewQuizRepository(db),
		attempt:     repository.NewAttemptRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		leaderboard: repository.NewLeaderboardRepository(db),
		badge:       repository.NewBadgeRepository(db),
		payment:     repository.NewPaymentRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.auth = service.NewAuthService(repos.user, cfg)
	s.course = service.NewCourseService(repos.course, repos.lesson, repos.quiz, db)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course, repos.payment, db)

	s.attempt = service.NewAttemptService(repos.attempt, repos.quiz, db)
	s.progression = service.NewProgressionService(repos.user)
	s.leaderboard = service.NewLeaderboardService(
		repos.leaderboard,
		repos.attempt,
		repos.enrollment,
		repos.user,
		rdb,
		time.Duration(cfg.Competition.LeaderboardCacheSeconds)*time.Second,
	)
	s.badge = service.NewBadgeService(repos.badge)

	s.competition = service.NewCompetitionService(
		db,
		s.attempt,
		s.progression,
		s.leaderboard,
		s.badge,
		repos.quiz,
		repos.enrollment,
	)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		course:      controller.NewCourseController(s.course, s.enrollment),
		quiz:        controller.NewQuizController(s.course),
		competition: controller.NewCompetitionController(s.competition, s.attempt),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		user:        controller.NewUserController(s.badge, repos.payment),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 周期扫描超时未交卷的尝试并按 0 分结算，
// 停机时通过 stopBackground 取消
func (a *App) startBackgroundTasks(s *services) {
	if a.Config.Competition.ExpirySweepSeconds <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopBackground = cancel
	interval := time.Duration(a.Config.Competition.ExpirySweepSeconds) * time.Second
	go sweepLoop(ctx, interval, s.competition.SweepExpired)
}

func sweepLoop(ctx context.Context, interval time.Duration, sweep func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sweep(ctx); err != nil {
				logger.Log.Error("expiry sweep error", zap.Error(err))
			}
		}
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(ginMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("edurace-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)

	return app
}

func ginMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.stopBackground != nil {
		a.stopBackground()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
