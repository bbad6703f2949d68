package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms_backoffice/internal/config"
	"lms_backoffice/internal/controller"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/service"
	"lms_backoffice/internal/util"
	"lms_backoffice/pkg/database"
	"lms_backoffice/pkg/logger"
	"lms_backoffice/pkg/monitoring"
	"lms_backoffice/pkg/security"
	"lms_backoffice/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	role        *repository.RoleRepository
	user        *repository.UserRepository
	category    *repository.CategoryRepository
	course      *repository.CourseRepository
	section     *repository.SectionRepository
	module      *repository.ModuleRepository
	content     *repository.LessonContentRepository
	question    *repository.QuestionRepository
	enrollment  *repository.EnrollmentRepository
	quizAttempt *repository.QuizAttemptRepository
	testAttempt *repository.PracticeTestAttemptRepository
}

type services struct {
	permission   *service.PermissionService
	auth         *service.AuthService
	user         *service.UserService
	role         *service.RoleService
	category     *service.CategoryService
	course       *service.CourseService
	module       *service.ModuleService
	ordering     *service.OrderingService
	question     *service.QuestionService
	content      *service.LessonContentService
	storage      *service.StorageService
	enrollment   *service.EnrollmentService
	attempt      *service.AttemptService
	practiceTest *service.PracticeTestService
}

type controllers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	role         *controller.RoleController
	category     *controller.CategoryController
	course       *controller.CourseController
	module       *controller.ModuleController
	content      *controller.LessonContentController
	question     *controller.QuestionController
	enrollment   *controller.EnrollmentController
	attempt      *controller.AttemptController
	practiceTest *controller.PracticeTestController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热更新入口，替换当前配置并逐个通知回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
	logger.Log.Info("configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		role:        repository.NewRoleRepository(db),
		user:        repository.NewUserRepository(db),
		category:    repository.NewCategoryRepository(db),
		course:      repository.NewCourseRepository(db),
		section:     repository.NewSectionRepository(db),
		module:      repository.NewModuleRepository(db),
		content:     repository.NewLessonContentRepository(db),
		question:    repository.NewQuestionRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		quizAttempt: repository.NewQuizAttemptRepository(db),
		testAttempt: repository.NewPracticeTestAttemptRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.permission = service.NewPermissionService(repos.role, rdb)
	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, repos.role, cfg)
	s.user = service.NewUserService(repos.user, repos.role, db)
	s.role = service.NewRoleService(repos.role, s.permission, db)
	s.category = service.NewCategoryService(repos.category, db)
	s.course = service.NewCourseService(repos.course, repos.section, repos.module, db)
	s.module = service.NewModuleService(repos.module, repos.section, repos.course, repos.content, repos.question, db)
	s.ordering = service.NewOrderingService(repos.section, repos.module, db)
	s.question = service.NewQuestionService(repos.question, repos.category, db)
	s.content = service.NewLessonContentService(repos.content, s.storage, cfg, db)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course, db)
	s.attempt = service.NewAttemptService(repos.quizAttempt, repos.module, repos.section, repos.question, repos.enrollment, db)
	s.practiceTest = service.NewPracticeTestService(repos.testAttempt, repos.module, repos.section, repos.question, repos.enrollment, db)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		user:         controller.NewUserController(s.user),
		role:         controller.NewRoleController(s.role, s.permission),
		category:     controller.NewCategoryController(s.category),
		course:       controller.NewCourseController(s.course, s.ordering),
		module:       controller.NewModuleController(s.module),
		content:      controller.NewLessonContentController(s.content),
		question:     controller.NewQuestionController(s.question),
		enrollment:   controller.NewEnrollmentController(s.enrollment),
		attempt:      controller.NewAttemptController(s.attempt),
		practiceTest: controller.NewPracticeTestController(s.practiceTest),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		// Redis 只承载权限缓存，连不上按降级处理
		logger.Log.Warn("Redis unavailable, role permission cache disabled", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db, rdb)

	// JWT 密钥、有效期随配置热更新，签发新 token 立即生效
	app.RegisterConfigCallback(func(c *config.Config) {
		services.auth.Cfg = c
		services.content.Cfg = c
	})

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("lms-backoffice", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, services, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
