package app

import (
	"lms_backoffice/docs"
	"lms_backoffice/internal/config"
	"lms_backoffice/internal/middleware"
	"lms_backoffice/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, s *services, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由（无需登录）
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由。服务层各自做精确的权限判定，
	// 路由组只负责认证
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, s.permission), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/me", c.auth.Me)

		// 用户管理
		authGroup.POST("/users", c.user.CreateUser)
		authGroup.GET("/users", c.user.ListUsers)
		authGroup.GET("/users/:id", c.user.GetUser)
		authGroup.PUT("/users/:id", c.user.UpdateUser)
		authGroup.PUT("/users/:id/password", c.user.ChangePassword)
		authGroup.DELETE("/users/:id", c.user.DeleteUser)

		// 角色与权限。role_management 组以外的用户整组挡掉，
		// 具体动作仍由服务层精确判定
		roles := authGroup.Group("", middleware.RequirePermission("role:read"))
		{
			roles.POST("/roles", c.role.CreateRole)
			roles.GET("/roles", c.role.ListRoles)
			roles.GET("/roles/:id", c.role.GetRole)
			roles.PUT("/roles/:id", c.role.UpdateRole)
			roles.DELETE("/roles/:id", c.role.DeleteRole)
			roles.GET("/permissions", c.role.PermissionCatalog)
		}

		// 分类
		authGroup.POST("/categories", c.category.CreateCategory)
		authGroup.GET("/categories", c.category.ListCategories)
		authGroup.PUT("/categories/:id", c.category.UpdateCategory)
		authGroup.DELETE("/categories/:id", c.category.DeleteCategory)

		// 课程与小节
		authGroup.POST("/courses", c.course.CreateCourse)
		authGroup.GET("/courses", c.course.ListCourses)
		authGroup.GET("/courses/:id", c.course.GetCourse)
		authGroup.PUT("/courses/:id", c.course.UpdateCourse)
		authGroup.DELETE("/courses/:id", c.course.DeleteCourse)
		authGroup.POST("/courses/:id/sections", c.course.AttachSection)
		authGroup.GET("/courses/:id/enrollments", c.enrollment.ListByCourse)
		authGroup.PUT("/sections/:id", c.course.UpdateSection)
		authGroup.DELETE("/sections/:id", c.course.DetachSection)
		authGroup.POST("/reorder", c.course.Reorder)

		// 模块
		authGroup.POST("/modules/lesson", c.module.CreateLessonModule)
		authGroup.PUT("/modules/lesson/:id", c.module.UpdateLessonModule)
		authGroup.POST("/modules/quiz", c.module.CreateQuizModule)
		authGroup.PUT("/modules/quiz/:id", c.module.UpdateQuizModule)
		authGroup.POST("/modules/test", c.module.CreateTestModule)
		authGroup.PUT("/modules/test/:id", c.module.UpdateTestModule)
		authGroup.POST("/modules/test/:id/quizzes", c.module.AttachQuizToTest)
		authGroup.GET("/modules/standalone", c.module.ListStandaloneModules)
		authGroup.GET("/modules/:id", c.module.GetModule)
		authGroup.PUT("/modules/:id/attach", c.module.AttachModule)
		authGroup.DELETE("/modules/:id", c.module.DeleteModule)

		// 课件
		authGroup.POST("/contents", c.content.CreateContent)
		authGroup.GET("/contents", c.content.ListContents)
		authGroup.GET("/contents/:id", c.content.GetContent)
		authGroup.PUT("/contents/:id", c.content.UpdateContent)
		authGroup.DELETE("/contents/:id", c.content.DeleteContent)
		authGroup.POST("/contents/upload", c.content.UploadAsset)

		// 题库
		authGroup.POST("/questions", c.question.CreateQuestion)
		authGroup.GET("/questions", c.question.ListQuestions)
		authGroup.GET("/questions/:id", c.question.GetQuestion)
		authGroup.PUT("/questions/:id", c.question.UpdateQuestion)
		authGroup.DELETE("/questions/:id", c.question.DeleteQuestion)

		// 报名
		authGroup.POST("/enrollments", c.enrollment.Enroll)
		authGroup.GET("/enrollments", c.enrollment.ListMyEnrollments)
		authGroup.DELETE("/enrollments/:courseId", c.enrollment.Unenroll)
		authGroup.POST("/enrollments/:courseId/touch", c.enrollment.TouchAccess)

		// quiz 作答
		authGroup.POST("/attempts", c.attempt.StartAttempt)
		authGroup.GET("/attempts", c.attempt.ListAttempts)
		authGroup.GET("/attempts/:id", c.attempt.GetAttempt)
		authGroup.POST("/attempts/:id/submit", c.attempt.SubmitAttempt)
		authGroup.PUT("/attempts/:id/answers/:answerId/grade", c.attempt.ManualGrade)
		authGroup.DELETE("/attempts/:id", c.attempt.DeleteAttempt)

		// 练习测试作答
		authGroup.POST("/test-attempts", c.practiceTest.StartTestAttempt)
		authGroup.GET("/test-attempts", c.practiceTest.ListTestAttempts)
		authGroup.GET("/test-attempts/:id", c.practiceTest.GetTestAttempt)
		authGroup.POST("/test-attempts/:id/submit", c.practiceTest.SubmitTestAttempt)
		authGroup.PUT("/test-attempts/:id/answers/:answerId/grade", c.practiceTest.ManualGradeTestAnswer)
		authGroup.DELETE("/test-attempts/:id", c.practiceTest.DeleteTestAttempt)
	}
}
