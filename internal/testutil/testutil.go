package testutil

import (
	"testing"

	"lms_backoffice/internal/model"
	"lms_backoffice/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB 每个测试独立的内存 sqlite 实例，表结构与生产迁移保持一致
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	if logger.Log == nil {
		logger.Log = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}

	// 内存库随连接消失，限制为单连接
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.Role{},
		&model.User{},
		&model.Category{},
		&model.Course{},
		&model.Section{},
		&model.CourseModule{},
		&model.ModuleContent{},
		&model.ModuleQuestion{},
		&model.TestQuizEntry{},
		&model.LessonContent{},
		&model.Question{},
		&model.Enrollment{},
		&model.QuizAttempt{},
		&model.AttemptAnswer{},
		&model.PracticeTestAttempt{},
		&model.TestAttemptAnswer{},
	)
	if err != nil {
		tb.Fatalf("migrate: %v", err)
	}

	return db
}

// Actor 构造带指定权限串的授权上下文
func Actor(userID uint, permissions ...string) *model.AuthContext {
	perms := make(map[string]struct{}, len(permissions))
	for _, p := range permissions {
		perms[p] = struct{}{}
	}
	return &model.AuthContext{UserID: userID, RoleName: "test", Permissions: perms}
}
