package database

import (
	"fmt"
	"lms_backoffice/internal/config"
	"lms_backoffice/internal/model"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

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
		return nil, err
	}

	log.Println("Database migration completed")

	// 内置角色：首次启动时写入，授予的是权限组名而非具体权限串
	var roleCount int64
	db.Model(&model.Role{}).Count(&roleCount)
	if roleCount == 0 {
		defaultRoles := []model.Role{
			{Name: "admin", Description: "系统管理员", Groups: model.StringList{"role_management", "user_management", "course_management", "content_management", "question_management", "enrollment_management", "attempt_management", "course_access", "attempt_own"}, IsBuiltin: true},
			{Name: "teacher", Description: "教师", Groups: model.StringList{"course_management", "content_management", "question_management", "attempt_management", "course_access"}, IsBuiltin: true},
			{Name: "student", Description: "学生", Groups: model.StringList{"course_access", "attempt_own"}, IsBuiltin: true},
		}
		for _, r := range defaultRoles {
			db.Create(&r)
		}
	}

	// 默认课程分类
	var catCount int64
	db.Model(&model.Category{}).Count(&catCount)
	if catCount == 0 {
		defaultCategories := []model.Category{
			{Name: "数学", Description: "数学类课程"},
			{Name: "语言", Description: "语言与写作类课程"},
			{Name: "标准化考试", Description: "SAT 等标准化考试备考"},
		}
		for _, c := range defaultCategories {
			db.Create(&c)
		}
	}

	return db, nil
}
