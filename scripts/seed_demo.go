// 演示数据初始化脚本
//
// 在空库上创建演示账号、一门示例课程（含小节/模块/题目）和一份
// 两小节的模拟测试，方便本地联调前端。重复执行是幂等的：已存在
// 演示管理员账号时直接退出。
//
// 用法: go run scripts/seed_demo.go

package main

import (
	"lms_backoffice/internal/config"
	"lms_backoffice/internal/model"
	"lms_backoffice/pkg/database"
	"lms_backoffice/pkg/logger"
	"log"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var existing int64
	db.Model(&model.User{}).Where("email = ?", "admin@example.com").Count(&existing)
	if existing > 0 {
		log.Println("演示数据已存在，跳过")
		return
	}

	log.Println("写入演示数据...")
	if err := seed(db); err != nil {
		log.Fatalf("写入演示数据失败: %v", err)
	}
	log.Println("完成！演示账号: admin@example.com / teacher@example.com / student@example.com，密码均为 demo1234")
}

func seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := createUser(tx, "演示管理员", "admin@example.com", "admin"); err != nil {
			return err
		}
		teacher, err := createUser(tx, "演示教师", "teacher@example.com", "teacher")
		if err != nil {
			return err
		}
		student, err := createUser(tx, "演示学生", "student@example.com", "student")
		if err != nil {
			return err
		}

		var category model.Category
		if err := tx.Where("name = ?", "标准化考试").First(&category).Error; err != nil {
			return err
		}

		course := model.Course{
			Title:       "SAT 备考入门",
			Description: "阅读与数学两条线的基础备考课程",
			Difficulty:  model.DifficultyBeginner,
			Status:      model.StatusPublished,
			ContentType: model.ContentTypeCourseLesson,
			CategoryID:  &category.ID,
			TeacherID:   &teacher.ID,
		}
		if err := tx.Create(&course).Error; err != nil {
			return err
		}

		reading := model.Section{CourseID: course.ID, Order: 1, Title: "阅读与写作"}
		math := model.Section{CourseID: course.ID, Order: 2, Title: "数学"}
		if err := tx.Create(&reading).Error; err != nil {
			return err
		}
		if err := tx.Create(&math).Error; err != nil {
			return err
		}

		content := model.LessonContent{
			Title:       "如何定位主旨句",
			ContentType: model.LessonContentText,
			Body:        "先看首尾段，再对照每段首句，排除只覆盖局部细节的选项。",
			Status:      model.StatusPublished,
			CreatorID:   teacher.ID,
		}
		if err := tx.Create(&content).Error; err != nil {
			return err
		}

		lesson := model.CourseModule{
			SectionID:  &reading.ID,
			Order:      1,
			Title:      "阅读方法课",
			ModuleType: model.ModuleLesson,
		}
		if err := tx.Create(&lesson).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.ModuleContent{ModuleID: lesson.ID, LessonContentID: content.ID, Order: 1}).Error; err != nil {
			return err
		}

		questions, err := createQuestions(tx, teacher.ID, category.ID)
		if err != nil {
			return err
		}

		readingQuiz, err := createQuiz(tx, &reading.ID, 2, "阅读小测", questions[:2])
		if err != nil {
			return err
		}
		mathQuiz, err := createQuiz(tx, &math.ID, 1, "数学小测", questions[2:])
		if err != nil {
			return err
		}

		test := model.CourseModule{
			SectionID:  &math.ID,
			Order:      2,
			Title:      "SAT 模拟卷（一）",
			ModuleType: model.ModuleTest,
		}
		if err := tx.Create(&test).Error; err != nil {
			return err
		}
		for i, quiz := range []*model.CourseModule{readingQuiz, mathQuiz} {
			entry := model.TestQuizEntry{TestModuleID: test.ID, QuizModuleID: quiz.ID, Order: i + 1}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		enrollment := model.Enrollment{UserID: student.ID, CourseID: course.ID, EnrollmentDate: now, LastAccessedAt: now}
		return tx.Create(&enrollment).Error
	})
}

func createUser(tx *gorm.DB, name, email, roleName string) (*model.User, error) {
	var role model.Role
	if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := model.User{Name: name, Email: email, Password: string(hashed), RoleID: role.ID}
	if err := tx.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func createQuestions(tx *gorm.DB, creatorID, categoryID uint) ([]model.Question, error) {
	questions := []model.Question{
		{
			Text:         "下列哪一项最能概括示例段落的主旨？",
			QuestionType: model.QuestionMultipleChoice,
			Options: model.OptionList{
				{Text: "介绍写作背景", IsCorrect: false},
				{Text: "概括全段论点", IsCorrect: true},
				{Text: "列举次要细节", IsCorrect: false},
			},
		},
		{
			Text:         "主旨句一定出现在段落开头。",
			QuestionType: model.QuestionTrueFalse,
			CorrectBool:  boolPtr(false),
		},
		{
			Text:         "3x + 5 = 20，求 x。",
			QuestionType: model.QuestionShortAnswer,
			CorrectText:  "5",
		},
	}
	for i := range questions {
		questions[i].Difficulty = model.DifficultyBeginner
		questions[i].Status = model.StatusPublished
		questions[i].CategoryID = &categoryID
		questions[i].CreatorID = creatorID
		if err := tx.Create(&questions[i]).Error; err != nil {
			return nil, err
		}
	}
	return questions, nil
}

func createQuiz(tx *gorm.DB, sectionID *uint, order int, title string, questions []model.Question) (*model.CourseModule, error) {
	quiz := model.CourseModule{
		SectionID:              sectionID,
		Order:                  order,
		Title:                  title,
		ModuleType:             model.ModuleQuiz,
		QuestionNavigation:     model.NavigationFree,
		MaxAttempts:            model.UnlimitedAttempts,
		PassingScorePercentage: 60,
		Status:                 model.StatusPublished,
	}
	if err := tx.Create(&quiz).Error; err != nil {
		return nil, err
	}
	for i, q := range questions {
		mq := model.ModuleQuestion{ModuleID: quiz.ID, QuestionID: q.ID, Points: 5, Order: i + 1}
		if err := tx.Create(&mq).Error; err != nil {
			return nil, err
		}
	}
	return &quiz, nil
}

func boolPtr(b bool) *bool { return &b }
