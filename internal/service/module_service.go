package service

import (
	"errors"
	"time"

	"lms_backoffice/internal/model"
	"lms_backoffice/internal/repository"
	"lms_backoffice/internal/util"

	"gorm.io/gorm"
)

type ModuleService struct {
	ModuleRepo  *repository.ModuleRepository
	SectionRepo *repository.SectionRepository
	CourseRepo  *repository.CourseRepository
	ContentRepo *repository.LessonContentRepository
	QuestRepo   *repository.QuestionRepository
	DB          *gorm.DB
}

func NewModuleService(moduleRepo *repository.ModuleRepository, sectionRepo *repository.SectionRepository, courseRepo *repository.CourseRepository, contentRepo *repository.LessonContentRepository, questRepo *repository.QuestionRepository, db *gorm.DB) *ModuleService {
	return &ModuleService{
		ModuleRepo:  moduleRepo,
		SectionRepo: sectionRepo,
		CourseRepo:  courseRepo,
		ContentRepo: contentRepo,
		QuestRepo:   questRepo,
		DB:          db,
	}
}

type LessonModuleRequest struct {
	SectionID   *uint  `json:"sectionId"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ProgressBar bool   `json:"progressBar"`
	ContentIDs  []uint `json:"contentIds"`
}

type QuizQuestionEntry struct {
	QuestionID uint `json:"questionId"`
	Points     int  `json:"points"`
}

type QuizModuleRequest struct {
	SectionID          *uint  `json:"sectionId"`
	Title              string `json:"title" binding:"required"`
	Description        string `json:"description"`
	QuestionsPerPage   int    `json:"questionsPerPage"`
	QuestionNavigation string `json:"questionNavigation"`
	QuestionShuffle    bool   `json:"questionShuffle"`
	ShuffleOptions     bool   `json:"shuffleOptions"`
	// 空或 -1 表示不限次数（保持历史数据约定）
	MaxAttempts            *int                `json:"maxAttempts"`
	TimeLimitMinutes       *int                `json:"timeLimitMinutes"`
	PassingScorePercentage int                 `json:"passingScorePercentage"`
	AvailableFrom          *time.Time          `json:"availableFrom"`
	AvailableUntil         *time.Time          `json:"availableUntil"`
	Status                 string              `json:"status"`
	Questions              []QuizQuestionEntry `json:"questions"`
}

type TestModuleRequest struct {
	SectionID     *uint  `json:"sectionId"`
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	QuizModuleIDs []uint `json:"quizModuleIds"`
}

// ValidateModulePayload 各变体的必填检查，保存路径统一走这里
func ValidateModulePayload(moduleType model.ModuleType, payload interface{}) error {
	switch moduleType {
	case model.ModuleLesson:
		req, ok := payload.(LessonModuleRequest)
		if !ok {
			return util.NewValidationError("payload", "invalid lesson payload")
		}
		if len(req.ContentIDs) == 0 {
			return util.NewValidationError("contentIds", "lesson module requires at least one content item")
		}
	case model.ModuleQuiz:
		req, ok := payload.(QuizModuleRequest)
		if !ok {
			return util.NewValidationError("payload", "invalid quiz payload")
		}
		if len(req.Questions) == 0 {
			return util.NewValidationError("questions", "quiz module requires at least one question")
		}
		if req.QuestionsPerPage < 1 {
			return util.NewValidationError("questionsPerPage", "must be at least 1")
		}
		if req.PassingScorePercentage < 0 || req.PassingScorePercentage > 100 {
			return util.NewValidationError("passingScorePercentage", "must be between 0 and 100")
		}
		if req.MaxAttempts != nil && *req.MaxAttempts != model.UnlimitedAttempts && *req.MaxAttempts < 1 {
			return util.NewValidationError("maxAttempts", "must be -1 (unlimited) or at least 1")
		}
		if req.QuestionNavigation != "" && req.QuestionNavigation != model.NavigationSequence && req.QuestionNavigation != model.NavigationFree {
			return util.NewValidationError("questionNavigation", "must be sequence or free")
		}
		if !validStatus(req.Status) {
			return util.NewValidationError("status", "must be draft, published or archived")
		}
	case model.ModuleTest:
		req, ok := payload.(TestModuleRequest)
		if !ok {
			return util.NewValidationError("payload", "invalid test payload")
		}
		if len(req.QuizModuleIDs) == 0 {
			return util.NewValidationError("quizModuleIds", "test module requires at least one quiz module")
		}
	default:
		return util.NewValidationError("moduleType", "must be lesson, quiz or test")
	}
	return nil
}

// usedContentIDs 收集某课程内所有 lesson 模块引用的内容 id，
// 排除正在编辑的模块自身
func (s *ModuleService) usedContentIDs(courseID, excludeModuleID uint) (map[uint]struct{}, error) {
	used := make(map[uint]struct{})
	sections, err := s.SectionRepo.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}
	for _, section := range sections {
		modules, err := s.ModuleRepo.ListBySection(section.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range modules {
			if m.ModuleType != model.ModuleLesson || m.ID == excludeModuleID {
				continue
			}
			contents, err := s.ModuleRepo.ListContents(m.ID)
			if err != nil {
				return nil, err
			}
			for _, c := range contents {
				used[c.LessonContentID] = struct{}{}
			}
		}
	}
	return used, nil
}

// checkDuplicateContent 课程内内容复用检查：目标课程中任何其他
// lesson 模块已引用的内容不允许再次引用，跨课程复用不受限
func (s *ModuleService) checkDuplicateContent(sectionID, excludeModuleID uint, contentIDs []uint) error {
	section, err := s.SectionRepo.FindByID(sectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	used, err := s.usedContentIDs(section.CourseID, excludeModuleID)
	if err != nil {
		return err
	}
	for _, id := range contentIDs {
		if _, ok := used[id]; ok {
			return util.ErrDuplicateContent
		}
	}
	return nil
}

// resolveOrder 追加策略：挂载时排到末尾。保存路径在事务内调用，
// 读最大序号必须走同一个事务句柄
func (s *ModuleService) resolveOrder(db *gorm.DB, sectionID *uint) (int, error) {
	if sectionID == nil {
		return 0, nil
	}
	var max *int
	err := db.Model(&model.CourseModule{}).
		Where("section_id = ?", *sectionID).
		Select("MAX(sort_order)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

// clearVariantFields 变体切换时清空其他变体的标量字段，
// 关联行由调用方在事务内删除
func clearVariantFields(module *model.CourseModule, keep model.ModuleType) {
	if keep != model.ModuleLesson {
		module.ProgressBar = false
	}
	if keep != model.ModuleQuiz {
		module.QuestionsPerPage = 0
		module.QuestionNavigation = ""
		module.QuestionShuffle = false
		module.ShuffleOptions = false
		module.MaxAttempts = model.UnlimitedAttempts
		module.TimeLimitMinutes = nil
		module.PassingScorePercentage = 0
		module.AvailableFrom = nil
		module.AvailableUntil = nil
		module.Status = model.StatusDraft
	}
}

func (s *ModuleService) loadOrNewModule(moduleID uint) (*model.CourseModule, error) {
	if moduleID == 0 {
		return &model.CourseModule{}, nil
	}
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) requireSavePermission(actor *model.AuthContext, moduleID uint) error {
	perm := "module:create"
	if moduleID != 0 {
		perm = "module:update"
	}
	if !actor.Can(perm) {
		return util.ErrPermissionDenied
	}
	return nil
}

// SaveLessonModule 新建或编辑 lesson 模块。moduleID 为 0 表示新建。
// 保存要么全部落库要么整体拒绝
func (s *ModuleService) SaveLessonModule(actor *model.AuthContext, moduleID uint, req LessonModuleRequest) (*model.CourseModule, error) {
	if err := s.requireSavePermission(actor, moduleID); err != nil {
		return nil, err
	}
	if err := ValidateModulePayload(model.ModuleLesson, req); err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(req.ContentIDs))
	for _, id := range req.ContentIDs {
		if _, dup := seen[id]; dup {
			return nil, util.NewValidationError("contentIds", "duplicate content id in request")
		}
		seen[id] = struct{}{}
	}
	count, err := s.ContentRepo.CountByIDs(req.ContentIDs)
	if err != nil {
		return nil, err
	}
	if int(count) != len(req.ContentIDs) {
		return nil, util.ErrNotFound
	}

	module, err := s.loadOrNewModule(moduleID)
	if err != nil {
		return nil, err
	}

	if req.SectionID != nil {
		if err := s.checkDuplicateContent(*req.SectionID, module.ID, req.ContentIDs); err != nil {
			return nil, err
		}
	}

	typeSwitched := module.ID != 0 && module.ModuleType != model.ModuleLesson
	sectionChanged := !sameSection(module.SectionID, req.SectionID)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		module.Title = req.Title
		module.Description = req.Description
		module.ModuleType = model.ModuleLesson
		module.ProgressBar = req.ProgressBar
		clearVariantFields(module, model.ModuleLesson)

		if sectionChanged {
			module.SectionID = req.SectionID
			if req.SectionID != nil {
				order, err := s.resolveOrder(tx, req.SectionID)
				if err != nil {
					return err
				}
				module.Order = order
			}
		}

		if module.ID == 0 {
			if err := tx.Create(module).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Save(module).Error; err != nil {
				return err
			}
		}

		if typeSwitched {
			if err := tx.Where("module_id = ?", module.ID).Delete(&model.ModuleQuestion{}).Error; err != nil {
				return err
			}
			if err := tx.Where("test_module_id = ?", module.ID).Delete(&model.TestQuizEntry{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("module_id = ?", module.ID).Delete(&model.ModuleContent{}).Error; err != nil {
			return err
		}
		rows := make([]model.ModuleContent, 0, len(req.ContentIDs))
		for idx, contentID := range req.ContentIDs {
			rows = append(rows, model.ModuleContent{
				ModuleID:        module.ID,
				LessonContentID: contentID,
				Order:           idx + 1,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ModuleRepo.FindByIDFull(module.ID)
}

// SaveQuizModule 新建或编辑 quiz 模块
func (s *ModuleService) SaveQuizModule(actor *model.AuthContext, moduleID uint, req QuizModuleRequest) (*model.CourseModule, error) {
	if err := s.requireSavePermission(actor, moduleID); err != nil {
		return nil, err
	}
	if err := ValidateModulePayload(model.ModuleQuiz, req); err != nil {
		return nil, err
	}

	questionIDs := make([]uint, 0, len(req.Questions))
	seen := make(map[uint]struct{}, len(req.Questions))
	for _, entry := range req.Questions {
		if _, dup := seen[entry.QuestionID]; dup {
			return nil, util.NewValidationError("questions", "duplicate question id in request")
		}
		seen[entry.QuestionID] = struct{}{}
		questionIDs = append(questionIDs, entry.QuestionID)
	}
	existing, err := s.QuestRepo.FindByIDs(questionIDs)
	if err != nil {
		return nil, err
	}
	if len(existing) != len(questionIDs) {
		return nil, util.ErrNotFound
	}

	module, err := s.loadOrNewModule(moduleID)
	if err != nil {
		return nil, err
	}
	if req.SectionID != nil {
		if _, err := s.SectionRepo.FindByID(*req.SectionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrNotFound
			}
			return nil, err
		}
	}

	typeSwitched := module.ID != 0 && module.ModuleType != model.ModuleQuiz
	sectionChanged := !sameSection(module.SectionID, req.SectionID)

	maxAttempts := model.UnlimitedAttempts
	if req.MaxAttempts != nil {
		maxAttempts = *req.MaxAttempts
	}
	navigation := req.QuestionNavigation
	if navigation == "" {
		navigation = model.NavigationSequence
	}
	status := req.Status
	if status == "" {
		status = model.StatusDraft
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		module.Title = req.Title
		module.Description = req.Description
		module.ModuleType = model.ModuleQuiz
		module.QuestionsPerPage = req.QuestionsPerPage
		module.QuestionNavigation = navigation
		module.QuestionShuffle = req.QuestionShuffle
		module.ShuffleOptions = req.ShuffleOptions
		module.MaxAttempts = maxAttempts
		module.TimeLimitMinutes = req.TimeLimitMinutes
		module.PassingScorePercentage = req.PassingScorePercentage
		module.AvailableFrom = req.AvailableFrom
		module.AvailableUntil = req.AvailableUntil
		module.Status = status
		clearVariantFields(module, model.ModuleQuiz)

		if sectionChanged {
			module.SectionID = req.SectionID
			if req.SectionID != nil {
				order, err := s.resolveOrder(tx, req.SectionID)
				if err != nil {
					return err
				}
				module.Order = order
			}
		}

		if module.ID == 0 {
			if err := tx.Create(module).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Save(module).Error; err != nil {
				return err
			}
		}

		if typeSwitched {
			if err := tx.Where("module_id = ?", module.ID).Delete(&model.ModuleContent{}).Error; err != nil {
				return err
			}
			if err := tx.Where("test_module_id = ?", module.ID).Delete(&model.TestQuizEntry{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("module_id = ?", module.ID).Delete(&model.ModuleQuestion{}).Error; err != nil {
			return err
		}
		rows := make([]model.ModuleQuestion, 0, len(req.Questions))
		for idx, entry := range req.Questions {
			points := entry.Points
			if points <= 0 {
				points = 1
			}
			rows = append(rows, model.ModuleQuestion{
				ModuleID:   module.ID,
				QuestionID: entry.QuestionID,
				Points:     points,
				Order:      idx + 1,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ModuleRepo.FindByIDFull(module.ID)
}

// SaveTestModule 新建或编辑 test 模块。引用的 quiz 必须已发布、
// 不重复，且不允许嵌套 test
func (s *ModuleService) SaveTestModule(actor *model.AuthContext, moduleID uint, req TestModuleRequest) (*model.CourseModule, error) {
	if err := s.requireSavePermission(actor, moduleID); err != nil {
		return nil, err
	}
	if err := ValidateModulePayload(model.ModuleTest, req); err != nil {
		return nil, err
	}

	seen := make(map[uint]struct{}, len(req.QuizModuleIDs))
	for _, id := range req.QuizModuleIDs {
		if _, dup := seen[id]; dup {
			return nil, util.ErrDuplicateQuizInTest
		}
		seen[id] = struct{}{}
	}
	for _, quizID := range req.QuizModuleIDs {
		quiz, err := s.ModuleRepo.FindByID(quizID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrNotFound
			}
			return nil, err
		}
		if quiz.ModuleType != model.ModuleQuiz {
			return nil, util.NewValidationError("quizModuleIds", "test module may only reference quiz modules")
		}
		if quiz.Status != model.StatusPublished {
			return nil, util.ErrQuizNotPublished
		}
	}

	module, err := s.loadOrNewModule(moduleID)
	if err != nil {
		return nil, err
	}
	if req.SectionID != nil {
		if _, err := s.SectionRepo.FindByID(*req.SectionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrNotFound
			}
			return nil, err
		}
	}

	typeSwitched := module.ID != 0 && module.ModuleType != model.ModuleTest
	sectionChanged := !sameSection(module.SectionID, req.SectionID)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		module.Title = req.Title
		module.Description = req.Description
		module.ModuleType = model.ModuleTest
		clearVariantFields(module, model.ModuleTest)

		if sectionChanged {
			module.SectionID = req.SectionID
			if req.SectionID != nil {
				order, err := s.resolveOrder(tx, req.SectionID)
				if err != nil {
					return err
				}
				module.Order = order
			}
		}

		if module.ID == 0 {
			if err := tx.Create(module).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Save(module).Error; err != nil {
				return err
			}
		}

		if typeSwitched {
			if err := tx.Where("module_id = ?", module.ID).Delete(&model.ModuleContent{}).Error; err != nil {
				return err
			}
			if err := tx.Where("module_id = ?", module.ID).Delete(&model.ModuleQuestion{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("test_module_id = ?", module.ID).Delete(&model.TestQuizEntry{}).Error; err != nil {
			return err
		}
		rows := make([]model.TestQuizEntry, 0, len(req.QuizModuleIDs))
		for idx, quizID := range req.QuizModuleIDs {
			rows = append(rows, model.TestQuizEntry{
				TestModuleID: module.ID,
				QuizModuleID: quizID,
				Order:        idx + 1,
			})
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return s.ModuleRepo.FindByIDFull(module.ID)
}

// AttachQuizToTest 向 test 模块追加一个 quiz 小节
func (s *ModuleService) AttachQuizToTest(actor *model.AuthContext, testModuleID, quizModuleID uint) (*model.TestQuizEntry, error) {
	if !actor.Can("module:update") {
		return nil, util.ErrPermissionDenied
	}
	testModule, err := s.ModuleRepo.FindByID(testModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if testModule.ModuleType != model.ModuleTest {
		return nil, util.NewValidationError("testModuleId", "not a test module")
	}
	quiz, err := s.ModuleRepo.FindByID(quizModuleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	if quiz.ModuleType != model.ModuleQuiz {
		return nil, util.NewValidationError("quizModuleId", "test module may only reference quiz modules")
	}
	if quiz.Status != model.StatusPublished {
		return nil, util.ErrQuizNotPublished
	}

	entries, err := s.ModuleRepo.ListTestEntries(testModuleID)
	if err != nil {
		return nil, err
	}
	maxOrder := 0
	for _, e := range entries {
		if e.QuizModuleID == quizModuleID {
			return nil, util.ErrDuplicateQuizInTest
		}
		if e.Order > maxOrder {
			maxOrder = e.Order
		}
	}

	entry := &model.TestQuizEntry{
		TestModuleID: testModuleID,
		QuizModuleID: quizModuleID,
		Order:        maxOrder + 1,
	}
	if err := s.DB.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// AttachModule 把游离模块挂到小节（追加到末尾），sectionID 为空则摘下
func (s *ModuleService) AttachModule(actor *model.AuthContext, moduleID uint, sectionID *uint) (*model.CourseModule, error) {
	if !actor.Can("module:update") {
		return nil, util.ErrPermissionDenied
	}
	module, err := s.ModuleRepo.FindByID(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}

	if sectionID != nil {
		if module.ModuleType == model.ModuleLesson {
			contents, err := s.ModuleRepo.ListContents(module.ID)
			if err != nil {
				return nil, err
			}
			contentIDs := make([]uint, 0, len(contents))
			for _, c := range contents {
				contentIDs = append(contentIDs, c.LessonContentID)
			}
			if len(contentIDs) > 0 {
				if err := s.checkDuplicateContent(*sectionID, module.ID, contentIDs); err != nil {
					return nil, err
				}
			}
		} else if _, err := s.SectionRepo.FindByID(*sectionID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, util.ErrNotFound
			}
			return nil, err
		}
		order, err := s.resolveOrder(s.DB, sectionID)
		if err != nil {
			return nil, err
		}
		module.Order = order
	}
	module.SectionID = sectionID
	if err := s.ModuleRepo.Update(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *ModuleService) DeleteModule(actor *model.AuthContext, moduleID uint) error {
	if !actor.Can("module:delete") {
		return util.ErrPermissionDenied
	}
	if _, err := s.ModuleRepo.FindByID(moduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotFound
		}
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_id = ?", moduleID).Delete(&model.ModuleContent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("module_id = ?", moduleID).Delete(&model.ModuleQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("test_module_id = ?", moduleID).Delete(&model.TestQuizEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.CourseModule{}, moduleID).Error
	})
}

func (s *ModuleService) GetModule(actor *model.AuthContext, moduleID uint) (*model.CourseModule, error) {
	if !actor.Can("module:read:all") && !actor.Can("course:read") {
		return nil, util.ErrPermissionDenied
	}
	module, err := s.ModuleRepo.FindByIDFull(moduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrNotFound
		}
		return nil, err
	}
	return module, nil
}

// ListStandaloneModules 游离模块列表，供挂载界面挑选
func (s *ModuleService) ListStandaloneModules(actor *model.AuthContext, page, limit int) ([]model.CourseModule, int64, error) {
	if !actor.Can("module:read:all") {
		return nil, 0, util.ErrPermissionDenied
	}
	return s.ModuleRepo.ListStandalone(page, limit)
}

func sameSection(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
