package model

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

type CourseContentType string

const (
	ContentTypeCourseLesson CourseContentType = "course_lesson"
	ContentTypePracticeTest CourseContentType = "practice_test"
)

// swagger:model Course
type Course struct {
	BaseModel
	Title       string            `gorm:"size:255;not null" json:"title"`
	Description string            `gorm:"type:text" json:"description"`
	Difficulty  string            `gorm:"size:20;default:'beginner'" json:"difficulty"`
	Status      string            `gorm:"size:20;default:'draft'" json:"status"`
	ContentType CourseContentType `gorm:"size:30;default:'course_lesson'" json:"contentType"`
	Thumbnail   string            `gorm:"size:255" json:"thumbnail"`
	CategoryID  *uint             `gorm:"index" json:"categoryId,omitempty"`
	Category    *Category         `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	TeacherID   *uint             `gorm:"index" json:"teacherId,omitempty"`
	Sections    []Section         `gorm:"foreignKey:CourseID" json:"sections,omitempty"`
}

func (Course) TableName() string {
	return "courses"
}

// swagger:model Section
type Section struct {
	BaseModel
	CourseID uint `gorm:"index;not null" json:"courseId"`
	// 同一课程内唯一，且保持 1..n 连续
	Order       int            `gorm:"column:sort_order;not null" json:"order"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Modules     []CourseModule `gorm:"foreignKey:SectionID" json:"modules,omitempty"`
}

func (Section) TableName() string {
	return "sections"
}
