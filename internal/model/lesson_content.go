package model

const (
	LessonContentText  = "text"
	LessonContentVideo = "video"
	LessonContentFile  = "file"
)

// LessonContent 共享课件，独立于模块存在；同一课程内不允许被两个
// lesson 模块引用，跨课程复用允许
// swagger:model LessonContent
type LessonContent struct {
	BaseModel
	Title       string  `gorm:"size:255;not null" json:"title"`
	ContentType string  `gorm:"size:20;default:'text'" json:"contentType"`
	Body        string  `gorm:"type:longtext" json:"body"`
	FileURL     string  `gorm:"size:255" json:"fileUrl"`
	CoverURL    string  `gorm:"size:255" json:"coverUrl"`
	Duration    float64 `gorm:"default:0" json:"duration"` // 视频时长（秒），非视频为 0
	Status      string  `gorm:"size:20;default:'draft'" json:"status"`
	CreatorID   uint    `gorm:"index" json:"creatorId"`
}

func (LessonContent) TableName() string {
	return "lesson_contents"
}
