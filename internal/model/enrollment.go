package model

import "time"

// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	// (user, course) 唯一，应用层预检 + 唯一索引双重保证
	UserID             uint      `gorm:"not null;uniqueIndex:uniq_user_course,priority:1" json:"userId"`
	CourseID           uint      `gorm:"not null;uniqueIndex:uniq_user_course,priority:2" json:"courseId"`
	EnrollmentDate     time.Time `json:"enrollmentDate"`
	LastAccessedAt     time.Time `json:"lastAccessedAt"`
	ProgressPercentage float64   `gorm:"default:0" json:"progressPercentage"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
