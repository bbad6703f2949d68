package model

import (
	"time"

	"gorm.io/gorm"
)

// swagger:model User
type User struct {
	BaseModel
	Name     string `gorm:"size:100;not null" json:"name"`
	Email    string `gorm:"size:100;unique;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	// 每个用户恰好关联一个角色，角色本身可被多个用户共享
	RoleID   uint      `gorm:"index;not null" json:"roleId"`
	Role     *Role     `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	Avatar   string    `gorm:"size:255" json:"avatar"`
	Disabled bool      `gorm:"default:false" json:"disabled"`
	LastSeen time.Time `json:"lastSeen"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate 首次落库时初始化 LastSeen
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.LastSeen.IsZero() {
		u.LastSeen = time.Now()
	}
	return nil
}
