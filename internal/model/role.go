package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// StringList 以JSON数组形式存储的字符串列表
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New("unsupported type for StringList")
}

// swagger:model Role
type Role struct {
	BaseModel
	Name        string `gorm:"size:100;unique;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	// 角色授予的权限组名（非具体权限串），保存时校验组名存在
	Groups    StringList `gorm:"type:json" json:"groups"`
	IsBuiltin bool       `gorm:"default:false" json:"isBuiltin"`
}

func (Role) TableName() string {
	return "roles"
}

// AuthContext 每次请求解析出的授权上下文，显式传入各服务方法
type AuthContext struct {
	UserID      uint
	RoleName    string
	Permissions map[string]struct{}
}

// Can 精确匹配权限串，无通配展开
func (a *AuthContext) Can(permission string) bool {
	if a == nil {
		return false
	}
	_, ok := a.Permissions[permission]
	return ok
}
