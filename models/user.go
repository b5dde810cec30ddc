package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// RolePlain 普通用户：无家庭关系
	RolePlain = "plain"
	// RoleParent 家长账号：可管理子账号，持有家庭的类别和预算
	RoleParent = "parent"
	// RoleChild 子账号：parent_id 指向家长，共享家长的仪表盘数据
	RoleChild = "child"
)

// DefaultCurrency 默认货币代码
const DefaultCurrency = "NPR"

// User 用户模型
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Password  string         `json:"-" gorm:"size:255;not null"`
	Email     string         `json:"email" gorm:"size:100"`
	Role      string         `json:"role" gorm:"size:20;default:plain;index"` // 用户角色：plain/parent/child
	ParentID  *uint          `json:"parent_id" gorm:"index"`                  // 家长用户ID，子账号必填
	Currency  string         `json:"currency" gorm:"size:10;default:NPR"`     // 货币代码
	IsActive  bool           `json:"is_active" gorm:"default:true;index"`     // 停用后不可登录
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// IsParent 是否家长账号，仅以 role 字段判定
func (u *User) IsParent() bool {
	return u.Role == RoleParent
}

// IsChild 是否子账号
func (u *User) IsChild() bool {
	return u.Role == RoleChild && u.ParentID != nil
}
