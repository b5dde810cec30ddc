package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	// CategoryTypeExpense 仅支出
	CategoryTypeExpense = "expense"
	// CategoryTypeIncome 仅收入
	CategoryTypeIncome = "income"
	// CategoryTypeBoth 支出和收入通用
	CategoryTypeBoth = "both"
)

// Category 收支类别（归数据所有者所有：子账号使用家长的类别）
type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"size:50;not null"`
	Color     string         `json:"color" gorm:"size:20;default:#64748b"` // 颜色代码，如 #ef4444
	Icon      string         `json:"icon" gorm:"size:50"`
	Type      string         `json:"type" gorm:"size:20;default:expense;index"` // expense/income/both
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	User      User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}

// DefaultCategory 新用户的默认类别定义
type DefaultCategory struct {
	Name  string
	Color string
	Type  string
}

// GetDefaultCategories 获取新用户的默认类别（颜色与前端 CSS 保持一致）
func GetDefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{"餐饮", "#ef4444", CategoryTypeExpense},
		{"交通", "#3b82f6", CategoryTypeExpense},
		{"购物", "#a855f7", CategoryTypeExpense},
		{"娱乐", "#ec4899", CategoryTypeExpense},
		{"医疗", "#10b981", CategoryTypeExpense},
		{"教育", "#f59e0b", CategoryTypeExpense},
		{"住房", "#14b8a6", CategoryTypeExpense},
		{"工资", "#10b981", CategoryTypeIncome},
		{"理财", "#3b82f6", CategoryTypeBoth},
		{"其他", "#64748b", CategoryTypeBoth},
	}
}
