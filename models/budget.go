package models

import (
	"time"
)

// Budget 月度预算模型
// 每个用户每个月份最多一条（复合唯一索引），通过 upsert 维护，不做应用层先查后插
type Budget struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"uniqueIndex:idx_budget_user_month;not null"`
	Month        string    `json:"month" gorm:"uniqueIndex:idx_budget_user_month;size:7;not null"` // YYYY-MM
	MonthlyLimit float64   `json:"monthly_limit" gorm:"type:decimal(10,2);not null"`
	Currency     string    `json:"currency" gorm:"size:10;default:NPR"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	User         User      `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}
