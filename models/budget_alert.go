package models

import (
	"time"
)

const (
	// AlertLevelWarning 预算使用率达到 70%
	AlertLevelWarning = "warning"
	// AlertLevelCritical 预算使用率达到 90%
	AlertLevelCritical = "critical"
	// AlertLevelExceeded 预算已超支（≥100%）
	AlertLevelExceeded = "exceeded"
)

// BudgetAlert 预算告警发送记录
// (user_id, month, level) 复合唯一索引保证同一级别每月最多发送一次，
// 并发写入依赖该约束去重，而非应用层先查后写
type BudgetAlert struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	UserID          uint      `json:"user_id" gorm:"uniqueIndex:idx_alert_user_month_level;not null"`
	Month           string    `json:"month" gorm:"uniqueIndex:idx_alert_user_month_level;size:7;not null"` // YYYY-MM
	Level           string    `json:"level" gorm:"uniqueIndex:idx_alert_user_month_level;size:20;not null"`
	UsagePercentage float64   `json:"usage_percentage" gorm:"type:decimal(6,2)"` // 触发时的使用率
	CreatedAt       time.Time `json:"created_at"`
	User            User      `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (BudgetAlert) TableName() string {
	return "budget_alerts"
}

// AlertLevelRank 告警级别的严重程度排序，级别越高数值越大
func AlertLevelRank(level string) int {
	switch level {
	case AlertLevelWarning:
		return 1
	case AlertLevelCritical:
		return 2
	case AlertLevelExceeded:
		return 3
	default:
		return 0
	}
}

// AlertLevelFor 根据预算使用率计算达到的最高告警级别，未达到任何阈值返回空字符串
func AlertLevelFor(usagePercentage float64) string {
	switch {
	case usagePercentage >= 100:
		return AlertLevelExceeded
	case usagePercentage >= 90:
		return AlertLevelCritical
	case usagePercentage >= 70:
		return AlertLevelWarning
	default:
		return ""
	}
}
