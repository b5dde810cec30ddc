package service

import (
	"errors"
	"math"

	"familybudget/database"
	"familybudget/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// BudgetStatusSafe 使用率低于 70%
	BudgetStatusSafe = "safe"
	// BudgetStatusWarning 使用率达到 70%
	BudgetStatusWarning = "warning"
	// BudgetStatusCritical 使用率达到 90%
	BudgetStatusCritical = "critical"
	// BudgetStatusExceeded 已超支（≥100%）
	BudgetStatusExceeded = "exceeded"
)

// BudgetStatus 预算状态汇总
type BudgetStatus struct {
	MonthlyLimit    float64 `json:"monthly_limit" example:"1000.00"`
	Spent           float64 `json:"spent" example:"750.00"`
	Remaining       float64 `json:"remaining" example:"250.00"`
	UsagePercentage float64 `json:"usage_percentage" example:"75.00"` // 使用率百分比，保留两位小数
	Status          string  `json:"status" example:"warning"`         // safe/warning/critical/exceeded
}

// Aggregate 按预算上限和一组支出金额计算预算状态（纯函数）
// 调用方负责把金额集合预先过滤到正确的用户集合和月份
func Aggregate(limit float64, amounts []float64) BudgetStatus {
	var spent float64
	for _, a := range amounts {
		spent += a
	}
	return AggregateSpent(limit, spent)
}

// AggregateSpent 按预算上限和已花费总额计算预算状态（纯函数）
func AggregateSpent(limit, spent float64) BudgetStatus {
	pct := UsagePercentage(spent, limit)
	return BudgetStatus{
		MonthlyLimit:    limit,
		Spent:           spent,
		Remaining:       math.Max(0, round2(limit-spent)), // 超支显示 0，不显示负数
		UsagePercentage: pct,
		Status:          StatusFor(pct),
	}
}

// UsagePercentage 预算使用率百分比，保留两位小数；上限非正时恒为 0
func UsagePercentage(spent, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return round2(spent / limit * 100)
}

// StatusFor 按使用率求预算状态，阈值从高到低依次判断
func StatusFor(usagePercentage float64) string {
	switch {
	case usagePercentage >= 100:
		return BudgetStatusExceeded
	case usagePercentage >= 90:
		return BudgetStatusCritical
	case usagePercentage >= 70:
		return BudgetStatusWarning
	default:
		return BudgetStatusSafe
	}
}

// round2 四舍五入保留两位小数
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// BudgetService 预算的查询与维护
type BudgetService struct{}

// NewBudgetService 创建预算服务
func NewBudgetService() *BudgetService {
	return &BudgetService{}
}

// FindBudget 查询某用户某月的预算，不存在返回 nil（没有预算不是错误）
func (s *BudgetService) FindBudget(ownerID uint, month string) (*models.Budget, error) {
	var budget models.Budget
	err := database.DB.Where("user_id = ? AND month = ?", ownerID, month).First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &budget, nil
}

// UpsertBudget 创建或更新某用户某月的预算
// 依赖 (user_id, month) 唯一索引做原子 upsert，并发请求下不会产生重复行
func (s *BudgetService) UpsertBudget(ownerID uint, month string, monthlyLimit float64, currency string) (*models.Budget, error) {
	budget := models.Budget{
		UserID:       ownerID,
		Month:        month,
		MonthlyLimit: monthlyLimit,
		Currency:     currency,
	}
	err := database.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"monthly_limit", "currency", "updated_at"}),
	}).Create(&budget).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// SpentForMonth 统计一组用户在某月的支出总额
func (s *BudgetService) SpentForMonth(userIDs []uint, month string) (float64, error) {
	start, end, err := MonthRange(month)
	if err != nil {
		return 0, err
	}
	var spent float64
	err = database.DB.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id IN ? AND date >= ? AND date <= ?", userIDs, start, end).
		Scan(&spent).Error
	return spent, err
}
