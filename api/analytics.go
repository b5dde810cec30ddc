package api

import (
	"strconv"
	"time"

	"familybudget/database"
	"familybudget/models"
	"familybudget/service"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 统计分析处理器
// 所有统计都基于家庭共享范围：家长和子账号看到同一份数据
type AnalyticsHandler struct {
	family *service.FamilyService
	budget *service.BudgetService
}

// NewAnalyticsHandler 创建统计分析处理器
func NewAnalyticsHandler() *AnalyticsHandler {
	return &AnalyticsHandler{
		family: service.NewFamilyService(),
		budget: service.NewBudgetService(),
	}
}

// DashboardResponse 仪表盘响应
type DashboardResponse struct {
	Month        string                `json:"month" example:"2024-01"`
	TotalExpense float64               `json:"total_expense" example:"750.00"`
	TotalIncome  float64               `json:"total_income" example:"5000.00"`
	Balance      float64               `json:"balance" example:"4250.00"`
	ExpenseCount int64                 `json:"expense_count" example:"23"`
	Budget       *service.BudgetStatus `json:"budget,omitempty"` // 未设置预算时为空
	RecentAlerts []models.BudgetAlert  `json:"recent_alerts"`
}

// TrendPoint 趋势图数据点
type TrendPoint struct {
	Month   string  `json:"month" example:"2024-01"`
	Expense float64 `json:"expense" example:"750.00"`
	Income  float64 `json:"income" example:"5000.00"`
}

// CategoryBreakdownItem 类别占比数据项
type CategoryBreakdownItem struct {
	CategoryID   uint    `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Color        string  `json:"color"`
	Amount       float64 `json:"amount"`
	Percentage   float64 `json:"percentage"` // 占总支出的百分比，保留两位小数
}

// BudgetVsActualItem 预算对比数据项
type BudgetVsActualItem struct {
	Month        string  `json:"month" example:"2024-01"`
	MonthlyLimit float64 `json:"monthly_limit" example:"1000.00"`
	Spent        float64 `json:"spent" example:"750.00"`
	Status       string  `json:"status" example:"warning"`
}

// SavingsRateResponse 储蓄率响应
type SavingsRateResponse struct {
	Month       string  `json:"month" example:"2024-01"`
	TotalIncome float64 `json:"total_income" example:"5000.00"`
	TotalSaved  float64 `json:"total_saved" example:"4250.00"`
	SavingsRate float64 `json:"savings_rate" example:"85.00"` // 百分比，收入为 0 时恒为 0
}

// monthQuery 解析 month 查询参数，缺省为当前月
func monthQuery(c *gin.Context) (string, time.Time, time.Time, bool) {
	month := c.Query("month")
	if month == "" {
		month = service.CurrentMonth()
	}
	start, end, err := service.MonthRange(month)
	if err != nil {
		BadRequest(c, "月份格式错误，应为: 2006-01")
		return "", time.Time{}, time.Time{}, false
	}
	return month, start, end, true
}

// sumAmount 统计一组用户在时间范围内某模型的金额总和
func sumAmount(model interface{}, userIDs []uint, start, end time.Time) float64 {
	var total float64
	database.DB.Model(model).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id IN ? AND date >= ? AND date <= ?", userIDs, start, end).
		Scan(&total)
	return total
}

// Dashboard 获取仪表盘数据
// @Summary 获取仪表盘数据
// @Description 获取某月的家庭收支概览、预算状态和最近告警，不传 month 则为当前月
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-01)，默认当前月"
// @Success 200 {object} Response{data=DashboardResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/analytics/dashboard [get]
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	month, start, end, ok := monthQuery(c)
	if !ok {
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)

	totalExpense := sumAmount(&models.Expense{}, userIDs, start, end)
	totalIncome := sumAmount(&models.Income{}, userIDs, start, end)

	var expenseCount int64
	database.DB.Model(&models.Expense{}).
		Where("user_id IN ? AND date >= ? AND date <= ?", userIDs, start, end).
		Count(&expenseCount)

	resp := DashboardResponse{
		Month:        month,
		TotalExpense: totalExpense,
		TotalIncome:  totalIncome,
		Balance:      totalIncome - totalExpense,
		ExpenseCount: expenseCount,
		RecentAlerts: []models.BudgetAlert{},
	}

	// 预算状态挂在数据所有者名下
	owner := h.family.DataOwner(user)
	if budget, err := h.budget.FindBudget(owner.ID, month); err == nil && budget != nil {
		status := service.AggregateSpent(budget.MonthlyLimit, totalExpense)
		resp.Budget = &status
	}

	database.DB.Where("user_id = ? AND month = ?", owner.ID, month).
		Order("created_at DESC").Limit(5).Find(&resp.RecentAlerts)

	Success(c, resp)
}

// MonthlyTrend 获取月度收支趋势
// @Summary 获取月度收支趋势
// @Description 获取最近 N 个月的家庭收支趋势，默认 6 个月
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param months query int false "月数" default(6)
// @Success 200 {object} Response{data=[]TrendPoint} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/analytics/trend [get]
func (h *AnalyticsHandler) MonthlyTrend(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	months := 6
	if v := c.Query("months"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 24 {
			months = n
		}
	}

	userIDs := h.family.SharedDashboardUserIDs(user)

	// 从最早的月份开始逐月统计
	points := make([]TrendPoint, 0, months)
	now := time.Now()
	for i := months - 1; i >= 0; i-- {
		month := service.MonthOf(now.AddDate(0, -i, -now.Day()+1))
		start, end, err := service.MonthRange(month)
		if err != nil {
			continue
		}
		points = append(points, TrendPoint{
			Month:   month,
			Expense: sumAmount(&models.Expense{}, userIDs, start, end),
			Income:  sumAmount(&models.Income{}, userIDs, start, end),
		})
	}

	Success(c, points)
}

// CategoryBreakdown 获取类别支出占比
// @Summary 获取类别支出占比
// @Description 按类别统计某月的家庭支出分布，不传 month 则为当前月
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-01)，默认当前月"
// @Success 200 {object} Response{data=[]CategoryBreakdownItem} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/analytics/categories [get]
func (h *AnalyticsHandler) CategoryBreakdown(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	_, start, end, ok := monthQuery(c)
	if !ok {
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)

	var rows []struct {
		CategoryID uint
		Name       string
		Color      string
		Amount     float64
	}
	if err := database.DB.Model(&models.Expense{}).
		Select("expenses.category_id, categories.name, categories.color, COALESCE(SUM(expenses.amount), 0) AS amount").
		Joins("JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id IN ? AND expenses.date >= ? AND expenses.date <= ?", userIDs, start, end).
		Group("expenses.category_id, categories.name, categories.color").
		Order("amount DESC").
		Scan(&rows).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	var total float64
	for _, r := range rows {
		total += r.Amount
	}

	items := make([]CategoryBreakdownItem, 0, len(rows))
	for _, r := range rows {
		pct := 0.0
		if total > 0 {
			pct = service.UsagePercentage(r.Amount, total)
		}
		items = append(items, CategoryBreakdownItem{
			CategoryID:   r.CategoryID,
			CategoryName: r.Name,
			Color:        r.Color,
			Amount:       r.Amount,
			Percentage:   pct,
		})
	}

	Success(c, items)
}

// BudgetVsActual 获取预算与实际支出对比
// @Summary 获取预算与实际支出对比
// @Description 对比家庭设置过预算的各个月份的预算与实际支出
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]BudgetVsActualItem} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/analytics/budget-vs-actual [get]
func (h *AnalyticsHandler) BudgetVsActual(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	owner := h.family.DataOwner(user)
	userIDs := h.family.SharedDashboardUserIDs(user)

	var budgets []models.Budget
	if err := database.DB.Where("user_id = ?", owner.ID).
		Order("month ASC").Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	items := make([]BudgetVsActualItem, 0, len(budgets))
	for _, b := range budgets {
		spent, err := h.budget.SpentForMonth(userIDs, b.Month)
		if err != nil {
			continue
		}
		status := service.AggregateSpent(b.MonthlyLimit, spent)
		items = append(items, BudgetVsActualItem{
			Month:        b.Month,
			MonthlyLimit: b.MonthlyLimit,
			Spent:        spent,
			Status:       status.Status,
		})
	}

	Success(c, items)
}

// IncomeVsExpenseResponse 收支对比响应
type IncomeVsExpenseResponse struct {
	TotalExpense float64 `json:"total_expense" example:"750.00"`
	TotalIncome  float64 `json:"total_income" example:"5000.00"`
	Balance      float64 `json:"balance" example:"4250.00"`
}

// IncomeVsExpense 获取收支对比
// @Summary 获取收支对比
// @Description 按日期范围统计家庭共享范围内的支出总和与收入总和，不传日期则统计全部时间
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Success 200 {object} Response{data=IncomeVsExpenseResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/analytics/income-vs-expense [get]
func (h *AnalyticsHandler) IncomeVsExpense(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)

	expenseQ := database.DB.Model(&models.Expense{}).Where("user_id IN ?", userIDs)
	incomeQ := database.DB.Model(&models.Income{}).Where("user_id IN ?", userIDs)

	if v := c.Query("start_date"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			expenseQ = expenseQ.Where("date >= ?", t)
			incomeQ = incomeQ.Where("date >= ?", t)
		}
	}
	if v := c.Query("end_date"); v != "" {
		if t, err := time.ParseInLocation("2006-01-02", v, time.Local); err == nil {
			t = t.Add(24*time.Hour - time.Second)
			expenseQ = expenseQ.Where("date <= ?", t)
			incomeQ = incomeQ.Where("date <= ?", t)
		}
	}

	var totalExpense, totalIncome float64
	expenseQ.Select("COALESCE(SUM(amount), 0)").Scan(&totalExpense)
	incomeQ.Select("COALESCE(SUM(amount), 0)").Scan(&totalIncome)

	Success(c, IncomeVsExpenseResponse{
		TotalExpense: totalExpense,
		TotalIncome:  totalIncome,
		Balance:      totalIncome - totalExpense,
	})
}

// SavingsRate 获取储蓄率
// @Summary 获取储蓄率
// @Description 计算某月的家庭储蓄率（(收入-支出)/收入），收入为 0 时储蓄率为 0。不传 month 则为当前月。
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-01)，默认当前月"
// @Success 200 {object} Response{data=SavingsRateResponse} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/analytics/savings-rate [get]
func (h *AnalyticsHandler) SavingsRate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	month, start, end, ok := monthQuery(c)
	if !ok {
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)
	totalIncome := sumAmount(&models.Income{}, userIDs, start, end)
	totalExpense := sumAmount(&models.Expense{}, userIDs, start, end)

	saved := totalIncome - totalExpense
	rate := 0.0
	if totalIncome > 0 {
		rate = service.UsagePercentage(saved, totalIncome)
	}

	Success(c, SavingsRateResponse{
		Month:       month,
		TotalIncome: totalIncome,
		TotalSaved:  saved,
		SavingsRate: rate,
	})
}
