package api

import (
	"familybudget/database"
	"familybudget/models"
	"familybudget/service"

	"github.com/gin-gonic/gin"
)

// BudgetHandler 预算处理器
// 预算统一挂在数据所有者名下：子账号查看和设置的都是家庭预算
type BudgetHandler struct {
	family *service.FamilyService
	budget *service.BudgetService
}

// NewBudgetHandler 创建预算处理器
func NewBudgetHandler() *BudgetHandler {
	return &BudgetHandler{
		family: service.NewFamilyService(),
		budget: service.NewBudgetService(),
	}
}

// SetBudgetRequest 设置预算请求
type SetBudgetRequest struct {
	Month        string  `json:"month" binding:"required" example:"2024-01"`
	MonthlyLimit float64 `json:"monthly_limit" binding:"required,gt=0" example:"1000.00"`
	Currency     string  `json:"currency" example:"NPR"`
}

// BudgetStatusResponse 预算状态响应
type BudgetStatusResponse struct {
	Month  string                `json:"month" example:"2024-01"`
	Budget *models.Budget        `json:"budget,omitempty"` // 未设置预算时为空
	Status *service.BudgetStatus `json:"status,omitempty"`
}

// Set 设置月度预算
// @Summary 设置月度预算
// @Description 创建或更新某月的家庭预算，同一月份重复设置会覆盖
// @Tags 预算
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetBudgetRequest true "预算信息"
// @Success 200 {object} Response{data=models.Budget} "设置成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [post]
func (h *BudgetHandler) Set(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if _, _, err := service.MonthRange(req.Month); err != nil {
		BadRequest(c, "月份格式错误，应为: 2006-01")
		return
	}

	owner := h.family.DataOwner(user)
	if req.Currency == "" {
		req.Currency = owner.Currency
	}

	budget, err := h.budget.UpsertBudget(owner.ID, req.Month, req.MonthlyLimit, req.Currency)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "设置预算失败"))
		return
	}

	SuccessWithMessage(c, "设置成功", budget)
}

// List 获取预算列表
// @Summary 获取预算列表
// @Description 获取当前家庭设置过的全部月度预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.Budget} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	owner := h.family.DataOwner(user)
	var budgets []models.Budget
	if err := database.DB.Where("user_id = ?", owner.ID).
		Order("month DESC").Find(&budgets).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, budgets)
}

// Status 获取某月预算状态
// @Summary 获取预算状态
// @Description 获取某月的预算使用情况，不传 month 则为当前月。支出按家庭共享范围统计。
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-01)，默认当前月"
// @Success 200 {object} Response{data=BudgetStatusResponse} "获取成功"
// @Failure 400 {object} Response "月份格式错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budgets/status [get]
func (h *BudgetHandler) Status(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	month := c.Query("month")
	if month == "" {
		month = service.CurrentMonth()
	}
	if _, _, err := service.MonthRange(month); err != nil {
		BadRequest(c, "月份格式错误，应为: 2006-01")
		return
	}

	owner := h.family.DataOwner(user)
	budget, err := h.budget.FindBudget(owner.ID, month)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if budget == nil {
		// 未设置预算不是错误
		Success(c, BudgetStatusResponse{Month: month})
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)
	spent, err := h.budget.SpentForMonth(userIDs, month)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	status := service.AggregateSpent(budget.MonthlyLimit, spent)
	Success(c, BudgetStatusResponse{
		Month:  month,
		Budget: budget,
		Status: &status,
	})
}

// Delete 删除某月预算
// @Summary 删除预算
// @Description 删除当前家庭某月的预算
// @Tags 预算
// @Produce json
// @Security BearerAuth
// @Param month path string true "月份 (2024-01)"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "预算不存在"
// @Router /api/v1/budgets/{month} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	month := c.Param("month")
	if _, _, err := service.MonthRange(month); err != nil {
		BadRequest(c, "月份格式错误，应为: 2006-01")
		return
	}

	owner := h.family.DataOwner(user)
	res := database.DB.Where("user_id = ? AND month = ?", owner.ID, month).Delete(&models.Budget{})
	if res.Error != nil {
		InternalError(c, SafeErrorMessage(res.Error, "删除预算失败"))
		return
	}
	if res.RowsAffected == 0 {
		NotFound(c, "预算不存在")
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
