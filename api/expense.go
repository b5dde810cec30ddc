package api

import (
	"strconv"
	"time"

	"familybudget/config"
	"familybudget/database"
	"familybudget/middleware"
	"familybudget/models"
	"familybudget/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler 支出记录处理器
type ExpenseHandler struct {
	family *service.FamilyService
	alert  *service.AlertService
}

// NewExpenseHandler 创建支出记录处理器
func NewExpenseHandler(cfg *config.Config) *ExpenseHandler {
	return &ExpenseHandler{
		family: service.NewFamilyService(),
		alert:  service.NewAlertService(cfg),
	}
}

// CreateExpenseRequest 创建支出请求
type CreateExpenseRequest struct {
	Amount     float64 `json:"amount" binding:"required,gt=0" example:"99.99"`
	CategoryID uint    `json:"category_id" binding:"required" example:"1"`
	Date       string  `json:"date" binding:"required" example:"2024-01-15"`
	Note       string  `json:"note" binding:"max=255" example:"午餐"`
	Currency   string  `json:"currency" example:"NPR"`
}

// UpdateExpenseRequest 更新支出请求
type UpdateExpenseRequest struct {
	Amount     float64 `json:"amount" binding:"omitempty,gt=0" example:"99.99"`
	CategoryID uint    `json:"category_id" example:"1"`
	Date       string  `json:"date" example:"2024-01-15"`
	Note       string  `json:"note" binding:"max=255" example:"午餐"`
}

// ExpenseListRequest 支出列表请求
type ExpenseListRequest struct {
	Page       int    `form:"page" example:"1"`
	PageSize   int    `form:"page_size" example:"10"`
	CategoryID uint   `form:"category_id" example:"1"`
	Month      string `form:"month" example:"2024-01"`
	StartDate  string `form:"start_date" example:"2024-01-01"`
	EndDate    string `form:"end_date" example:"2024-12-31"`
	UserID     uint   `form:"user_id" example:"2"` // 按家庭成员筛选，仅限共享集合内的成员
}

// currentUser 加载当前登录用户
func currentUser(c *gin.Context) (*models.User, bool) {
	userID := middleware.GetCurrentUserID(c)
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return nil, false
	}
	return &user, true
}

// validCategory 校验类别属于当前家庭且类型允许支出
func (h *ExpenseHandler) validCategory(owner *models.User, categoryID uint) (*models.Category, string) {
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", categoryID, owner.ID).First(&cat).Error; err != nil {
		return nil, "无效的类别"
	}
	if cat.Type == models.CategoryTypeIncome {
		return nil, "该类别仅用于收入"
	}
	return &cat, ""
}

// Create 创建支出记录
// @Summary 创建支出记录
// @Description 创建一条新的支出记录，创建后触发预算检查
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.Expense} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	owner := h.family.DataOwner(user)
	if _, msg := h.validCategory(owner, req.CategoryID); msg != "" {
		BadRequest(c, msg)
		return
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	if req.Currency == "" {
		req.Currency = user.Currency
	}

	expense := models.Expense{
		UserID:     user.ID,
		CategoryID: req.CategoryID,
		Amount:     req.Amount,
		Date:       date,
		Note:       req.Note,
		Currency:   req.Currency,
	}
	if err := database.DB.Create(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建支出记录失败"))
		return
	}

	// 预算检查失败不影响记账结果
	h.alert.CheckBudgetAlert(user, date)

	SuccessWithMessage(c, "创建成功", expense)
}

// List 获取支出记录列表
// @Summary 获取支出记录列表
// @Description 获取家庭共享范围内的支出记录，支持分页和筛选
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param category_id query int false "类别筛选"
// @Param month query string false "月份筛选 (2024-01)"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param user_id query int false "家庭成员筛选"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Expense}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ExpenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	// 可见范围为家庭共享集合
	userIDs := h.family.SharedDashboardUserIDs(user)
	if req.UserID != 0 {
		if !containsID(userIDs, req.UserID) {
			Forbidden(c, "无权查看该成员的数据")
			return
		}
		userIDs = []uint{req.UserID}
	}

	query := database.DB.Model(&models.Expense{}).Where("user_id IN ?", userIDs)

	if req.CategoryID != 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.Month != "" {
		start, end, err := service.MonthRange(req.Month)
		if err != nil {
			BadRequest(c, "月份格式错误，应为: 2006-01")
			return
		}
		query = query.Where("date >= ? AND date <= ?", start, end)
	}
	if req.StartDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local); err == nil {
			query = query.Where("date >= ?", t)
		}
	}
	if req.EndDate != "" {
		if t, err := time.ParseInLocation("2006-01-02", req.EndDate, time.Local); err == nil {
			// 包含结束日期当天
			query = query.Where("date <= ?", t.Add(24*time.Hour-time.Second))
		}
	}

	var total int64
	query.Count(&total)

	var expenses []models.Expense
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Category").Order("date DESC, id DESC").
		Offset(offset).Limit(req.PageSize).Find(&expenses).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     expenses,
	})
}

// Get 获取单条支出记录
// @Summary 获取单条支出记录
// @Description 根据ID获取支出记录详情，家庭共享范围内可见
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出记录ID"
// @Success 200 {object} Response{data=models.Expense} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)
	var expense models.Expense
	if err := database.DB.Preload("Category").
		Where("id = ? AND user_id IN ?", id, userIDs).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	Success(c, expense)
}

// Update 更新支出记录
// @Summary 更新支出记录
// @Description 更新本人的支出记录，更新后触发预算检查
// @Tags 支出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出记录ID"
// @Param request body UpdateExpenseRequest true "支出信息"
// @Success 200 {object} Response{data=models.Expense} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	// 只能修改自己创建的记录
	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Amount > 0 {
		updates["amount"] = req.Amount
	}
	if req.CategoryID != 0 {
		owner := h.family.DataOwner(user)
		if _, msg := h.validCategory(owner, req.CategoryID); msg != "" {
			BadRequest(c, msg)
			return
		}
		updates["category_id"] = req.CategoryID
	}
	checkDate := expense.Date
	if req.Date != "" {
		date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		updates["date"] = date
		checkDate = date
	}
	if req.Note != "" {
		updates["note"] = req.Note
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&expense).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新支出记录失败"))
			return
		}
		h.alert.CheckBudgetAlert(user, checkDate)
	}

	SuccessWithMessage(c, "更新成功", expense)
}

// Delete 删除支出记录
// @Summary 删除支出记录
// @Description 删除本人的支出记录
// @Tags 支出
// @Produce json
// @Security BearerAuth
// @Param id path int true "支出记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var expense models.Expense
	if err := database.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&expense).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	// 删除使使用率回落，不触发预算检查
	if err := database.DB.Delete(&expense).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除支出记录失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// containsID 集合包含判断
func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
