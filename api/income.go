package api

import (
	"strconv"
	"time"

	"familybudget/database"
	"familybudget/models"
	"familybudget/service"

	"github.com/gin-gonic/gin"
)

// IncomeHandler 收入记录处理器
type IncomeHandler struct {
	family *service.FamilyService
}

// NewIncomeHandler 创建收入记录处理器
func NewIncomeHandler() *IncomeHandler {
	return &IncomeHandler{family: service.NewFamilyService()}
}

// CreateIncomeRequest 创建收入请求
type CreateIncomeRequest struct {
	Amount     float64 `json:"amount" binding:"required,gt=0" example:"5000.00"`
	CategoryID uint    `json:"category_id" example:"8"` // 可选
	Source     string  `json:"source" binding:"required,max=100" example:"工资"`
	Date       string  `json:"date" binding:"required" example:"2024-01-15"`
	Note       string  `json:"note" binding:"max=255" example:"一月工资"`
	Currency   string  `json:"currency" example:"NPR"`
}

// UpdateIncomeRequest 更新收入请求
type UpdateIncomeRequest struct {
	Amount     float64 `json:"amount" binding:"omitempty,gt=0" example:"5000.00"`
	CategoryID uint    `json:"category_id" example:"8"`
	Source     string  `json:"source" binding:"max=100" example:"工资"`
	Date       string  `json:"date" example:"2024-01-15"`
	Note       string  `json:"note" binding:"max=255" example:"一月工资"`
}

// IncomeListRequest 收入列表请求
type IncomeListRequest struct {
	Page      int    `form:"page" example:"1"`
	PageSize  int    `form:"page_size" example:"10"`
	Month     string `form:"month" example:"2024-01"`
	StartDate string `form:"start_date" example:"2024-01-01"`
	EndDate   string `form:"end_date" example:"2024-12-31"`
	UserID    uint   `form:"user_id" example:"2"`
}

// validIncomeCategory 校验类别属于当前家庭且类型允许收入
func (h *IncomeHandler) validIncomeCategory(owner *models.User, categoryID uint) string {
	var cat models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", categoryID, owner.ID).First(&cat).Error; err != nil {
		return "无效的类别"
	}
	if cat.Type == models.CategoryTypeExpense {
		return "该类别仅用于支出"
	}
	return ""
}

// Create 创建收入记录
// @Summary 创建收入记录
// @Description 创建一条新的收入记录
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.Income} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [post]
func (h *IncomeHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var categoryID *uint
	if req.CategoryID != 0 {
		owner := h.family.DataOwner(user)
		if msg := h.validIncomeCategory(owner, req.CategoryID); msg != "" {
			BadRequest(c, msg)
			return
		}
		categoryID = &req.CategoryID
	}

	date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	if req.Currency == "" {
		req.Currency = user.Currency
	}

	income := models.Income{
		UserID:     user.ID,
		CategoryID: categoryID,
		Amount:     req.Amount,
		Source:     req.Source,
		Date:       date,
		Note:       req.Note,
		Currency:   req.Currency,
	}
	if err := database.DB.Create(&income).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建收入记录失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", income)
}

// List 获取收入记录列表
// @Summary 获取收入记录列表
// @Description 获取家庭共享范围内的收入记录，支持分页和筛选
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param month query string false "月份筛选 (2024-01)"
// @Param start_date query string false "开始日期 (2024-01-01)"
// @Param end_date query string false "结束日期 (2024-12-31)"
// @Param user_id query int false "家庭成员筛选"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Income}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/incomes [get]
func (h *IncomeHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req IncomeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	userIDs := h.family.SharedDashboardUserIDs(user)
	if req.UserID != 0 {
		if !containsID(userIDs, req.UserID) {
			Forbidden(c, "无权查看该成员的数据")
			return
		}
		userIDs = []uint{req.UserID}
	}

	query := database.DB.Model(&models.Income{}).Where("user_id IN ?", userIDs)

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
			query = query.Where("date <= ?", t.Add(24*time.Hour-time.Second))
		}
	}

	var total int64
	query.Count(&total)

	var incomes []models.Income
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Category").Order("date DESC, id DESC").
		Offset(offset).Limit(req.PageSize).Find(&incomes).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     incomes,
	})
}

// Get 获取单条收入记录
// @Summary 获取单条收入记录
// @Description 根据ID获取收入记录详情，家庭共享范围内可见
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入记录ID"
// @Success 200 {object} Response{data=models.Income} "获取成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [get]
func (h *IncomeHandler) Get(c *gin.Context) {
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
	var income models.Income
	if err := database.DB.Preload("Category").
		Where("id = ? AND user_id IN ?", id, userIDs).First(&income).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	Success(c, income)
}

// Update 更新收入记录
// @Summary 更新收入记录
// @Description 更新本人的收入记录
// @Tags 收入
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入记录ID"
// @Param request body UpdateIncomeRequest true "收入信息"
// @Success 200 {object} Response{data=models.Income} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [put]
func (h *IncomeHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var income models.Income
	if err := database.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&income).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	var req UpdateIncomeRequest
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
		if msg := h.validIncomeCategory(owner, req.CategoryID); msg != "" {
			BadRequest(c, msg)
			return
		}
		updates["category_id"] = req.CategoryID
	}
	if req.Source != "" {
		updates["source"] = req.Source
	}
	if req.Date != "" {
		date, err := time.ParseInLocation("2006-01-02", req.Date, time.Local)
		if err != nil {
			BadRequest(c, "日期格式错误，应为: 2006-01-02")
			return
		}
		updates["date"] = date
	}
	if req.Note != "" {
		updates["note"] = req.Note
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&income).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新收入记录失败"))
			return
		}
	}

	SuccessWithMessage(c, "更新成功", income)
}

// Delete 删除收入记录
// @Summary 删除收入记录
// @Description 删除本人的收入记录
// @Tags 收入
// @Produce json
// @Security BearerAuth
// @Param id path int true "收入记录ID"
// @Success 200 {object} Response "删除成功"
// @Failure 404 {object} Response "记录不存在"
// @Router /api/v1/incomes/{id} [delete]
func (h *IncomeHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var income models.Income
	if err := database.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&income).Error; err != nil {
		NotFound(c, "记录不存在")
		return
	}

	if err := database.DB.Delete(&income).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除收入记录失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
