package api

import (
	"strconv"

	"familybudget/database"
	"familybudget/models"
	"familybudget/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// FamilyHandler 家庭子账号管理处理器
type FamilyHandler struct {
	family *service.FamilyService
}

// NewFamilyHandler 创建家庭子账号管理处理器
func NewFamilyHandler() *FamilyHandler {
	return &FamilyHandler{family: service.NewFamilyService()}
}

// CreateChildRequest 创建子账号请求
type CreateChildRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"kid01"`
	Password string `json:"password" binding:"required,min=6,max=50" example:"password123"`
	Email    string `json:"email" binding:"omitempty,email" example:"kid@example.com"`
	Currency string `json:"currency" example:"NPR"`
}

// UpdateChildRequest 更新子账号请求
type UpdateChildRequest struct {
	Email    string `json:"email" binding:"omitempty,email" example:"kid@example.com"`
	Currency string `json:"currency" example:"NPR"`
	Password string `json:"password" binding:"omitempty,min=6,max=50" example:"newpassword"` // 家长重置子账号密码
}

// ChildStatistics 子账号统计
type ChildStatistics struct {
	UserID       uint    `json:"user_id"`
	Username     string  `json:"username"`
	IsActive     bool    `json:"is_active"`
	ExpenseCount int64   `json:"expense_count"`
	TotalExpense float64 `json:"total_expense"`
}

// CreateChild 创建子账号
// @Summary 创建子账号
// @Description 为当前用户创建子账号。普通账号首次创建子账号时自动升级为家长账号，子账号不能再创建子账号。
// @Tags 家庭
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateChildRequest true "子账号信息"
// @Success 200 {object} Response{data=models.User} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 403 {object} Response "子账号不能创建子账号"
// @Router /api/v1/family/children [post]
func (h *FamilyHandler) CreateChild(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.IsChild() {
		Forbidden(c, "子账号不能创建子账号")
		return
	}

	var req CreateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var existingUser models.User
	if err := database.DB.Where("username = ?", req.Username).First(&existingUser).Error; err == nil {
		BadRequest(c, "用户名已存在")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		InternalError(c, "密码加密失败")
		return
	}

	if req.Currency == "" {
		req.Currency = user.Currency
	}

	child := models.User{
		Username: req.Username,
		Password: string(hashedPassword),
		Email:    req.Email,
		Role:     models.RoleChild,
		ParentID: &user.ID,
		Currency: req.Currency,
		IsActive: true,
	}
	if err := database.DB.Create(&child).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建子账号失败"))
		return
	}

	// 首次创建子账号后升级为家长
	if !user.IsParent() {
		if err := database.DB.Model(user).Update("role", models.RoleParent).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "升级家长账号失败"))
			return
		}
	}

	SuccessWithMessage(c, "创建成功", child)
}

// ListChildren 获取子账号列表
// @Summary 获取子账号列表
// @Description 获取当前家长名下的全部子账号
// @Tags 家庭
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]models.User} "获取成功"
// @Failure 403 {object} Response "仅家长账号可访问"
// @Router /api/v1/family/children [get]
func (h *FamilyHandler) ListChildren(c *gin.Context) {
	parent := c.MustGet("currentUser").(*models.User)

	var children []models.User
	if err := database.DB.Where("parent_id = ?", parent.ID).
		Order("created_at ASC").Find(&children).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, children)
}

// findChild 查询属于当前家长的子账号
func (h *FamilyHandler) findChild(c *gin.Context, parent *models.User) (*models.User, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return nil, false
	}

	var child models.User
	if err := database.DB.Where("id = ? AND parent_id = ?", id, parent.ID).First(&child).Error; err != nil {
		NotFound(c, "子账号不存在")
		return nil, false
	}
	return &child, true
}

// UpdateChild 更新子账号
// @Summary 更新子账号
// @Description 更新子账号的邮箱、币种，或重置其密码
// @Tags 家庭
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "子账号ID"
// @Param request body UpdateChildRequest true "子账号信息"
// @Success 200 {object} Response{data=models.User} "更新成功"
// @Failure 403 {object} Response "仅家长账号可访问"
// @Failure 404 {object} Response "子账号不存在"
// @Router /api/v1/family/children/{id} [put]
func (h *FamilyHandler) UpdateChild(c *gin.Context) {
	parent := c.MustGet("currentUser").(*models.User)
	child, ok := h.findChild(c, parent)
	if !ok {
		return
	}

	var req UpdateChildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Currency != "" {
		updates["currency"] = req.Currency
	}
	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			InternalError(c, "密码加密失败")
			return
		}
		updates["password"] = string(hashedPassword)
	}

	if len(updates) > 0 {
		if err := database.DB.Model(child).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}

	SuccessWithMessage(c, "更新成功", child)
}

// DeactivateChild 停用子账号
// @Summary 停用子账号
// @Description 停用后子账号不能登录，但其历史记录仍计入家庭统计
// @Tags 家庭
// @Produce json
// @Security BearerAuth
// @Param id path int true "子账号ID"
// @Success 200 {object} Response "停用成功"
// @Failure 403 {object} Response "仅家长账号可访问"
// @Failure 404 {object} Response "子账号不存在"
// @Router /api/v1/family/children/{id}/deactivate [put]
func (h *FamilyHandler) DeactivateChild(c *gin.Context) {
	parent := c.MustGet("currentUser").(*models.User)
	child, ok := h.findChild(c, parent)
	if !ok {
		return
	}

	if err := database.DB.Model(child).Update("is_active", false).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "停用失败"))
		return
	}

	SuccessWithMessage(c, "停用成功", nil)
}

// ReactivateChild 恢复子账号
// @Summary 恢复子账号
// @Description 恢复已停用的子账号
// @Tags 家庭
// @Produce json
// @Security BearerAuth
// @Param id path int true "子账号ID"
// @Success 200 {object} Response "恢复成功"
// @Failure 403 {object} Response "仅家长账号可访问"
// @Failure 404 {object} Response "子账号不存在"
// @Router /api/v1/family/children/{id}/reactivate [put]
func (h *FamilyHandler) ReactivateChild(c *gin.Context) {
	parent := c.MustGet("currentUser").(*models.User)
	child, ok := h.findChild(c, parent)
	if !ok {
		return
	}

	if err := database.DB.Model(child).Update("is_active", true).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "恢复失败"))
		return
	}

	SuccessWithMessage(c, "恢复成功", nil)
}

// MemberStatistics 获取家庭成员统计
// @Summary 获取家庭成员统计
// @Description 按成员统计某月的支出笔数和总额，不传 month 则为当前月
// @Tags 家庭
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-01)，默认当前月"
// @Success 200 {object} Response{data=[]ChildStatistics} "获取成功"
// @Failure 403 {object} Response "仅家长账号可访问"
// @Router /api/v1/family/statistics [get]
func (h *FamilyHandler) MemberStatistics(c *gin.Context) {
	parent := c.MustGet("currentUser").(*models.User)

	month := c.Query("month")
	if month == "" {
		month = service.CurrentMonth()
	}
	start, end, err := service.MonthRange(month)
	if err != nil {
		BadRequest(c, "月份格式错误，应为: 2006-01")
		return
	}

	var members []models.User
	if err := database.DB.Where("id = ? OR parent_id = ?", parent.ID, parent.ID).
		Order("id ASC").Find(&members).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	stats := make([]ChildStatistics, 0, len(members))
	for _, m := range members {
		var row struct {
			Count int64
			Total float64
		}
		database.DB.Model(&models.Expense{}).
			Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
			Where("user_id = ? AND date >= ? AND date <= ?", m.ID, start, end).
			Scan(&row)
		stats = append(stats, ChildStatistics{
			UserID:       m.ID,
			Username:     m.Username,
			IsActive:     m.IsActive,
			ExpenseCount: row.Count,
			TotalExpense: row.Total,
		})
	}

	Success(c, stats)
}
