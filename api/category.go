package api

import (
	"strconv"

	"familybudget/database"
	"familybudget/middleware"
	"familybudget/models"
	"familybudget/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 类别处理器
// 类别统一挂在数据所有者名下：子账号的操作会落到家长账号的类别上
type CategoryHandler struct {
	family *service.FamilyService
}

// NewCategoryHandler 创建类别处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{family: service.NewFamilyService()}
}

// CreateCategoryRequest 创建类别请求
type CreateCategoryRequest struct {
	Name  string `json:"name" binding:"required,max=50" example:"餐饮"`
	Color string `json:"color" example:"#FF6B6B"`
	Icon  string `json:"icon" example:"utensils"`
	Type  string `json:"type" binding:"omitempty,oneof=expense income both" example:"expense"`
}

// UpdateCategoryRequest 更新类别请求
type UpdateCategoryRequest struct {
	Name  string `json:"name" binding:"omitempty,max=50" example:"餐饮"`
	Color string `json:"color" example:"#FF6B6B"`
	Icon  string `json:"icon" example:"utensils"`
	Type  string `json:"type" binding:"omitempty,oneof=expense income both" example:"expense"`
}

// dataOwner 解析当前登录用户的数据所有者
func (h *CategoryHandler) dataOwner(c *gin.Context) (*models.User, bool) {
	userID := middleware.GetCurrentUserID(c)
	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		NotFound(c, "用户不存在")
		return nil, false
	}
	return h.family.DataOwner(&user), true
}

// List 获取类别列表
// @Summary 获取类别列表
// @Description 获取当前家庭的类别列表，可按类型筛选
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param type query string false "类型筛选 expense/income/both"
// @Success 200 {object} Response{data=[]models.Category} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	owner, ok := h.dataOwner(c)
	if !ok {
		return
	}

	query := database.DB.Where("user_id = ?", owner.ID)
	if t := c.Query("type"); t != "" {
		// both 类别在任一类型筛选下都可见
		query = query.Where("type = ? OR type = ?", t, models.CategoryTypeBoth)
	}

	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, categories)
}

// Create 创建类别
// @Summary 创建类别
// @Description 在当前家庭下创建新类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	owner, ok := h.dataOwner(c)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 同一家庭下类别名称唯一
	var existing models.Category
	if err := database.DB.Where("user_id = ? AND name = ?", owner.ID, req.Name).First(&existing).Error; err == nil {
		BadRequest(c, "类别已存在")
		return
	}

	if req.Type == "" {
		req.Type = models.CategoryTypeExpense
	}

	category := models.Category{
		UserID: owner.ID,
		Name:   req.Name,
		Color:  req.Color,
		Icon:   req.Icon,
		Type:   req.Type,
	}
	if err := database.DB.Create(&category).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建类别失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", category)
}

// Update 更新类别
// @Summary 更新类别
// @Description 更新当前家庭下的类别
// @Tags 类别
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Param request body UpdateCategoryRequest true "类别信息"
// @Success 200 {object} Response{data=models.Category} "更新成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	owner, ok := h.dataOwner(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, owner.ID).First(&category).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" && req.Name != category.Name {
		var existing models.Category
		if err := database.DB.Where("user_id = ? AND name = ?", owner.ID, req.Name).First(&existing).Error; err == nil {
			BadRequest(c, "类别已存在")
			return
		}
		updates["name"] = req.Name
	}
	if req.Color != "" {
		updates["color"] = req.Color
	}
	if req.Icon != "" {
		updates["icon"] = req.Icon
	}
	if req.Type != "" {
		updates["type"] = req.Type
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&category).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新类别失败"))
			return
		}
	}

	SuccessWithMessage(c, "更新成功", category)
}

// Delete 删除类别
// @Summary 删除类别
// @Description 删除当前家庭下的类别，已被记录引用的类别不可删除
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param id path int true "类别ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "类别已被引用"
// @Failure 404 {object} Response "类别不存在"
// @Router /api/v1/categories/{id} [delete]
func (h *CategoryHandler) Delete(c *gin.Context) {
	owner, ok := h.dataOwner(c)
	if !ok {
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var category models.Category
	if err := database.DB.Where("id = ? AND user_id = ?", id, owner.ID).First(&category).Error; err != nil {
		NotFound(c, "类别不存在")
		return
	}

	// 被支出或收入引用的类别不可删除
	var count int64
	database.DB.Model(&models.Expense{}).Where("category_id = ?", category.ID).Count(&count)
	if count == 0 {
		database.DB.Model(&models.Income{}).Where("category_id = ?", category.ID).Count(&count)
	}
	if count > 0 {
		BadRequest(c, "类别已被记录引用，不可删除")
		return
	}

	if err := database.DB.Delete(&category).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除类别失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}
