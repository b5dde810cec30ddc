package api

import (
	"strconv"
	"time"

	"familybudget/database"
	"familybudget/models"
	"familybudget/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FamilyGroupHandler 家庭组处理器
// 家庭组独立于家长/子账号关系：任何非子账号用户都可以创建或通过邀请码加入一个家庭组
type FamilyGroupHandler struct{}

// NewFamilyGroupHandler 创建家庭组处理器
func NewFamilyGroupHandler() *FamilyGroupHandler {
	return &FamilyGroupHandler{}
}

// CreateGroupRequest 创建家庭组请求
type CreateGroupRequest struct {
	Name         string   `json:"name" binding:"required,max=100" example:"我的家"`
	Description  string   `json:"description" binding:"max=1000" example:"一家三口的账本"`
	SharedBudget *float64 `json:"shared_budget" binding:"omitempty,gt=0" example:"5000.00"`
	Currency     string   `json:"currency" example:"NPR"`
}

// UpdateGroupRequest 更新家庭组请求
type UpdateGroupRequest struct {
	Name         string   `json:"name" binding:"omitempty,max=100" example:"我的家"`
	Description  string   `json:"description" binding:"max=1000" example:"一家三口的账本"`
	SharedBudget *float64 `json:"shared_budget" binding:"omitempty,gt=0" example:"5000.00"`
	Currency     string   `json:"currency" example:"NPR"`
}

// JoinGroupRequest 加入家庭组请求
type JoinGroupRequest struct {
	InviteCode string `json:"invite_code" binding:"required,len=8" example:"AB23CD45"`
}

// UpdateMemberRoleRequest 更新成员角色请求
type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member viewer" example:"admin"`
}

// TransferOwnershipRequest 转让群主请求
type TransferOwnershipRequest struct {
	UserID uint `json:"user_id" binding:"required" example:"2"`
}

// GroupDetailResponse 家庭组详情响应
type GroupDetailResponse struct {
	Group      models.FamilyGroup  `json:"group"`
	InviteCode string              `json:"invite_code,omitempty"` // 仅群主和管理员可见
	Members    []GroupMemberDetail `json:"members"`
}

// GroupMemberDetail 家庭组成员详情
type GroupMemberDetail struct {
	UserID   uint      `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// GroupStatistics 家庭组统计
type GroupStatistics struct {
	MemberCount  int64             `json:"member_count"`
	TotalExpense float64           `json:"total_expense"`
	TotalIncome  float64           `json:"total_income"`
	ByMember     []ChildStatistics `json:"by_member"`
	SharedBudget *float64          `json:"shared_budget,omitempty"`
}

// membership 查询当前用户的家庭组成员关系，未加入任何组返回 nil
func (h *FamilyGroupHandler) membership(userID uint) (*models.FamilyGroupMember, error) {
	var member models.FamilyGroupMember
	err := database.DB.Where("user_id = ?", userID).First(&member).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

// canManage 群主和管理员可管理家庭组
func canManage(role string) bool {
	return role == models.MemberRoleOwner || role == models.MemberRoleAdmin
}

// Create 创建家庭组
// @Summary 创建家庭组
// @Description 创建家庭组并成为群主。子账号不能创建家庭组，已在其他家庭组中的用户需先退出。
// @Tags 家庭组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateGroupRequest true "家庭组信息"
// @Success 200 {object} Response{data=GroupDetailResponse} "创建成功"
// @Failure 400 {object} Response "已在家庭组中"
// @Failure 403 {object} Response "子账号不能创建家庭组"
// @Router /api/v1/family-groups [post]
func (h *FamilyGroupHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.IsChild() {
		Forbidden(c, "子账号不能创建家庭组")
		return
	}

	member, err := h.membership(user.ID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if member != nil {
		BadRequest(c, "您已在家庭组中，请先退出")
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	if req.Currency == "" {
		req.Currency = user.Currency
	}

	code, err := models.GenerateInviteCode()
	if err != nil {
		InternalError(c, "生成邀请码失败")
		return
	}

	group := models.FamilyGroup{
		Name:         req.Name,
		Description:  req.Description,
		OwnerID:      user.ID,
		InviteCode:   code,
		SharedBudget: req.SharedBudget,
		Currency:     req.Currency,
		IsActive:     true,
	}

	// 建组和群主成员关系在同一事务内
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		return tx.Create(&models.FamilyGroupMember{
			FamilyGroupID: group.ID,
			UserID:        user.ID,
			Role:          models.MemberRoleOwner,
			JoinedAt:      time.Now(),
		}).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "创建家庭组失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", GroupDetailResponse{
		Group:      group,
		InviteCode: group.InviteCode,
		Members: []GroupMemberDetail{
			{UserID: user.ID, Username: user.Username, Role: models.MemberRoleOwner, JoinedAt: time.Now()},
		},
	})
}

// Join 通过邀请码加入家庭组
// @Summary 加入家庭组
// @Description 通过邀请码加入家庭组。子账号不能加入，一个用户最多加入一个家庭组。
// @Tags 家庭组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body JoinGroupRequest true "邀请码"
// @Success 200 {object} Response "加入成功"
// @Failure 400 {object} Response "邀请码无效或已在家庭组中"
// @Failure 403 {object} Response "子账号不能加入家庭组"
// @Router /api/v1/family-groups/join [post]
func (h *FamilyGroupHandler) Join(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if user.IsChild() {
		Forbidden(c, "子账号不能加入家庭组")
		return
	}

	member, err := h.membership(user.ID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if member != nil {
		BadRequest(c, "您已在家庭组中，请先退出")
		return
	}

	var req JoinGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var group models.FamilyGroup
	if err := database.DB.Where("invite_code = ? AND is_active = ?", req.InviteCode, true).First(&group).Error; err != nil {
		BadRequest(c, "邀请码无效")
		return
	}

	newMember := models.FamilyGroupMember{
		FamilyGroupID: group.ID,
		UserID:        user.ID,
		Role:          models.MemberRoleMember,
		JoinedAt:      time.Now(),
	}
	if err := database.DB.Create(&newMember).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "加入家庭组失败"))
		return
	}

	SuccessWithMessage(c, "加入成功", nil)
}

// Show 获取家庭组详情
// @Summary 获取家庭组详情
// @Description 获取当前用户所在家庭组的详情和成员列表。邀请码仅群主和管理员可见。
// @Tags 家庭组
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=GroupDetailResponse} "获取成功"
// @Failure 404 {object} Response "未加入家庭组"
// @Router /api/v1/family-groups/mine [get]
func (h *FamilyGroupHandler) Show(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	member, err := h.membership(user.ID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if member == nil {
		NotFound(c, "未加入家庭组")
		return
	}

	var group models.FamilyGroup
	if err := database.DB.First(&group, member.FamilyGroupID).Error; err != nil {
		NotFound(c, "家庭组不存在")
		return
	}

	var members []models.FamilyGroupMember
	if err := database.DB.Preload("User").
		Where("family_group_id = ?", group.ID).
		Order("joined_at ASC").Find(&members).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	detail := GroupDetailResponse{Group: group}
	if canManage(member.Role) {
		detail.InviteCode = group.InviteCode
	}
	for _, m := range members {
		detail.Members = append(detail.Members, GroupMemberDetail{
			UserID:   m.UserID,
			Username: m.User.Username,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}

	Success(c, detail)
}

// requireManager 校验当前用户是其家庭组的群主或管理员
func (h *FamilyGroupHandler) requireManager(c *gin.Context, userID uint) (*models.FamilyGroupMember, bool) {
	member, err := h.membership(userID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return nil, false
	}
	if member == nil {
		NotFound(c, "未加入家庭组")
		return nil, false
	}
	if !canManage(member.Role) {
		Forbidden(c, "仅群主和管理员可执行此操作")
		return nil, false
	}
	return member, true
}

// Update 更新家庭组
// @Summary 更新家庭组
// @Description 更新家庭组名称、描述、共享预算和币种，仅群主和管理员可操作
// @Tags 家庭组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateGroupRequest true "家庭组信息"
// @Success 200 {object} Response{data=models.FamilyGroup} "更新成功"
// @Failure 403 {object} Response "无权操作"
// @Router /api/v1/family-groups/mine [put]
func (h *FamilyGroupHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	member, ok := h.requireManager(c, user.ID)
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var group models.FamilyGroup
	if err := database.DB.First(&group, member.FamilyGroupID).Error; err != nil {
		NotFound(c, "家庭组不存在")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.SharedBudget != nil {
		updates["shared_budget"] = *req.SharedBudget
	}
	if req.Currency != "" {
		updates["currency"] = req.Currency
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&group).Updates(updates).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "更新失败"))
			return
		}
	}

	SuccessWithMessage(c, "更新成功", group)
}

// Delete 解散家庭组
// @Summary 解散家庭组
// @Description 解散家庭组并移除全部成员，仅群主可操作
// @Tags 家庭组
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "解散成功"
// @Failure 403 {object} Response "仅群主可解散家庭组"
// @Router /api/v1/family-groups/mine [delete]
func (h *FamilyGroupHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	member, err := h.membership(user.ID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if member == nil {
		NotFound(c, "未加入家庭组")
		return
	}
	if member.Role != models.MemberRoleOwner {
		Forbidden(c, "仅群主可解散家庭组")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("family_group_id = ?", member.FamilyGroupID).
			Delete(&models.FamilyGroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FamilyGroup{}, member.FamilyGroupID).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "解散失败"))
		return
	}

	SuccessWithMessage(c, "解散成功", nil)
}

// Leave 退出家庭组
// @Summary 退出家庭组
// @Description 退出当前家庭组。群主不能直接退出，需先转让群主或解散家庭组。
// @Tags 家庭组
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "退出成功"
// @Failure 400 {object} Response "群主不能退出"
// @Failure 404 {object} Response "未加入家庭组"
// @Router /api/v1/family-groups/leave [post]
func (h *FamilyGroupHandler) Leave(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	member, err := h.membership(user.ID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if member == nil {
		NotFound(c, "未加入家庭组")
		return
	}
	if member.Role == models.MemberRoleOwner {
		BadRequest(c, "群主不能退出，请先转让群主或解散家庭组")
		return
	}

	if err := database.DB.Delete(member).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "退出失败"))
		return
	}

	SuccessWithMessage(c, "退出成功", nil)
}

// RemoveMember 移除家庭组成员
// @Summary 移除家庭组成员
// @Description 将成员移出家庭组，仅群主和管理员可操作。管理员不能移除群主或其他管理员。
// @Tags 家庭组
// @Produce json
// @Security BearerAuth
// @Param id path int true "成员用户ID"
// @Success 200 {object} Response "移除成功"
// @Failure 403 {object} Response "无权操作"
// @Failure 404 {object} Response "成员不存在"
// @Router /api/v1/family-groups/members/{id} [delete]
func (h *FamilyGroupHandler) RemoveMember(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	actor, ok := h.requireManager(c, user.ID)
	if !ok {
		return
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	if uint(targetID) == user.ID {
		BadRequest(c, "不能移除自己，请使用退出")
		return
	}

	var target models.FamilyGroupMember
	if err := database.DB.Where("family_group_id = ? AND user_id = ?", actor.FamilyGroupID, targetID).
		First(&target).Error; err != nil {
		NotFound(c, "成员不存在")
		return
	}

	if target.Role == models.MemberRoleOwner {
		Forbidden(c, "不能移除群主")
		return
	}
	if actor.Role == models.MemberRoleAdmin && target.Role == models.MemberRoleAdmin {
		Forbidden(c, "管理员不能移除其他管理员")
		return
	}

	if err := database.DB.Delete(&target).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "移除失败"))
		return
	}

	SuccessWithMessage(c, "移除成功", nil)
}

// UpdateMemberRole 更新成员角色
// @Summary 更新成员角色
// @Description 调整成员的角色（admin/member/viewer），仅群主可操作
// @Tags 家庭组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "成员用户ID"
// @Param request body UpdateMemberRoleRequest true "角色"
// @Success 200 {object} Response "更新成功"
// @Failure 403 {object} Response "仅群主可调整角色"
// @Failure 404 {object} Response "成员不存在"
// @Router /api/v1/family-groups/members/{id}/role [put]
func (h *FamilyGroupHandler) UpdateMemberRole(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	actor, err := h.membership(user.ID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if actor == nil {
		NotFound(c, "未加入家庭组")
		return
	}
	if actor.Role != models.MemberRoleOwner {
		Forbidden(c, "仅群主可调整角色")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}
	if uint(targetID) == user.ID {
		BadRequest(c, "不能调整自己的角色")
		return
	}

	var req UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	var target models.FamilyGroupMember
	if err := database.DB.Where("family_group_id = ? AND user_id = ?", actor.FamilyGroupID, targetID).
		First(&target).Error; err != nil {
		NotFound(c, "成员不存在")
		return
	}

	if err := database.DB.Model(&target).Update("role", req.Role).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新失败"))
		return
	}

	SuccessWithMessage(c, "更新成功", nil)
}

// RegenerateInviteCode 重新生成邀请码
// @Summary 重新生成邀请码
// @Description 生成新邀请码，旧邀请码立即失效。仅群主和管理员可操作。
// @Tags 家庭组
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=map[string]string} "生成成功"
// @Failure 403 {object} Response "无权操作"
// @Router /api/v1/family-groups/invite-code [post]
func (h *FamilyGroupHandler) RegenerateInviteCode(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	member, ok := h.requireManager(c, user.ID)
	if !ok {
		return
	}

	code, err := models.GenerateInviteCode()
	if err != nil {
		InternalError(c, "生成邀请码失败")
		return
	}

	if err := database.DB.Model(&models.FamilyGroup{}).
		Where("id = ?", member.FamilyGroupID).
		Update("invite_code", code).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "更新邀请码失败"))
		return
	}

	SuccessWithMessage(c, "生成成功", map[string]string{"invite_code": code})
}

// TransferOwnership 转让群主
// @Summary 转让群主
// @Description 将群主转让给组内其他成员，原群主降为管理员。仅群主可操作。
// @Tags 家庭组
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TransferOwnershipRequest true "新群主用户ID"
// @Success 200 {object} Response "转让成功"
// @Failure 403 {object} Response "仅群主可转让"
// @Failure 404 {object} Response "成员不存在"
// @Router /api/v1/family-groups/transfer [post]
func (h *FamilyGroupHandler) TransferOwnership(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	actor, err := h.membership(user.ID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if actor == nil {
		NotFound(c, "未加入家庭组")
		return
	}
	if actor.Role != models.MemberRoleOwner {
		Forbidden(c, "仅群主可转让")
		return
	}

	var req TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.UserID == user.ID {
		BadRequest(c, "不能转让给自己")
		return
	}

	var target models.FamilyGroupMember
	if err := database.DB.Where("family_group_id = ? AND user_id = ?", actor.FamilyGroupID, req.UserID).
		First(&target).Error; err != nil {
		NotFound(c, "成员不存在")
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.FamilyGroup{}).
			Where("id = ?", actor.FamilyGroupID).
			Update("owner_id", target.UserID).Error; err != nil {
			return err
		}
		if err := tx.Model(&target).Update("role", models.MemberRoleOwner).Error; err != nil {
			return err
		}
		return tx.Model(actor).Update("role", models.MemberRoleAdmin).Error
	})
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "转让失败"))
		return
	}

	SuccessWithMessage(c, "转让成功", nil)
}

// Statistics 获取家庭组统计
// @Summary 获取家庭组统计
// @Description 统计家庭组成员某月的支出和收入，不传 month 则为当前月
// @Tags 家庭组
// @Produce json
// @Security BearerAuth
// @Param month query string false "月份 (2024-01)，默认当前月"
// @Success 200 {object} Response{data=GroupStatistics} "获取成功"
// @Failure 404 {object} Response "未加入家庭组"
// @Router /api/v1/family-groups/statistics [get]
func (h *FamilyGroupHandler) Statistics(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	member, err := h.membership(user.ID)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	if member == nil {
		NotFound(c, "未加入家庭组")
		return
	}

	month := c.Query("month")
	if month == "" {
		month = service.CurrentMonth()
	}
	start, end, err := service.MonthRange(month)
	if err != nil {
		BadRequest(c, "月份格式错误，应为: 2006-01")
		return
	}

	var group models.FamilyGroup
	if err := database.DB.First(&group, member.FamilyGroupID).Error; err != nil {
		NotFound(c, "家庭组不存在")
		return
	}

	var members []models.FamilyGroupMember
	if err := database.DB.Preload("User").
		Where("family_group_id = ?", group.ID).Find(&members).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	memberIDs := make([]uint, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}

	var totalExpense, totalIncome float64
	database.DB.Model(&models.Expense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id IN ? AND date >= ? AND date <= ?", memberIDs, start, end).
		Scan(&totalExpense)
	database.DB.Model(&models.Income{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id IN ? AND date >= ? AND date <= ?", memberIDs, start, end).
		Scan(&totalIncome)

	stats := GroupStatistics{
		MemberCount:  int64(len(members)),
		TotalExpense: totalExpense,
		TotalIncome:  totalIncome,
		SharedBudget: group.SharedBudget,
	}
	for _, m := range members {
		var row struct {
			Count int64
			Total float64
		}
		database.DB.Model(&models.Expense{}).
			Select("COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total").
			Where("user_id = ? AND date >= ? AND date <= ?", m.UserID, start, end).
			Scan(&row)
		stats.ByMember = append(stats.ByMember, ChildStatistics{
			UserID:       m.UserID,
			Username:     m.User.Username,
			IsActive:     m.User.IsActive,
			ExpenseCount: row.Count,
			TotalExpense: row.Total,
		})
	}

	Success(c, stats)
}
