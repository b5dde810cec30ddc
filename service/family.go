package service

import (
	"familybudget/database"
	"familybudget/models"
)

// FamilyService 家庭成员关系解析
// 所有按家庭共享数据的查询都必须通过这里求出可见的用户集合
type FamilyService struct{}

// NewFamilyService 创建家庭成员关系服务
func NewFamilyService() *FamilyService {
	return &FamilyService{}
}

// DataOwner 返回数据所有者：子账号返回其家长，其余返回自身
// 类别和预算统一挂在数据所有者名下
func (s *FamilyService) DataOwner(user *models.User) *models.User {
	if user.IsChild() {
		var parent models.User
		if err := database.DB.First(&parent, *user.ParentID).Error; err == nil {
			return &parent
		}
		// 家长记录缺失时退回自身，保证调用方总能拿到一个所有者
	}
	return user
}

// SharedDashboardUserIDs 返回与该用户共享仪表盘的用户ID集合
// 子账号：家长 + 家长名下全部子账号（含自己）；
// 家长：自己 + 名下全部子账号；
// 其他：仅自己。
// 返回值总是至少包含用户自身，查询失败不会让结果为空。
func (s *FamilyService) SharedDashboardUserIDs(user *models.User) []uint {
	if user.IsChild() {
		ids := []uint{*user.ParentID}
		ids = append(ids, s.childIDs(*user.ParentID)...)
		return ensureContains(ids, user.ID)
	}

	if user.IsParent() {
		ids := []uint{user.ID}
		return append(ids, s.childIDs(user.ID)...)
	}

	return []uint{user.ID}
}

// childIDs 查询某家长名下的全部子账号ID
func (s *FamilyService) childIDs(parentID uint) []uint {
	var ids []uint
	database.DB.Model(&models.User{}).Where("parent_id = ?", parentID).Pluck("id", &ids)
	return ids
}

// ensureContains 保证 id 在集合中（查询异常时兜底包含自己）
func ensureContains(ids []uint, id uint) []uint {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}
