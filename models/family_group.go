package models

import (
	"crypto/rand"
	"time"

	"gorm.io/gorm"
)

const (
	// MemberRoleOwner 群主（创建者）
	MemberRoleOwner = "owner"
	// MemberRoleAdmin 管理员
	MemberRoleAdmin = "admin"
	// MemberRoleMember 普通成员
	MemberRoleMember = "member"
	// MemberRoleViewer 只读成员
	MemberRoleViewer = "viewer"
)

// FamilyGroup 家庭组模型
// 每个用户最多拥有一个家庭组、最多加入一个家庭组（两种身份分开记录）
type FamilyGroup struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"size:100;not null"`
	Description  string         `json:"description" gorm:"size:1000"`
	OwnerID      uint           `json:"owner_id" gorm:"uniqueIndex;not null"`
	InviteCode   string         `json:"-" gorm:"uniqueIndex;size:8;not null"` // 邀请码，重新生成后旧码立即失效
	SharedBudget *float64       `json:"shared_budget" gorm:"type:decimal(10,2)"`
	Currency     string         `json:"currency" gorm:"size:10;default:NPR"`
	IsActive     bool           `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
	Owner        User           `json:"-" gorm:"foreignKey:OwnerID"`
}

// TableName 设置表名
func (FamilyGroup) TableName() string {
	return "family_groups"
}

// FamilyGroupMember 家庭组成员关系
type FamilyGroupMember struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	FamilyGroupID uint        `json:"family_group_id" gorm:"uniqueIndex:idx_member_group_user;not null"`
	UserID        uint        `json:"user_id" gorm:"uniqueIndex:idx_member_group_user;uniqueIndex:idx_member_user;not null"`
	Role          string      `json:"role" gorm:"size:20;default:member;not null"` // owner/admin/member/viewer
	JoinedAt      time.Time   `json:"joined_at"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	FamilyGroup   FamilyGroup `json:"-" gorm:"foreignKey:FamilyGroupID"`
	User          User        `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (FamilyGroupMember) TableName() string {
	return "family_group_members"
}

// inviteCodeChars 邀请码字符集，去掉易混淆的 0/O/1/I
const inviteCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateInviteCode 生成 8 位随机邀请码
// 唯一性由数据库唯一索引兜底，调用方在冲突时重试
func GenerateInviteCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = inviteCodeChars[int(b)%len(inviteCodeChars)]
	}
	return string(buf), nil
}
