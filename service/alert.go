package service

import (
	"log"
	"time"

	"familybudget/config"
	"familybudget/database"
	"familybudget/models"

	"gorm.io/gorm/clause"
)

// AlertService 预算阈值告警
// 每个 (用户, 月份, 级别) 最多发送一次告警，且级别在当月内只升不降：
// 后续支出的编辑/删除使使用率回落时也不会重复发送更低级别的告警。
type AlertService struct {
	email  *EmailService
	family *FamilyService
	budget *BudgetService
}

// NewAlertService 创建告警服务
func NewAlertService(cfg *config.Config) *AlertService {
	var email *EmailService
	if cfg != nil {
		email = NewEmailService(&cfg.Email)
	}
	return &AlertService{
		email:  email,
		family: NewFamilyService(),
		budget: NewBudgetService(),
	}
}

// EvaluateAndMaybeNotify 根据最新使用率判定是否需要发送告警
// 返回本次触发的级别，未触发返回空字符串。
// 先记录后投递：告警记录写入成功即视为已发送，邮件投递失败只记日志，
// 不回滚记录（投递可独立重试，阈值判定不再重复）。
func (s *AlertService) EvaluateAndMaybeNotify(user *models.User, month string, status BudgetStatus) (string, error) {
	level := models.AlertLevelFor(status.UsagePercentage)
	if level == "" {
		return "", nil
	}

	// 当月已发送的最高级别
	var sentLevels []string
	if err := database.DB.Model(&models.BudgetAlert{}).
		Where("user_id = ? AND month = ?", user.ID, month).
		Pluck("level", &sentLevels).Error; err != nil {
		return "", err
	}
	maxSent := 0
	for _, l := range sentLevels {
		if r := models.AlertLevelRank(l); r > maxSent {
			maxSent = r
		}
	}
	if models.AlertLevelRank(level) <= maxSent {
		// 同级或更高级别已发送过，保持幂等
		return "", nil
	}

	// 原子写入：唯一索引兜底并发，冲突时静默忽略
	alert := models.BudgetAlert{
		UserID:          user.ID,
		Month:           month,
		Level:           level,
		UsagePercentage: status.UsagePercentage,
	}
	res := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&alert)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		// 并发请求已记录同级别告警，本次不再发送
		return "", nil
	}

	if s.email != nil && user.Email != "" {
		if err := s.email.SendBudgetAlertEmail(user.Email, user.Username, level, month, status); err != nil {
			log.Printf("预算告警邮件发送失败 user=%d month=%s level=%s: %v", user.ID, month, level, err)
		}
	}

	return level, nil
}

// CheckBudgetAlert 支出创建/更新后的预算检查
// 以支出日期所属月份为准，找到数据所有者的预算，按家庭共享集合统计支出并判定告警。
// 没有设置预算时静默返回（没有预算不是错误）。
func (s *AlertService) CheckBudgetAlert(actor *models.User, date time.Time) (string, error) {
	month := MonthOf(date)

	owner := s.family.DataOwner(actor)
	budget, err := s.budget.FindBudget(owner.ID, month)
	if err != nil {
		return "", err
	}
	if budget == nil {
		return "", nil
	}

	userIDs := s.family.SharedDashboardUserIDs(actor)
	spent, err := s.budget.SpentForMonth(userIDs, month)
	if err != nil {
		return "", err
	}

	status := AggregateSpent(budget.MonthlyLimit, spent)
	return s.EvaluateAndMaybeNotify(owner, month, status)
}
