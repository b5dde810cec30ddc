package service

import (
	"fmt"

	"familybudget/config"
	"familybudget/models"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendBudgetAlertEmail 发送预算告警邮件
func (s *EmailService) SendBudgetAlertEmail(toEmail, username, level, month string, status BudgetStatus) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 EMAIL_ENABLED=true")
	}

	subject := alertSubject(level)
	body := s.generateBudgetAlertBody(username, level, month, status)

	return s.sendEmail(toEmail, subject, body)
}

// alertSubject 按告警级别生成邮件主题
func alertSubject(level string) string {
	switch level {
	case models.AlertLevelExceeded:
		return "【家庭记账】🚨 预算已超支"
	case models.AlertLevelCritical:
		return "【家庭记账】⚠️ 预算告急：已使用 90%"
	default:
		return "【家庭记账】📊 预算提醒：已使用 70%"
	}
}

// alertMessage 按告警级别生成提示文案
func alertMessage(level string, status BudgetStatus) string {
	switch level {
	case models.AlertLevelExceeded:
		return fmt.Sprintf("您本月的支出已达预算的 <strong>%.2f%%</strong>，预算已超支，请注意控制开销。", status.UsagePercentage)
	case models.AlertLevelCritical:
		return fmt.Sprintf("您本月的支出已达预算的 <strong>%.2f%%</strong>，剩余额度仅 <strong>%.2f</strong>。", status.UsagePercentage, status.Remaining)
	default:
		return fmt.Sprintf("您本月的支出已达预算的 <strong>%.2f%%</strong>，剩余额度 <strong>%.2f</strong>。", status.UsagePercentage, status.Remaining)
	}
}

// generateBudgetAlertBody 生成预算告警邮件内容
func (s *EmailService) generateBudgetAlertBody(username, level, month string, status BudgetStatus) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #2563eb, #1d4ed8); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .stats { background: #f8fafc; border-radius: 12px; padding: 20px 30px; margin: 20px 0; }
        .stats p { margin: 6px 0; color: #334155; }
        .warning { background: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 4px; }
        .warning p { margin: 0; color: #856404; font-size: 14px; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 家庭记账</h1>
        </div>
        <div class="content">
            <p>尊敬的 <strong>%s</strong>，您好！</p>
            <div class="warning">
                <p>%s</p>
            </div>
            <div class="stats">
                <p>统计月份：<strong>%s</strong></p>
                <p>预算上限：<strong>%.2f</strong></p>
                <p>已支出：<strong>%.2f</strong></p>
                <p>剩余额度：<strong>%.2f</strong></p>
            </div>
            <p>建议您回顾本月的消费情况，合理安排后续开销。</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
            <p>© 家庭记账 - 您的家庭财务管理助手</p>
        </div>
    </div>
</body>
</html>
`, username, alertMessage(level, status), month, status.MonthlyLimit, status.Spent, status.Remaining)
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

// SendTestEmail 发送测试邮件
func (s *EmailService) SendTestEmail(toEmail string) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用")
	}

	subject := "【家庭记账】邮件配置测试"
	body := `
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>✅ 邮件配置成功</h2>
    <p>如果您收到这封邮件，说明邮件服务配置正确。</p>
    <p style="color: #666;">—— 家庭记账</p>
</body>
</html>
`
	return s.sendEmail(toEmail, subject, body)
}
