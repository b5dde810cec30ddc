package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"familybudget/database"
	"familybudget/models"
	"familybudget/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
// 导出范围为家庭共享集合内的记录
type ExportHandler struct {
	family *service.FamilyService
}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{family: service.NewFamilyService()}
}

// expenseWithMeta 带用户名和类别名的支出记录
type expenseWithMeta struct {
	models.Expense
	Username     string `json:"username"`
	CategoryName string `json:"category_name"`
}

// incomeWithMeta 带用户名的收入记录
type incomeWithMeta struct {
	models.Income
	Username string `json:"username"`
}

// exportRange 解析导出时间范围参数
func exportRange(c *gin.Context) (start, end time.Time, startStr, endStr string, ok bool) {
	startStr = c.Query("start_date")
	endStr = c.Query("end_date")

	if startStr == "" || endStr == "" {
		BadRequest(c, "请提供开始日期和结束日期")
		return
	}

	start, err := time.ParseInLocation("2006-01-02", startStr, time.Local)
	if err != nil {
		BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
		return
	}
	end, err = time.ParseInLocation("2006-01-02", endStr, time.Local)
	if err != nil {
		BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
		return
	}
	// 包含结束日期当天
	end = end.Add(24*time.Hour - time.Second)
	ok = true
	return
}

// queryExpenses 查询导出范围内的支出记录
func (h *ExportHandler) queryExpenses(userIDs []uint, start, end time.Time) ([]expenseWithMeta, error) {
	var expenses []expenseWithMeta
	err := database.DB.Model(&models.Expense{}).
		Select("expenses.*, users.username, categories.name AS category_name").
		Joins("LEFT JOIN users ON expenses.user_id = users.id").
		Joins("LEFT JOIN categories ON expenses.category_id = categories.id").
		Where("expenses.user_id IN ? AND expenses.date >= ? AND expenses.date <= ?", userIDs, start, end).
		Order("expenses.date DESC").
		Scan(&expenses).Error
	return expenses, err
}

// queryIncomes 查询导出范围内的收入记录
func (h *ExportHandler) queryIncomes(userIDs []uint, start, end time.Time) ([]incomeWithMeta, error) {
	var incomes []incomeWithMeta
	err := database.DB.Model(&models.Income{}).
		Select("incomes.*, users.username").
		Joins("LEFT JOIN users ON incomes.user_id = users.id").
		Where("incomes.user_id IN ? AND incomes.date >= ? AND incomes.date <= ?", userIDs, start, end).
		Order("incomes.date DESC").
		Scan(&incomes).Error
	return incomes, err
}

// ExportCSV 导出支出记录为 CSV
// @Summary 导出支出记录为 CSV
// @Description 按日期范围导出家庭共享范围内的支出记录为 CSV 文件
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	start, end, startStr, endStr, ok := exportRange(c)
	if !ok {
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)
	expenses, err := h.queryExpenses(userIDs, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)

	headers := []string{"ID", "成员", "金额", "币种", "类别", "备注", "日期", "创建时间"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	for _, expense := range expenses {
		row := []string{
			fmt.Sprintf("%d", expense.ID),
			expense.Username,
			fmt.Sprintf("%.2f", expense.Amount),
			expense.Currency,
			expense.CategoryName,
			expense.Note,
			expense.Date.Format("2006-01-02"),
			expense.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("expenses_%s_%s.csv", startStr, endStr)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出收支记录为 JSON
// @Summary 导出收支记录为 JSON
// @Description 按日期范围导出家庭共享范围内的支出和收入记录
// @Tags 导出
// @Produce json
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {object} Response "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	start, end, _, _, ok := exportRange(c)
	if !ok {
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)
	expenses, err := h.queryExpenses(userIDs, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}
	incomes, err := h.queryIncomes(userIDs, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	Success(c, gin.H{
		"expenses": expenses,
		"incomes":  incomes,
	})
}

// ExportExcel 导出收支记录为 Excel
// @Summary 导出收支记录为 Excel
// @Description 按日期范围导出家庭共享范围内的收支记录为 xlsx 文件，支出和收入各一个工作表
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	start, end, startStr, endStr, ok := exportRange(c)
	if !ok {
		return
	}

	userIDs := h.family.SharedDashboardUserIDs(user)
	expenses, err := h.queryExpenses(userIDs, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}
	incomes, err := h.queryIncomes(userIDs, start, end)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 支出表
	expenseSheet := "支出记录"
	f.SetSheetName("Sheet1", expenseSheet)
	f.SetColWidth(expenseSheet, "A", "A", 10)
	f.SetColWidth(expenseSheet, "B", "E", 15)
	f.SetColWidth(expenseSheet, "F", "G", 22)

	expenseHeaders := []string{"ID", "成员", "金额", "类别", "备注", "日期", "创建时间"}
	for i, header := range expenseHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(expenseSheet, cell, header)
		f.SetCellStyle(expenseSheet, cell, cell, headerStyle)
	}

	var totalExpense float64
	for i, expense := range expenses {
		row := i + 2
		f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", row), expense.ID)
		f.SetCellValue(expenseSheet, fmt.Sprintf("B%d", row), expense.Username)
		f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", row), expense.Amount)
		f.SetCellValue(expenseSheet, fmt.Sprintf("D%d", row), expense.CategoryName)
		f.SetCellValue(expenseSheet, fmt.Sprintf("E%d", row), expense.Note)
		f.SetCellValue(expenseSheet, fmt.Sprintf("F%d", row), expense.Date.Format("2006-01-02"))
		f.SetCellValue(expenseSheet, fmt.Sprintf("G%d", row), expense.CreatedAt.Format("2006-01-02 15:04:05"))
		totalExpense += expense.Amount
	}

	// 汇总行
	summaryRow := len(expenses) + 2
	f.SetCellValue(expenseSheet, fmt.Sprintf("A%d", summaryRow), "合计")
	f.SetCellValue(expenseSheet, fmt.Sprintf("C%d", summaryRow), totalExpense)
	f.SetCellValue(expenseSheet, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(expenses)))

	// 收入表
	incomeSheet := "收入记录"
	f.NewSheet(incomeSheet)
	f.SetColWidth(incomeSheet, "A", "A", 10)
	f.SetColWidth(incomeSheet, "B", "E", 15)
	f.SetColWidth(incomeSheet, "F", "G", 22)

	incomeHeaders := []string{"ID", "成员", "金额", "来源", "备注", "日期", "创建时间"}
	for i, header := range incomeHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(incomeSheet, cell, header)
		f.SetCellStyle(incomeSheet, cell, cell, headerStyle)
	}

	var totalIncome float64
	for i, income := range incomes {
		row := i + 2
		f.SetCellValue(incomeSheet, fmt.Sprintf("A%d", row), income.ID)
		f.SetCellValue(incomeSheet, fmt.Sprintf("B%d", row), income.Username)
		f.SetCellValue(incomeSheet, fmt.Sprintf("C%d", row), income.Amount)
		f.SetCellValue(incomeSheet, fmt.Sprintf("D%d", row), income.Source)
		f.SetCellValue(incomeSheet, fmt.Sprintf("E%d", row), income.Note)
		f.SetCellValue(incomeSheet, fmt.Sprintf("F%d", row), income.Date.Format("2006-01-02"))
		f.SetCellValue(incomeSheet, fmt.Sprintf("G%d", row), income.CreatedAt.Format("2006-01-02 15:04:05"))
		totalIncome += income.Amount
	}
	incomeSummaryRow := len(incomes) + 2
	f.SetCellValue(incomeSheet, fmt.Sprintf("A%d", incomeSummaryRow), "合计")
	f.SetCellValue(incomeSheet, fmt.Sprintf("C%d", incomeSummaryRow), totalIncome)
	f.SetCellValue(incomeSheet, fmt.Sprintf("D%d", incomeSummaryRow), fmt.Sprintf("共 %d 条记录", len(incomes)))

	filename := fmt.Sprintf("家庭收支_%s_%s.xlsx", startStr, endStr)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}
