package service

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	// limit=1000, spent=750 → remaining=250, 75%, warning
	st := Aggregate(1000.00, []float64{500.00, 250.00})
	assert.Equal(t, 750.00, st.Spent)
	assert.Equal(t, 250.00, st.Remaining)
	assert.Equal(t, 75.00, st.UsagePercentage)
	assert.Equal(t, BudgetStatusWarning, st.Status)

	// limit=1000, spent=1200 → remaining=0（不出现负数）, 120%, exceeded
	st = Aggregate(1000.00, []float64{1200.00})
	assert.Equal(t, 0.00, st.Remaining)
	assert.Equal(t, 120.00, st.UsagePercentage)
	assert.Equal(t, BudgetStatusExceeded, st.Status)

	// 空支出集合
	st = Aggregate(1000.00, nil)
	assert.Equal(t, 0.00, st.Spent)
	assert.Equal(t, 1000.00, st.Remaining)
	assert.Equal(t, 0.00, st.UsagePercentage)
	assert.Equal(t, BudgetStatusSafe, st.Status)
}

func TestAggregateIdempotent(t *testing.T) {
	// 纯函数：相同输入必得相同输出
	amounts := []float64{19.99, 35.50, 120.01}
	first := Aggregate(500.00, amounts)
	second := Aggregate(500.00, amounts)
	assert.Equal(t, first, second)
}

func TestUsagePercentage(t *testing.T) {
	// 上限非正恒为 0
	assert.Equal(t, 0.00, UsagePercentage(100, 0))
	assert.Equal(t, 0.00, UsagePercentage(100, -50))

	// 两位小数四舍五入
	assert.Equal(t, 33.33, UsagePercentage(100, 300))
	assert.Equal(t, 66.67, UsagePercentage(200, 300))
	assert.Equal(t, 75.00, UsagePercentage(750, 1000))
}

func TestStatusForLadder(t *testing.T) {
	// 阈值阶梯：每个使用率恰好落在一个状态，且严重程度单调不降
	cases := []struct {
		pct    float64
		status string
	}{
		{0, BudgetStatusSafe},
		{69.99, BudgetStatusSafe},
		{70, BudgetStatusWarning},
		{89.99, BudgetStatusWarning},
		{90, BudgetStatusCritical},
		{99.99, BudgetStatusCritical},
		{100, BudgetStatusExceeded},
		{250, BudgetStatusExceeded},
	}
	rank := map[string]int{
		BudgetStatusSafe:     0,
		BudgetStatusWarning:  1,
		BudgetStatusCritical: 2,
		BudgetStatusExceeded: 3,
	}
	prev := -1
	for _, tc := range cases {
		got := StatusFor(tc.pct)
		assert.Equal(t, tc.status, got, "pct=%v", tc.pct)
		assert.GreaterOrEqual(t, rank[got], prev, "严重程度不应随使用率上升而回落")
		prev = rank[got]
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	for _, spent := range []float64{0, 100, 999.99, 1000, 1000.01, 99999} {
		st := AggregateSpent(1000, spent)
		assert.GreaterOrEqual(t, st.Remaining, 0.00, "spent=%v", spent)
	}
}

func TestBudgetServiceUpsert(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `budgets`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	budget, err := NewBudgetService().UpsertBudget(1, "2024-03", 1000.00, "NPR")
	require.NoError(t, err)
	assert.Equal(t, uint(1), budget.UserID)
	assert.Equal(t, "2024-03", budget.Month)
	assert.Equal(t, 1000.00, budget.MonthlyLimit)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetServiceSpentForMonth(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(amount\\), 0\\) FROM `expenses`").
		WillReturnRows(sqlmock.NewRows([]string{"COALESCE(SUM(amount), 0)"}).AddRow(321.50))

	spent, err := NewBudgetService().SpentForMonth([]uint{1, 2}, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, 321.50, spent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBudgetServiceSpentForMonthInvalidToken(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	_, err := NewBudgetService().SpentForMonth([]uint{1}, "2024-13")
	assert.ErrorIs(t, err, ErrInvalidMonthToken)
}
