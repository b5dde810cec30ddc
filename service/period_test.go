package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthRange(t *testing.T) {
	// 平年 2 月
	start, end, err := MonthRange("2023-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2023, 2, 28, 23, 59, 59, 0, time.Local), end)

	// 闰年 2 月
	start, end, err = MonthRange("2024-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.Local), end)

	// 31 天的月份
	start, end, err = MonthRange("2024-12")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, 0, time.Local), end)
}

func TestMonthRangeInvalid(t *testing.T) {
	invalid := []string{
		"",
		"2024",
		"2024-1",
		"2024-001",
		"2024-13",
		"2024-00",
		"2024/02",
		"24-02",
		"abcd-ef",
		"2024-02-01",
	}
	for _, token := range invalid {
		_, _, err := MonthRange(token)
		assert.ErrorIs(t, err, ErrInvalidMonthToken, "token=%q", token)
	}
}

func TestMonthRangeDeterministic(t *testing.T) {
	// 纯函数：重复调用结果一致
	s1, e1, err1 := MonthRange("2025-06")
	s2, e2, err2 := MonthRange("2025-06")
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, s1, s2)
	assert.Equal(t, e1, e2)
}

func TestMonthOf(t *testing.T) {
	assert.Equal(t, "2024-02", MonthOf(time.Date(2024, 2, 29, 12, 0, 0, 0, time.Local)))
	assert.Equal(t, "2025-12", MonthOf(time.Date(2025, 12, 1, 0, 0, 0, 0, time.Local)))
}
