package service

import (
	"errors"
	"time"
)

// ErrInvalidMonthToken 月份参数格式错误（应为 YYYY-MM，月份 01-12）
var ErrInvalidMonthToken = errors.New("无效的月份格式，应为: YYYY-MM")

// MonthRange 把 YYYY-MM 月份参数解析为该月的起止时间（均含在内）
// start 为当月第一天 00:00:00，end 为当月最后一天 23:59:59，闰年按公历规则处理。
// 所有按月过滤必须统一经过该函数，禁止各处自行拼接日期条件，避免口径漂移。
func MonthRange(month string) (start, end time.Time, err error) {
	if len(month) != 7 || month[4] != '-' {
		return time.Time{}, time.Time{}, ErrInvalidMonthToken
	}
	t, perr := time.ParseInLocation("2006-01", month, time.Local)
	if perr != nil {
		return time.Time{}, time.Time{}, ErrInvalidMonthToken
	}
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.Local)
	end = start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end, nil
}

// CurrentMonth 当前月份的 YYYY-MM 表示
func CurrentMonth() string {
	return time.Now().Format("2006-01")
}

// MonthOf 日期所属月份的 YYYY-MM 表示
func MonthOf(t time.Time) string {
	return t.Format("2006-01")
}
