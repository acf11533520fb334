package utils

import (
	"fmt"
	"time"
)

const DateLayout = "02/01/2006" // DD/MM/YYYY

var weekdayLabels = map[time.Weekday]string{
	time.Monday:    "星期一",
	time.Tuesday:   "星期二",
	time.Wednesday: "星期三",
	time.Thursday:  "星期四",
	time.Friday:    "星期五",
	time.Saturday:  "星期六",
	time.Sunday:    "星期日",
}

// 解析 DD/MM/YYYY 形式的日期，只接受真实存在的日期（例如 31/02 会被拒绝）
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("无效的日期 %q，要求 DD/MM/YYYY 格式", s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func WeekdayLabel(t time.Time) string {
	return weekdayLabels[t.Weekday()]
}

// 取 t 所在时区的日历日，固定到 UTC 零点。班表中的日期都以此形式存储，
// 因此 DateOnly(time.Now()) 得到的"今天"和解析出来的日期落在同一坐标系里
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// 计算 (year, month) 距公元零年的总月数，用于比较两个月份的先后
func MonthIndex(year int, month int) int {
	return year*12 + (month - 1)
}
