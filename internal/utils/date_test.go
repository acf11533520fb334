package utils

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("05/03/2025")
	if err != nil {
		t.Fatalf("解析日期失败：%v", err)
	}
	if d.Year() != 2025 || d.Month() != time.March || d.Day() != 5 {
		t.Errorf("解析结果不正确：%v", d)
	}

	invalid := []string{"2025-03-05", "05/13/2025", "31/02/2025", "", "abc"}
	for _, s := range invalid {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("期望 %q 解析失败", s)
		}
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	d := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	label := FormatDate(d)
	if label != "05/03/2025" {
		t.Fatalf("格式化结果不正确：%s", label)
	}
	parsed, err := ParseDate(label)
	if err != nil {
		t.Fatalf("解析格式化结果失败：%v", err)
	}
	if !DateOnly(parsed).Equal(d) {
		t.Errorf("往返后日期不一致：%v != %v", parsed, d)
	}
}

func TestWeekdayLabel(t *testing.T) {
	// 2025-03-03 是星期一
	monday := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	if got := WeekdayLabel(monday); got != "星期一" {
		t.Errorf("期望星期一，实际为 %s", got)
	}
	sunday := time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)
	if got := WeekdayLabel(sunday); got != "星期日" {
		t.Errorf("期望星期日，实际为 %s", got)
	}
}

func TestDateOnly(t *testing.T) {
	loc := time.FixedZone("CST", 8*3600)
	d := time.Date(2025, time.March, 5, 23, 59, 0, 0, loc)
	got := DateOnly(d)
	want := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("期望固定到 UTC 零点 %v，实际为 %v", want, got)
	}

	// 东八区 11 号凌晨时 UTC 还在 10 号，"今天"必须按本地日历日算，
	// 否则 11 号提交的当天生效申请会被当成过去的日期拒绝
	d = time.Date(2025, time.March, 11, 0, 30, 0, 0, loc)
	got = DateOnly(d)
	want = time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("跨时区日期应取本地日历日：期望 %v，实际为 %v", want, got)
	}
}

func TestMonthIndex(t *testing.T) {
	if MonthIndex(2025, 1)-MonthIndex(2024, 12) != 1 {
		t.Error("跨年相邻月份的序号差应为 1")
	}
	if MonthIndex(2025, 4)-MonthIndex(2025, 1) != 3 {
		t.Error("同年相隔三个月的序号差应为 3")
	}
}
