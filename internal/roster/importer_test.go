package roster

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

var knownNames = []string{"张伟", "李娜", "王强", "Alice", "Bob"}

func TestParseImportRows(t *testing.T) {
	csv := "date,shift,employee\n01/03/2025,halfDay,张伟\n01/03/2025, closing ,李娜\n"

	rows, err := ParseImportRows(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("解析失败：%v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("期望解析出 2 行（跳过表头），实际为 %d 行", len(rows))
	}
	if rows[0].Line != 2 {
		t.Errorf("期望第一条数据位于第 2 行，实际为第 %d 行", rows[0].Line)
	}
	if rows[1].ShiftCode != "closing" {
		t.Errorf("期望班次代号被去除空白，实际为 %q", rows[1].ShiftCode)
	}
}

func TestParseImportRowsWithoutHeader(t *testing.T) {
	csv := "01/03/2025,halfDay,张伟\n"

	rows, err := ParseImportRows(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("解析失败：%v", err)
	}
	if len(rows) != 1 || rows[0].Line != 1 {
		t.Fatalf("没有表头时第一行就是数据行，实际解析结果为 %+v", rows)
	}
}

func TestParseImportRowsFormatError(t *testing.T) {
	csv := "01/03/2025,halfDay\n"

	_, err := ParseImportRows(strings.NewReader(csv))
	var formatErr *domain.FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("列数不对时期望返回格式错误，实际为 %v", err)
	}
}

func TestValidateImportGroupsByDate(t *testing.T) {
	rows := []ImportRow{
		{Line: 1, Date: "02/03/2025", ShiftCode: "halfDay", OperatorName: "张伟"},
		{Line: 2, Date: "02/03/2025", ShiftCode: "closing", OperatorName: "李娜"},
		{Line: 3, Date: "01/03/2025", ShiftCode: "halfDay", OperatorName: "王强"},
	}

	result := ValidateImport(rows, knownNames, 3, 2025)
	if !result.IsValid {
		t.Fatalf("期望校验通过，实际错误为 %v", result.Errors)
	}
	if len(result.Data) != 2 {
		t.Fatalf("期望聚合出 2 天的条目，实际为 %d", len(result.Data))
	}
	if result.Data[0].DateLabel != "01/03/2025" {
		t.Errorf("期望条目按日期升序，第一条实际为 %s", result.Data[0].DateLabel)
	}
	second := result.Data[1]
	if second.HalfDayOperator != "张伟" || second.ClosingOperator != "李娜" {
		t.Errorf("期望 02/03/2025 两个班次分别为张伟和李娜，实际为 %q / %q", second.HalfDayOperator, second.ClosingOperator)
	}
	if second.DayOfWeek != "星期日" {
		t.Errorf("2025-03-02 是星期日，实际推导为 %s", second.DayOfWeek)
	}
}

func TestValidateImportRowErrors(t *testing.T) {
	rows := []ImportRow{
		{Line: 1, Date: "2025-03-01", ShiftCode: "halfDay", OperatorName: "张伟"},  // 日期格式错误
		{Line: 2, Date: "01/04/2025", ShiftCode: "halfDay", OperatorName: "张伟"}, // 不属于目标月份
		{Line: 3, Date: "01/03/2025", ShiftCode: "night", OperatorName: "张伟"},   // 班次代号无法识别
		{Line: 4, Date: "02/03/2025", ShiftCode: "halfDay", OperatorName: "王"},  // 名字过短
		{Line: 5, Date: "03/03/2025", ShiftCode: "closing", OperatorName: "李娜"}, // 唯一合法的一行
	}

	result := ValidateImport(rows, knownNames, 3, 2025)
	if result.IsValid {
		t.Fatal("存在行级错误时整体校验不应通过")
	}
	if len(result.Errors) != 4 {
		t.Errorf("期望 4 条行级错误，实际为 %d：%v", len(result.Errors), result.Errors)
	}
	if result.Stats.TotalRows != 5 || result.Stats.ValidRows != 1 || result.Stats.InvalidRows != 4 {
		t.Errorf("统计信息不正确：%+v", result.Stats)
	}
	// 非法行不应阻止合法行进入聚合结果
	if len(result.Data) != 1 || result.Data[0].ClosingOperator != "李娜" {
		t.Errorf("期望合法行仍然被聚合，实际为 %+v", result.Data)
	}
}

func TestValidateImportUnknownOperatorIsWarning(t *testing.T) {
	rows := []ImportRow{
		{Line: 1, Date: "01/03/2025", ShiftCode: "halfDay", OperatorName: "赵六"},
		{Line: 2, Date: "02/03/2025", ShiftCode: "halfDay", OperatorName: "赵六"},
	}

	result := ValidateImport(rows, knownNames, 3, 2025)
	if !result.IsValid {
		t.Fatalf("未注册的前台只应产生警告，实际错误为 %v", result.Errors)
	}
	if len(result.UnknownEmployees) != 1 || result.UnknownEmployees[0] != "赵六" {
		t.Errorf("期望未注册名单去重后只有赵六，实际为 %v", result.UnknownEmployees)
	}
	if result.Stats.UnknownEmployees != 1 {
		t.Errorf("未注册前台数量统计不正确：%d", result.Stats.UnknownEmployees)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("期望同一个未注册名字只警告一次，实际警告为 %v", result.Warnings)
	}
}

func TestValidateImportDuplicateSlotOverwrites(t *testing.T) {
	rows := []ImportRow{
		{Line: 1, Date: "01/03/2025", ShiftCode: "halfDay", OperatorName: "张伟"},
		{Line: 2, Date: "01/03/2025", ShiftCode: "halfDay", OperatorName: "李娜"},
	}

	result := ValidateImport(rows, knownNames, 3, 2025)
	if !result.IsValid {
		t.Fatalf("重复赋值只应产生警告，实际错误为 %v", result.Errors)
	}
	if result.Data[0].HalfDayOperator != "李娜" {
		t.Errorf("期望后面的行覆盖前面的行，实际为 %q", result.Data[0].HalfDayOperator)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("期望产生一条覆盖警告，实际为 %v", result.Warnings)
	}
}

func TestValidateImportDoubleBookingWarning(t *testing.T) {
	rows := []ImportRow{
		{Line: 1, Date: "01/03/2025", ShiftCode: "halfDay", OperatorName: "张伟"},
		{Line: 2, Date: "01/03/2025", ShiftCode: "closing", OperatorName: "张伟"},
	}

	result := ValidateImport(rows, knownNames, 3, 2025)
	if !result.IsValid {
		t.Fatalf("同一前台占用两个班次只应产生警告，实际错误为 %v", result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "同时占用") {
			found = true
		}
	}
	if !found {
		t.Errorf("期望产生一天双班的警告，实际警告为 %v", result.Warnings)
	}
}

func TestValidateImportRoundTrip(t *testing.T) {
	csv := "01/03/2025,halfDay,张伟\n01/03/2025,closing,李娜\n02/03/2025,halfDay,王强\n"

	rows, err := ParseImportRows(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("解析失败：%v", err)
	}
	result := ValidateImport(rows, knownNames, 3, 2025)
	if !result.IsValid || len(result.Data) != 2 {
		t.Fatalf("期望完整导入流程产出 2 天的班表条目，实际为 %+v", result)
	}
	for _, entry := range result.Data {
		if entry.Date.IsZero() || !entry.Date.Equal(time.Date(entry.Date.Year(), entry.Date.Month(), entry.Date.Day(), 0, 0, 0, 0, time.UTC)) {
			t.Errorf("期望条目日期被截断到当天零点（UTC），实际为 %v", entry.Date)
		}
	}
}

func TestParseShiftCode(t *testing.T) {
	cases := []struct {
		code string
		want domain.ShiftSlot
	}{
		{"halfDay", domain.ShiftHalfDay},
		{"HALFDAY", domain.ShiftHalfDay},
		{"am", domain.ShiftHalfDay},
		{"半天班", domain.ShiftHalfDay},
		{"closing", domain.ShiftClosing},
		{" pm ", domain.ShiftClosing},
		{"闭馆", domain.ShiftClosing},
	}
	for _, c := range cases {
		got, err := ParseShiftCode(c.code)
		if err != nil {
			t.Errorf("解析班次代号 %q 失败：%v", c.code, err)
			continue
		}
		if got != c.want {
			t.Errorf("班次代号 %q 期望解析为 %s，实际为 %s", c.code, c.want, got)
		}
	}

	if _, err := ParseShiftCode("night"); err == nil {
		t.Error("期望无法识别的班次代号返回错误")
	}
}
