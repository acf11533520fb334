package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

const MinOperatorNameLength = 2

// 导入源中的一行：日期、班次代号、前台名字
type ImportRow struct {
	Line         int
	Date         string
	ShiftCode    string
	OperatorName string
}

type ImportStats struct {
	TotalRows        int `json:"totalRows"`
	ValidRows        int `json:"validRows"`
	InvalidRows      int `json:"invalidRows"`
	UnknownEmployees int `json:"unknownEmployees"`
}

type ValidationResult struct {
	IsValid          bool                      `json:"isValid"`
	Errors           []*domain.ValidationError `json:"errors"`
	Warnings         []string                  `json:"warnings"`
	UnknownEmployees []string                  `json:"unknownEmployees"`
	Stats            ImportStats               `json:"stats"`
	Data             []domain.ScheduleEntry    `json:"data"`
}

// 从 CSV 中读取导入行。表头可有可无，列数必须为 3，
// 文件整体无法解析时直接返回 FormatError 中断导入。
func ParseImportRows(r io.Reader) ([]ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	rows := []ImportRow{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.FormatError{Message: fmt.Sprintf("无法解析导入文件：%v", err)}
		}
		line++

		// 跳过可选的表头
		if line == 1 && isHeaderRow(record) {
			continue
		}

		rows = append(rows, ImportRow{
			Line:         line,
			Date:         strings.TrimSpace(record[0]),
			ShiftCode:    strings.TrimSpace(record[1]),
			OperatorName: strings.TrimSpace(record[2]),
		})
	}

	return rows, nil
}

func isHeaderRow(record []string) bool {
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "date" || first == "日期"
}

// 对导入行做逐行校验并按日期聚合成班表条目。
// 行级错误只会累积而不会中断，未注册的名字作为警告返回，
// 由调用方决定是否先注册再确认导入。
func ValidateImport(rows []ImportRow, knownOperatorNames []string, month int, year int) *ValidationResult {
	result := &ValidationResult{
		IsValid:          true,
		Errors:           []*domain.ValidationError{},
		Warnings:         []string{},
		UnknownEmployees: []string{},
		Data:             []domain.ScheduleEntry{},
	}
	result.Stats.TotalRows = len(rows)

	known := make(map[string]bool, len(knownOperatorNames))
	for _, name := range knownOperatorNames {
		known[strings.ToLower(name)] = true
	}

	entries := make(map[time.Time]*domain.ScheduleEntry)
	unknownSeen := make(map[string]bool)

	for _, row := range rows {
		rowValid := true

		date, err := utils.ParseDate(row.Date)
		if err != nil {
			result.Errors = append(result.Errors, &domain.ValidationError{Row: row.Line, Message: err.Error()})
			rowValid = false
		} else if int(date.Month()) != month || date.Year() != year {
			result.Errors = append(result.Errors, &domain.ValidationError{
				Row:     row.Line,
				Message: fmt.Sprintf("日期 %s 不属于目标月份 %d/%d", row.Date, month, year),
			})
			rowValid = false
		}

		slot, err := ParseShiftCode(row.ShiftCode)
		if err != nil {
			result.Errors = append(result.Errors, &domain.ValidationError{Row: row.Line, Message: err.Error()})
			rowValid = false
		}

		if len([]rune(row.OperatorName)) < MinOperatorNameLength {
			result.Errors = append(result.Errors, &domain.ValidationError{
				Row:     row.Line,
				Message: fmt.Sprintf("前台名字 %q 过短，至少需要 %d 个字符", row.OperatorName, MinOperatorNameLength),
			})
			rowValid = false
		} else if !known[strings.ToLower(row.OperatorName)] && !unknownSeen[strings.ToLower(row.OperatorName)] {
			unknownSeen[strings.ToLower(row.OperatorName)] = true
			result.UnknownEmployees = append(result.UnknownEmployees, row.OperatorName)
			result.Warnings = append(result.Warnings, fmt.Sprintf("第 %d 行：前台 %q 未注册", row.Line, row.OperatorName))
		}

		if !rowValid {
			result.Stats.InvalidRows++
			continue
		}
		result.Stats.ValidRows++

		day := utils.DateOnly(date)
		entry, exists := entries[day]
		if !exists {
			entry = &domain.ScheduleEntry{
				Date:      day,
				DateLabel: utils.FormatDate(day),
				DayOfWeek: utils.WeekdayLabel(day),
			}
			entries[day] = entry
		}

		// 同一天同一个班次被重复赋值时，后面的行覆盖前面的行
		if prev := entry.Slot(slot); prev != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("第 %d 行：%s 的 %s 班次已由 %q 改为 %q", row.Line, entry.DateLabel, slot, prev, row.OperatorName))
		}
		entry.SetSlot(slot, row.OperatorName)

		if entry.HalfDayOperator != "" && strings.EqualFold(entry.HalfDayOperator, entry.ClosingOperator) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s：前台 %q 同时占用了两个班次", entry.DateLabel, entry.HalfDayOperator))
		}
	}

	result.Stats.UnknownEmployees = len(result.UnknownEmployees)
	result.IsValid = len(result.Errors) == 0

	// 按日期升序输出，保证每个日期最多一条
	days := make([]time.Time, 0, len(entries))
	for day := range entries {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	for _, day := range days {
		result.Data = append(result.Data, *entries[day])
	}

	return result
}
