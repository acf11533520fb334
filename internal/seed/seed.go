package seed

import (
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

// 为指定月份生成一份演示班表：把在班前台轮流填进半天班和闭馆班
func SeedDemoSchedule(r *repository.Repository, month int, year int) {
	operators, err := r.GetActiveOperators()
	if err != nil {
		slog.Error("获取前台列表失败", "error", err)
		return
	}

	names := []string{}
	for _, operator := range operators {
		if operator.HiddenFromSchedule {
			continue
		}
		names = append(names, operator.DisplayName)
	}
	if len(names) < 2 {
		slog.Error("可排班的前台不足两人，无法生成演示班表")
		return
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	schedule := &domain.MonthSchedule{
		Month:      month,
		Year:       year,
		ImportedBy: "seed",
		IsActive:   true,
	}

	offset := rand.Intn(len(names))
	for day := first; day.Month() == time.Month(month); day = day.AddDate(0, 0, 1) {
		halfDay := names[offset%len(names)]
		closing := names[(offset+1)%len(names)]
		offset++

		schedule.Entries = append(schedule.Entries, domain.ScheduleEntry{
			Date:            day,
			DateLabel:       utils.FormatDate(day),
			DayOfWeek:       utils.WeekdayLabel(day),
			HalfDayOperator: halfDay,
			ClosingOperator: closing,
		})
	}

	if err := r.CreateMonthSchedule(schedule, false); err != nil {
		slog.Error("插入演示班表失败", "error", err)
		return
	}

	slog.Info("插入演示班表完成", "month", month, "year", year, "entries", len(schedule.Entries))
}

// 从 CSV 文件导入一份真实班表，走和接口一样的校验流程
func SeedRosterFromCSV(r *repository.Repository, path string, month int, year int) {
	file, err := os.Open(path)
	if err != nil {
		slog.Error("打开文件失败", "error", err)
		return
	}
	defer file.Close()

	rows, err := roster.ParseImportRows(file)
	if err != nil {
		slog.Error("解析 CSV 失败", "error", err)
		return
	}

	operators, err := r.GetActiveOperators()
	if err != nil {
		slog.Error("获取前台列表失败", "error", err)
		return
	}
	known := []string{}
	for _, operator := range operators {
		known = append(known, operator.DisplayName)
	}

	result := roster.ValidateImport(rows, known, month, year)
	for _, warning := range result.Warnings {
		slog.Warn("导入警告", "message", warning)
	}
	if !result.IsValid {
		for _, rowErr := range result.Errors {
			slog.Error("导入错误", "message", rowErr.Error())
		}
		return
	}

	schedule := &domain.MonthSchedule{
		Month:      month,
		Year:       year,
		Entries:    result.Data,
		ImportedBy: "seed",
		IsActive:   true,
	}

	if err := r.CreateMonthSchedule(schedule, true); err != nil {
		slog.Error("插入班表失败", "error", err)
		return
	}

	slog.Info("导入班表完成", "month", month, "year", year,
		"valid_rows", result.Stats.ValidRows, "unknown_employees", len(result.UnknownEmployees))
}
