package roster

import (
	"testing"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func TestSelectAutoArchive(t *testing.T) {
	current := []*domain.MonthSchedule{
		{Month: 1, Year: 2025},
		{Month: 2, Year: 2025},
		{Month: 3, Year: 2025},
	}

	// 导入四月后，一月距离最新月份已满 3 个月，应当被归档
	toArchive := SelectAutoArchive(current, 4, 2025, 3)
	if len(toArchive) != 1 {
		t.Fatalf("期望归档 1 个月份，实际为 %d", len(toArchive))
	}
	if toArchive[0].Month != 1 || toArchive[0].Year != 2025 {
		t.Errorf("期望归档 2025 年 1 月，实际为 %d/%d", toArchive[0].Month, toArchive[0].Year)
	}
}

func TestSelectAutoArchiveNothingToArchive(t *testing.T) {
	current := []*domain.MonthSchedule{
		{Month: 2, Year: 2025},
		{Month: 3, Year: 2025},
	}

	if toArchive := SelectAutoArchive(current, 4, 2025, 3); len(toArchive) != 0 {
		t.Errorf("保留窗口内的月份不应被归档，实际为 %+v", toArchive)
	}
}

func TestSelectAutoArchiveAcrossYearBoundary(t *testing.T) {
	current := []*domain.MonthSchedule{
		{Month: 11, Year: 2024},
		{Month: 12, Year: 2024},
		{Month: 1, Year: 2025},
	}

	toArchive := SelectAutoArchive(current, 2, 2025, 3)
	if len(toArchive) != 1 || toArchive[0].Month != 11 || toArchive[0].Year != 2024 {
		t.Errorf("跨年时期望归档 2024 年 11 月，实际为 %+v", toArchive)
	}
}

func TestSelectAutoArchiveOldImportDoesNotArchiveNewer(t *testing.T) {
	// 补导入一个更早的月份时，最新月份以当前集合中的最大值为准
	current := []*domain.MonthSchedule{
		{Month: 3, Year: 2025},
		{Month: 4, Year: 2025},
	}

	toArchive := SelectAutoArchive(current, 1, 2025, 3)
	if len(toArchive) != 0 {
		t.Errorf("补导入旧月份不应归档更新的月份，实际为 %+v", toArchive)
	}
}

func TestSelectAutoArchiveReselectsSkippedMonth(t *testing.T) {
	// 一月在四月导入时没有归档成功（例如当时正被其他操作占用），
	// 仍然留在当前集合里，五月导入时必须再次被选中
	current := []*domain.MonthSchedule{
		{Month: 1, Year: 2025},
		{Month: 2, Year: 2025},
		{Month: 3, Year: 2025},
		{Month: 4, Year: 2025},
	}

	toArchive := SelectAutoArchive(current, 5, 2025, 3)
	if len(toArchive) != 2 {
		t.Fatalf("期望归档 2 个月份，实际为 %d", len(toArchive))
	}
	if toArchive[0].Month != 1 || toArchive[1].Month != 2 {
		t.Errorf("期望归档 2025 年 1 月和 2 月，实际为 %+v", toArchive)
	}
}

func TestSelectAutoArchiveDefaultsRetention(t *testing.T) {
	current := []*domain.MonthSchedule{
		{Month: 1, Year: 2025},
		{Month: 2, Year: 2025},
		{Month: 3, Year: 2025},
	}

	toArchive := SelectAutoArchive(current, 4, 2025, 0)
	if len(toArchive) != 1 || toArchive[0].Month != 1 {
		t.Errorf("保留窗口非法时期望使用默认值 %d，实际归档为 %+v", DefaultRetentionMonths, toArchive)
	}
}
