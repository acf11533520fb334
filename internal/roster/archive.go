package roster

import (
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

// 当前班表的保留窗口：最多同时保留 3 个月
const DefaultRetentionMonths = 3

// 在导入 (newYear, newMonth) 之后，从当前班表中选出需要自动归档的那些。
// 规则：与最新月份（含刚导入的月份）相差达到保留窗口的月份移出当前集合，
// 这样当前班表的数量永远不会超过窗口大小。
func SelectAutoArchive(current []*domain.MonthSchedule, newMonth int, newYear int, retentionMonths int) []*domain.MonthSchedule {
	if retentionMonths <= 0 {
		retentionMonths = DefaultRetentionMonths
	}

	newest := utils.MonthIndex(newYear, newMonth)
	for _, s := range current {
		if idx := utils.MonthIndex(s.Year, s.Month); idx > newest {
			newest = idx
		}
	}

	toArchive := []*domain.MonthSchedule{}
	for _, s := range current {
		if newest-utils.MonthIndex(s.Year, s.Month) >= retentionMonths {
			toArchive = append(toArchive, s)
		}
	}

	return toArchive
}
