package domain

import "time"

type ShiftSlot string

const (
	ShiftHalfDay ShiftSlot = "halfDay"
	ShiftClosing ShiftSlot = "closing"
)

// 一天的班表，两个班次各自最多只有一个前台，也可以为空
type ScheduleEntry struct {
	Date            time.Time `json:"-"`
	DateLabel       string    `json:"date"`      // DD/MM/YYYY
	DayOfWeek       string    `json:"dayOfWeek"` // 由日期推导出来的星期标签
	HalfDayOperator string    `json:"halfDayOperator"`
	ClosingOperator string    `json:"closingOperator"`
}

func (e *ScheduleEntry) Slot(slot ShiftSlot) string {
	if slot == ShiftHalfDay {
		return e.HalfDayOperator
	}
	return e.ClosingOperator
}

func (e *ScheduleEntry) SetSlot(slot ShiftSlot, operatorName string) {
	if slot == ShiftHalfDay {
		e.HalfDayOperator = operatorName
		return
	}
	e.ClosingOperator = operatorName
}

type MonthSchedule struct {
	ID         int64           `json:"id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Entries    []ScheduleEntry `json:"entries"` // 按日期升序，每个日期最多一条
	ImportedBy string          `json:"importedBy"`
	ImportedAt time.Time       `json:"importedAt"`
	IsActive   bool            `json:"isActive"`
	Archived   bool            `json:"archived"`
	ArchivedBy *string         `json:"archivedBy,omitempty"`
	ArchivedAt *time.Time      `json:"archivedAt,omitempty"`
	Version    int32           `json:"-"`
}

// 在该月班表中按日期查找对应的条目
func (s *MonthSchedule) EntryOn(date time.Time) *ScheduleEntry {
	for i := range s.Entries {
		if s.Entries[i].Date.Equal(date) {
			return &s.Entries[i]
		}
	}
	return nil
}
