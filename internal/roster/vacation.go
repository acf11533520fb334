package roster

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

// 两个闭区间日期范围是否重叠
func RangesOverlap(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}

// 校验休假申请的日期范围。totalDays 是调用方声明的天数，
// 必须和按日历计算出来的天数一致（周末和节假日不扣除）。
func ValidateVacationRange(start, end time.Time, totalDays int, now time.Time) error {
	if end.Before(start) {
		return &domain.ValidationError{Message: "结束日期不能早于开始日期"}
	}
	if start.Before(utils.DateOnly(now)) {
		return &domain.ValidationError{Message: "开始日期不能是过去的日期"}
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days != totalDays {
		return &domain.ValidationError{Message: fmt.Sprintf("声明的天数 %d 与实际天数 %d 不一致", totalDays, days)}
	}
	return nil
}

// 检查和其他前台已批准的休假是否重叠。
// 同一个前台自己的重复申请不在这里拦截，由前端提示。
func CheckVacationOverlap(req *domain.VacationRequest, approved []*domain.VacationRequest) error {
	for _, other := range approved {
		if strings.EqualFold(other.OperatorName, req.OperatorName) {
			continue
		}
		if other.Status != domain.VacationStatusApproved {
			continue
		}
		if RangesOverlap(req.StartDate, req.EndDate, other.StartDate, other.EndDate) {
			return &domain.ConflictError{
				Message: fmt.Sprintf("与前台 %s 已批准的休假（%s 至 %s）重叠", other.OperatorName, other.StartLabel, other.EndLabel),
			}
		}
	}
	return nil
}

// 统计某个月班表中每个前台持有的班次总数（半天班 + 闭馆班）
func SlotCounts(schedule *domain.MonthSchedule) map[string]int {
	counts := make(map[string]int)
	for i := range schedule.Entries {
		entry := &schedule.Entries[i]
		if entry.HalfDayOperator != "" {
			counts[strings.ToLower(entry.HalfDayOperator)]++
		}
		if entry.ClosingOperator != "" {
			counts[strings.ToLower(entry.ClosingOperator)]++
		}
	}
	return counts
}

// 最少班次优先：在除休假者之外的所有在职且未隐藏的前台中，
// 选出当月班次数最少的一个，数量相同时按名字顺序取第一个。
func PickReplacement(operators []*domain.Operator, counts map[string]int, excludeName string) (string, error) {
	candidates := []*domain.Operator{}
	for _, op := range operators {
		if !op.IsActive || op.HiddenFromSchedule {
			continue
		}
		if strings.EqualFold(op.DisplayName, excludeName) {
			continue
		}
		candidates = append(candidates, op)
	}
	if len(candidates) == 0 {
		return "", &domain.NotFoundError{Message: "没有可用的顶班前台"}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return strings.ToLower(candidates[i].DisplayName) < strings.ToLower(candidates[j].DisplayName)
	})

	best := candidates[0]
	bestCount := counts[strings.ToLower(best.DisplayName)]
	for _, c := range candidates[1:] {
		if n := counts[strings.ToLower(c.DisplayName)]; n < bestCount {
			best = c
			bestCount = n
		}
	}

	return best.DisplayName, nil
}

// 管理员批准休假。已经是 approved 的申请允许重复批准：
// 班表写入在中途失败后，重跑审批是安全的恢复手段
func ApproveVacation(req *domain.VacationRequest, admin string, now time.Time) error {
	switch req.Status {
	case domain.VacationStatusRejected:
		return &domain.StateError{Message: "休假申请已被驳回"}
	case domain.VacationStatusApproved:
		return nil
	}

	req.Status = domain.VacationStatusApproved
	req.ApprovedBy = &admin
	req.ApprovedAt = &now

	return nil
}

// 管理员驳回休假，必须说明理由，不影响班表
func RejectVacation(req *domain.VacationRequest, admin string, reason string, now time.Time) error {
	if req.Status != domain.VacationStatusPending {
		return &domain.StateError{Message: fmt.Sprintf("只能驳回待审批的休假申请，当前状态为 %s", req.Status)}
	}
	if strings.TrimSpace(reason) == "" {
		return &domain.ValidationError{Message: "驳回休假申请必须填写理由"}
	}

	req.Status = domain.VacationStatusRejected
	req.ApprovedBy = &admin
	req.ApprovedAt = &now
	req.RejectionReason = &reason

	return nil
}

// 休假期间单独一天的顶班结果
type CoverageChange struct {
	Date        time.Time        `json:"-"`
	DateLabel   string           `json:"date"`
	Slot        domain.ShiftSlot `json:"slot"`
	Replacement string           `json:"replacement"`
}

// 为休假范围内的每一天计算顶班安排，并直接改写传入的班表。
// schedules 以 (year, month) 的月序号为键；某一天所在的月份没有班表时
// 跳过该天（不报错，休假本身照常批准）。每一天的替换都是独立的幂等操作，
// 重复执行不会产生进一步的变化。
func ApplyVacationCoverage(req *domain.VacationRequest, schedules map[int]*domain.MonthSchedule, operators []*domain.Operator) ([]CoverageChange, error) {
	changes := []CoverageChange{}

	for day := req.StartDate; !day.After(req.EndDate); day = day.AddDate(0, 0, 1) {
		schedule := schedules[utils.MonthIndex(day.Year(), int(day.Month()))]
		if schedule == nil {
			continue
		}

		entry := schedule.EntryOn(utils.DateOnly(day))
		if entry == nil {
			continue
		}

		for _, slot := range []domain.ShiftSlot{domain.ShiftHalfDay, domain.ShiftClosing} {
			if !strings.EqualFold(entry.Slot(slot), req.OperatorName) {
				continue
			}

			// 班次数要基于当前（可能已被前几天的顶班改写过的）班表重新统计
			replacement, err := PickReplacement(operators, SlotCounts(schedule), req.OperatorName)
			if err != nil {
				return changes, err
			}

			entry.SetSlot(slot, replacement)
			changes = append(changes, CoverageChange{
				Date:        entry.Date,
				DateLabel:   entry.DateLabel,
				Slot:        slot,
				Replacement: replacement,
			})
		}
	}

	return changes, nil
}
