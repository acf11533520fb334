package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

func testDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func testSchedule(month int, year int, entries ...domain.ScheduleEntry) *domain.MonthSchedule {
	return &domain.MonthSchedule{
		Month:   month,
		Year:    year,
		Entries: entries,
	}
}

func testEntry(date time.Time, halfDay string, closing string) domain.ScheduleEntry {
	return domain.ScheduleEntry{
		Date:            date,
		DateLabel:       utils.FormatDate(date),
		DayOfWeek:       utils.WeekdayLabel(date),
		HalfDayOperator: halfDay,
		ClosingOperator: closing,
	}
}

func testSwap() *domain.SwapRequest {
	return &domain.SwapRequest{
		RequesterName: "张伟",
		TargetName:    "李娜",
		OriginalDate:  testDate(2025, time.March, 10),
		OriginalLabel: "10/03/2025",
		OriginalShift: domain.ShiftHalfDay,
		TargetDate:    testDate(2025, time.March, 12),
		TargetLabel:   "12/03/2025",
		TargetShift:   domain.ShiftClosing,
		Status:        domain.SwapStatusPending,
	}
}

func TestCheckSwapAssumptions(t *testing.T) {
	swap := testSwap()
	schedule := testSchedule(3, 2025,
		testEntry(swap.OriginalDate, "张伟", "王强"),
		testEntry(swap.TargetDate, "王强", "李娜"),
	)

	if err := CheckSwapAssumptions(swap, schedule, schedule); err != nil {
		t.Fatalf("双方都持有各自班次时检查不应失败：%v", err)
	}

	var notFoundErr *domain.NotFoundError
	if err := CheckSwapAssumptions(swap, nil, schedule); !errors.As(err, &notFoundErr) {
		t.Errorf("班表不存在时期望返回未找到错误，实际为 %v", err)
	}

	// 原班次已被改动
	schedule.EntryOn(swap.OriginalDate).SetSlot(domain.ShiftHalfDay, "王强")
	var conflictErr *domain.ConflictError
	if err := CheckSwapAssumptions(swap, schedule, schedule); !errors.As(err, &conflictErr) {
		t.Errorf("申请人不再持有原班次时期望返回冲突错误，实际为 %v", err)
	}
}

func TestRespondToSwap(t *testing.T) {
	now := time.Now()

	swap := testSwap()
	if err := RespondToSwap(swap, "王强", true, now); err == nil {
		t.Error("非对方前台响应申请时期望返回错误")
	}

	if err := RespondToSwap(swap, "李娜", true, now); err != nil {
		t.Fatalf("对方接受申请失败：%v", err)
	}
	if swap.Status != domain.SwapStatusAccepted || swap.RespondedBy == nil || *swap.RespondedBy != "李娜" {
		t.Errorf("接受后状态不正确：%+v", swap)
	}

	// 已接受的申请不能再次响应
	var stateErr *domain.StateError
	if err := RespondToSwap(swap, "李娜", false, now); !errors.As(err, &stateErr) {
		t.Errorf("重复响应时期望返回状态错误，实际为 %v", err)
	}

	declined := testSwap()
	if err := RespondToSwap(declined, "李娜", false, now); err != nil {
		t.Fatalf("对方拒绝申请失败：%v", err)
	}
	if declined.Status != domain.SwapStatusRejected {
		t.Errorf("拒绝后期望状态为 rejected，实际为 %s", declined.Status)
	}
}

func TestApproveSwapRequiresAccepted(t *testing.T) {
	swap := testSwap()
	schedule := testSchedule(3, 2025,
		testEntry(swap.OriginalDate, "张伟", "王强"),
		testEntry(swap.TargetDate, "王强", "李娜"),
	)

	// pending 状态不能直接审批，必须先由对方接受
	var stateErr *domain.StateError
	if err := ApproveSwap(swap, "管理员", schedule, schedule, time.Now()); !errors.As(err, &stateErr) {
		t.Fatalf("审批未被接受的申请时期望返回状态错误，实际为 %v", err)
	}
	if schedule.EntryOn(swap.OriginalDate).HalfDayOperator != "张伟" {
		t.Error("审批失败时不应改动班表")
	}
}

func TestApproveSwapSwapsSlots(t *testing.T) {
	swap := testSwap()
	swap.Status = domain.SwapStatusAccepted
	schedule := testSchedule(3, 2025,
		testEntry(swap.OriginalDate, "张伟", "王强"),
		testEntry(swap.TargetDate, "王强", "李娜"),
	)

	if err := ApproveSwap(swap, "管理员", schedule, schedule, time.Now()); err != nil {
		t.Fatalf("审批失败：%v", err)
	}
	if swap.Status != domain.SwapStatusApproved {
		t.Errorf("审批后期望状态为 approved，实际为 %s", swap.Status)
	}
	if got := schedule.EntryOn(swap.OriginalDate).HalfDayOperator; got != "李娜" {
		t.Errorf("原班次期望换成李娜，实际为 %q", got)
	}
	if got := schedule.EntryOn(swap.TargetDate).ClosingOperator; got != "张伟" {
		t.Errorf("目标班次期望换成张伟，实际为 %q", got)
	}
	// 未涉及的班次保持不变
	if got := schedule.EntryOn(swap.OriginalDate).ClosingOperator; got != "王强" {
		t.Errorf("无关班次不应被改动，实际为 %q", got)
	}
}

func TestApproveSwapAcrossMonths(t *testing.T) {
	swap := testSwap()
	swap.Status = domain.SwapStatusAccepted
	swap.TargetDate = testDate(2025, time.April, 2)
	swap.TargetLabel = "02/04/2025"

	march := testSchedule(3, 2025, testEntry(swap.OriginalDate, "张伟", "王强"))
	april := testSchedule(4, 2025, testEntry(swap.TargetDate, "王强", "李娜"))

	if err := ApproveSwap(swap, "管理员", march, april, time.Now()); err != nil {
		t.Fatalf("跨月审批失败：%v", err)
	}
	if march.EntryOn(swap.OriginalDate).HalfDayOperator != "李娜" {
		t.Error("三月班表的原班次没有被换掉")
	}
	if april.EntryOn(swap.TargetDate).ClosingOperator != "张伟" {
		t.Error("四月班表的目标班次没有被换掉")
	}
}

func TestApproveSwapDetectsStaleAssumptions(t *testing.T) {
	swap := testSwap()
	swap.Status = domain.SwapStatusAccepted
	schedule := testSchedule(3, 2025,
		testEntry(swap.OriginalDate, "张伟", "王强"),
		testEntry(swap.TargetDate, "王强", "王强"), // 目标班次已不属于李娜
	)

	var conflictErr *domain.ConflictError
	if err := ApproveSwap(swap, "管理员", schedule, schedule, time.Now()); !errors.As(err, &conflictErr) {
		t.Fatalf("前提不再成立时期望返回冲突错误，实际为 %v", err)
	}
	if swap.Status != domain.SwapStatusAccepted {
		t.Errorf("冲突时申请状态不应改变，实际为 %s", swap.Status)
	}
	if schedule.EntryOn(swap.OriginalDate).HalfDayOperator != "张伟" {
		t.Error("冲突时班表不应被改动")
	}
}

func TestRejectSwap(t *testing.T) {
	now := time.Now()

	swap := testSwap()
	if err := RejectSwap(swap, "管理员", now); err != nil {
		t.Fatalf("驳回待响应的申请失败：%v", err)
	}
	if swap.Status != domain.SwapStatusRejected {
		t.Errorf("驳回后期望状态为 rejected，实际为 %s", swap.Status)
	}

	// 终态的申请不能再被驳回
	var stateErr *domain.StateError
	if err := RejectSwap(swap, "管理员", now); !errors.As(err, &stateErr) {
		t.Errorf("驳回终态申请时期望返回状态错误，实际为 %v", err)
	}

	accepted := testSwap()
	accepted.Status = domain.SwapStatusAccepted
	if err := RejectSwap(accepted, "管理员", now); err != nil {
		t.Errorf("管理员应当可以驳回已被对方接受的申请：%v", err)
	}
}
