package roster

import (
	"fmt"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

// 检查换班申请的前提：申请人当前持有原班次，对方当前持有目标班次。
// 创建时和审批时各检查一次，两次检查之间班表可能已被其他流程改动，
// 所以审批时的检查失败要返回冲突而不能直接覆盖。
func CheckSwapAssumptions(swap *domain.SwapRequest, originalSchedule *domain.MonthSchedule, targetSchedule *domain.MonthSchedule) error {
	if originalSchedule == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("%d/%d 的班表不存在", swap.OriginalDate.Month(), swap.OriginalDate.Year())}
	}
	if targetSchedule == nil {
		return &domain.NotFoundError{Message: fmt.Sprintf("%d/%d 的班表不存在", swap.TargetDate.Month(), swap.TargetDate.Year())}
	}

	originalEntry := originalSchedule.EntryOn(swap.OriginalDate)
	if originalEntry == nil || !strings.EqualFold(originalEntry.Slot(swap.OriginalShift), swap.RequesterName) {
		return &domain.ConflictError{
			Message: fmt.Sprintf("%s 的 %s 班次不再由 %s 持有", utils.FormatDate(swap.OriginalDate), swap.OriginalShift, swap.RequesterName),
		}
	}

	targetEntry := targetSchedule.EntryOn(swap.TargetDate)
	if targetEntry == nil || !strings.EqualFold(targetEntry.Slot(swap.TargetShift), swap.TargetName) {
		return &domain.ConflictError{
			Message: fmt.Sprintf("%s 的 %s 班次不再由 %s 持有", utils.FormatDate(swap.TargetDate), swap.TargetShift, swap.TargetName),
		}
	}

	return nil
}

// 对方接受或拒绝换班申请
func RespondToSwap(swap *domain.SwapRequest, responder string, accept bool, now time.Time) error {
	if !strings.EqualFold(swap.TargetName, responder) {
		return &domain.StateError{Message: "只有换班申请的对方可以响应该申请"}
	}
	if swap.Status != domain.SwapStatusPending {
		return &domain.StateError{Message: fmt.Sprintf("无法响应处于 %s 状态的换班申请", swap.Status)}
	}

	if accept {
		swap.Status = domain.SwapStatusAccepted
	} else {
		swap.Status = domain.SwapStatusRejected
	}
	swap.RespondedBy = &responder
	swap.RespondedAt = &now

	return nil
}

// 管理员审批通过。只允许从 accepted 状态进入 approved，
// 同时检查班表是否仍然符合创建申请时的前提。
// 通过检查后直接在内存中交换两个班次，由调用方负责原子地持久化
// （两个条目可能位于不同月份的班表中，必须要么都写入要么都不写入）。
func ApproveSwap(swap *domain.SwapRequest, admin string, originalSchedule *domain.MonthSchedule, targetSchedule *domain.MonthSchedule, now time.Time) error {
	if swap.Status != domain.SwapStatusAccepted {
		return &domain.StateError{Message: fmt.Sprintf("只能审批已被对方接受的换班申请，当前状态为 %s", swap.Status)}
	}

	if err := CheckSwapAssumptions(swap, originalSchedule, targetSchedule); err != nil {
		return err
	}

	originalSchedule.EntryOn(swap.OriginalDate).SetSlot(swap.OriginalShift, swap.TargetName)
	targetSchedule.EntryOn(swap.TargetDate).SetSlot(swap.TargetShift, swap.RequesterName)

	swap.Status = domain.SwapStatusApproved
	swap.AdminApprovedBy = &admin
	swap.AdminApprovedAt = &now

	return nil
}

// 管理员驳回。pending 和 accepted 状态都允许驳回，不影响班表
func RejectSwap(swap *domain.SwapRequest, admin string, now time.Time) error {
	if swap.IsTerminal() {
		return &domain.StateError{Message: fmt.Sprintf("换班申请已处于终态 %s", swap.Status)}
	}

	swap.Status = domain.SwapStatusRejected
	swap.AdminApprovedBy = &admin
	swap.AdminApprovedAt = &now

	return nil
}
