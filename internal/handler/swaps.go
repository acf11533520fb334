package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

func (h *Handler) CreateSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)

	var req struct {
		TargetName    string `json:"targetName" validate:"required"`
		OriginalDate  string `json:"originalDate" validate:"required"`
		OriginalShift string `json:"originalShift" validate:"required,oneof=halfDay closing"`
		TargetDate    string `json:"targetDate" validate:"required"`
		TargetShift   string `json:"targetShift" validate:"required,oneof=halfDay closing"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	originalDate, err := utils.ParseDate(req.OriginalDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	targetDate, err := utils.ParseDate(req.TargetDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 对方必须是已注册的在职前台
	target, err := h.repository.GetOperatorByDisplayName(req.TargetName)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "对方前台不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if !target.IsActive {
		h.errorResponse(w, r, "对方前台已离职")
		return
	}

	swap := &domain.SwapRequest{
		RequesterName: myInfo.DisplayName,
		TargetName:    target.DisplayName,
		OriginalDate:  utils.DateOnly(originalDate),
		OriginalLabel: utils.FormatDate(originalDate),
		OriginalShift: domain.ShiftSlot(req.OriginalShift),
		TargetDate:    utils.DateOnly(targetDate),
		TargetLabel:   utils.FormatDate(targetDate),
		TargetShift:   domain.ShiftSlot(req.TargetShift),
		Status:        domain.SwapStatusPending,
	}

	// 创建时检查一次换班前提，审批时还会再检查一次
	originalSchedule, targetSchedule, err := h.loadSwapSchedules(swap)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := roster.CheckSwapAssumptions(swap, originalSchedule, targetSchedule); err != nil {
		h.businessError(w, r, err)
		return
	}

	if err := h.repository.CreateSwapRequest(swap); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建换班申请成功", swap)
}

// 加载换班申请涉及的两个月份的班表，月份不存在时对应位置为 nil
func (h *Handler) loadSwapSchedules(swap *domain.SwapRequest) (*domain.MonthSchedule, *domain.MonthSchedule, error) {
	originalSchedule, err := h.repository.GetMonthSchedule(int(swap.OriginalDate.Month()), swap.OriginalDate.Year())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, err
	}

	if swap.TargetDate.Year() == swap.OriginalDate.Year() && swap.TargetDate.Month() == swap.OriginalDate.Month() {
		return originalSchedule, originalSchedule, nil
	}

	targetSchedule, err := h.repository.GetMonthSchedule(int(swap.TargetDate.Month()), swap.TargetDate.Year())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, err
	}

	return originalSchedule, targetSchedule, nil
}

func (h *Handler) GetSwapRequest(w http.ResponseWriter, r *http.Request) {
	swap := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	h.successResponse(w, r, "获取换班申请成功", swap)
}

func (h *Handler) GetMySwapRequests(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)

	swaps, err := h.repository.GetSwapRequestsByOperator(myInfo.DisplayName)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取我的换班申请成功", swaps)
}

func (h *Handler) GetAllSwapRequests(w http.ResponseWriter, r *http.Request) {
	swaps, err := h.repository.GetAllSwapRequests()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有换班申请成功", swaps)
}

func (h *Handler) RespondSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)
	swap := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	var req struct {
		Action string `json:"action" validate:"required,oneof=accept reject"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := roster.RespondToSwap(swap, myInfo.DisplayName, req.Action == "accept", time.Now()); err != nil {
		h.businessError(w, r, err)
		return
	}

	if err := h.repository.UpdateSwapRequest(swap); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "换班申请已被修改，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	decision := "对方已拒绝"
	if req.Action == "accept" {
		decision = "对方已接受"
	}
	h.notifySwapDecision(r, swap, swap.RequesterName, decision)

	h.successResponse(w, r, "响应换班申请成功", swap)
}

func (h *Handler) ApproveSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)
	swap := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	// 两个月份都要加锁，固定按时间顺序加锁避免互相等待
	months := [][2]int{{int(swap.OriginalDate.Month()), swap.OriginalDate.Year()}}
	if utils.MonthIndex(swap.TargetDate.Year(), int(swap.TargetDate.Month())) != utils.MonthIndex(swap.OriginalDate.Year(), int(swap.OriginalDate.Month())) {
		months = append(months, [2]int{int(swap.TargetDate.Month()), swap.TargetDate.Year()})
		if utils.MonthIndex(months[1][1], months[1][0]) < utils.MonthIndex(months[0][1], months[0][0]) {
			months[0], months[1] = months[1], months[0]
		}
	}

	for _, m := range months {
		release, err := h.lockMonth(m[0], m[1])
		if err != nil {
			h.businessError(w, r, err)
			return
		}
		defer release()
	}

	originalSchedule, targetSchedule, err := h.loadSwapSchedules(swap)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := roster.ApproveSwap(swap, myInfo.DisplayName, originalSchedule, targetSchedule, time.Now()); err != nil {
		h.businessError(w, r, err)
		return
	}

	// 两个月份的班表和申请状态要么都写入，要么都不写入
	if err := h.repository.ApplyApprovedSwap(swap, originalSchedule, targetSchedule); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "班表或申请已被其他操作修改，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notifySwapDecision(r, swap, swap.RequesterName, "管理员已批准")
	h.notifySwapDecision(r, swap, swap.TargetName, "管理员已批准")

	h.successResponse(w, r, "批准换班申请成功", swap)
}

func (h *Handler) RejectSwapRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)
	swap := r.Context().Value(SwapRequestCtx).(*domain.SwapRequest)

	if err := roster.RejectSwap(swap, myInfo.DisplayName, time.Now()); err != nil {
		h.businessError(w, r, err)
		return
	}

	if err := h.repository.UpdateSwapRequest(swap); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "换班申请已被修改，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notifySwapDecision(r, swap, swap.RequesterName, "管理员已驳回")

	h.successResponse(w, r, "驳回换班申请成功", swap)
}

// 给换班申请的相关前台发送决定通知，发信失败只记日志不影响主流程
func (h *Handler) notifySwapDecision(r *http.Request, swap *domain.SwapRequest, displayName string, decision string) {
	operator, err := h.repository.GetOperatorByDisplayName(displayName)
	if err != nil {
		h.logInternalServerError(r, err)
		return
	}

	peer := swap.TargetName
	if operator.DisplayName == swap.TargetName {
		peer = swap.RequesterName
	}

	mailMessage := domain.MailMessage{
		Type: "swap_decision",
		To:   operator.Email,
		Data: domain.SwapDecisionMailData{
			DisplayName:  operator.DisplayName,
			PeerName:     peer,
			OriginalDate: swap.OriginalLabel,
			TargetDate:   swap.TargetLabel,
			Decision:     decision,
		},
	}

	if err := h.publishMail(mailMessage); err != nil {
		h.logInternalServerError(r, err)
	}
}
