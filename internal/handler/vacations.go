package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

func (h *Handler) CreateVacationRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)

	var req struct {
		StartDate string `json:"startDate" validate:"required"`
		EndDate   string `json:"endDate" validate:"required"`
		TotalDays int    `json:"totalDays" validate:"required,min=1"`
		Reason    string `json:"reason"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startDate, err := utils.ParseDate(req.StartDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	endDate, err := utils.ParseDate(req.EndDate)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	vacation := &domain.VacationRequest{
		OperatorName: myInfo.DisplayName,
		StartDate:    utils.DateOnly(startDate),
		StartLabel:   utils.FormatDate(startDate),
		EndDate:      utils.DateOnly(endDate),
		EndLabel:     utils.FormatDate(endDate),
		TotalDays:    req.TotalDays,
		Reason:       req.Reason,
		Status:       domain.VacationStatusPending,
		Month:        int(startDate.Month()),
		Year:         startDate.Year(),
	}

	if err := roster.ValidateVacationRange(vacation.StartDate, vacation.EndDate, vacation.TotalDays, time.Now()); err != nil {
		h.businessError(w, r, err)
		return
	}

	// 创建时就和其他前台已批准的休假做重叠检测，尽早把冲突暴露出来
	approved, err := h.repository.GetApprovedVacations()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := roster.CheckVacationOverlap(vacation, approved); err != nil {
		h.businessError(w, r, err)
		return
	}

	if err := h.repository.CreateVacationRequest(vacation); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建休假申请成功", vacation)
}

func (h *Handler) GetVacationRequest(w http.ResponseWriter, r *http.Request) {
	vacation := r.Context().Value(VacationRequestCtx).(*domain.VacationRequest)

	h.successResponse(w, r, "获取休假申请成功", vacation)
}

func (h *Handler) GetMyVacationRequests(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)

	vacations, err := h.repository.GetVacationRequestsByOperator(myInfo.DisplayName)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取我的休假申请成功", vacations)
}

func (h *Handler) GetAllVacationRequests(w http.ResponseWriter, r *http.Request) {
	vacations, err := h.repository.GetAllVacationRequests()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有休假申请成功", vacations)
}

func (h *Handler) ApproveVacationRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)
	vacation := r.Context().Value(VacationRequestCtx).(*domain.VacationRequest)

	// 审批时重新做一次重叠检测：创建之后可能有别的休假被批准
	approved, err := h.repository.GetApprovedVacations()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if err := roster.CheckVacationOverlap(vacation, approved); err != nil {
		h.businessError(w, r, err)
		return
	}

	// 休假范围可能跨越多个月份，按时间顺序依次加锁
	for _, idx := range vacationMonthIndexes(vacation) {
		release, err := h.lockMonth(idx%12+1, idx/12)
		if err != nil {
			h.businessError(w, r, err)
			return
		}
		defer release()
	}

	if err := roster.ApproveVacation(vacation, myInfo.DisplayName, time.Now()); err != nil {
		h.businessError(w, r, err)
		return
	}

	// 先持久化审批结果：即使后面的班表写入中途失败，
	// 休假本身也已经批准，重跑审批即可补齐剩余的顶班
	if err := h.repository.UpdateVacationRequest(vacation); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "休假申请已被修改，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	changes, err := h.applyVacationCoverage(vacation)
	if err != nil {
		h.businessError(w, r, err)
		return
	}

	h.notifyVacationDecision(r, vacation, "已批准", "")

	h.successResponse(w, r, "批准休假申请成功", map[string]any{
		"vacation": vacation,
		"coverage": changes,
	})
}

func vacationMonthIndexes(vacation *domain.VacationRequest) []int {
	seen := map[int]bool{}
	indexes := []int{}
	for day := vacation.StartDate; !day.After(vacation.EndDate); day = day.AddDate(0, 0, 1) {
		idx := utils.MonthIndex(day.Year(), int(day.Month()))
		if !seen[idx] {
			seen[idx] = true
			indexes = append(indexes, idx)
		}
	}
	sort.Ints(indexes)
	return indexes
}

func (h *Handler) applyVacationCoverage(vacation *domain.VacationRequest) ([]roster.CoverageChange, error) {
	operators, err := h.repository.GetActiveOperators()
	if err != nil {
		return nil, err
	}

	// 休假范围内存在班表的月份才需要处理，没有班表的月份直接跳过
	schedules := map[int]*domain.MonthSchedule{}
	for _, idx := range vacationMonthIndexes(vacation) {
		schedule, err := h.repository.GetMonthSchedule(idx%12+1, idx/12)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		schedules[idx] = schedule
	}

	changes, err := roster.ApplyVacationCoverage(vacation, schedules, operators)
	if err != nil {
		return nil, err
	}

	// 每个月份的条目作为一个逻辑单元写回；某个月写入失败时，
	// 已写入的月份不回滚，重跑审批是安全的
	for _, idx := range vacationMonthIndexes(vacation) {
		schedule, ok := schedules[idx]
		if !ok {
			continue
		}
		if err := h.repository.UpdateScheduleEntries(schedule); err != nil {
			slog.Error("写入休假顶班失败", "month", schedule.Month, "year", schedule.Year, "error", err)
			if errors.Is(err, sql.ErrNoRows) {
				return changes, &domain.ConflictError{Message: "班表已被其他操作修改，请重新执行审批"}
			}
			return changes, err
		}
	}

	return changes, nil
}

func (h *Handler) RejectVacationRequest(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)
	vacation := r.Context().Value(VacationRequestCtx).(*domain.VacationRequest)

	var req struct {
		Reason string `json:"reason" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := roster.RejectVacation(vacation, myInfo.DisplayName, req.Reason, time.Now()); err != nil {
		h.businessError(w, r, err)
		return
	}

	if err := h.repository.UpdateVacationRequest(vacation); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "休假申请已被修改，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.notifyVacationDecision(r, vacation, "已驳回", req.Reason)

	h.successResponse(w, r, "驳回休假申请成功", vacation)
}

func (h *Handler) notifyVacationDecision(r *http.Request, vacation *domain.VacationRequest, decision string, reason string) {
	operator, err := h.repository.GetOperatorByDisplayName(vacation.OperatorName)
	if err != nil {
		h.logInternalServerError(r, err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: "vacation_decision",
		To:   operator.Email,
		Data: domain.VacationDecisionMailData{
			DisplayName: operator.DisplayName,
			StartDate:   vacation.StartLabel,
			EndDate:     vacation.EndLabel,
			Decision:    decision,
			Reason:      reason,
		},
	}

	if err := h.publishMail(mailMessage); err != nil {
		h.logInternalServerError(r, err)
	}
}
