package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/roster"
)

func (h *Handler) GetCurrentSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.repository.GetCurrentSchedules()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取当前班表成功", schedules)
}

func (h *Handler) GetArchivedSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.repository.GetArchivedSchedules()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取归档班表成功", schedules)
}

func (h *Handler) GetMonthSchedule(w http.ResponseWriter, r *http.Request) {
	key := r.Context().Value(MonthScheduleCtx).(monthScheduleKey)

	schedule, err := h.repository.GetMonthSchedule(key.Month, key.Year)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("%d/%d 的班表不存在", key.Month, key.Year))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取班表成功", schedule)
}

// 校验导入数据并按日期聚合，不落库。
// 调用方（前端）先展示错误和警告，再决定是否确认导入
func (h *Handler) ValidateImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month int    `json:"month" validate:"required,min=1,max=12"`
		Year  int    `json:"year" validate:"required,min=2000,max=2100"`
		CSV   string `json:"csv" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.validateImportCSV(req.CSV, req.Month, req.Year)
	if err != nil {
		h.businessError(w, r, err)
		return
	}

	h.successResponse(w, r, "校验完成", result)
}

func (h *Handler) validateImportCSV(csv string, month int, year int) (*roster.ValidationResult, error) {
	rows, err := roster.ParseImportRows(strings.NewReader(csv))
	if err != nil {
		return nil, err
	}

	operators, err := h.repository.GetActiveOperators()
	if err != nil {
		return nil, err
	}

	knownNames := make([]string, 0, len(operators))
	for _, op := range operators {
		knownNames = append(knownNames, op.DisplayName)
	}

	return roster.ValidateImport(rows, knownNames, month, year), nil
}

func (h *Handler) ConfirmImport(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)

	var req struct {
		Month        int    `json:"month" validate:"required,min=1,max=12"`
		Year         int    `json:"year" validate:"required,min=2000,max=2100"`
		CSV          string `json:"csv" validate:"required"`
		AllowReplace bool   `json:"allowReplace"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 确认之前重新做一次完整校验
	result, err := h.validateImportCSV(req.CSV, req.Month, req.Year)
	if err != nil {
		h.businessError(w, r, err)
		return
	}
	if !result.IsValid {
		h.writeJSON(w, r, http.StatusOK, Response{
			Success: false,
			Message: "导入数据存在错误，无法确认导入",
			Data:    result,
		})
		return
	}

	release, err := h.lockMonth(req.Month, req.Year)
	if err != nil {
		h.businessError(w, r, err)
		return
	}
	defer release()

	// 该月已存在当前班表时，必须显式确认替换
	replace := false
	if _, err := h.repository.GetMonthSchedule(req.Month, req.Year); err == nil {
		if !req.AllowReplace {
			h.errorResponse(w, r, fmt.Sprintf("%d/%d 已存在班表，替换它需要显式确认", req.Month, req.Year))
			return
		}
		replace = true
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.internalServerError(w, r, err)
		return
	}

	schedule := &domain.MonthSchedule{
		Month:      req.Month,
		Year:       req.Year,
		Entries:    result.Data,
		ImportedBy: myInfo.DisplayName,
	}

	if err := h.repository.CreateMonthSchedule(schedule, replace); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "month_schedules_month_year_key":
			h.errorResponse(w, r, fmt.Sprintf("%d/%d 已存在班表，替换它需要显式确认", req.Month, req.Year))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 导入成功后，把超出保留窗口的旧班表自动归档
	archived, err := h.autoArchive(req.Month, req.Year, myInfo.DisplayName)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "导入班表成功", map[string]any{
		"schedule":   schedule,
		"archived":   archived,
		"validation": result,
	})
}

func (h *Handler) autoArchive(newMonth int, newYear int, by string) ([]string, error) {
	current, err := h.repository.GetCurrentSchedules()
	if err != nil {
		return nil, err
	}

	archived := []string{}
	for _, s := range roster.SelectAutoArchive(current, newMonth, newYear, h.config.Roster.RetentionMonths) {
		// 归档也会改写对应月份的班表，同样需要先拿到月份锁；
		// 拿不到就先跳过，下一次导入会再次尝试归档它
		release, err := h.lockMonth(s.Month, s.Year)
		if err != nil {
			var conflictErr *domain.ConflictError
			if errors.As(err, &conflictErr) {
				slog.Warn("旧班表正在被其他操作修改，本次跳过自动归档", "month", s.Month, "year", s.Year)
				continue
			}
			return nil, err
		}
		err = h.repository.ArchiveMonthSchedule(s.Month, s.Year, by)
		release()
		if err != nil {
			return nil, err
		}
		archived = append(archived, fmt.Sprintf("%d/%d", s.Month, s.Year))
	}

	return archived, nil
}

func (h *Handler) ArchiveMonthSchedule(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.Operator)
	key := r.Context().Value(MonthScheduleCtx).(monthScheduleKey)

	if err := h.repository.ArchiveMonthSchedule(key.Month, key.Year, myInfo.DisplayName); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("%d/%d 的班表不存在", key.Month, key.Year))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "归档班表成功", nil)
}

func (h *Handler) RestoreMonthSchedule(w http.ResponseWriter, r *http.Request) {
	key := r.Context().Value(MonthScheduleCtx).(monthScheduleKey)

	if err := h.repository.RestoreMonthSchedule(key.Month, key.Year); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("%d/%d 没有已归档的班表", key.Month, key.Year))
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "month_schedules_month_year_key":
			h.errorResponse(w, r, fmt.Sprintf("%d/%d 已存在当前班表，无法恢复", key.Month, key.Year))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "恢复班表成功", nil)
}

func (h *Handler) ToggleMonthScheduleActivation(w http.ResponseWriter, r *http.Request) {
	key := r.Context().Value(MonthScheduleCtx).(monthScheduleKey)

	isActive, err := h.repository.ToggleMonthScheduleActivation(key.Month, key.Year)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("%d/%d 的班表不存在", key.Month, key.Year))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "切换班表启用状态成功", map[string]bool{"isActive": isActive})
}
