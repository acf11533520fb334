package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) GetAllOperators(w http.ResponseWriter, r *http.Request) {
	operators, err := h.repository.GetAllOperators()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取前台列表成功", operators)
}

func (h *Handler) GetOperator(w http.ResponseWriter, r *http.Request) {
	operator := r.Context().Value(OperatorInfoCtx).(*domain.Operator)

	h.successResponse(w, r, "获取前台信息成功", operator)
}

func (h *Handler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username           string `json:"username" validate:"required"`
		DisplayName        string `json:"displayName" validate:"required,min=2"`
		Email              string `json:"email" validate:"required,email"`
		Role               string `json:"role" validate:"required,oneof=前台 管理员 超级管理员"`
		HiddenFromSchedule bool   `json:"hiddenFromSchedule"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 生成随机初始密码
	password := utils.GenerateRandomPassword(h.config.NewOperator.PasswordLength)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	operator := &domain.Operator{
		Username:           req.Username,
		PasswordHash:       string(hashedPassword),
		DisplayName:        req.DisplayName,
		Email:              req.Email,
		Role:               domain.Role(req.Role),
		HiddenFromSchedule: req.HiddenFromSchedule,
	}

	if err := h.repository.CreateOperator(operator); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "operators_username_key":
				h.badRequest(w, r, errors.New("用户名已存在"))
			case "operators_display_name_key":
				// 唯一索引建在 LOWER(display_name) 上，大小写不同的同名也会命中
				h.badRequest(w, r, errors.New("名字已被其他前台使用"))
			case "operators_email_key":
				h.badRequest(w, r, errors.New("邮箱已存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 将初始密码通过邮件发给新前台
	mailMessage := domain.MailMessage{
		Type: "create_operator",
		To:   operator.Email,
		Data: domain.CreateOperatorMailData{
			DisplayName: req.DisplayName,
			Username:    req.Username,
			Password:    password,
		},
	}

	if err := h.publishMail(mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "前台创建成功", operator)
}

func (h *Handler) UpdateOperator(w http.ResponseWriter, r *http.Request) {
	operator := r.Context().Value(OperatorInfoCtx).(*domain.Operator)

	var req struct {
		Email              *string `json:"email" validate:"omitempty,email"`
		Role               *string `json:"role" validate:"omitempty,oneof=前台 管理员 超级管理员"`
		IsActive           *bool   `json:"isActive"`
		HiddenFromSchedule *bool   `json:"hiddenFromSchedule"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Email != nil && *req.Email != operator.Email {
		exists, err := h.repository.CheckEmailIfExists(*req.Email)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		if exists {
			h.badRequest(w, r, errors.New("邮箱已被其他前台使用"))
			return
		}
		operator.Email = *req.Email
	}
	if req.Role != nil {
		operator.Role = domain.Role(*req.Role)
	}
	if req.IsActive != nil {
		operator.IsActive = *req.IsActive
	}
	if req.HiddenFromSchedule != nil {
		operator.HiddenFromSchedule = *req.HiddenFromSchedule
	}

	if err := h.repository.UpdateOperator(operator); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "前台信息已被修改，请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新前台信息成功", operator)
}

func (h *Handler) DeleteOperator(w http.ResponseWriter, r *http.Request) {
	operator := r.Context().Value(OperatorInfoCtx).(*domain.Operator)

	if err := h.repository.DeleteOperator(operator.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除前台成功", nil)
}
