package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

var adminRoles = []domain.Role{domain.RoleAdmin, domain.RoleSuperAdmin}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Get("/my-info", h.GetMyInfo)

		r.Route("/operators", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleSuperAdmin})).Post("/", h.CreateOperator)
			r.Get("/", h.GetAllOperators) // 所有前台都可以看到其他人的信息
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.operatorInfo)
				r.Get("/", h.GetOperator)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleSuperAdmin})).Patch("/", h.UpdateOperator)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleSuperAdmin})).Delete("/", h.DeleteOperator)
			})
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.GetCurrentSchedules)
			r.Get("/archived", h.GetArchivedSchedules)
			r.Route("/import", func(r chi.Router) {
				r.Use(h.RequiredRole(adminRoles))
				r.Post("/validate", h.ValidateImport)
				r.Post("/confirm", h.ConfirmImport)
			})
			r.Route("/{year}/{month}", func(r chi.Router) {
				r.Use(h.monthScheduleKey)
				r.Get("/", h.GetMonthSchedule)
				r.With(h.RequiredRole(adminRoles)).Post("/archive", h.ArchiveMonthSchedule)
				r.With(h.RequiredRole(adminRoles)).Post("/restore", h.RestoreMonthSchedule)
				r.With(h.RequiredRole(adminRoles)).Post("/toggle-activation", h.ToggleMonthScheduleActivation)
			})
		})

		r.Route("/swaps", func(r chi.Router) {
			r.Post("/", h.CreateSwapRequest)
			r.Get("/", h.GetMySwapRequests)
			r.With(h.RequiredRole(adminRoles)).Get("/all", h.GetAllSwapRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.swapRequest)
				r.Get("/", h.GetSwapRequest)
				r.Post("/respond", h.RespondSwapRequest)
				r.With(h.RequiredRole(adminRoles)).Post("/approve", h.ApproveSwapRequest)
				r.With(h.RequiredRole(adminRoles)).Post("/reject", h.RejectSwapRequest)
			})
		})

		r.Route("/vacations", func(r chi.Router) {
			r.Post("/", h.CreateVacationRequest)
			r.Get("/", h.GetMyVacationRequests)
			r.With(h.RequiredRole(adminRoles)).Get("/all", h.GetAllVacationRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.vacationRequest)
				r.Get("/", h.GetVacationRequest)
				r.With(h.RequiredRole(adminRoles)).Post("/approve", h.ApproveVacationRequest)
				r.With(h.RequiredRole(adminRoles)).Post("/reject", h.RejectVacationRequest)
			})
		})
	})
}
