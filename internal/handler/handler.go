package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// Store 是 handler 用到的持久化方法，由 repository.Repository 实现
type Store interface {
	GetTimelineByID(ctx context.Context, id int64) (*domain.Timeline, error)
	GetExistingShiftPlans(ctx context.Context, timelineID int64) ([]domain.ShiftPlan, error)
	GetWorklines(ctx context.Context, ids []int64) ([]domain.Workline, error)
	GetShiftPlan(ctx context.Context, id int64) (*domain.ShiftPlan, error)
	SetShiftPlanLifecycle(ctx context.Context, id int64, lc domain.Lifecycle) error
	ApplyShiftPlanChanges(ctx context.Context, deleteIDs []int64, deletedAt time.Time, plans []domain.ShiftPlan) error

	GetAllRotationTemplates(ctx context.Context) ([]*domain.RotationTemplate, error)
	GetRotationTemplate(ctx context.Context, id int64) (*domain.RotationTemplate, error)
	CreateRotationTemplate(ctx context.Context, template *domain.RotationTemplate) error
	DeleteRotationTemplate(ctx context.Context, id int64) error

	GetVacancyByID(ctx context.Context, id int64) (*domain.Vacancy, error)
	SaveVacancyCache(ctx context.Context, vacancy *domain.Vacancy) error

	SetStakeholderOptionOverride(ctx context.Context, tenantID int64, key string, value int) error
	GetStakeholderOptionOverrides(ctx context.Context, tenantID int64) (map[string]int, error)
}

// JobPublisher 把缓存重算任务发送到消息队列
type JobPublisher interface {
	Publish(ctx context.Context, job *domain.RecalcJob) error
}

type OptionsProvider interface {
	Options(ctx context.Context, tenantID int64) (domain.StakeholderOptions, error)
	Invalidate(ctx context.Context, tenantID int64) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	store      Store
	translator ut.Translator
	publisher  JobPublisher
	options    OptionsProvider

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, store Store, publisher JobPublisher, opts OptionsProvider) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		store:      store,
		translator: trans,
		publisher:  publisher,
		options:    opts,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(middleware.RequestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.config.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// 无状态的计算接口
	h.Mux.Route("/time", func(r chi.Router) {
		r.Post("/wall-to-instant", h.WallToInstant)
		r.Post("/instant-to-wall", h.InstantToWall)
	})
	h.Mux.Route("/periods", func(r chi.Router) {
		r.Post("/intersect", h.PeriodsIntersect)
		r.Post("/contains", h.PeriodContains)
	})
	h.Mux.Post("/deviations/classify", h.ClassifyDeviation)
	h.Mux.Post("/billing", h.ComputeBilling)

	h.Mux.Route("/timelines/{id}", func(r chi.Router) {
		r.Use(h.timeline)
		r.Get("/cache", h.GetTimelineCache)
		r.Post("/overlaps", h.DetectTimelineOverlaps)
		r.Post("/plans/{planID}/delete", h.DeleteShiftPlan)
		r.Post("/plans/{planID}/restore", h.RestoreShiftPlan)
	})

	h.Mux.Route("/rotation-templates", func(r chi.Router) {
		r.Post("/", h.CreateRotationTemplate)
		r.Get("/", h.GetAllRotationTemplates)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.rotationTemplate)
			r.Get("/", h.GetRotationTemplate)
			r.Delete("/", h.DeleteRotationTemplate)
			r.Post("/generate", h.GenerateShifts)
		})
	})

	h.Mux.Route("/vacancies/{id}", func(r chi.Router) {
		r.Use(h.vacancy)
		r.Get("/cache", h.GetVacancyCache)
		r.Post("/responses", h.ApplyVacancyResponse)
	})

	h.Mux.Post("/cache/recalculate", h.RecalculateCache)

	h.Mux.Route("/tenants/{tenantID}/options", func(r chi.Router) {
		r.Get("/", h.GetStakeholderOptions)
		r.Put("/", h.UpdateStakeholderOptions)
	})
}
