package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/overlap"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

func (h *Handler) GetAllRotationTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.GetAllRotationTemplates(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有轮班模板成功", templates)
}

func (h *Handler) CreateRotationTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              string            `json:"name" validate:"required"`
		ApplyType         string            `json:"applyType" validate:"required,oneof=weekday days-on-off"`
		StartingPointDate *domain.LocalDate `json:"startingPointDate"`
		CycleLength       *int              `json:"cycleLength"`
		Cells             []struct {
			DayInfoCode     string           `json:"dayInfoCode" validate:"required"`
			TimeFrom        domain.LocalTime `json:"timeFrom"`
			DurationMinutes int              `json:"durationMinutes" validate:"required,gte=1"`
			ShiftTypeID     int64            `json:"shiftTypeID" validate:"required"`
			WorklineID      *int64           `json:"worklineID"`
		} `json:"cells" validate:"required,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	applyType, err := domain.ParseApplyType(req.ApplyType)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	template := &domain.RotationTemplate{
		Name:              req.Name,
		ApplyType:         applyType,
		StartingPointDate: req.StartingPointDate,
		CycleLength:       req.CycleLength,
		Cells:             make([]domain.TemplateCell, 0, len(req.Cells)),
	}
	for _, cell := range req.Cells {
		template.Cells = append(template.Cells, domain.TemplateCell{
			DayInfoCode:     cell.DayInfoCode,
			TimeFrom:        cell.TimeFrom,
			DurationMinutes: cell.DurationMinutes,
			ShiftTypeID:     cell.ShiftTypeID,
			WorklineID:      cell.WorklineID,
		})
	}

	// 借助生成器做一次完整校验，时区不影响模板本身是否合法
	if _, err := scheduler.New(template, "UTC"); err != nil {
		h.domainError(w, r, err, "")
		return
	}

	if err := h.store.CreateRotationTemplate(r.Context(), template); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "rotation_templates_name_key":
				h.errorResponse(w, r, "模板名称已存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建模板成功", template)
}

func (h *Handler) GetRotationTemplate(w http.ResponseWriter, r *http.Request) {
	template := r.Context().Value(RotationTemplateCtx).(*domain.RotationTemplate)

	h.successResponse(w, r, "获取模板成功", template)
}

func (h *Handler) DeleteRotationTemplate(w http.ResponseWriter, r *http.Request) {
	template := r.Context().Value(RotationTemplateCtx).(*domain.RotationTemplate)

	if err := h.store.DeleteRotationTemplate(r.Context(), template.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除模板成功", nil)
}

// GenerateShifts 把模板展开到某个员工的排班上；未指定时间段时使用 monthCode，再没有则使用排班所在的月份
func (h *Handler) GenerateShifts(w http.ResponseWriter, r *http.Request) {
	template := r.Context().Value(RotationTemplateCtx).(*domain.RotationTemplate)

	var req struct {
		TimelineID int64             `json:"timelineID" validate:"required"`
		MonthCode  string            `json:"monthCode"`
		From       *domain.LocalDate `json:"from"`
		To         *domain.LocalDate `json:"to" validate:"required_with=From"`
		VacancyID  *int64            `json:"vacancyID"`
		Policy     overlap.Policy    `json:"policy"`
		Commit     bool              `json:"commit"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	tl, err := h.store.GetTimelineByID(r.Context(), req.TimelineID)
	if err != nil {
		h.domainError(w, r, err, "排班不存在")
		return
	}

	s, err := scheduler.New(template, tl.TimeZone)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	period, err := generationPeriod(tl, req.MonthCode, req.From, req.To)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	shifts, err := s.Schedule(period)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	plans := scheduler.ToPlans(shifts, tl.ID, req.VacancyID)
	check, err := h.checkOverlaps(r.Context(), tl, plans)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	out := &planResult{Plans: plans, Overlap: check.Result}
	if req.Commit {
		if err := h.commitPlans(r.Context(), tl, plans, check, req.Policy, out); err != nil {
			h.domainError(w, r, err, "")
			return
		}
	}

	h.successResponse(w, r, "生成班次成功", out)
}

// generationPeriod 排班只覆盖一个月，生成的时间段必须落在该月之内
func generationPeriod(tl *domain.Timeline, monthCode string, from, to *domain.LocalDate) (timeconv.Period, error) {
	month, err := timeconv.MonthPeriod(tl.MonthCode)
	if err != nil {
		return timeconv.Period{}, err
	}

	var period timeconv.Period
	switch {
	case from != nil:
		period = timeconv.Period{From: *from, To: *to}
	case monthCode != "":
		if period, err = timeconv.MonthPeriod(monthCode); err != nil {
			return timeconv.Period{}, err
		}
	default:
		return month, nil
	}
	if err := period.Validate(); err != nil {
		return timeconv.Period{}, err
	}

	if period.From.Before(month.From) || period.To.After(month.To) {
		return timeconv.Period{}, fmt.Errorf("%w: %s 至 %s 不在排班月份 %s 之内", domain.ErrInvalidPeriod, period.From, period.To, tl.MonthCode)
	}
	return period, nil
}
