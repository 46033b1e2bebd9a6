package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/options"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/reconcile"
)

// resolveOptions 请求中显式给出的容差优先，其次是租户配置，最后是默认值
func (h *Handler) resolveOptions(r *http.Request, explicit *domain.StakeholderOptions, tenantID *int64) (domain.StakeholderOptions, error) {
	switch {
	case explicit != nil:
		if err := options.Validate(*explicit); err != nil {
			return domain.StakeholderOptions{}, err
		}
		return *explicit, nil
	case tenantID != nil && h.options != nil:
		return h.options.Options(r.Context(), *tenantID)
	default:
		return domain.DefaultStakeholderOptions(), nil
	}
}

func (h *Handler) ClassifyDeviation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan     domain.Interval            `json:"plan"`
		Fact     domain.Interval            `json:"fact"`
		Options  *domain.StakeholderOptions `json:"options"`
		TenantID *int64                     `json:"tenantID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !req.Plan.IsComplete() {
		h.errorResponse(w, r, "计划区间必须同时包含开始和结束时间")
		return
	}
	if err := req.Plan.Validate(); err != nil {
		h.domainError(w, r, err, "")
		return
	}

	opts, err := h.resolveOptions(r, req.Options, req.TenantID)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	h.successResponse(w, r, "计算成功", reconcile.ClassifyDeviation(req.Plan, req.Fact, opts))
}

func (h *Handler) ComputeBilling(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plans      []domain.ShiftPlan         `json:"plans"`
		Facts      []domain.ShiftFact         `json:"facts"`
		ShiftTypes []domain.ShiftType         `json:"shiftTypes"`
		Options    *domain.StakeholderOptions `json:"options"`
		TenantID   *int64                     `json:"tenantID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	for _, plan := range req.Plans {
		if err := plan.Work.Validate(); err != nil {
			h.domainError(w, r, err, "")
			return
		}
	}

	opts, err := h.resolveOptions(r, req.Options, req.TenantID)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	h.successResponse(w, r, "计算成功", reconcile.ComputeBilling(req.Plans, req.Facts, req.ShiftTypes, opts))
}
