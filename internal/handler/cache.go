package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/cache"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

func (h *Handler) GetTimelineCache(w http.ResponseWriter, r *http.Request) {
	tl := r.Context().Value(TimelineCtx).(*domain.Timeline)

	h.successResponse(w, r, "获取排班缓存成功", tl)
}

func (h *Handler) GetVacancyCache(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VacancyCtx).(*domain.Vacancy)

	h.successResponse(w, r, "获取空缺岗位缓存成功", v)
}

// RecalculateCache 只负责把任务放入队列，实际计算由 worker 完成
func (h *Handler) RecalculateCache(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TimelineIDs []int64 `json:"timelineIDs" validate:"dive,gt=0"`
		VacancyIDs  []int64 `json:"vacancyIDs" validate:"dive,gt=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	job := domain.NewRecalcJob(req.TimelineIDs, req.VacancyIDs, time.Now())
	if job.IsEmpty() {
		h.errorResponse(w, r, "至少需要指定一个排班或空缺岗位")
		return
	}

	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "重算任务已提交", job)
}

func (h *Handler) ApplyVacancyResponse(w http.ResponseWriter, r *http.Request) {
	v := r.Context().Value(VacancyCtx).(*domain.Vacancy)

	var req struct {
		Delta int `json:"delta" validate:"ne=0"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	next := cache.ApplyResponseDelta(v, req.Delta)
	if err := h.store.SaveVacancyCache(r.Context(), next); err != nil {
		h.domainError(w, r, err, "空缺岗位已被修改，请刷新后重试")
		return
	}

	h.successResponse(w, r, "更新响应数量成功", next)
}
