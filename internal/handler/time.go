package handler

import (
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

func (h *Handler) WallToInstant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Wall string `json:"wall" validate:"required"`
		Zone string `json:"zone" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	instant, err := timeconv.InstantFromWallString(req.Wall, req.Zone)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	h.successResponse(w, r, "转换成功", map[string]any{
		"instant": instant.UTC(),
	})
}

func (h *Handler) InstantToWall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Instant time.Time `json:"instant" validate:"required"`
		Zone    string    `json:"zone" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	wall, err := timeconv.WallFromInstant(req.Instant, req.Zone)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	h.successResponse(w, r, "转换成功", map[string]any{
		"wall":  wall.String(),
		"date":  wall.Date,
		"clock": wall.Clock,
	})
}

type periodPair struct {
	A domain.Interval `json:"a"`
	B domain.Interval `json:"b"`
}

func (h *Handler) PeriodsIntersect(w http.ResponseWriter, r *http.Request) {
	var req periodPair
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "计算成功", map[string]any{
		"intersect": timeconv.PeriodsIntersect(req.A, req.B),
	})
}

// PeriodContains a 为外层区间，b 为内层区间
func (h *Handler) PeriodContains(w http.ResponseWriter, r *http.Request) {
	var req periodPair
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	h.successResponse(w, r, "计算成功", map[string]any{
		"contains": timeconv.PeriodContains(req.A, req.B),
	})
}
