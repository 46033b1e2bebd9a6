package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/options"
)

func (h *Handler) GetStakeholderOptions(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlID(r, "tenantID")
	if !ok {
		h.errorResponse(w, r, "租户ID无效")
		return
	}

	opts, err := h.options.Options(r.Context(), tenantID)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	h.successResponse(w, r, "获取容差配置成功", opts)
}

// UpdateStakeholderOptions 只写入请求中出现的键，合并后的结果必须仍然合法
func (h *Handler) UpdateStakeholderOptions(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := urlID(r, "tenantID")
	if !ok {
		h.errorResponse(w, r, "租户ID无效")
		return
	}

	var req map[string]int
	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if len(req) == 0 {
		h.errorResponse(w, r, "没有需要更新的配置")
		return
	}

	current, err := h.store.GetStakeholderOptionOverrides(r.Context(), tenantID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if current == nil {
		current = make(map[string]int, len(req))
	}
	for key, value := range req {
		current[key] = value
	}

	merged, err := options.Merge(domain.DefaultStakeholderOptions(), current)
	if err != nil {
		h.domainError(w, r, err, "")
		return
	}

	for key, value := range req {
		if err := h.store.SetStakeholderOptionOverride(r.Context(), tenantID, key, value); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}
	if err := h.options.Invalidate(r.Context(), tenantID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新容差配置成功", merged)
}
