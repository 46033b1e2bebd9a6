package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "requestID", middleware.GetReqID(r.Context()), "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func urlID(r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handler) timeline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timelineID, ok := urlID(r, "id")
		if !ok {
			h.errorResponse(w, r, "排班ID无效")
			return
		}

		tl, err := h.store.GetTimelineByID(r.Context(), timelineID)
		if err != nil {
			h.domainError(w, r, err, "排班不存在")
			return
		}

		ctx := context.WithValue(r.Context(), TimelineCtx, tl)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) rotationTemplate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		templateID, ok := urlID(r, "id")
		if !ok {
			h.errorResponse(w, r, "模板ID无效")
			return
		}

		template, err := h.store.GetRotationTemplate(r.Context(), templateID)
		if err != nil {
			h.domainError(w, r, err, "模板不存在")
			return
		}

		ctx := context.WithValue(r.Context(), RotationTemplateCtx, template)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) vacancy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vacancyID, ok := urlID(r, "id")
		if !ok {
			h.errorResponse(w, r, "空缺岗位ID无效")
			return
		}

		v, err := h.store.GetVacancyByID(r.Context(), vacancyID)
		if err != nil {
			h.domainError(w, r, err, "空缺岗位不存在")
			return
		}

		ctx := context.WithValue(r.Context(), VacancyCtx, v)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
