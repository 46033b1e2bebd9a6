package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

// Store 缓存重算所需的读写接口，由持久化层实现
type Store interface {
	GetTimelineByID(ctx context.Context, id int64) (*domain.Timeline, error)
	GetTimelineRows(ctx context.Context, timelineID int64, period timeconv.Period) (*domain.TimelineRows, error)
	SaveTimelineCache(ctx context.Context, timeline *domain.Timeline) error

	GetVacancyByID(ctx context.Context, id int64) (*domain.Vacancy, error)
	GetVacancyRows(ctx context.Context, vacancyID int64) (*domain.VacancyRows, error)
	SaveVacancyCache(ctx context.Context, vacancy *domain.Vacancy) error
}

type OptionsProvider interface {
	Options(ctx context.Context, tenantID int64) (domain.StakeholderOptions, error)
}

type Recalculator struct {
	store   Store
	options OptionsProvider
	logger  *slog.Logger
}

func NewRecalculator(store Store, options OptionsProvider, logger *slog.Logger) *Recalculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recalculator{store: store, options: options, logger: logger}
}

// RecalculateCache 逐个容器重建缓存，每个容器只写一次。
// 某个容器失败不会影响其他容器，所有错误合并后返回；ctx 取消时立即停止。
func (r *Recalculator) RecalculateCache(ctx context.Context, timelineIDs, vacancyIDs []int64) error {
	var errs []error

	for _, id := range timelineIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.recalculateTimeline(ctx, id); err != nil {
			r.logger.Error("重建排班缓存失败", slog.Int64("timelineID", id), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("时间线 %d: %w", id, err))
		}
	}

	for _, id := range vacancyIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.recalculateVacancy(ctx, id); err != nil {
			r.logger.Error("重建空缺岗位缓存失败", slog.Int64("vacancyID", id), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("空缺岗位 %d: %w", id, err))
		}
	}

	return errors.Join(errs...)
}

func (r *Recalculator) recalculateTimeline(ctx context.Context, id int64) error {
	timeline, err := r.store.GetTimelineByID(ctx, id)
	if err != nil {
		return err
	}

	period, err := timeconv.MonthPeriod(timeline.MonthCode)
	if err != nil {
		return err
	}

	rows, err := r.store.GetTimelineRows(ctx, id, period)
	if err != nil {
		return err
	}

	opts, err := r.options.Options(ctx, timeline.TenantID)
	if err != nil {
		return err
	}

	next, err := RebuildTimeline(timeline, period, rows, opts)
	if err != nil {
		return err
	}

	if err := r.store.SaveTimelineCache(ctx, next); err != nil {
		return err
	}

	r.logger.Info("排班缓存已重建",
		slog.Int64("timelineID", id),
		slog.String("monthCode", timeline.MonthCode),
		slog.Int("planCount", next.PlanCount),
		slog.Int("factCount", next.FactCount),
	)
	return nil
}

// recalculateVacancy 空缺岗位没有固定月份，每次都从空缓存开始完整重建
func (r *Recalculator) recalculateVacancy(ctx context.Context, id int64) error {
	vacancy, err := r.store.GetVacancyByID(ctx, id)
	if err != nil {
		return err
	}

	rows, err := r.store.GetVacancyRows(ctx, id)
	if err != nil {
		return err
	}

	period, ok, err := VacancyPeriod(vacancy, rows)
	if err != nil {
		return err
	}

	empty := *vacancy
	empty.Cache = nil
	next := &empty
	if ok {
		next, err = RebuildVacancy(&empty, period, rows)
		if err != nil {
			return err
		}
	} else {
		if err := checkVacancyOwnership(vacancy, rows); err != nil {
			return err
		}
		next.Cache = []domain.MonthCell{}
		next.ShiftCount, next.SumMinutes = 0, 0
	}

	if err := r.store.SaveVacancyCache(ctx, next); err != nil {
		return err
	}

	r.logger.Info("空缺岗位缓存已重建",
		slog.Int64("vacancyID", id),
		slog.Int("shiftCount", next.ShiftCount),
		slog.Int64("sumMinutes", next.SumMinutes),
	)
	return nil
}
