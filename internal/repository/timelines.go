package repository

import (
	"context"
	"encoding/json"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

func (r *Repository) GetTimelineByID(ctx context.Context, id int64) (*domain.Timeline, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			tenant_id,
			employee_id,
			month_code,
			time_zone,
			cache,
			plan_count,
			fact_count,
			plan_minutes,
			fact_minutes,
			billing_minutes,
			version
		FROM timelines
		WHERE id = $1
	`

	tl := &domain.Timeline{ID: id}
	var cache []byte
	dst := []any{
		&tl.TenantID,
		&tl.EmployeeID,
		&tl.MonthCode,
		&tl.TimeZone,
		&cache,
		&tl.PlanCount,
		&tl.FactCount,
		&tl.PlanMinutes,
		&tl.FactMinutes,
		&tl.BillingMinutes,
		&tl.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	tl.Cache = make([]domain.DayCell, 0)
	if len(cache) > 0 {
		if err := json.Unmarshal(cache, &tl.Cache); err != nil {
			return nil, err
		}
	}

	return tl, nil
}

func (r *Repository) CreateTimeline(ctx context.Context, tl *domain.Timeline) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO timelines (tenant_id, employee_id, month_code, time_zone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version
	`
	params := []any{tl.TenantID, tl.EmployeeID, tl.MonthCode, tl.TimeZone}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&tl.ID, &tl.Version)
}

// GetTimelineRows 计划按开始时间所在的本地日期筛选，实际记录按其关联计划（没有时按自身）的本地日期筛选。
// 已删除的行也会返回，由调用方决定是否忽略。
func (r *Repository) GetTimelineRows(ctx context.Context, timelineID int64, period timeconv.Period) (*domain.TimelineRows, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	from, to := period.From.String(), period.To.String()

	query := `
		SELECT ` + planColumns + `
		FROM shift_plans p
		JOIN timelines t ON t.id = p.timeline_id
		WHERE p.timeline_id = $1
			AND (p.work_from AT TIME ZONE t.time_zone)::date BETWEEN $2::date AND $3::date
		ORDER BY p.work_from, p.id
	`
	rows, err := r.dbpool.QueryContext(ctx, query, timelineID, from, to)
	if err != nil {
		return nil, err
	}
	plans, err := scanPlans(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	query = `
		SELECT ` + factColumns + `
		FROM shift_facts f
		JOIN timelines t ON t.id = f.timeline_id
		LEFT JOIN shift_plans p ON p.id = f.plan_id
		WHERE f.timeline_id = $1
			AND (COALESCE(p.work_from, f.work_from, f.work_to) AT TIME ZONE t.time_zone)::date BETWEEN $2::date AND $3::date
		ORDER BY f.id
	`
	rows, err = r.dbpool.QueryContext(ctx, query, timelineID, from, to)
	if err != nil {
		return nil, err
	}
	facts, err := scanFacts(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	shiftTypeIDs, worklineIDs := referencedIDs(plans, facts)
	shiftTypes, err := r.getShiftTypes(ctx, shiftTypeIDs)
	if err != nil {
		return nil, err
	}
	worklines, err := r.getWorklines(ctx, worklineIDs)
	if err != nil {
		return nil, err
	}

	return &domain.TimelineRows{
		Plans:      plans,
		Facts:      facts,
		ShiftTypes: shiftTypes,
		Worklines:  worklines,
	}, nil
}

// SaveTimelineCache 版本号不匹配时返回 sql.ErrNoRows
func (r *Repository) SaveTimelineCache(ctx context.Context, tl *domain.Timeline) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	cache, err := json.Marshal(tl.Cache)
	if err != nil {
		return err
	}

	query := `
		UPDATE timelines
		SET
			cache = $1,
			plan_count = $2,
			fact_count = $3,
			plan_minutes = $4,
			fact_minutes = $5,
			billing_minutes = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`
	params := []any{cache, tl.PlanCount, tl.FactCount, tl.PlanMinutes, tl.FactMinutes, tl.BillingMinutes, tl.ID, tl.Version}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&tl.Version)
}
