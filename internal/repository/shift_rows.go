package repository

import (
	"context"
	"database/sql"
	"slices"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

const planColumns = `
	p.id,
	p.timeline_id,
	p.vacancy_id,
	p.work_from,
	p.work_to,
	p.shift_type_id,
	p.workline_id,
	p.deleted_at,
	p.lifecycle_changed_at,
	p.version
`

const factColumns = `
	f.id,
	f.timeline_id,
	f.plan_id,
	f.work_from,
	f.work_to,
	f.penalty,
	f.penalty_minutes,
	f.shift_type_id,
	f.workline_id,
	f.deleted_at,
	f.lifecycle_changed_at,
	f.version
`

// lifecycle 以 deleted_at 是否为空作为是否删除的标记
func lifecycle(deletedAt, changedAt sql.NullTime) domain.Lifecycle {
	if deletedAt.Valid {
		return domain.Lifecycle{State: domain.LifecycleDeleted, ChangedAt: timePtr(deletedAt)}
	}
	return domain.Lifecycle{State: domain.LifecycleActive, ChangedAt: timePtr(changedAt)}
}

func scanPlans(rows *sql.Rows) ([]domain.ShiftPlan, error) {
	plans := make([]domain.ShiftPlan, 0)
	for rows.Next() {
		var row struct {
			Plan       domain.ShiftPlan
			VacancyID  sql.NullInt64
			From       sql.NullTime
			To         sql.NullTime
			WorklineID sql.NullInt64
			DeletedAt  sql.NullTime
			ChangedAt  sql.NullTime
		}

		dst := []any{
			&row.Plan.ID,
			&row.Plan.TimelineID,
			&row.VacancyID,
			&row.From,
			&row.To,
			&row.Plan.ShiftTypeID,
			&row.WorklineID,
			&row.DeletedAt,
			&row.ChangedAt,
			&row.Plan.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		plan := row.Plan
		plan.VacancyID = int64Ptr(row.VacancyID)
		plan.Work = domain.Interval{From: timePtr(row.From), To: timePtr(row.To)}
		plan.WorklineID = int64Ptr(row.WorklineID)
		plan.Lifecycle = lifecycle(row.DeletedAt, row.ChangedAt)
		plans = append(plans, plan)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

func scanFacts(rows *sql.Rows) ([]domain.ShiftFact, error) {
	facts := make([]domain.ShiftFact, 0)
	for rows.Next() {
		var row struct {
			Fact       domain.ShiftFact
			PlanID     sql.NullInt64
			From       sql.NullTime
			To         sql.NullTime
			WorklineID sql.NullInt64
			DeletedAt  sql.NullTime
			ChangedAt  sql.NullTime
		}

		dst := []any{
			&row.Fact.ID,
			&row.Fact.TimelineID,
			&row.PlanID,
			&row.From,
			&row.To,
			&row.Fact.Penalty,
			&row.Fact.PenaltyMinutes,
			&row.Fact.ShiftTypeID,
			&row.WorklineID,
			&row.DeletedAt,
			&row.ChangedAt,
			&row.Fact.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		fact := row.Fact
		fact.PlanID = int64Ptr(row.PlanID)
		fact.Work = domain.Interval{From: timePtr(row.From), To: timePtr(row.To)}
		fact.WorklineID = int64Ptr(row.WorklineID)
		fact.Lifecycle = lifecycle(row.DeletedAt, row.ChangedAt)
		facts = append(facts, fact)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return facts, nil
}

// referencedIDs 收集计划和实际记录中引用到的班次类型和工作线
func referencedIDs(plans []domain.ShiftPlan, facts []domain.ShiftFact) (shiftTypeIDs, worklineIDs []int64) {
	st := make(map[int64]bool)
	wl := make(map[int64]bool)
	for _, p := range plans {
		st[p.ShiftTypeID] = true
		if p.WorklineID != nil {
			wl[*p.WorklineID] = true
		}
	}
	for _, f := range facts {
		st[f.ShiftTypeID] = true
		if f.WorklineID != nil {
			wl[*f.WorklineID] = true
		}
	}
	for id := range st {
		shiftTypeIDs = append(shiftTypeIDs, id)
	}
	for id := range wl {
		worklineIDs = append(worklineIDs, id)
	}
	slices.Sort(shiftTypeIDs)
	slices.Sort(worklineIDs)
	return shiftTypeIDs, worklineIDs
}

func (r *Repository) getShiftTypes(ctx context.Context, ids []int64) ([]domain.ShiftType, error) {
	types := make([]domain.ShiftType, 0, len(ids))
	if len(ids) == 0 {
		return types, nil
	}

	query := `
		SELECT id, code, name, is_working
		FROM shift_types
		WHERE id = ANY($1)
		ORDER BY id
	`
	rows, err := r.dbpool.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.ShiftType
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.IsWorking); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

func (r *Repository) getWorklines(ctx context.Context, ids []int64) ([]domain.Workline, error) {
	worklines := make([]domain.Workline, 0, len(ids))
	if len(ids) == 0 {
		return worklines, nil
	}

	query := `
		SELECT id, code, name, overlap_acceptable
		FROM worklines
		WHERE id = ANY($1)
		ORDER BY id
	`
	rows, err := r.dbpool.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var w domain.Workline
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.OverlapAcceptable); err != nil {
			return nil, err
		}
		worklines = append(worklines, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return worklines, nil
}

// GetWorklines 供重叠检测判断工作线是否允许重叠
func (r *Repository) GetWorklines(ctx context.Context, ids []int64) ([]domain.Workline, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	return r.getWorklines(ctx, ids)
}

func (r *Repository) CreateShiftType(ctx context.Context, t *domain.ShiftType, tenantID int64) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO shift_types (tenant_id, code, name, is_working)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.dbpool.QueryRowContext(ctx, query, tenantID, t.Code, t.Name, t.IsWorking).Scan(&t.ID)
}

func (r *Repository) CreateWorkline(ctx context.Context, w *domain.Workline, tenantID int64) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO worklines (tenant_id, code, name, overlap_acceptable)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	return r.dbpool.QueryRowContext(ctx, query, tenantID, w.Code, w.Name, w.OverlapAcceptable).Scan(&w.ID)
}
