package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// GetExistingShiftPlans 返回时间线上所有未删除的计划，用于重叠检测
func (r *Repository) GetExistingShiftPlans(ctx context.Context, timelineID int64) ([]domain.ShiftPlan, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT ` + planColumns + `
		FROM shift_plans p
		WHERE p.timeline_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.work_from, p.id
	`
	rows, err := r.dbpool.QueryContext(ctx, query, timelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlans(rows)
}

func (r *Repository) GetShiftPlan(ctx context.Context, id int64) (*domain.ShiftPlan, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT ` + planColumns + `
		FROM shift_plans p
		WHERE p.id = $1
	`
	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans, err := scanPlans(rows)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, sql.ErrNoRows
	}
	return &plans[0], nil
}

func insertShiftPlan(ctx context.Context, tx *sql.Tx, plan *domain.ShiftPlan) error {
	query := `
		INSERT INTO shift_plans (timeline_id, vacancy_id, work_from, work_to, shift_type_id, workline_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version
	`
	params := []any{
		plan.TimelineID,
		nullInt64(plan.VacancyID),
		nullTime(plan.Work.From),
		nullTime(plan.Work.To),
		plan.ShiftTypeID,
		nullInt64(plan.WorklineID),
	}
	return tx.QueryRowContext(ctx, query, params...).Scan(&plan.ID, &plan.Version)
}

func setShiftPlanLifecycle(ctx context.Context, tx *sql.Tx, id int64, lc domain.Lifecycle) error {
	var deletedAt sql.NullTime
	if !lc.IsActive() {
		deletedAt = nullTime(lc.ChangedAt)
		if !deletedAt.Valid {
			deletedAt = sql.NullTime{Time: time.Now(), Valid: true}
		}
	}

	query := `
		UPDATE shift_plans
		SET
			deleted_at = $1,
			lifecycle_changed_at = $2,
			version = version + 1
		WHERE id = $3
	`
	res, err := tx.ExecContext(ctx, query, deletedAt, nullTime(lc.ChangedAt), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// InsertShiftPlans 在一个事务中写入全部计划，任意一条失败时全部回滚
func (r *Repository) InsertShiftPlans(ctx context.Context, plans []domain.ShiftPlan) error {
	return r.ApplyShiftPlanChanges(ctx, nil, time.Time{}, plans)
}

// SetShiftPlanLifecycle 软删除或恢复单个计划
func (r *Repository) SetShiftPlanLifecycle(ctx context.Context, id int64, lc domain.Lifecycle) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := setShiftPlanLifecycle(ctx, tx, id, lc); err != nil {
		return err
	}
	return tx.Commit()
}

// ApplyShiftPlanChanges 先软删除 deleteIDs，再写入新计划，二者在同一个事务中完成
func (r *Repository) ApplyShiftPlanChanges(ctx context.Context, deleteIDs []int64, deletedAt time.Time, plans []domain.ShiftPlan) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, id := range deleteIDs {
		lc := domain.Lifecycle{}
		if err := lc.Delete(deletedAt); err != nil {
			return err
		}
		if err := setShiftPlanLifecycle(ctx, tx, id, lc); err != nil {
			return err
		}
	}

	for i := range plans {
		if err := insertShiftPlan(ctx, tx, &plans[i]); err != nil {
			return err
		}
	}

	return tx.Commit()
}
