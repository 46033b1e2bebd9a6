package repository

import (
	"context"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

// InsertShiftFacts 在一个事务中写入实际记录
func (r *Repository) InsertShiftFacts(ctx context.Context, facts []domain.ShiftFact) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO shift_facts (timeline_id, plan_id, work_from, work_to, penalty, penalty_minutes, shift_type_id, workline_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version
	`
	for i := range facts {
		f := &facts[i]
		params := []any{
			f.TimelineID,
			nullInt64(f.PlanID),
			nullTime(f.Work.From),
			nullTime(f.Work.To),
			f.Penalty,
			f.PenaltyMinutes,
			f.ShiftTypeID,
			nullInt64(f.WorklineID),
		}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&f.ID, &f.Version); err != nil {
			return err
		}
	}

	return tx.Commit()
}
