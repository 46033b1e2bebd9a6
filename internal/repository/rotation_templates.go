package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/timeconv"
)

func (r *Repository) GetAllRotationTemplates(ctx context.Context) ([]*domain.RotationTemplate, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			id,
			name,
			apply_type,
			starting_point_date::text,
			cycle_length,
			created_at,
			version
		FROM rotation_templates
		ORDER BY id
	`
	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]*domain.RotationTemplate, 0)
	for rows.Next() {
		var row templateRow
		if err := rows.Scan(&row.ID, &row.Name, &row.ApplyType, &row.StartingPointDate, &row.CycleLength, &row.CreatedAt, &row.Version); err != nil {
			return nil, err
		}

		template, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		// 列表中不包含单元，需要时通过 GetRotationTemplate 获取
		template.Cells = make([]domain.TemplateCell, 0)
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return templates, nil
}

type templateRow struct {
	ID                int64
	Name              string
	ApplyType         string
	StartingPointDate sql.NullString
	CycleLength       sql.NullInt32
	CreatedAt         time.Time
	Version           int32
}

func (row templateRow) toDomain() (*domain.RotationTemplate, error) {
	applyType, err := domain.ParseApplyType(row.ApplyType)
	if err != nil {
		return nil, err
	}

	template := &domain.RotationTemplate{
		ID:        row.ID,
		Name:      row.Name,
		ApplyType: applyType,
		CreatedAt: row.CreatedAt,
		Version:   row.Version,
	}
	if row.StartingPointDate.Valid {
		d, err := timeconv.ParseLocalDate(row.StartingPointDate.String)
		if err != nil {
			return nil, err
		}
		template.StartingPointDate = &d
	}
	if row.CycleLength.Valid {
		n := int(row.CycleLength.Int32)
		template.CycleLength = &n
	}
	return template, nil
}

// GetRotationTemplate 返回模板以及按 position 排序的全部单元
func (r *Repository) GetRotationTemplate(ctx context.Context, id int64) (*domain.RotationTemplate, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			rt.name,
			rt.apply_type,
			rt.starting_point_date::text,
			rt.cycle_length,
			rt.created_at,
			rt.version,
			rtc.id,
			rtc.day_info_code,
			rtc.time_from::text,
			rtc.duration_minutes,
			rtc.shift_type_id,
			rtc.workline_id
		FROM rotation_templates rt
		LEFT JOIN rotation_template_cells rtc ON rt.id = rtc.template_id
		WHERE rt.id = $1
		ORDER BY rtc.position, rtc.id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var template *domain.RotationTemplate
	for rows.Next() {
		header := templateRow{ID: id}
		var cell struct {
			ID              sql.NullInt64
			DayInfoCode     sql.NullString
			TimeFrom        sql.NullString
			DurationMinutes sql.NullInt32
			ShiftTypeID     sql.NullInt64
			WorklineID      sql.NullInt64
		}

		dst := []any{
			&header.Name,
			&header.ApplyType,
			&header.StartingPointDate,
			&header.CycleLength,
			&header.CreatedAt,
			&header.Version,
			&cell.ID,
			&cell.DayInfoCode,
			&cell.TimeFrom,
			&cell.DurationMinutes,
			&cell.ShiftTypeID,
			&cell.WorklineID,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if template == nil {
			// 说明此时是第一次查到这个模板，需要初始化这个模板
			template, err = header.toDomain()
			if err != nil {
				return nil, err
			}
			template.Cells = make([]domain.TemplateCell, 0)
		}

		if !cell.ID.Valid {
			// 说明该模板不存在任何单元
			continue
		}

		timeFrom, err := timeconv.ParseLocalTime(cell.TimeFrom.String)
		if err != nil {
			return nil, err
		}
		template.Cells = append(template.Cells, domain.TemplateCell{
			ID:              cell.ID.Int64,
			DayInfoCode:     cell.DayInfoCode.String,
			TimeFrom:        timeFrom,
			DurationMinutes: int(cell.DurationMinutes.Int32),
			ShiftTypeID:     cell.ShiftTypeID.Int64,
			WorklineID:      int64Ptr(cell.WorklineID),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if template == nil {
		return nil, sql.ErrNoRows
	}

	return template, nil
}

func (r *Repository) CreateRotationTemplate(ctx context.Context, template *domain.RotationTemplate) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var startingPoint sql.NullString
	if template.StartingPointDate != nil {
		startingPoint = sql.NullString{String: template.StartingPointDate.String(), Valid: true}
	}
	var cycleLength sql.NullInt32
	if template.CycleLength != nil {
		cycleLength = sql.NullInt32{Int32: int32(*template.CycleLength), Valid: true}
	}

	query := `
		INSERT INTO rotation_templates (name, apply_type, starting_point_date, cycle_length)
		VALUES ($1, $2, $3::date, $4)
		RETURNING id, created_at, version
	`
	params := []any{template.Name, template.ApplyType.String(), startingPoint, cycleLength}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&template.ID, &template.CreatedAt, &template.Version); err != nil {
		return err
	}

	for i := range template.Cells {
		cell := &template.Cells[i]
		query = `
			INSERT INTO rotation_template_cells (template_id, position, day_info_code, time_from, duration_minutes, shift_type_id, workline_id)
			VALUES ($1, $2, $3, $4::time, $5, $6, $7)
			RETURNING id
		`
		params := []any{template.ID, i, cell.DayInfoCode, cell.TimeFrom.String(), cell.DurationMinutes, cell.ShiftTypeID, nullInt64(cell.WorklineID)}
		if err := tx.QueryRowContext(ctx, query, params...).Scan(&cell.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) DeleteRotationTemplate(ctx context.Context, id int64) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		DELETE FROM rotation_templates WHERE id = $1
	`
	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}
