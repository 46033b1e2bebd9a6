package repository

import (
	"context"
	"encoding/json"

	"github.com/sysu-ecnc-dev/shift-reconciler/backend/internal/domain"
)

func (r *Repository) GetVacancyByID(ctx context.Context, id int64) (*domain.Vacancy, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT
			tenant_id,
			time_zone,
			cache,
			shift_count,
			sum_minutes,
			response_count,
			version
		FROM vacancies
		WHERE id = $1
	`

	v := &domain.Vacancy{ID: id}
	var cache []byte
	dst := []any{
		&v.TenantID,
		&v.TimeZone,
		&cache,
		&v.ShiftCount,
		&v.SumMinutes,
		&v.ResponseCount,
		&v.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	v.Cache = make([]domain.MonthCell, 0)
	if len(cache) > 0 {
		if err := json.Unmarshal(cache, &v.Cache); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// GetVacancyRows 空缺岗位总是整体重建，因此返回其全部计划
func (r *Repository) GetVacancyRows(ctx context.Context, vacancyID int64) (*domain.VacancyRows, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT ` + planColumns + `
		FROM shift_plans p
		WHERE p.vacancy_id = $1
		ORDER BY p.work_from, p.id
	`
	rows, err := r.dbpool.QueryContext(ctx, query, vacancyID)
	if err != nil {
		return nil, err
	}
	plans, err := scanPlans(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	shiftTypeIDs, worklineIDs := referencedIDs(plans, nil)
	shiftTypes, err := r.getShiftTypes(ctx, shiftTypeIDs)
	if err != nil {
		return nil, err
	}
	worklines, err := r.getWorklines(ctx, worklineIDs)
	if err != nil {
		return nil, err
	}

	return &domain.VacancyRows{
		Plans:      plans,
		ShiftTypes: shiftTypes,
		Worklines:  worklines,
	}, nil
}

func (r *Repository) SaveVacancyCache(ctx context.Context, v *domain.Vacancy) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	cache, err := json.Marshal(v.Cache)
	if err != nil {
		return err
	}

	query := `
		UPDATE vacancies
		SET
			cache = $1,
			shift_count = $2,
			sum_minutes = $3,
			response_count = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`
	params := []any{cache, v.ShiftCount, v.SumMinutes, v.ResponseCount, v.ID, v.Version}
	return r.dbpool.QueryRowContext(ctx, query, params...).Scan(&v.Version)
}

func (r *Repository) CreateVacancy(ctx context.Context, v *domain.Vacancy) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO vacancies (tenant_id, time_zone)
		VALUES ($1, $2)
		RETURNING id, version
	`
	return r.dbpool.QueryRowContext(ctx, query, v.TenantID, v.TimeZone).Scan(&v.ID, &v.Version)
}
