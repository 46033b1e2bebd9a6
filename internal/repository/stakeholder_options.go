package repository

import (
	"context"
)

// GetStakeholderOptionOverrides 租户没有任何覆盖项时返回空 map
func (r *Repository) GetStakeholderOptionOverrides(ctx context.Context, tenantID int64) (map[string]int, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		SELECT key, value
		FROM stakeholder_option_overrides
		WHERE tenant_id = $1
	`
	rows, err := r.dbpool.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[string]int)
	for rows.Next() {
		var key string
		var value int
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		overrides[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return overrides, nil
}

func (r *Repository) SetStakeholderOptionOverride(ctx context.Context, tenantID int64, key string, value int) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		INSERT INTO stakeholder_option_overrides (tenant_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, key) DO UPDATE SET value = EXCLUDED.value
	`
	_, err := r.dbpool.ExecContext(ctx, query, tenantID, key, value)
	return err
}
