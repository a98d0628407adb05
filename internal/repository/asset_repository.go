package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// AssetRepository provides access to facility equipment records.
type AssetRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Asset, error)
	List(ctx context.Context) ([]domain.Asset, error)
}

type assetRepository struct {
	pool *pgxpool.Pool
}

// NewAssetRepository builds repository.
func NewAssetRepository(pool *pgxpool.Pool) AssetRepository {
	return &assetRepository{pool: pool}
}

func (r *assetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	const query = `
        SELECT id, name, asset_type, location, serial_number, last_maintenance_date, created_at
        FROM assets WHERE id=$1`
	var asset domain.Asset
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&asset.ID,
		&asset.Name,
		&asset.Type,
		&asset.Location,
		&asset.SerialNumber,
		&asset.LastMaintenanceDate,
		&asset.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context) ([]domain.Asset, error) {
	const query = `
        SELECT id, name, asset_type, location, serial_number, last_maintenance_date, created_at
        FROM assets ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Asset
	for rows.Next() {
		var asset domain.Asset
		if err := rows.Scan(
			&asset.ID,
			&asset.Name,
			&asset.Type,
			&asset.Location,
			&asset.SerialNumber,
			&asset.LastMaintenanceDate,
			&asset.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, asset)
	}
	return result, rows.Err()
}
