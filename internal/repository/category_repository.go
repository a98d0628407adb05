package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CategoryRepository provides access to category reference data.
type CategoryRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TicketCategory, error)
	GetSubcategoryByID(ctx context.Context, id string) (*domain.TicketSubcategory, error)
	ListActive(ctx context.Context) ([]domain.TicketCategory, error)
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository builds repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.TicketCategory, error) {
	const query = `
        SELECT id, name, description, color, is_active, created_at
        FROM ticket_categories WHERE id=$1`
	var category domain.TicketCategory
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.Color,
		&category.IsActive,
		&category.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) GetSubcategoryByID(ctx context.Context, id string) (*domain.TicketSubcategory, error) {
	const query = `
        SELECT id, category_id, name, description, is_active, created_at
        FROM ticket_subcategories WHERE id=$1`
	var sub domain.TicketSubcategory
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&sub.ID,
		&sub.CategoryID,
		&sub.Name,
		&sub.Description,
		&sub.IsActive,
		&sub.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *categoryRepository) ListActive(ctx context.Context) ([]domain.TicketCategory, error) {
	const query = `
        SELECT id, name, description, color, is_active, created_at
        FROM ticket_categories WHERE is_active ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketCategory
	for rows.Next() {
		var category domain.TicketCategory
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.Color,
			&category.IsActive,
			&category.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
