package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// SLAPolicyRepository provides access to SLA reference data.
type SLAPolicyRepository interface {
	GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error)
	// GetActiveByPriority returns the active policy for a priority band,
	// used to auto-attach a policy at ticket creation.
	GetActiveByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error)
	ListActive(ctx context.Context) ([]domain.SLAPolicy, error)
}

type slaPolicyRepository struct {
	pool *pgxpool.Pool
}

// NewSLAPolicyRepository builds repository.
func NewSLAPolicyRepository(pool *pgxpool.Pool) SLAPolicyRepository {
	return &slaPolicyRepository{pool: pool}
}

const slaColumns = `id, name, description, response_time_hours, resolution_time_hours, priority, is_active, created_at`

func (r *slaPolicyRepository) GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	const query = `SELECT ` + slaColumns + ` FROM sla_policies WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *slaPolicyRepository) GetActiveByPriority(ctx context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	const query = `SELECT ` + slaColumns + ` FROM sla_policies WHERE priority=$1 AND is_active ORDER BY created_at LIMIT 1`
	return r.fetchSingle(ctx, query, priority)
}

func (r *slaPolicyRepository) ListActive(ctx context.Context) ([]domain.SLAPolicy, error) {
	const query = `SELECT ` + slaColumns + ` FROM sla_policies WHERE is_active ORDER BY priority, name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		policy, err := scanSLAPolicy(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *policy)
	}
	return result, rows.Err()
}

func (r *slaPolicyRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.SLAPolicy, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	return scanSLAPolicyRow(row)
}

func scanSLAPolicy(rows pgx.Rows) (*domain.SLAPolicy, error) {
	return scanSLAPolicyRow(rows)
}

func scanSLAPolicyRow(row pgx.Row) (*domain.SLAPolicy, error) {
	var policy domain.SLAPolicy
	var responseHours, resolutionHours int64
	if err := row.Scan(
		&policy.ID,
		&policy.Name,
		&policy.Description,
		&responseHours,
		&resolutionHours,
		&policy.Priority,
		&policy.IsActive,
		&policy.CreatedAt,
	); err != nil {
		return nil, err
	}
	policy.ResponseTime = time.Duration(responseHours) * time.Hour
	policy.ResolutionTime = time.Duration(resolutionHours) * time.Hour
	return &policy, nil
}
