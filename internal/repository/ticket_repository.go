package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// failure. Ticket creation relies on this to detect identifier races.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatedByID  *string
	AssignedToID *string
	CategoryID   *string
	AssetID      *string
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	Sources      []domain.TicketSource
	HasSLAPolicy *bool
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Ticket, error)
	// MaxIdentifier returns the highest-numbered identifier currently
	// stored, or "" for an empty table. The value is derived from
	// persisted state on every call so allocation survives restarts and
	// multiple instances.
	MaxIdentifier(ctx context.Context) (string, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, identifier, title, description, category_id, subcategory_id, asset_id,
               status, priority, source, sla_policy_id, created_by_id, assigned_to_id,
               resolution_notes, contact_name, contact_email, contact_phone,
               created_at, updated_at, first_response_at, resolved_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (identifier, title, description, category_id, subcategory_id, asset_id,
                             status, priority, source, sla_policy_id, created_by_id, assigned_to_id,
                             resolution_notes, contact_name, contact_email, contact_phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Identifier,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.SubcategoryID,
		ticket.AssetID,
		ticket.Status,
		ticket.Priority,
		ticket.Source,
		ticket.SLAPolicyID,
		ticket.CreatedByID,
		ticket.AssignedToID,
		ticket.ResolutionNotes,
		ticket.ContactName,
		ticket.ContactEmail,
		ticket.ContactPhone,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category_id=$3, subcategory_id=$4, asset_id=$5,
            status=$6, priority=$7, source=$8, sla_policy_id=$9, assigned_to_id=$10,
            resolution_notes=$11, contact_name=$12, contact_email=$13, contact_phone=$14,
            first_response_at=$15, resolved_at=$16, closed_at=$17, updated_at=NOW()
        WHERE id=$18`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.SubcategoryID,
		ticket.AssetID,
		ticket.Status,
		ticket.Priority,
		ticket.Source,
		ticket.SLAPolicyID,
		ticket.AssignedToID,
		ticket.ResolutionNotes,
		ticket.ContactName,
		ticket.ContactEmail,
		ticket.ContactPhone,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE identifier=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, identifier)
}

// MaxIdentifier orders by the numeric suffix so RX-UG-INC-1000000 sorts
// above RX-UG-INC-999999 once the counter widens past six digits.
func (r *ticketRepository) MaxIdentifier(ctx context.Context) (string, error) {
	const query = `
        SELECT identifier FROM tickets
        ORDER BY NULLIF(split_part(identifier, '-', 4), '')::bigint DESC NULLS LAST
        LIMIT 1`
	var identifier string
	if err := r.pool.QueryRow(ctx, query).Scan(&identifier); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return identifier, nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, arg).Scan(ticketFields(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		clauses = append(clauses, fmt.Sprintf("created_by_id=$%d", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		clauses = append(clauses, fmt.Sprintf("assigned_to_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AssetID != nil {
		args = append(args, *filter.AssetID)
		clauses = append(clauses, fmt.Sprintf("asset_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Sources) > 0 {
		placeholders := make([]string, len(filter.Sources))
		for i, src := range filter.Sources {
			args = append(args, src)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("source IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.HasSLAPolicy != nil {
		if *filter.HasSLAPolicy {
			clauses = append(clauses, "sla_policy_id IS NOT NULL")
		} else {
			clauses = append(clauses, "sla_policy_id IS NULL")
		}
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(identifier) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func ticketFields(ticket *domain.Ticket) []any {
	return []any{
		&ticket.ID,
		&ticket.Identifier,
		&ticket.Title,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.SubcategoryID,
		&ticket.AssetID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Source,
		&ticket.SLAPolicyID,
		&ticket.CreatedByID,
		&ticket.AssignedToID,
		&ticket.ResolutionNotes,
		&ticket.ContactName,
		&ticket.ContactEmail,
		&ticket.ContactPhone,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketFields(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
