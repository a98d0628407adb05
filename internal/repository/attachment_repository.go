package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// TicketAttachmentRepository stores attachment metadata. File bytes live
// in external storage referenced by StorageKey.
type TicketAttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.TicketAttachment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error)
}

type ticketAttachmentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketAttachmentRepository builds repository.
func NewTicketAttachmentRepository(pool *pgxpool.Pool) TicketAttachmentRepository {
	return &ticketAttachmentRepository{pool: pool}
}

func (r *ticketAttachmentRepository) Create(ctx context.Context, attachment *domain.TicketAttachment) error {
	const query = `
        INSERT INTO ticket_attachments (ticket_id, storage_key, file_name, file_size, content_type, uploaded_by_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, uploaded_at`
	return r.pool.QueryRow(ctx, query,
		attachment.TicketID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.FileSize,
		attachment.ContentType,
		attachment.UploadedByID,
	).Scan(&attachment.ID, &attachment.UploadedAt)
}

func (r *ticketAttachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	const query = `
        SELECT id, ticket_id, storage_key, file_name, file_size, content_type, uploaded_by_id, uploaded_at
        FROM ticket_attachments WHERE ticket_id=$1 ORDER BY uploaded_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAttachment
	for rows.Next() {
		var attachment domain.TicketAttachment
		if err := rows.Scan(
			&attachment.ID,
			&attachment.TicketID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.FileSize,
			&attachment.ContentType,
			&attachment.UploadedByID,
			&attachment.UploadedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}
