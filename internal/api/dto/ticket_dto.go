package dto

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	CategoryID    *string               `json:"category_id"`
	SubcategoryID *string               `json:"subcategory_id"`
	AssetID       *string               `json:"asset_id"`
	Priority      domain.TicketPriority `json:"priority"`
	Source        domain.TicketSource   `json:"source"`
	SLAPolicyID   *string               `json:"sla_policy_id"`
	ContactName   string                `json:"contact_name"`
	ContactEmail  string                `json:"contact_email"`
	ContactPhone  string                `json:"contact_phone"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status          domain.TicketStatus `json:"status"`
	ResolutionNotes string              `json:"resolution_notes"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload. A null assigned_to_id unassigns.
type AssignTicketRequest struct {
	AssignedToID *string `json:"assigned_to_id"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

// CreateAttachmentRequest describes attachment metadata input.
type CreateAttachmentRequest struct {
	StorageKey  string `json:"storage_key"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
}

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	Identifier   string                `json:"identifier"`
	Title        string                `json:"title"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	Source       domain.TicketSource   `json:"source"`
	CategoryID   *string               `json:"category_id,omitempty"`
	AssetID      *string               `json:"asset_id,omitempty"`
	AssignedToID *string               `json:"assigned_to_id,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	ID              string                `json:"id"`
	Identifier      string                `json:"identifier"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	Source          domain.TicketSource   `json:"source"`
	CategoryID      *string               `json:"category_id,omitempty"`
	SubcategoryID   *string               `json:"subcategory_id,omitempty"`
	AssetID         *string               `json:"asset_id,omitempty"`
	SLAPolicyID     *string               `json:"sla_policy_id,omitempty"`
	CreatedByID     string                `json:"created_by_id"`
	AssignedToID    *string               `json:"assigned_to_id,omitempty"`
	ResolutionNotes string                `json:"resolution_notes,omitempty"`
	ContactName     string                `json:"contact_name,omitempty"`
	ContactEmail    string                `json:"contact_email,omitempty"`
	ContactPhone    string                `json:"contact_phone,omitempty"`
	IsOverdue       bool                  `json:"is_overdue"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	FirstResponseAt *time.Time            `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time            `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time            `json:"closed_at,omitempty"`
	Comments        []CommentResponse     `json:"comments"`
	Attachments     []AttachmentResponse  `json:"attachments"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	Content    string    `json:"content"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// HistoryResponse represents one audit entry.
type HistoryResponse struct {
	ID          string               `json:"id"`
	Action      domain.HistoryAction `json:"action"`
	Description string               `json:"description"`
	UserID      *string              `json:"user_id,omitempty"`
	OldValue    string               `json:"old_value,omitempty"`
	NewValue    string               `json:"new_value,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}
