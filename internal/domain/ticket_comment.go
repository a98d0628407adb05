package domain

import "time"

// TicketComment is an entry in a ticket's conversation thread.
// Internal comments are visible to staff only.
type TicketComment struct {
	ID         string
	TicketID   string
	AuthorID   string
	Content    string
	IsInternal bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TicketAttachment stores file metadata attached to a ticket.
type TicketAttachment struct {
	ID           string
	TicketID     string
	StorageKey   string
	FileName     string
	FileSize     int64
	ContentType  string
	UploadedByID string
	UploadedAt   time.Time
}
