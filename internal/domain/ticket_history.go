package domain

import "time"

// HistoryAction captures what kind of change a history entry records.
type HistoryAction string

const (
	ActionCreated         HistoryAction = "created"
	ActionUpdated         HistoryAction = "updated"
	ActionAssigned        HistoryAction = "assigned"
	ActionStatusChanged   HistoryAction = "status_changed"
	ActionPriorityChanged HistoryAction = "priority_changed"
	ActionCommentAdded    HistoryAction = "comment_added"
	ActionAttachmentAdded HistoryAction = "attachment_added"
	ActionResolved        HistoryAction = "resolved"
	ActionClosed          HistoryAction = "closed"
	ActionReopened        HistoryAction = "reopened"
)

// TicketHistory is an immutable audit trail entry. Entries are appended
// by the service layer and never mutated or deleted.
type TicketHistory struct {
	ID          string
	TicketID    string
	Action      HistoryAction
	Description string
	UserID      *string
	OldValue    string
	NewValue    string
	CreatedAt   time.Time
}
