package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// IsTerminal reports whether no further work is expected on the ticket.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed || s == TicketStatusCancelled
}

// Valid reports whether the status is a known value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusPending,
		TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityCritical TicketPriority = "critical"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityLow      TicketPriority = "low"
)

// Valid reports whether the priority is a known value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityCritical, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow:
		return true
	}
	return false
}

// TicketSource records the intake channel for a ticket.
type TicketSource string

const (
	TicketSourceWeb    TicketSource = "web"
	TicketSourceEmail  TicketSource = "email"
	TicketSourcePhone  TicketSource = "phone"
	TicketSourceWalkIn TicketSource = "walk_in"
	TicketSourceSystem TicketSource = "system"
)

// Ticket is the aggregate for facility maintenance requests.
type Ticket struct {
	ID            string
	Identifier    string
	Title         string
	Description   string
	CategoryID    *string
	SubcategoryID *string
	AssetID       *string
	Status        TicketStatus
	Priority      TicketPriority
	Source        TicketSource
	SLAPolicyID   *string
	CreatedByID   string
	AssignedToID  *string

	ResolutionNotes string
	ContactName     string
	ContactEmail    string
	ContactPhone    string

	CreatedAt       time.Time
	UpdatedAt       time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
}

// TimeToResolution returns elapsed time between creation and resolution,
// or false when the ticket is unresolved.
func (t *Ticket) TimeToResolution() (time.Duration, bool) {
	if t.ResolvedAt == nil {
		return 0, false
	}
	return t.ResolvedAt.Sub(t.CreatedAt), true
}

// TimeToFirstResponse returns elapsed time until the first staff response,
// or false when no response has been recorded.
func (t *Ticket) TimeToFirstResponse() (time.Duration, bool) {
	if t.FirstResponseAt == nil {
		return 0, false
	}
	return t.FirstResponseAt.Sub(t.CreatedAt), true
}
