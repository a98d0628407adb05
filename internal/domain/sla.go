package domain

import "time"

// SLAPolicy defines response/resolution commitments for a priority band.
// Policies are reference data; tickets hold at most one by id.
type SLAPolicy struct {
	ID             string
	Name           string
	Description    string
	ResponseTime   time.Duration
	ResolutionTime time.Duration
	Priority       TicketPriority
	IsActive       bool
	CreatedAt      time.Time
}
