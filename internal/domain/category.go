package domain

import "time"

// TicketCategory groups tickets for triage and reporting.
type TicketCategory struct {
	ID          string
	Name        string
	Description string
	Color       string
	IsActive    bool
	CreatedAt   time.Time
}

// TicketSubcategory refines a category.
type TicketSubcategory struct {
	ID          string
	CategoryID  string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}
