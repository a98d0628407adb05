// Package lifecycle holds the ticket lifecycle core: identifier allocation,
// status-driven timestamp derivation and SLA evaluation. Everything here is
// synchronous, single-pass logic over one ticket (or a read-only slice); the
// surrounding service layer owns persistence and audit recording.
package lifecycle

import (
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// StatusEffect reports which derived timestamps a status observation set,
// so the caller can persist the ticket and append matching audit entries.
type StatusEffect struct {
	ResolvedAtSet bool
	ClosedAtSet   bool
}

// Touched reports whether the observation had any effect.
func (e StatusEffect) Touched() bool {
	return e.ResolvedAtSet || e.ClosedAtSet
}

// ObserveStatus applies newStatus to the ticket and derives lifecycle
// timestamps from the resulting value. resolved_at and closed_at are each
// set at most once, the first time their status is observed; repeated
// observations are no-ops. Transition legality is deliberately not checked
// here: any status may follow any other, and this function only reacts to
// the value the caller settled on.
func ObserveStatus(t *domain.Ticket, newStatus domain.TicketStatus, now time.Time) StatusEffect {
	t.Status = newStatus

	var effect StatusEffect
	if newStatus == domain.TicketStatusResolved && t.ResolvedAt == nil {
		at := now
		t.ResolvedAt = &at
		effect.ResolvedAtSet = true
	}
	if newStatus == domain.TicketStatusClosed && t.ClosedAt == nil {
		at := now
		t.ClosedAt = &at
		effect.ClosedAtSet = true
	}
	return effect
}

// ObserveStaffComment records the first staff-authored comment as the
// ticket's first response, regardless of status. It returns true when
// first_response_at was set by this call; once set it is never moved.
func ObserveStaffComment(t *domain.Ticket, authorIsStaff bool, now time.Time) bool {
	if !authorIsStaff || t.FirstResponseAt != nil {
		return false
	}
	at := now
	t.FirstResponseAt = &at
	return true
}

// IsOverdue reports whether the ticket has missed its SLA at the given
// reference time. Tickets without a policy, or already resolved, closed or
// cancelled, are never overdue. Until a first response exists the response
// clock binds; afterwards only the resolution deadline governs, even though
// both clocks technically keep running.
func IsOverdue(t *domain.Ticket, policy *domain.SLAPolicy, now time.Time) bool {
	if policy == nil || t.Status.IsTerminal() {
		return false
	}
	if t.FirstResponseAt == nil {
		return now.After(t.CreatedAt.Add(policy.ResponseTime))
	}
	return now.After(t.CreatedAt.Add(policy.ResolutionTime))
}
