package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTicket(status domain.TicketStatus) *domain.Ticket {
	return &domain.Ticket{
		Identifier: "RX-UG-INC-000010",
		Status:     status,
		Priority:   domain.TicketPriorityHigh,
		CreatedAt:  t0,
	}
}

func TestObserveStatusSetsResolvedAtOnce(t *testing.T) {
	ticket := newTicket(domain.TicketStatusInProgress)

	first := t0.Add(2 * time.Hour)
	effect := ObserveStatus(ticket, domain.TicketStatusResolved, first)
	require.True(t, effect.ResolvedAtSet)
	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, first, *ticket.ResolvedAt)

	// Observing resolved again later must not move the timestamp.
	effect = ObserveStatus(ticket, domain.TicketStatusResolved, first.Add(time.Hour))
	assert.False(t, effect.Touched())
	assert.Equal(t, first, *ticket.ResolvedAt)
}

func TestObserveStatusSetsClosedAtOnce(t *testing.T) {
	ticket := newTicket(domain.TicketStatusResolved)

	closedAt := t0.Add(4 * time.Hour)
	effect := ObserveStatus(ticket, domain.TicketStatusClosed, closedAt)
	require.True(t, effect.ClosedAtSet)
	assert.False(t, effect.ResolvedAtSet)
	assert.Equal(t, closedAt, *ticket.ClosedAt)

	effect = ObserveStatus(ticket, domain.TicketStatusClosed, closedAt.Add(time.Minute))
	assert.False(t, effect.Touched())
	assert.Equal(t, closedAt, *ticket.ClosedAt)
}

func TestObserveStatusKeepsResolvedAtAcrossReopen(t *testing.T) {
	ticket := newTicket(domain.TicketStatusOpen)

	resolvedAt := t0.Add(time.Hour)
	ObserveStatus(ticket, domain.TicketStatusResolved, resolvedAt)
	ObserveStatus(ticket, domain.TicketStatusInProgress, resolvedAt.Add(time.Hour))

	// Reopening does not clear the original resolution timestamp.
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	require.NotNil(t, ticket.ResolvedAt)
	assert.Equal(t, resolvedAt, *ticket.ResolvedAt)
}

func TestObserveStatusOtherValuesHaveNoEffect(t *testing.T) {
	for _, status := range []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusPending,
		domain.TicketStatusCancelled,
	} {
		ticket := newTicket(domain.TicketStatusOpen)
		effect := ObserveStatus(ticket, status, t0.Add(time.Hour))
		assert.False(t, effect.Touched(), "status %s", status)
		assert.Nil(t, ticket.ResolvedAt)
		assert.Nil(t, ticket.ClosedAt)
		assert.Equal(t, status, ticket.Status)
	}
}

func TestObserveStaffComment(t *testing.T) {
	ticket := newTicket(domain.TicketStatusOpen)

	// Comments from the requester never start the clock.
	assert.False(t, ObserveStaffComment(ticket, false, t0.Add(10*time.Minute)))
	assert.Nil(t, ticket.FirstResponseAt)

	responded := t0.Add(30 * time.Minute)
	require.True(t, ObserveStaffComment(ticket, true, responded))
	require.NotNil(t, ticket.FirstResponseAt)
	assert.Equal(t, responded, *ticket.FirstResponseAt)

	// Later staff comments leave the first response where it was.
	assert.False(t, ObserveStaffComment(ticket, true, responded.Add(time.Hour)))
	assert.Equal(t, responded, *ticket.FirstResponseAt)
}

func TestIsOverdue(t *testing.T) {
	policy := &domain.SLAPolicy{
		ID:             "sla-1",
		ResponseTime:   time.Hour,
		ResolutionTime: 4 * time.Hour,
	}

	t.Run("within response window", func(t *testing.T) {
		ticket := newTicket(domain.TicketStatusOpen)
		assert.False(t, IsOverdue(ticket, policy, t0.Add(30*time.Minute)))
	})

	t.Run("response deadline missed", func(t *testing.T) {
		ticket := newTicket(domain.TicketStatusOpen)
		assert.True(t, IsOverdue(ticket, policy, t0.Add(90*time.Minute)))
	})

	t.Run("response given shifts to resolution clock", func(t *testing.T) {
		ticket := newTicket(domain.TicketStatusInProgress)
		responded := t0.Add(70 * time.Minute)
		ticket.FirstResponseAt = &responded
		// Response came late, but within the resolution window the
		// ticket is not overdue: only the resolution deadline binds now.
		assert.False(t, IsOverdue(ticket, policy, t0.Add(90*time.Minute)))
		assert.True(t, IsOverdue(ticket, policy, t0.Add(5*time.Hour)))
	})

	t.Run("no policy", func(t *testing.T) {
		ticket := newTicket(domain.TicketStatusOpen)
		assert.False(t, IsOverdue(ticket, nil, t0.Add(48*time.Hour)))
	})

	t.Run("terminal states", func(t *testing.T) {
		for _, status := range []domain.TicketStatus{
			domain.TicketStatusResolved,
			domain.TicketStatusClosed,
			domain.TicketStatusCancelled,
		} {
			ticket := newTicket(status)
			assert.False(t, IsOverdue(ticket, policy, t0.Add(48*time.Hour)), "status %s", status)
		}
	})

	t.Run("exactly at deadline is not overdue", func(t *testing.T) {
		ticket := newTicket(domain.TicketStatusOpen)
		assert.False(t, IsOverdue(ticket, policy, t0.Add(time.Hour)))
	})
}
