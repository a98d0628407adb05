package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func slaTicket(policyID string, createdAt time.Time, resolvedAfter time.Duration, resolved bool) domain.Ticket {
	ticket := domain.Ticket{
		SLAPolicyID: &policyID,
		Status:      domain.TicketStatusInProgress,
		CreatedAt:   createdAt,
	}
	if resolved {
		at := createdAt.Add(resolvedAfter)
		ticket.ResolvedAt = &at
		ticket.Status = domain.TicketStatusResolved
	}
	return ticket
}

func TestComplianceRate(t *testing.T) {
	policy := domain.SLAPolicy{
		ID:             "sla-1",
		ResolutionTime: 4 * time.Hour,
	}

	tickets := []domain.Ticket{
		slaTicket("sla-1", t0, 3*time.Hour, true),  // resolved within SLA
		slaTicket("sla-1", t0, 6*time.Hour, true),  // resolved outside SLA
		slaTicket("sla-1", t0, 0, false),           // unresolved
		slaTicket("sla-2", t0, time.Hour, true),    // different policy, ignored
		{Status: domain.TicketStatusOpen, CreatedAt: t0}, // no policy, ignored
	}

	result, ok := ComplianceRate(tickets, policy)
	require.True(t, ok)
	assert.Equal(t, 1, result.Compliant)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 33.3, result.Rate)
}

func TestComplianceRateResolutionAtExactDeadline(t *testing.T) {
	policy := domain.SLAPolicy{ID: "sla-1", ResolutionTime: 4 * time.Hour}
	tickets := []domain.Ticket{slaTicket("sla-1", t0, 4*time.Hour, true)}

	result, ok := ComplianceRate(tickets, policy)
	require.True(t, ok)
	assert.Equal(t, 1, result.Compliant)
	assert.Equal(t, 100.0, result.Rate)
}

func TestComplianceRateNoMatchingTickets(t *testing.T) {
	policy := domain.SLAPolicy{ID: "sla-1", ResolutionTime: time.Hour}

	result, ok := ComplianceRate(nil, policy)
	assert.False(t, ok)
	assert.Zero(t, result.Total)

	other := []domain.Ticket{slaTicket("sla-9", t0, time.Hour, true)}
	result, ok = ComplianceRate(other, policy)
	assert.False(t, ok)
	assert.Zero(t, result.Total)
}

func TestComplianceRateRounding(t *testing.T) {
	policy := domain.SLAPolicy{ID: "sla-1", ResolutionTime: 4 * time.Hour}
	tickets := []domain.Ticket{
		slaTicket("sla-1", t0, time.Hour, true),
		slaTicket("sla-1", t0, 2*time.Hour, true),
		slaTicket("sla-1", t0, 8*time.Hour, true),
		slaTicket("sla-1", t0, 9*time.Hour, true),
		slaTicket("sla-1", t0, 10*time.Hour, true),
		slaTicket("sla-1", t0, 11*time.Hour, true),
	}

	result, ok := ComplianceRate(tickets, policy)
	require.True(t, ok)
	assert.Equal(t, 2, result.Compliant)
	assert.Equal(t, 6, result.Total)
	assert.Equal(t, 33.3, result.Rate)
}
