package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func newReportFixture() (*ReportService, *fakeTicketRepo, *fakePolicyRepo) {
	tickets := newFakeTicketRepo()
	policies := &fakePolicyRepo{policies: map[string]*domain.SLAPolicy{}}
	return NewReportService(tickets, policies), tickets, policies
}

func seedTicket(t *testing.T, repo *fakeTicketRepo, policyID *string, createdAt time.Time, resolvedAfter time.Duration) {
	t.Helper()
	ticket := &domain.Ticket{
		Identifier:  fmt.Sprintf("RX-UG-INC-%06d", len(repo.tickets)+1),
		Title:       "seeded",
		Description: "seeded",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityMedium,
		Source:      domain.TicketSourceWeb,
		SLAPolicyID: policyID,
		CreatedByID: "u1",
	}
	require.NoError(t, repo.Create(context.Background(), ticket))
	stored := repo.tickets[ticket.ID]
	stored.CreatedAt = createdAt
	if resolvedAfter > 0 {
		resolvedAt := createdAt.Add(resolvedAfter)
		stored.ResolvedAt = &resolvedAt
		stored.Status = domain.TicketStatusResolved
	}
}

func TestSLAPerformanceComputesRatePerPolicy(t *testing.T) {
	svc, tickets, policies := newReportFixture()
	policyID := "p-med"
	policies.policies[policyID] = &domain.SLAPolicy{
		ID:             policyID,
		Name:           "Medium priority",
		Priority:       domain.TicketPriorityMedium,
		ResponseTime:   8 * time.Hour,
		ResolutionTime: 48 * time.Hour,
		IsActive:       true,
	}

	base := time.Now().Add(-10 * 24 * time.Hour)
	seedTicket(t, tickets, &policyID, base, 24*time.Hour)
	seedTicket(t, tickets, &policyID, base, 72*time.Hour)
	seedTicket(t, tickets, &policyID, base, 0)

	performances, err := svc.SLAPerformance(context.Background(), base.Add(-time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, performances, 1)

	perf := performances[0]
	assert.True(t, perf.HasRate)
	assert.Equal(t, 3, perf.Total)
	assert.Equal(t, 1, perf.Compliant)
	assert.InDelta(t, 33.3, perf.Rate, 0.01)
}

func TestSLAPerformanceUndefinedWithoutTickets(t *testing.T) {
	svc, _, policies := newReportFixture()
	policies.policies["p-low"] = &domain.SLAPolicy{
		ID:             "p-low",
		Name:           "Low priority",
		Priority:       domain.TicketPriorityLow,
		ResponseTime:   24 * time.Hour,
		ResolutionTime: 120 * time.Hour,
		IsActive:       true,
	}

	performances, err := svc.SLAPerformance(context.Background(), time.Now().Add(-24*time.Hour), time.Now())
	require.NoError(t, err)
	require.Len(t, performances, 1)
	assert.False(t, performances[0].HasRate)
	assert.Zero(t, performances[0].Total)
}

func TestBuildOverviewAggregates(t *testing.T) {
	svc, tickets, policies := newReportFixture()
	policyID := "p-med"
	policies.policies[policyID] = &domain.SLAPolicy{
		ID:             policyID,
		Name:           "Medium priority",
		Priority:       domain.TicketPriorityMedium,
		ResponseTime:   8 * time.Hour,
		ResolutionTime: 48 * time.Hour,
		IsActive:       true,
	}

	from := time.Now().Add(-5 * 24 * time.Hour)
	seedTicket(t, tickets, &policyID, from.Add(24*time.Hour), 12*time.Hour)
	seedTicket(t, tickets, &policyID, from.Add(48*time.Hour), 0) // open well past its SLA
	seedTicket(t, tickets, nil, from.Add(48*time.Hour), 0)       // no policy, never overdue

	overview, err := svc.BuildOverview(context.Background(), from, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 3, overview.TotalTickets)
	assert.Equal(t, 2, overview.StatusCounts[domain.TicketStatusOpen])
	assert.Equal(t, 1, overview.StatusCounts[domain.TicketStatusResolved])
	assert.Equal(t, 1, overview.OverdueCount)
	assert.Equal(t, 1, overview.ResolvedCount)
	assert.Equal(t, 12*time.Hour, overview.AvgResolution)
	assert.NotEmpty(t, overview.DailyCreated)

	total := 0
	for _, day := range overview.DailyCreated {
		total += day.Count
	}
	assert.Equal(t, 3, total)
}
