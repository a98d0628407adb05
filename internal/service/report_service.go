package service

import (
	"context"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/lifecycle"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/pkg/apperrors"
)

// reportScanBatchSize pages through tickets during report aggregation.
const reportScanBatchSize = 500

// ReportService aggregates ticket statistics for the reporting endpoints.
type ReportService struct {
	tickets  repository.TicketRepository
	policies repository.SLAPolicyRepository
}

// NewReportService constructs the service.
func NewReportService(tickets repository.TicketRepository, policies repository.SLAPolicyRepository) *ReportService {
	return &ReportService{tickets: tickets, policies: policies}
}

// PolicyPerformance reports SLA compliance for one policy. HasRate is
// false when no ticket in the range was associated with the policy; the
// rate is undefined in that case and must not be rendered as 0 or 100.
type PolicyPerformance struct {
	Policy    domain.SLAPolicy
	Compliant int
	Total     int
	Rate      float64
	HasRate   bool
}

// Overview summarizes ticket activity for a date range.
type Overview struct {
	From            time.Time
	To              time.Time
	TotalTickets    int
	StatusCounts    map[domain.TicketStatus]int
	PriorityCounts  map[domain.TicketPriority]int
	OverdueCount    int
	AvgResolution   time.Duration
	ResolvedCount   int
	AvgFirstResp    time.Duration
	RespondedCount  int
	DailyCreated    []DailyCount
}

// DailyCount holds one day's creation count.
type DailyCount struct {
	Date  string
	Count int
}

// SLAPerformance computes compliance per active policy over a date range.
func (s *ReportService) SLAPerformance(ctx context.Context, from, to time.Time) ([]PolicyPerformance, error) {
	policies, err := s.policies.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	withPolicy := true
	tickets, err := s.collectTickets(ctx, repository.TicketFilter{
		HasSLAPolicy: &withPolicy,
		CreatedFrom:  &from,
		CreatedTo:    &to,
	})
	if err != nil {
		return nil, err
	}

	result := make([]PolicyPerformance, 0, len(policies))
	for _, policy := range policies {
		compliance, ok := lifecycle.ComplianceRate(tickets, policy)
		result = append(result, PolicyPerformance{
			Policy:    policy,
			Compliant: compliance.Compliant,
			Total:     compliance.Total,
			Rate:      compliance.Rate,
			HasRate:   ok,
		})
	}
	return result, nil
}

// BuildOverview aggregates counts, distributions and averages.
func (s *ReportService) BuildOverview(ctx context.Context, from, to time.Time) (*Overview, error) {
	tickets, err := s.collectTickets(ctx, repository.TicketFilter{
		CreatedFrom: &from,
		CreatedTo:   &to,
	})
	if err != nil {
		return nil, err
	}

	policyMap, err := s.activePolicyMap(ctx)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		From:           from,
		To:             to,
		TotalTickets:   len(tickets),
		StatusCounts:   make(map[domain.TicketStatus]int),
		PriorityCounts: make(map[domain.TicketPriority]int),
	}

	now := time.Now()
	var totalResolution, totalFirstResp time.Duration
	daily := make(map[string]int)

	for i := range tickets {
		t := &tickets[i]
		overview.StatusCounts[t.Status]++
		overview.PriorityCounts[t.Priority]++
		daily[t.CreatedAt.Format("2006-01-02")]++

		var policy *domain.SLAPolicy
		if t.SLAPolicyID != nil {
			if p, ok := policyMap[*t.SLAPolicyID]; ok {
				policy = &p
			}
		}
		if lifecycle.IsOverdue(t, policy, now) {
			overview.OverdueCount++
		}

		if elapsed, ok := t.TimeToResolution(); ok {
			totalResolution += elapsed
			overview.ResolvedCount++
		}
		if elapsed, ok := t.TimeToFirstResponse(); ok {
			totalFirstResp += elapsed
			overview.RespondedCount++
		}
	}

	if overview.ResolvedCount > 0 {
		overview.AvgResolution = totalResolution / time.Duration(overview.ResolvedCount)
	}
	if overview.RespondedCount > 0 {
		overview.AvgFirstResp = totalFirstResp / time.Duration(overview.RespondedCount)
	}

	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		overview.DailyCreated = append(overview.DailyCreated, DailyCount{
			Date:  key,
			Count: daily[key],
		})
	}

	return overview, nil
}

func (s *ReportService) activePolicyMap(ctx context.Context) (map[string]domain.SLAPolicy, error) {
	policies, err := s.policies.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make(map[string]domain.SLAPolicy, len(policies))
	for _, policy := range policies {
		result[policy.ID] = policy
	}
	return result, nil
}

func (s *ReportService) collectTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	filter.Limit = reportScanBatchSize
	filter.Offset = 0

	var result []domain.Ticket
	for {
		batch, err := s.tickets.ListWithFilter(ctx, filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		result = append(result, batch...)
		if len(batch) < reportScanBatchSize {
			return result, nil
		}
		filter.Offset += reportScanBatchSize
	}
}
