package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/lifecycle"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/repository"
)

// overdueSetKey tracks identifiers already flagged overdue, so the
// overdue event fires once per breach instead of once per sweep.
const overdueSetKey = "sla:overdue"

// SLAMonitor periodically sweeps active tickets and flags SLA breaches.
type SLAMonitor struct {
	tickets    repository.TicketRepository
	policies   repository.SLAPolicyRepository
	redis      *persistence.Redis
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.MonitorConfig
}

// SLAMonitorDependencies bundles monitor collaborators.
type SLAMonitorDependencies struct {
	TicketRepo    repository.TicketRepository
	SLAPolicyRepo repository.SLAPolicyRepository
	Redis         *persistence.Redis
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(cfg config.MonitorConfig, deps SLAMonitorDependencies) *SLAMonitor {
	return &SLAMonitor{
		tickets:    deps.TicketRepo,
		policies:   deps.SLAPolicyRepo,
		redis:      deps.Redis,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		cfg:        cfg,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (m *SLAMonitor) Run(ctx context.Context) {
	if !m.cfg.Enabled {
		m.logger.Info("sla monitor disabled")
		return
	}

	ticker := time.NewTicker(m.cfg.ScanInterval())
	defer ticker.Stop()

	m.logger.Info("sla monitor started", zap.Duration("interval", m.cfg.ScanInterval()))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sla monitor stopped")
			return
		case <-ticker.C:
			if err := m.scan(ctx); err != nil {
				m.logger.Error("sla scan failed", zap.Error(err))
			}
		}
	}
}

func (m *SLAMonitor) scan(ctx context.Context) error {
	policies, err := m.policies.ListActive(ctx)
	if err != nil {
		return err
	}
	policyMap := make(map[string]domain.SLAPolicy, len(policies))
	for _, policy := range policies {
		policyMap[policy.ID] = policy
	}

	withPolicy := true
	filter := repository.TicketFilter{
		Statuses: []domain.TicketStatus{
			domain.TicketStatusOpen,
			domain.TicketStatusInProgress,
			domain.TicketStatusPending,
		},
		HasSLAPolicy: &withPolicy,
		Limit:        m.cfg.ScanBatchSize,
	}

	now := time.Now()
	overdue := make(map[string]domain.Ticket)
	for {
		batch, err := m.tickets.ListWithFilter(ctx, filter)
		if err != nil {
			return err
		}
		for i := range batch {
			t := &batch[i]
			policy, ok := policyMap[*t.SLAPolicyID]
			if !ok {
				continue
			}
			if lifecycle.IsOverdue(t, &policy, now) {
				overdue[t.Identifier] = *t
			}
		}
		if len(batch) < m.cfg.ScanBatchSize {
			break
		}
		filter.Offset += m.cfg.ScanBatchSize
	}

	m.reconcile(ctx, overdue)
	m.metrics.RecordOverdueScan()
	m.logger.Debug("sla scan complete", zap.Int("overdue", len(overdue)))
	return nil
}

// reconcile diffs the freshly computed overdue set against the one
// tracked in Redis, publishing an event for each new breach and pruning
// identifiers that recovered.
func (m *SLAMonitor) reconcile(ctx context.Context, overdue map[string]domain.Ticket) {
	if m.redis == nil || m.redis.Client == nil {
		return
	}

	known, err := m.redis.Client.SMembers(ctx, overdueSetKey).Result()
	if err != nil {
		m.logger.Warn("overdue set unavailable", zap.Error(err))
		return
	}
	knownSet := make(map[string]struct{}, len(known))
	for _, identifier := range known {
		knownSet[identifier] = struct{}{}
	}

	for identifier, ticket := range overdue {
		if _, flagged := knownSet[identifier]; flagged {
			continue
		}
		if err := m.redis.Client.SAdd(ctx, overdueSetKey, identifier).Err(); err != nil {
			m.logger.Warn("failed to flag overdue ticket", zap.String("identifier", identifier), zap.Error(err))
			continue
		}
		m.publishOverdue(ctx, ticket)
	}

	for _, identifier := range known {
		if _, still := overdue[identifier]; still {
			continue
		}
		if err := m.redis.Client.SRem(ctx, overdueSetKey, identifier).Err(); err != nil {
			m.logger.Warn("failed to clear overdue flag", zap.String("identifier", identifier), zap.Error(err))
		}
	}
}

func (m *SLAMonitor) publishOverdue(ctx context.Context, ticket domain.Ticket) {
	if m.dispatcher == nil {
		return
	}
	m.logger.Warn("ticket overdue",
		zap.String("identifier", ticket.Identifier),
		zap.String("priority", string(ticket.Priority)))
	_ = m.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventTicketOverdue,
		TicketID:   ticket.ID,
		Identifier: ticket.Identifier,
		Timestamp:  time.Now(),
		Payload: events.TicketOverduePayload{
			Priority:    ticket.Priority,
			SLAPolicyID: *ticket.SLAPolicyID,
		},
	})
}
