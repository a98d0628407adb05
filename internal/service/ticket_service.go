package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/lifecycle"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/pkg/apperrors"
)

// maxAllocationAttempts bounds identifier allocation retries when two
// concurrent creations race for the same suffix.
const maxAllocationAttempts = 3

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.TicketCommentRepository
	attachments repository.TicketAttachmentRepository
	categories  repository.CategoryRepository
	assets      repository.AssetRepository
	policies    repository.SLAPolicyRepository
	history     repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.TicketCommentRepository
	AttachmentRepo repository.TicketAttachmentRepository
	CategoryRepo   repository.CategoryRepository
	AssetRepo      repository.AssetRepository
	SLAPolicyRepo  repository.SLAPolicyRepository
	HistoryRepo    repository.TicketHistoryRepository
	Dispatcher     events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title         string
	Description   string
	CategoryID    *string
	SubcategoryID *string
	AssetID       *string
	Priority      domain.TicketPriority
	Source        domain.TicketSource
	SLAPolicyID   *string
	ContactName   string
	ContactEmail  string
	ContactPhone  string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Sources     []domain.TicketSource
	CategoryID  *string
	AssetID     *string
	AssignedTo  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// AttachmentInput defines attachment metadata.
type AttachmentInput struct {
	StorageKey  string
	FileName    string
	FileSize    int64
	ContentType string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		categories:  deps.CategoryRepo,
		assets:      deps.AssetRepo,
		policies:    deps.SLAPolicyRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
	}
}

// CreateTicket validates references, allocates the next identifier and
// persists the ticket. Allocation derives the current maximum from storage
// on every attempt and relies on the identifier unique constraint to
// serialize concurrent creations; a conflicting insert is retried with a
// freshly read maximum up to maxAllocationAttempts times.
func (s *TicketService) CreateTicket(ctx context.Context, creator *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	if creator == nil {
		return nil, apperrors.NewUnauthorized("authenticated user required")
	}
	if err := s.validateReferences(ctx, input); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		CategoryID:    input.CategoryID,
		SubcategoryID: input.SubcategoryID,
		AssetID:       input.AssetID,
		Status:        domain.TicketStatusOpen,
		Priority:      input.Priority,
		Source:        input.Source,
		SLAPolicyID:   input.SLAPolicyID,
		CreatedByID:   creator.ID,
		ContactName:   strings.TrimSpace(input.ContactName),
		ContactEmail:  strings.TrimSpace(input.ContactEmail),
		ContactPhone:  strings.TrimSpace(input.ContactPhone),
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if ticket.Source == "" {
		ticket.Source = domain.TicketSourceWeb
	}
	if ticket.SLAPolicyID == nil {
		policy, err := s.policies.GetActiveByPriority(ctx, ticket.Priority)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		if policy != nil {
			ticket.SLAPolicyID = &policy.ID
		}
	}

	created := false
	for attempt := 0; attempt < maxAllocationAttempts; attempt++ {
		maxIdentifier, err := s.tickets.MaxIdentifier(ctx)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		ticket.Identifier = lifecycle.NextIdentifier(maxIdentifier)

		if err := s.tickets.Create(ctx, ticket); err != nil {
			if repository.IsUniqueViolation(err) {
				continue
			}
			return nil, apperrors.MapError(err)
		}
		created = true
		break
	}
	if !created {
		return nil, apperrors.NewConflict("could not allocate ticket identifier", map[string]any{
			"attempts": maxAllocationAttempts,
		})
	}

	s.recordHistory(ctx, ticket.ID, domain.ActionCreated,
		fmt.Sprintf("Ticket created by %s", creator.FullName()), &creator.ID, "", "")

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketCreated,
		TicketID:   ticket.ID,
		Identifier: ticket.Identifier,
		ActorID:    &creator.ID,
		Payload: events.TicketCreatedPayload{
			Priority:    ticket.Priority,
			Source:      ticket.Source,
			SLAPolicyID: ticket.SLAPolicyID,
			Title:       ticket.Title,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets visible to the actor. Staff see every
// ticket; requesters only their own.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authenticated user required")
	}
	repoFilter := repository.TicketFilter{
		AssignedToID: filter.AssignedTo,
		CategoryID:   filter.CategoryID,
		AssetID:      filter.AssetID,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		Sources:      filter.Sources,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	if !actor.IsStaff {
		repoFilter.CreatedByID = &actor.ID
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicket fetches a ticket with its thread, enforcing visibility.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, []domain.TicketComment, []domain.TicketAttachment, error) {
	ticket, err := s.loadTicketForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, nil, nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID, actor.IsStaff)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, attachments, nil
}

// UpdateStatus sets the ticket status and derives lifecycle timestamps.
// Any status value is accepted from any other; the caller's choice is
// trusted and only the resulting value matters.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus, resolutionNotes string) (*domain.Ticket, error) {
	if actor == nil || !actor.IsStaff {
		return nil, apperrors.NewForbidden("staff required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	now := time.Now()
	effect := lifecycle.ObserveStatus(ticket, newStatus, now)
	if notes := strings.TrimSpace(resolutionNotes); notes != "" {
		ticket.ResolutionNotes = notes
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, ticket.ID, domain.ActionStatusChanged,
		fmt.Sprintf("Status changed by %s", actor.FullName()), &actor.ID,
		string(oldStatus), string(newStatus))
	if effect.ResolvedAtSet {
		s.recordHistory(ctx, ticket.ID, domain.ActionResolved,
			fmt.Sprintf("Ticket resolved by %s", actor.FullName()), &actor.ID, "", "")
	}
	if effect.ClosedAtSet {
		s.recordHistory(ctx, ticket.ID, domain.ActionClosed,
			fmt.Sprintf("Ticket closed by %s", actor.FullName()), &actor.ID, "", "")
	}
	if oldStatus.IsTerminal() && !newStatus.IsTerminal() {
		s.recordHistory(ctx, ticket.ID, domain.ActionReopened,
			fmt.Sprintf("Ticket reopened by %s", actor.FullName()), &actor.ID,
			string(oldStatus), string(newStatus))
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketStatusChanged,
		TicketID:   ticket.ID,
		Identifier: ticket.Identifier,
		ActorID:    &actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:  oldStatus,
			NewStatus:  newStatus,
			ResolvedAt: ticket.ResolvedAt,
			ClosedAt:   ticket.ClosedAt,
		},
	})
	return ticket, nil
}

// UpdatePriority changes ticket priority.
func (s *TicketService) UpdatePriority(ctx context.Context, actor *domain.User, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if actor == nil || !actor.IsStaff {
		return nil, apperrors.NewForbidden("staff required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, ticket.ID, domain.ActionPriorityChanged,
		fmt.Sprintf("Priority changed by %s", actor.FullName()), &actor.ID,
		string(oldPriority), string(newPriority))

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketPriorityChanged,
		TicketID:   ticket.ID,
		Identifier: ticket.Identifier,
		ActorID:    &actor.ID,
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

// AssignTicket assigns or unassigns a ticket.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.User, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	if actor == nil || !actor.IsStaff {
		return nil, apperrors.NewForbidden("staff required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	oldAssignee := ""
	if ticket.AssignedToID != nil {
		oldAssignee = *ticket.AssignedToID
	}
	newAssignee := ""
	if assigneeID != nil {
		newAssignee = *assigneeID
	}

	ticket.AssignedToID = assigneeID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, ticket.ID, domain.ActionAssigned,
		fmt.Sprintf("Assignment changed by %s", actor.FullName()), &actor.ID,
		oldAssignee, newAssignee)

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketAssigned,
		TicketID:   ticket.ID,
		Identifier: ticket.Identifier,
		ActorID:    &actor.ID,
		Payload: events.TicketAssignedPayload{
			AssignedToID: assigneeID,
		},
	})
	return ticket, nil
}

// AddComment appends a comment to the ticket thread. The first
// staff-authored comment starts the ticket's first-response clock.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string, isInternal bool) (*domain.TicketComment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authenticated user required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("comment content required", nil)
	}
	if isInternal && !actor.IsStaff {
		return nil, apperrors.NewForbidden("internal comments are staff only")
	}
	ticket, err := s.loadTicketForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.TicketComment{
		TicketID:   ticket.ID,
		AuthorID:   actor.ID,
		Content:    strings.TrimSpace(content),
		IsInternal: isInternal,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	firstResponse := lifecycle.ObserveStaffComment(ticket, actor.IsStaff, comment.CreatedAt)
	if firstResponse {
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.recordHistory(ctx, ticket.ID, domain.ActionCommentAdded,
		fmt.Sprintf("Comment added by %s", actor.FullName()), &actor.ID, "", "")

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketCommentAdded,
		TicketID:   ticket.ID,
		Identifier: ticket.Identifier,
		ActorID:    &actor.ID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:     comment.ID,
			IsInternal:    comment.IsInternal,
			FirstResponse: firstResponse,
		},
	})
	return comment, nil
}

// AddAttachment stores attachment metadata for a ticket.
func (s *TicketService) AddAttachment(ctx context.Context, actor *domain.User, ticketID string, input AttachmentInput) (*domain.TicketAttachment, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authenticated user required")
	}
	ticket, err := s.loadTicketForActor(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	attachment := &domain.TicketAttachment{
		TicketID:     ticket.ID,
		StorageKey:   input.StorageKey,
		FileName:     input.FileName,
		FileSize:     input.FileSize,
		ContentType:  input.ContentType,
		UploadedByID: actor.ID,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, ticket.ID, domain.ActionAttachmentAdded,
		fmt.Sprintf("Attachment %q added by %s", attachment.FileName, actor.FullName()), &actor.ID, "", "")
	return attachment, nil
}

// CloseOwnTicket lets a requester close their resolved ticket.
func (s *TicketService) CloseOwnTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authenticated user required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedByID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	if ticket.Status != domain.TicketStatusResolved && ticket.Status != domain.TicketStatusPending {
		return nil, apperrors.NewValidationError("ticket cannot be closed in current status", map[string]any{
			"status": ticket.Status,
		})
	}

	oldStatus := ticket.Status
	lifecycle.ObserveStatus(ticket, domain.TicketStatusClosed, time.Now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.recordHistory(ctx, ticket.ID, domain.ActionClosed,
		fmt.Sprintf("Ticket closed by requester %s", actor.FullName()), &actor.ID,
		string(oldStatus), string(domain.TicketStatusClosed))

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTicketStatusChanged,
		TicketID:   ticket.ID,
		Identifier: ticket.Identifier,
		ActorID:    &actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: domain.TicketStatusClosed,
			ClosedAt:  ticket.ClosedAt,
		},
	})
	return ticket, nil
}

// ListHistory returns audit entries for a ticket the actor may see.
func (s *TicketService) ListHistory(ctx context.Context, actor *domain.User, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	if _, err := s.loadTicketForActor(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticketID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// IsOverdue evaluates the ticket's SLA state at the current time.
func (s *TicketService) IsOverdue(ctx context.Context, ticket *domain.Ticket) (bool, error) {
	policy, err := s.policyForTicket(ctx, ticket)
	if err != nil {
		return false, err
	}
	return lifecycle.IsOverdue(ticket, policy, time.Now()), nil
}

func (s *TicketService) policyForTicket(ctx context.Context, ticket *domain.Ticket) (*domain.SLAPolicy, error) {
	if ticket.SLAPolicyID == nil {
		return nil, nil
	}
	policy, err := s.policies.GetByID(ctx, *ticket.SLAPolicyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Dangling policy reference degrades to "no SLA".
			return nil, nil
		}
		return nil, apperrors.MapError(err)
	}
	return policy, nil
}

func (s *TicketService) validateReferences(ctx context.Context, input TicketCreateInput) error {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return apperrors.NewValidationError("title and description required", nil)
	}
	if input.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *input.CategoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("category", map[string]any{"category_id": *input.CategoryID})
			}
			return apperrors.MapError(err)
		}
		if !category.IsActive {
			return apperrors.NewValidationError("category inactive", nil)
		}
	}
	if input.SubcategoryID != nil {
		sub, err := s.categories.GetSubcategoryByID(ctx, *input.SubcategoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("subcategory", map[string]any{"subcategory_id": *input.SubcategoryID})
			}
			return apperrors.MapError(err)
		}
		if input.CategoryID != nil && sub.CategoryID != *input.CategoryID {
			return apperrors.NewValidationError("subcategory not part of category", nil)
		}
	}
	if input.AssetID != nil {
		if _, err := s.assets.GetByID(ctx, *input.AssetID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("asset", map[string]any{"asset_id": *input.AssetID})
			}
			return apperrors.MapError(err)
		}
	}
	return nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) loadTicketForActor(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authenticated user required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff && ticket.CreatedByID != actor.ID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

func (s *TicketService) recordHistory(ctx context.Context, ticketID string, action domain.HistoryAction, description string, userID *string, oldValue, newValue string) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:    ticketID,
		Action:      action,
		Description: description,
		UserID:      userID,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	_ = s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
