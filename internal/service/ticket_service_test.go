package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/lifecycle"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/pkg/apperrors"
)

type fakeTicketRepo struct {
	tickets     map[string]*domain.Ticket
	order       []string
	nextID      int
	failCreates int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket)}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	if r.failCreates > 0 {
		r.failCreates--
		return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_identifier_key"}
	}
	for _, existing := range r.tickets {
		if existing.Identifier == ticket.Identifier {
			return &pgconn.PgError{Code: "23505", ConstraintName: "tickets_identifier_key"}
		}
	}
	r.nextID++
	ticket.ID = strconv.Itoa(r.nextID)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *ticket
	r.tickets[ticket.ID] = &stored
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByIdentifier(_ context.Context, identifier string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.Identifier == identifier {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) MaxIdentifier(_ context.Context) (string, error) {
	best := ""
	var bestSuffix int64 = -1
	for _, ticket := range r.tickets {
		if suffix, ok := lifecycle.IdentifierSuffix(ticket.Identifier); ok && suffix > bestSuffix {
			bestSuffix = suffix
			best = ticket.Identifier
		}
	}
	return best, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, id := range r.order {
		ticket := r.tickets[id]
		if filter.CreatedByID != nil && ticket.CreatedByID != *filter.CreatedByID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		if filter.HasSLAPolicy != nil && *filter.HasSLAPolicy != (ticket.SLAPolicyID != nil) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type fakeCommentRepo struct {
	comments []domain.TicketComment
	nextID   int
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.TicketComment) error {
	r.nextID++
	comment.ID = fmt.Sprintf("c%d", r.nextID)
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketComment, error) {
	var result []domain.TicketComment
	for _, comment := range r.comments {
		if comment.TicketID != ticketID {
			continue
		}
		if comment.IsInternal && !includeInternal {
			continue
		}
		result = append(result, comment)
	}
	return result, nil
}

type fakeAttachmentRepo struct {
	attachments []domain.TicketAttachment
	nextID      int
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.TicketAttachment) error {
	r.nextID++
	attachment.ID = fmt.Sprintf("a%d", r.nextID)
	attachment.UploadedAt = time.Now()
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketAttachment, error) {
	var result []domain.TicketAttachment
	for _, attachment := range r.attachments {
		if attachment.TicketID == ticketID {
			result = append(result, attachment)
		}
	}
	return result, nil
}

type fakeCategoryRepo struct {
	categories    map[string]*domain.TicketCategory
	subcategories map[string]*domain.TicketSubcategory
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.TicketCategory, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return category, nil
}

func (r *fakeCategoryRepo) GetSubcategoryByID(_ context.Context, id string) (*domain.TicketSubcategory, error) {
	sub, ok := r.subcategories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return sub, nil
}

func (r *fakeCategoryRepo) ListActive(_ context.Context) ([]domain.TicketCategory, error) {
	var result []domain.TicketCategory
	for _, category := range r.categories {
		if category.IsActive {
			result = append(result, *category)
		}
	}
	return result, nil
}

type fakeAssetRepo struct {
	assets map[string]*domain.Asset
}

func (r *fakeAssetRepo) GetByID(_ context.Context, id string) (*domain.Asset, error) {
	asset, ok := r.assets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return asset, nil
}

func (r *fakeAssetRepo) List(_ context.Context) ([]domain.Asset, error) {
	var result []domain.Asset
	for _, asset := range r.assets {
		result = append(result, *asset)
	}
	return result, nil
}

type fakePolicyRepo struct {
	policies map[string]*domain.SLAPolicy
}

func (r *fakePolicyRepo) GetByID(_ context.Context, id string) (*domain.SLAPolicy, error) {
	policy, ok := r.policies[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return policy, nil
}

func (r *fakePolicyRepo) GetActiveByPriority(_ context.Context, priority domain.TicketPriority) (*domain.SLAPolicy, error) {
	for _, policy := range r.policies {
		if policy.Priority == priority && policy.IsActive {
			return policy, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePolicyRepo) ListActive(_ context.Context) ([]domain.SLAPolicy, error) {
	var result []domain.SLAPolicy
	for _, policy := range r.policies {
		if policy.IsActive {
			result = append(result, *policy)
		}
	}
	return result, nil
}

type fakeHistoryRepo struct {
	entries []domain.TicketHistory
	nextID  int
}

func (r *fakeHistoryRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.nextID++
	history.ID = fmt.Sprintf("h%d", r.nextID)
	history.CreatedAt = time.Now()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(_ context.Context, ticketID string, _, _ int) ([]domain.TicketHistory, error) {
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) actions() []domain.HistoryAction {
	result := make([]domain.HistoryAction, 0, len(r.entries))
	for _, entry := range r.entries {
		result = append(result, entry.Action)
	}
	return result
}

type serviceFixture struct {
	svc      *TicketService
	tickets  *fakeTicketRepo
	comments *fakeCommentRepo
	policies *fakePolicyRepo
	history  *fakeHistoryRepo
}

func newServiceFixture() *serviceFixture {
	tickets := newFakeTicketRepo()
	comments := &fakeCommentRepo{}
	policies := &fakePolicyRepo{policies: map[string]*domain.SLAPolicy{}}
	history := &fakeHistoryRepo{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		CommentRepo:    comments,
		AttachmentRepo: &fakeAttachmentRepo{},
		CategoryRepo:   &fakeCategoryRepo{categories: map[string]*domain.TicketCategory{}, subcategories: map[string]*domain.TicketSubcategory{}},
		AssetRepo:      &fakeAssetRepo{assets: map[string]*domain.Asset{}},
		SLAPolicyRepo:  policies,
		HistoryRepo:    history,
	})
	return &serviceFixture{svc: svc, tickets: tickets, comments: comments, policies: policies, history: history}
}

func staffUser(id string) *domain.User {
	return &domain.User{
		ID:        id,
		Username:  "tech-" + id,
		FirstName: "Sam",
		LastName:  "Okello",
		Role:      domain.RoleTechnician,
		IsStaff:   true,
		Status:    domain.UserStatusActive,
	}
}

func requesterUser(id string) *domain.User {
	user := staffUser(id)
	user.IsStaff = false
	return user
}

func TestCreateTicketAllocatesSequentialIdentifiers(t *testing.T) {
	fixture := newServiceFixture()
	creator := requesterUser("u1")

	for i := 1; i <= 3; i++ {
		ticket, err := fixture.svc.CreateTicket(context.Background(), creator, TicketCreateInput{
			Title:       fmt.Sprintf("Broken light %d", i),
			Description: "Corridor light is out",
		})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("RX-UG-INC-%06d", i), ticket.Identifier)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
		assert.Equal(t, domain.TicketSourceWeb, ticket.Source)
	}
}

func TestCreateTicketRetriesOnIdentifierConflict(t *testing.T) {
	fixture := newServiceFixture()
	fixture.tickets.failCreates = 2

	ticket, err := fixture.svc.CreateTicket(context.Background(), requesterUser("u1"), TicketCreateInput{
		Title:       "Leaking tap",
		Description: "Second floor kitchen",
	})
	require.NoError(t, err)
	assert.Equal(t, "RX-UG-INC-000001", ticket.Identifier)
}

func TestCreateTicketFailsWhenRetriesExhausted(t *testing.T) {
	fixture := newServiceFixture()
	fixture.tickets.failCreates = maxAllocationAttempts

	_, err := fixture.svc.CreateTicket(context.Background(), requesterUser("u1"), TicketCreateInput{
		Title:       "Leaking tap",
		Description: "Second floor kitchen",
	})
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CONFLICT", domainErr.Code)
	assert.Empty(t, fixture.tickets.tickets)
}

func TestCreateTicketAutoAttachesPolicyForPriority(t *testing.T) {
	fixture := newServiceFixture()
	fixture.policies.policies["p-high"] = &domain.SLAPolicy{
		ID:             "p-high",
		Name:           "High priority",
		Priority:       domain.TicketPriorityHigh,
		ResponseTime:   2 * time.Hour,
		ResolutionTime: 8 * time.Hour,
		IsActive:       true,
	}

	ticket, err := fixture.svc.CreateTicket(context.Background(), requesterUser("u1"), TicketCreateInput{
		Title:       "Chiller alarm",
		Description: "Plant room chiller tripping",
		Priority:    domain.TicketPriorityHigh,
	})
	require.NoError(t, err)
	require.NotNil(t, ticket.SLAPolicyID)
	assert.Equal(t, "p-high", *ticket.SLAPolicyID)
}

func TestUpdateStatusSetsResolvedAtOnce(t *testing.T) {
	fixture := newServiceFixture()
	staff := staffUser("s1")
	ticket, err := fixture.svc.CreateTicket(context.Background(), requesterUser("u1"), TicketCreateInput{
		Title:       "Broken door",
		Description: "Main entrance",
	})
	require.NoError(t, err)

	resolved, err := fixture.svc.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusResolved, "replaced hinge")
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolvedAt)
	firstResolvedAt := *resolved.ResolvedAt
	assert.Equal(t, "replaced hinge", resolved.ResolutionNotes)

	// Reopen, then resolve again; the original timestamp must survive.
	reopened, err := fixture.svc.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusInProgress, "")
	require.NoError(t, err)
	require.NotNil(t, reopened.ResolvedAt)
	assert.Equal(t, firstResolvedAt, *reopened.ResolvedAt)

	resolvedAgain, err := fixture.svc.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)
	assert.Equal(t, firstResolvedAt, *resolvedAgain.ResolvedAt)

	actions := fixture.history.actions()
	assert.Contains(t, actions, domain.ActionResolved)
	assert.Contains(t, actions, domain.ActionReopened)
}

func TestUpdateStatusRequiresStaff(t *testing.T) {
	fixture := newServiceFixture()
	ticket, err := fixture.svc.CreateTicket(context.Background(), requesterUser("u1"), TicketCreateInput{
		Title:       "Broken door",
		Description: "Main entrance",
	})
	require.NoError(t, err)

	_, err = fixture.svc.UpdateStatus(context.Background(), requesterUser("u1"), ticket.ID, domain.TicketStatusResolved, "")
	require.Error(t, err)
	var domainErr *apperrors.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "FORBIDDEN", domainErr.Code)
}

func TestAddCommentRecordsFirstStaffResponse(t *testing.T) {
	fixture := newServiceFixture()
	requester := requesterUser("u1")
	staff := staffUser("s1")
	ticket, err := fixture.svc.CreateTicket(context.Background(), requester, TicketCreateInput{
		Title:       "No hot water",
		Description: "Block B showers",
	})
	require.NoError(t, err)

	// Requester comments never start the response clock.
	_, err = fixture.svc.AddComment(context.Background(), requester, ticket.ID, "any update?", false)
	require.NoError(t, err)
	stored, err := fixture.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FirstResponseAt)

	_, err = fixture.svc.AddComment(context.Background(), staff, ticket.ID, "plumber dispatched", false)
	require.NoError(t, err)
	stored, err = fixture.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FirstResponseAt)
	firstResponse := *stored.FirstResponseAt

	_, err = fixture.svc.AddComment(context.Background(), staff, ticket.ID, "fixed", false)
	require.NoError(t, err)
	stored, err = fixture.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, firstResponse, *stored.FirstResponseAt)
}

func TestAddCommentInternalRequiresStaff(t *testing.T) {
	fixture := newServiceFixture()
	requester := requesterUser("u1")
	ticket, err := fixture.svc.CreateTicket(context.Background(), requester, TicketCreateInput{
		Title:       "No hot water",
		Description: "Block B showers",
	})
	require.NoError(t, err)

	_, err = fixture.svc.AddComment(context.Background(), requester, ticket.ID, "secret note", true)
	require.Error(t, err)
}

func TestCloseOwnTicket(t *testing.T) {
	fixture := newServiceFixture()
	requester := requesterUser("u1")
	staff := staffUser("s1")
	ticket, err := fixture.svc.CreateTicket(context.Background(), requester, TicketCreateInput{
		Title:       "Flickering light",
		Description: "Office 14",
	})
	require.NoError(t, err)

	// Open tickets cannot be closed by the requester.
	_, err = fixture.svc.CloseOwnTicket(context.Background(), requester, ticket.ID)
	require.Error(t, err)

	_, err = fixture.svc.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusResolved, "")
	require.NoError(t, err)

	closed, err := fixture.svc.CloseOwnTicket(context.Background(), requester, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	// Only the creator may close their ticket.
	other := requesterUser("u2")
	_, err = fixture.svc.CloseOwnTicket(context.Background(), other, ticket.ID)
	require.Error(t, err)
}

func TestListTicketsScopesRequestersToOwn(t *testing.T) {
	fixture := newServiceFixture()
	alice := requesterUser("u1")
	bob := requesterUser("u2")

	_, err := fixture.svc.CreateTicket(context.Background(), alice, TicketCreateInput{Title: "A", Description: "a"})
	require.NoError(t, err)
	_, err = fixture.svc.CreateTicket(context.Background(), bob, TicketCreateInput{Title: "B", Description: "b"})
	require.NoError(t, err)

	mine, err := fixture.svc.ListTickets(context.Background(), alice, TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, alice.ID, mine[0].CreatedByID)

	all, err := fixture.svc.ListTickets(context.Background(), staffUser("s1"), TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIsOverdueDegradesOnDanglingPolicy(t *testing.T) {
	fixture := newServiceFixture()
	missing := "p-gone"
	ticket := &domain.Ticket{
		ID:          "1",
		Identifier:  "RX-UG-INC-000001",
		Status:      domain.TicketStatusOpen,
		SLAPolicyID: &missing,
		CreatedAt:   time.Now().Add(-100 * time.Hour),
	}

	overdue, err := fixture.svc.IsOverdue(context.Background(), ticket)
	require.NoError(t, err)
	assert.False(t, overdue)
}
