package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Statuses          []domain.TicketStatus
	Priorities        []domain.TicketPriority
	Category          *domain.TicketCategory
	Source            *domain.TicketSource
	ReporterID        *string
	AssigneeID        *string
	LocationID        *string
	SearchTerm        *string
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
	HasAttachments    bool
	MissingNotes      bool
	PageSize          int
	ContinuationToken string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Update(ctx context.Context, id string, patch *TicketPatch) (*domain.Ticket, error)
	Replace(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter TicketFilter) (docstore.Page[domain.Ticket], error)
	ForEach(ctx context.Context, filter TicketFilter, fn func(domain.Ticket) error) error
}

type ticketRepository struct {
	docs docstore.Collection[domain.Ticket]
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(docs docstore.Collection[domain.Ticket]) TicketRepository {
	return &ticketRepository{docs: docs}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if err := ticket.CheckReferences(); err != nil {
		return apperrors.NewInternalError(err)
	}
	if err := r.docs.Create(ctx, ticket.ID, ticket); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return apperrors.NewConflict("ticket already exists", map[string]any{"ticketId": ticket.ID})
		}
		return err
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, ticketNotFound(id, err)
	}
	return ticket, nil
}

func (r *ticketRepository) Update(ctx context.Context, id string, patch *TicketPatch) (*domain.Ticket, error) {
	ticket, err := r.docs.Patch(ctx, id, patch.Fields())
	if err != nil {
		return nil, ticketNotFound(id, err)
	}
	return ticket, nil
}

func (r *ticketRepository) Replace(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if err := ticket.CheckReferences(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	out, err := r.docs.Replace(ctx, ticket.ID, ticket)
	if err != nil {
		return nil, ticketNotFound(ticket.ID, err)
	}
	return out, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.docs.Delete(ctx, id)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) (docstore.Page[domain.Ticket], error) {
	page, err := r.docs.Query(ctx, filter.query())
	if errors.Is(err, docstore.ErrInvalidToken) {
		return page, apperrors.NewValidationError("invalid continuation token", map[string]any{"field": "continuationToken"})
	}
	return page, err
}

func (r *ticketRepository) ForEach(ctx context.Context, filter TicketFilter, fn func(domain.Ticket) error) error {
	return docstore.Each(ctx, r.docs, filter.query(), fn)
}

func (f TicketFilter) query() docstore.Query {
	var conds docstore.Filter
	if len(f.Statuses) > 0 {
		conds = append(conds, docstore.In("status", enumStrings(f.Statuses)))
	}
	if len(f.Priorities) > 0 {
		conds = append(conds, docstore.In("priority", enumStrings(f.Priorities)))
	}
	if f.Category != nil {
		conds = append(conds, docstore.Eq("category", string(*f.Category)))
	}
	if f.Source != nil {
		conds = append(conds, docstore.Eq("source", string(*f.Source)))
	}
	if f.ReporterID != nil {
		conds = append(conds, docstore.Eq("reporterId", *f.ReporterID))
	}
	if f.AssigneeID != nil {
		conds = append(conds, docstore.Contains("assigneeIds", *f.AssigneeID))
	}
	if f.LocationID != nil {
		conds = append(conds, docstore.Eq("locationId", *f.LocationID))
	}
	if f.SearchTerm != nil && *f.SearchTerm != "" {
		conds = append(conds, docstore.Search(*f.SearchTerm, "title", "description", "phoneNumber"))
	}
	if f.CreatedFrom != nil {
		conds = append(conds, docstore.Gte("createdAt", *f.CreatedFrom))
	}
	if f.CreatedTo != nil {
		conds = append(conds, docstore.Lte("createdAt", *f.CreatedTo))
	}
	if f.HasAttachments {
		conds = append(conds, docstore.NotEmpty("attachments"))
	}
	if f.MissingNotes {
		conds = append(conds, docstore.Missing("notes"))
	}
	return docstore.Query{
		Filter:            conds,
		Sort:              []docstore.Sort{{Field: "createdAt", Desc: true}},
		PageSize:          f.PageSize,
		ContinuationToken: f.ContinuationToken,
	}
}

func ticketNotFound(id string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticketId": id})
	}
	return err
}

func enumStrings[T ~string](values []T) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, string(v))
	}
	return out
}
