package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// StatusChange is a requested transition. ResolvedAt/ClosedAt are only honored
// when Set; an explicit null clears the field.
type StatusChange struct {
	Status     domain.TicketStatus
	ResolvedAt domain.Nullable[time.Time]
	ClosedAt   domain.Nullable[time.Time]
	Reason     string
	Actor      domain.Actor
}

// TransitionPatch is the derived outcome of a transition. Unset timestamp
// fields are left untouched on the ticket.
type TransitionPatch struct {
	From       domain.TicketStatus
	Status     domain.TicketStatus
	ResolvedAt domain.Nullable[time.Time]
	ClosedAt   domain.Nullable[time.Time]
	UpdatedAt  time.Time
	Note       *domain.Note
}

// EntersTerminal reports a move from a working state into DONE or CANCELLED.
func (p TransitionPatch) EntersTerminal() bool {
	return IsTerminal(p.Status) && !IsTerminal(p.From)
}

// Into copies the derived fields onto a ticket patch. notes is the ticket's
// current note list; the cancellation note, if any, is appended to it.
func (p TransitionPatch) Into(patch *repository.TicketPatch, notes []domain.Note) {
	patch.SetStatus(p.Status)
	if p.ResolvedAt.Set {
		patch.SetResolvedAt(p.ResolvedAt.Value)
	}
	if p.ClosedAt.Set {
		patch.SetClosedAt(p.ClosedAt.Value)
	}
	if p.Note != nil {
		patch.SetNotes(appendNote(notes, *p.Note))
	}
}

// TicketLifecycle validates status transitions and derives timestamps.
type TicketLifecycle struct {
	newID func() string
}

// NewTicketLifecycle returns the lifecycle with random note ids.
func NewTicketLifecycle() *TicketLifecycle {
	return &TicketLifecycle{newID: uuid.NewString}
}

var allowedTransitions = map[domain.TicketStatus]map[domain.TicketStatus]bool{
	domain.TicketStatusNew: {
		domain.TicketStatusNew: true, domain.TicketStatusOpen: true,
		domain.TicketStatusDone: true, domain.TicketStatusCancelled: true,
	},
	domain.TicketStatusOpen: {
		domain.TicketStatusNew: true, domain.TicketStatusOpen: true,
		domain.TicketStatusDone: true, domain.TicketStatusCancelled: true,
	},
	domain.TicketStatusDone: {
		domain.TicketStatusNew: true, domain.TicketStatusOpen: true, domain.TicketStatusDone: true,
	},
	domain.TicketStatusCancelled: {
		domain.TicketStatusNew: true, domain.TicketStatusOpen: true, domain.TicketStatusCancelled: true,
	},
}

// IsTerminal reports whether no further work is expected in status.
func IsTerminal(status domain.TicketStatus) bool {
	return status == domain.TicketStatusDone || status == domain.TicketStatusCancelled
}

// CanTransition reports whether from → to is permitted.
func CanTransition(from, to domain.TicketStatus) bool {
	return allowedTransitions[from][to]
}

// Transition derives the patch for moving current into req.Status at now.
// Explicitly supplied timestamps always win over derived ones, which keeps
// re-applying the same request stable.
func (l *TicketLifecycle) Transition(current *domain.Ticket, req StatusChange, now time.Time) (TransitionPatch, error) {
	if !req.Status.Valid() {
		return TransitionPatch{}, apperrors.NewValidationError("invalid status", map[string]any{"field": "status", "value": req.Status})
	}
	from := current.Status
	if from == "" {
		from = domain.TicketStatusNew
	}
	if !CanTransition(from, req.Status) {
		return TransitionPatch{}, apperrors.NewInvalidTransition(string(from), string(req.Status))
	}

	now = now.UTC()
	out := TransitionPatch{
		From:       from,
		Status:     req.Status,
		UpdatedAt:  now,
		ResolvedAt: req.ResolvedAt,
		ClosedAt:   req.ClosedAt,
	}

	switch req.Status {
	case domain.TicketStatusDone:
		if !req.ResolvedAt.Set {
			out.ResolvedAt = domain.Some(now)
		}
	case domain.TicketStatusNew, domain.TicketStatusOpen, domain.TicketStatusCancelled:
		if !req.ResolvedAt.Set {
			out.ResolvedAt = domain.Null[time.Time]()
		}
		if !req.ClosedAt.Set {
			out.ClosedAt = domain.Null[time.Time]()
		}
	}

	if req.Status == domain.TicketStatusCancelled {
		if reason := strings.TrimSpace(req.Reason); reason != "" {
			out.Note = &domain.Note{
				ID:            l.newID(),
				Content:       reason,
				Type:          domain.NoteTypeCancellation,
				CreatedAt:     now,
				CreatedBy:     req.Actor.ID,
				CreatedByName: req.Actor.Name,
			}
		}
	}
	return out, nil
}

func appendNote(notes []domain.Note, note domain.Note) []domain.Note {
	out := make([]domain.Note, 0, len(notes)+1)
	out = append(out, notes...)
	return append(out, note)
}
