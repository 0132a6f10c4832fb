package service

import (
	"testing"
	"time"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

func TestCanTransition(t *testing.T) {
	all := []domain.TicketStatus{
		domain.TicketStatusNew, domain.TicketStatusOpen, domain.TicketStatusDone, domain.TicketStatusCancelled,
	}
	denied := map[[2]domain.TicketStatus]bool{
		{domain.TicketStatusDone, domain.TicketStatusCancelled}: true,
		{domain.TicketStatusCancelled, domain.TicketStatusDone}: true,
	}
	for _, from := range all {
		for _, to := range all {
			want := !denied[[2]domain.TicketStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTransitionTimestamps(t *testing.T) {
	earlier := fixedNow.Add(-48 * time.Hour)
	explicit := fixedNow.Add(-time.Hour)

	cases := []struct {
		name         string
		from         domain.TicketStatus
		req          StatusChange
		wantResolved domain.Nullable[time.Time]
		wantClosed   domain.Nullable[time.Time]
	}{
		{
			name:         "done stamps resolvedAt",
			from:         domain.TicketStatusOpen,
			req:          StatusChange{Status: domain.TicketStatusDone},
			wantResolved: domain.Some(fixedNow),
		},
		{
			name:         "done keeps explicit resolvedAt",
			from:         domain.TicketStatusNew,
			req:          StatusChange{Status: domain.TicketStatusDone, ResolvedAt: domain.Some(explicit)},
			wantResolved: domain.Some(explicit),
		},
		{
			name:         "reopen clears both",
			from:         domain.TicketStatusDone,
			req:          StatusChange{Status: domain.TicketStatusOpen},
			wantResolved: domain.Null[time.Time](),
			wantClosed:   domain.Null[time.Time](),
		},
		{
			name:         "cancel clears both unless given",
			from:         domain.TicketStatusOpen,
			req:          StatusChange{Status: domain.TicketStatusCancelled, ClosedAt: domain.Some(explicit)},
			wantResolved: domain.Null[time.Time](),
			wantClosed:   domain.Some(explicit),
		},
	}

	lc := NewTicketLifecycle()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			current := &domain.Ticket{ID: "t-1", Status: tc.from, ResolvedAt: &earlier, ClosedAt: &earlier}
			got, err := lc.Transition(current, tc.req, fixedNow)
			if err != nil {
				t.Fatalf("Transition: %v", err)
			}
			assertNullableTime(t, "resolvedAt", got.ResolvedAt, tc.wantResolved)
			assertNullableTime(t, "closedAt", got.ClosedAt, tc.wantClosed)
			if !got.UpdatedAt.Equal(fixedNow) {
				t.Errorf("updatedAt = %v", got.UpdatedAt)
			}
		})
	}
}

func assertNullableTime(t *testing.T, field string, got, want domain.Nullable[time.Time]) {
	t.Helper()
	if got.Set != want.Set || got.IsNull() != want.IsNull() {
		t.Fatalf("%s = %+v, want %+v", field, got, want)
	}
	if want.Value != nil && !got.Value.Equal(*want.Value) {
		t.Fatalf("%s = %v, want %v", field, *got.Value, *want.Value)
	}
}

func TestTransitionRejections(t *testing.T) {
	lc := NewTicketLifecycle()
	_, err := lc.Transition(&domain.Ticket{Status: domain.TicketStatusDone}, StatusChange{Status: domain.TicketStatusCancelled}, fixedNow)
	requireCode(t, err, apperrors.CodeInvalidTransition)

	_, err = lc.Transition(&domain.Ticket{Status: domain.TicketStatusOpen}, StatusChange{Status: "ARCHIVED"}, fixedNow)
	requireCode(t, err, apperrors.CodeValidation)
}

func TestCancelWithReasonAppendsOneNote(t *testing.T) {
	lc := NewTicketLifecycle()
	lc.newID = func() string { return "note-1" }
	existing := []domain.Note{{ID: "n0", Content: "called back", Type: domain.NoteTypeGeneral}}
	current := &domain.Ticket{ID: "t-1", Status: domain.TicketStatusOpen, Notes: existing}

	tp, err := lc.Transition(current, StatusChange{
		Status: domain.TicketStatusCancelled,
		Reason: "  duplicate ",
		Actor:  domain.Actor{ID: "u1", Name: "Dispatcher"},
	}, fixedNow)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if tp.Note == nil || tp.Note.Content != "duplicate" || tp.Note.Type != domain.NoteTypeCancellation {
		t.Fatalf("note = %+v", tp.Note)
	}

	patch := repository.NewTicketPatch()
	tp.Into(patch, current.Notes)
	updated := *current
	patch.Apply(&updated)
	if len(updated.Notes) != 2 || updated.Notes[1].ID != "note-1" || updated.Notes[1].CreatedByName != "Dispatcher" {
		t.Fatalf("notes = %+v", updated.Notes)
	}
	if len(current.Notes) != 1 {
		t.Fatal("transition must not mutate the current note slice")
	}
	if !tp.EntersTerminal() {
		t.Fatal("OPEN to CANCELLED enters a terminal state")
	}
}

func TestCancelWithoutReasonAddsNoNote(t *testing.T) {
	tp, err := NewTicketLifecycle().Transition(&domain.Ticket{Status: domain.TicketStatusNew}, StatusChange{Status: domain.TicketStatusCancelled, Reason: "  "}, fixedNow)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if tp.Note != nil {
		t.Fatalf("unexpected note %+v", tp.Note)
	}
}
