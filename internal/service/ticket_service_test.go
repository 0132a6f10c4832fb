package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/events"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

var tester = domain.Actor{ID: "person-002", Name: "Maria Gonzalez"}

func createTicket(t *testing.T, env *testEnv, in CreateTicketInput) *domain.Ticket {
	t.Helper()
	if in.Title == "" {
		in.Title = "Leaking pipe"
	}
	ticket, err := env.ticketSvc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return ticket
}

func countNotes(notes []domain.Note, noteType domain.NoteType) int {
	n := 0
	for _, note := range notes {
		if note.Type == noteType {
			n++
		}
	}
	return n
}

func TestCreateTicket(t *testing.T) {
	env := newTestEnv(t)
	ticket := createTicket(t, env, CreateTicketInput{
		Title:       "  Broken door  ",
		Description: "Main entrance",
		ReporterID:  strPtr("person-003"),
		Location:    &domain.LocationKey{LocationTypeID: "building", LocationID: "loc-001"},
		Assignees:   AssigneeInput{IDs: []string{"person-001"}},
		Attachments: []domain.AttachmentRef{
			canonicalAttachment("att-1", "a.pdf"),
			canonicalAttachment("att-1", "a.pdf"),
		},
	})

	if ticket.Title != "Broken door" || ticket.Status != domain.TicketStatusNew || ticket.Source != domain.TicketSourceWeb {
		t.Fatalf("ticket = %+v", ticket)
	}
	if len(ticket.Attachments) != 1 {
		t.Fatalf("attachments not deduplicated: %d", len(ticket.Attachments))
	}
	if ticket.Reporter == nil || ticket.Reporter.ID != "person-003" || *ticket.ReporterID != "person-003" {
		t.Fatalf("reporter = %+v", ticket.Reporter)
	}
	if len(ticket.AssigneeIDs) != 1 || ticket.Assignees[0].FirstName != "Juan" {
		t.Fatalf("assignees = %+v", ticket.Assignees)
	}
	if err := ticket.CheckReferences(); err != nil {
		t.Fatalf("references: %v", err)
	}

	stored, err := env.tickets.GetByID(context.Background(), ticket.ID)
	if err != nil || stored.Title != "Broken door" {
		t.Fatalf("stored = %+v, %v", stored, err)
	}
	created := env.dispatcher.ofType(events.EventTicketCreated)
	if len(created) != 1 || created[0].TicketID != ticket.ID {
		t.Fatalf("created events = %+v", created)
	}
	if p := created[0].Payload.(events.TicketCreatedPayload); p.ReporterEmail != "carlos@central.com" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestCreateTicketRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	badCategory := domain.TicketCategory("GARDENING")

	tests := []struct {
		name string
		in   CreateTicketInput
		code string
	}{
		{"blank title", CreateTicketInput{Title: "   "}, apperrors.CodeValidation},
		{"bad priority", CreateTicketInput{Title: "x", Priority: "ASAP"}, apperrors.CodeValidation},
		{"bad category", CreateTicketInput{Title: "x", Category: &badCategory}, apperrors.CodeValidation},
		{"unknown assignee", CreateTicketInput{Title: "x", Assignees: AssigneeInput{IDs: []string{"ghost"}}}, apperrors.CodeInvalidAssignee},
		{"both assignee forms", CreateTicketInput{Title: "x", Assignees: AssigneeInput{
			IDs: []string{"person-001"}, Inline: []domain.Person{{Email: "a@b.com"}},
		}}, apperrors.CodeConflictingAssignee},
		{"unknown location", CreateTicketInput{Title: "x", Location: &domain.LocationKey{LocationTypeID: "building", LocationID: "loc-404"}}, apperrors.CodeInvalidLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.ticketSvc.Create(ctx, tt.in)
			requireCode(t, err, tt.code)
		})
	}
	page, err := env.tickets.List(ctx, repository.TicketFilter{})
	if err != nil || len(page.Items) != 0 {
		t.Fatalf("rejected creates were stored: %d, %v", len(page.Items), err)
	}
}

func TestCancelTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, CreateTicketInput{})

	cancelled, err := env.ticketSvc.Cancel(ctx, ticket.ID, "duplicate", tester)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.TicketStatusCancelled || cancelled.ResolvedAt != nil || cancelled.ClosedAt != nil {
		t.Fatalf("cancelled = %+v", cancelled)
	}
	if n := countNotes(cancelled.Notes, domain.NoteTypeCancellation); n != 1 {
		t.Fatalf("cancellation notes = %d, want 1", n)
	}
	changed := env.dispatcher.ofType(events.EventTicketStatusChanged)
	if len(changed) != 1 {
		t.Fatalf("status events = %d", len(changed))
	}
	if p := changed[0].Payload.(events.TicketStatusChangedPayload); p.Reason != "duplicate" || p.OldStatus != domain.TicketStatusNew {
		t.Fatalf("payload = %+v", p)
	}

	_, err = env.ticketSvc.Cancel(ctx, ticket.ID, "again", tester)
	requireCode(t, err, apperrors.CodeTicketAlreadyClosed)
}

func TestCancelDoneTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, CreateTicketInput{})

	done, err := env.ticketSvc.ChangeStatus(ctx, ticket.ID, StatusChange{Status: domain.TicketStatusDone, Actor: tester})
	if err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	if done.ResolvedAt == nil || !done.ResolvedAt.Equal(fixedNow) {
		t.Fatalf("resolvedAt = %v", done.ResolvedAt)
	}
	_, err = env.ticketSvc.Cancel(ctx, ticket.ID, "too late", tester)
	requireCode(t, err, apperrors.CodeTicketAlreadyClosed)

	_, err = env.ticketSvc.ChangeStatus(ctx, ticket.ID, StatusChange{Status: domain.TicketStatusCancelled})
	requireCode(t, err, apperrors.CodeInvalidTransition)

	reopened, err := env.ticketSvc.ChangeStatus(ctx, ticket.ID, StatusChange{Status: domain.TicketStatusOpen})
	if err != nil || reopened.ResolvedAt != nil {
		t.Fatalf("reopen = %+v, %v", reopened, err)
	}
}

func TestUpdateTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, CreateTicketInput{Assignees: AssigneeInput{IDs: []string{"person-001"}}})

	priority := domain.TicketPriorityUrgent
	status := domain.TicketStatusDone
	updated, err := env.ticketSvc.Update(ctx, ticket.ID, UpdateTicketInput{
		Priority:    &priority,
		Status:      &status,
		AssigneeIDs: domain.Some([]string{"person-002"}),
		ReporterID:  domain.Some("person-004"),
		Actor:       tester,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Priority != priority || updated.Status != status || updated.ResolvedAt == nil {
		t.Fatalf("updated = %+v", updated)
	}
	if len(updated.AssigneeIDs) != 1 || updated.AssigneeIDs[0] != "person-002" || updated.Reporter.FirstName != "Ana" {
		t.Fatalf("references = %+v %+v", updated.AssigneeIDs, updated.Reporter)
	}
	if len(env.dispatcher.ofType(events.EventTicketAssigned)) != 1 {
		t.Fatal("expected one assigned event")
	}

	cleared, err := env.ticketSvc.Update(ctx, ticket.ID, UpdateTicketInput{
		AssigneeIDs: domain.Null[[]string](),
		ReporterID:  domain.Null[string](),
	})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cleared.AssigneeIDs) != 0 || len(cleared.Assignees) != 0 || cleared.Reporter != nil || cleared.ReporterID != nil {
		t.Fatalf("cleared = %+v", cleared)
	}
}

func TestUpdateWithUnknownAssigneeLeavesTicketUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, CreateTicketInput{Assignees: AssigneeInput{IDs: []string{"person-001"}}})

	title := "Renamed"
	_, err := env.ticketSvc.Update(ctx, ticket.ID, UpdateTicketInput{
		Title:       &title,
		AssigneeIDs: domain.Some([]string{"person-002", "ghost"}),
	})
	requireCode(t, err, apperrors.CodeInvalidAssignee)

	stored, err := env.tickets.GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Title != "Leaking pipe" || len(stored.AssigneeIDs) != 1 || stored.AssigneeIDs[0] != "person-001" {
		t.Fatalf("ticket modified: %+v", stored)
	}
}

func TestUpdateMissingTicket(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ticketSvc.Update(context.Background(), "nope", UpdateTicketInput{})
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestAssignAndNotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, CreateTicketInput{})

	assigned, err := env.ticketSvc.Assign(ctx, ticket.ID, []string{"person-001", "person-002"}, tester)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(assigned.AssigneeIDs) != 2 {
		t.Fatalf("assignees = %v", assigned.AssigneeIDs)
	}
	last := assigned.Notes[len(assigned.Notes)-1]
	if last.Type != domain.NoteTypeAssignment || last.Content != "Assigned to Juan Rodriguez, Maria Gonzalez" || last.CreatedBy != tester.ID {
		t.Fatalf("assignment note = %+v", last)
	}

	note, err := env.ticketSvc.AddNote(ctx, ticket.ID, "  parts ordered ", "", tester)
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if note.Type != domain.NoteTypeGeneral || note.Content != "parts ordered" {
		t.Fatalf("note = %+v", note)
	}
	_, err = env.ticketSvc.AddNote(ctx, ticket.ID, " ", "", tester)
	requireCode(t, err, apperrors.CodeValidation)
	_, err = env.ticketSvc.AddNote(ctx, ticket.ID, "x", "GOSSIP", tester)
	requireCode(t, err, apperrors.CodeValidation)

	notes, err := env.ticketSvc.ListNotes(ctx, ticket.ID)
	if err != nil || len(notes) != 2 || notes[1].ID != note.ID {
		t.Fatalf("notes = %+v, %v", notes, err)
	}
	if len(env.dispatcher.ofType(events.EventTicketNoteAdded)) != 1 {
		t.Fatal("expected one note event")
	}
}

func TestCloneTicket(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	src := createTicket(t, env, CreateTicketInput{Assignees: AssigneeInput{IDs: []string{"person-001"}}})
	if _, err := env.ticketSvc.Cancel(ctx, src.ID, "", tester); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	clone, err := env.ticketSvc.Clone(ctx, src.ID)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if clone.ID == src.ID || clone.Status != domain.TicketStatusNew || len(clone.Notes) != 0 {
		t.Fatalf("clone = %+v", clone)
	}
	if len(clone.AssigneeIDs) != 1 || clone.AssigneeIDs[0] != "person-001" {
		t.Fatalf("clone assignees = %v", clone.AssigneeIDs)
	}
}

func TestDeleteTickets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := createTicket(t, env, CreateTicketInput{})
	for i := 0; i < 4; i++ {
		createTicket(t, env, CreateTicketInput{})
	}

	if err := env.ticketSvc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	requireCode(t, env.ticketSvc.Delete(ctx, first.ID), apperrors.CodeNotFound)

	count, err := env.ticketSvc.DeleteAll(ctx)
	if err != nil || count != 4 {
		t.Fatalf("DeleteAll = %d, %v", count, err)
	}
}

func TestCreateFromCaller(t *testing.T) {
	env := newTestEnv(t)
	ticket, err := env.ticketSvc.CreateFromCaller(context.Background(), IntakeInput{
		Description: "AC not cooling",
		FromText:    "Carlos Martinez (5638)",
		Source:      domain.TicketSourcePhoneSystem,
	})
	if err != nil {
		t.Fatalf("CreateFromCaller: %v", err)
	}
	if ticket.Source != domain.TicketSourcePhoneSystem || ticket.Description != "AC not cooling" {
		t.Fatalf("ticket = %+v", ticket)
	}
	if ticket.Reporter == nil || ticket.Reporter.ID != "person-003" {
		t.Fatalf("reporter = %+v", ticket.Reporter)
	}
	if ticket.LocationID == nil || *ticket.LocationID != "loc-001" {
		t.Fatalf("location = %v", ticket.LocationID)
	}

	_, err = env.ticketSvc.CreateFromCaller(context.Background(), IntakeInput{FromText: "x", ReporterID: strPtr("ghost")})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestExportTickets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	createTicket(t, env, CreateTicketInput{Title: "First"})
	createTicket(t, env, CreateTicketInput{Title: "Second", ReporterID: strPtr("person-004")})

	data, filename, err := env.ticketSvc.ExportTickets(ctx, repository.TicketFilter{})
	if err != nil {
		t.Fatalf("ExportTickets: %v", err)
	}
	if filename == "" {
		t.Fatal("empty filename")
	}
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2", len(rows))
	}
}

func TestCreateFromEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	known, err := env.ticketSvc.CreateFromEmail(ctx, EmailTicketInput{
		FromAddress: " Ana@Norte.com ",
		FromName:    "ana",
		Subject:     "Kitchen leak",
		Body:        "Water under the sink",
	})
	if err != nil {
		t.Fatalf("CreateFromEmail() error = %v", err)
	}
	if known.Source != domain.TicketSourceEmail || known.Title != "Ana Lopez" {
		t.Fatalf("source/title = %s/%q", known.Source, known.Title)
	}
	if known.ReporterID == nil || *known.ReporterID != "person-004" || known.LocationID == nil || *known.LocationID != "loc-002" {
		t.Fatalf("reporter/location = %v/%v", known.ReporterID, known.LocationID)
	}
	if known.Description != "Kitchen leak\n\nWater under the sink" {
		t.Fatalf("description = %q", known.Description)
	}

	stranger, err := env.ticketSvc.CreateFromEmail(ctx, EmailTicketInput{FromAddress: "pedro@sur.com", Subject: "Broken door"})
	if err != nil {
		t.Fatalf("CreateFromEmail() error = %v", err)
	}
	if stranger.Reporter != nil || stranger.LocationID == nil || *stranger.LocationID != "loc-003" {
		t.Fatalf("stranger reporter/location = %v/%v", stranger.Reporter, stranger.LocationID)
	}

	created := env.dispatcher.ofType(events.EventTicketCreated)
	if len(created) != 2 {
		t.Fatalf("created events = %d", len(created))
	}
	if p := created[1].Payload.(events.TicketCreatedPayload); p.ReporterEmail != "pedro@sur.com" || p.Source != domain.TicketSourceEmail {
		t.Fatalf("payload = %+v", p)
	}

	for _, in := range []EmailTicketInput{
		{FromAddress: "", Subject: "x"},
		{FromAddress: "nobody", Subject: "x"},
		{FromAddress: "a@b.com"},
	} {
		_, err := env.ticketSvc.CreateFromEmail(ctx, in)
		requireCode(t, err, apperrors.CodeValidation)
	}
}

func TestMigrateNotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, id := range []string{"legacy-1", "legacy-2"} {
		ticket := env.factory.FromWeb("Old "+id, "", TicketOptions{})
		ticket.ID = id
		ticket.Notes = nil
		if err := env.tickets.Create(ctx, ticket); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	createTicket(t, env, CreateTicketInput{Title: "Current"})

	migrated, err := env.ticketSvc.MigrateNotes(ctx)
	if err != nil || migrated != 2 {
		t.Fatalf("MigrateNotes() = %d, %v", migrated, err)
	}
	stored, _ := env.tickets.GetByID(ctx, "legacy-1")
	if stored.Notes == nil {
		t.Fatal("notes should be initialized")
	}
	if again, _ := env.ticketSvc.MigrateNotes(ctx); again != 0 {
		t.Fatalf("second run migrated %d", again)
	}
}

func TestUpdateDeduplicatesAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ticket := createTicket(t, env, CreateTicketInput{})

	atts := []domain.AttachmentRef{
		canonicalAttachment("att-1", "a.pdf"),
		canonicalAttachment("att-2", "b.pdf"),
		canonicalAttachment("att-1", "a-copy.pdf"),
	}
	updated, err := env.ticketSvc.Update(ctx, ticket.ID, UpdateTicketInput{Attachments: &atts})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.Attachments) != 2 || updated.Attachments[0].ID != "att-1" || updated.Attachments[1].ID != "att-2" {
		t.Fatalf("attachments = %+v", updated.Attachments)
	}
	if updated.Attachments[0].Filename != "a.pdf" {
		t.Fatalf("first occurrence should win, got %q", updated.Attachments[0].Filename)
	}
	stored, err := env.tickets.GetByID(ctx, ticket.ID)
	if err != nil || len(stored.Attachments) != 2 {
		t.Fatalf("stored = %+v, %v", stored, err)
	}
}

func TestCreateFromTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	repair := createTicket(t, env, CreateTicketInput{Title: " ", Template: TemplateRepair})
	if repair.Title != "Repair Task" || repair.Description != "Equipment repair required" || repair.Priority != domain.TicketPriorityHigh {
		t.Fatalf("repair = %+v", repair)
	}
	if repair.Category == nil || *repair.Category != domain.TicketCategoryCorrective {
		t.Fatalf("repair category = %v", repair.Category)
	}

	low := domain.TicketPriorityLow
	inspection := createTicket(t, env, CreateTicketInput{Title: "Roof check", Priority: low, Template: TemplateInspection})
	if inspection.Title != "Roof check" || inspection.Description != "Routine inspection task" || inspection.Priority != low {
		t.Fatalf("inspection = %+v", inspection)
	}

	_, err := env.ticketSvc.Create(ctx, CreateTicketInput{Template: "demolition"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestCreateWithInitialNote(t *testing.T) {
	env := newTestEnv(t)
	ticket := createTicket(t, env, CreateTicketInput{Note: " call before visiting ", Actor: tester})

	if ticket.Source != domain.TicketSourceWeb || len(ticket.Notes) != 1 {
		t.Fatalf("ticket = %+v", ticket)
	}
	note := ticket.Notes[0]
	if note.Content != "call before visiting" || note.Type != domain.NoteTypeGeneral || note.CreatedBy != tester.ID || !note.CreatedAt.Equal(ticket.CreatedAt) {
		t.Fatalf("note = %+v", note)
	}

	_, err := env.ticketSvc.Create(context.Background(), CreateTicketInput{Title: "x", Note: "y", NoteType: "GOSSIP"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestCreateWorkTickets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	site := &domain.LocationKey{LocationTypeID: "building", LocationID: "loc-002"}

	emergency, err := env.ticketSvc.CreateEmergency(ctx, WorkTicketInput{
		Title:      "Gas smell",
		Priority:   domain.TicketPriorityLow,
		ReporterID: strPtr("person-004"),
		Location:   site,
	})
	if err != nil {
		t.Fatalf("CreateEmergency: %v", err)
	}
	if emergency.Priority != domain.TicketPriorityHigh || *emergency.Category != domain.TicketCategoryEmergency || emergency.Location.ID != "loc-002" {
		t.Fatalf("emergency = %+v", emergency)
	}

	preventive, err := env.ticketSvc.CreatePreventive(ctx, WorkTicketInput{
		Title:       "Filter change",
		AssigneeIDs: []string{"person-001", "person-001"},
	})
	if err != nil {
		t.Fatalf("CreatePreventive: %v", err)
	}
	if *preventive.Category != domain.TicketCategoryPreventive || len(preventive.AssigneeIDs) != 1 || preventive.Reporter != nil {
		t.Fatalf("preventive = %+v", preventive)
	}

	corrective, err := env.ticketSvc.CreateCorrective(ctx, WorkTicketInput{
		Title:       "Broken window",
		ReporterID:  strPtr("person-003"),
		Location:    site,
		AssigneeIDs: []string{"person-002"},
	})
	if err != nil {
		t.Fatalf("CreateCorrective: %v", err)
	}
	if *corrective.Category != domain.TicketCategoryCorrective || corrective.Reporter.ID != "person-003" || corrective.AssigneeIDs[0] != "person-002" {
		t.Fatalf("corrective = %+v", corrective)
	}
	if got := len(env.dispatcher.ofType(events.EventTicketCreated)); got != 3 {
		t.Fatalf("created events = %d", got)
	}

	tests := []struct {
		name   string
		create func(context.Context, WorkTicketInput) (*domain.Ticket, error)
		in     WorkTicketInput
		code   string
	}{
		{"emergency without location", env.ticketSvc.CreateEmergency, WorkTicketInput{Title: "x"}, apperrors.CodeValidation},
		{"emergency at unknown location", env.ticketSvc.CreateEmergency, WorkTicketInput{Title: "x", Location: &domain.LocationKey{LocationID: "loc-999"}}, apperrors.CodeInvalidLocation},
		{"preventive without assignees", env.ticketSvc.CreatePreventive, WorkTicketInput{Title: "x", AssigneeIDs: []string{" "}}, apperrors.CodeValidation},
		{"preventive with reporter", env.ticketSvc.CreatePreventive, WorkTicketInput{Title: "x", AssigneeIDs: []string{"person-001"}, ReporterID: strPtr("person-003")}, apperrors.CodeValidation},
		{"preventive with unknown assignee", env.ticketSvc.CreatePreventive, WorkTicketInput{Title: "x", AssigneeIDs: []string{"ghost"}}, apperrors.CodeInvalidAssignee},
		{"corrective without reporter", env.ticketSvc.CreateCorrective, WorkTicketInput{Title: "x", Location: site}, apperrors.CodeValidation},
		{"corrective without title", env.ticketSvc.CreateCorrective, WorkTicketInput{ReporterID: strPtr("person-003"), Location: site}, apperrors.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.create(ctx, tt.in)
			requireCode(t, err, tt.code)
		})
	}
}
