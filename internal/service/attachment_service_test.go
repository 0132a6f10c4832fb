package service

import (
	"context"
	"testing"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/events"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

func seedTicket(t *testing.T, env *testEnv, id string, atts ...domain.AttachmentRef) {
	t.Helper()
	ticket := env.factory.FromWeb("Ticket "+id, "", TicketOptions{Attachments: atts})
	ticket.ID = id
	if err := env.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func TestUploadAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedTicket(t, env, "ticket-1")

	att, err := env.attachSvc.Upload(ctx, "ticket-1", `C:\scans\invoice.pdf`, "", []byte("data"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if att.Filename != "invoice.pdf" || att.ContentType != "application/pdf" || att.IsLegacy() {
		t.Fatalf("attachment = %+v", att)
	}
	if !env.store.has("tickets/2024-03-15/invoice.pdf") {
		t.Fatal("file not stored under the canonical folder")
	}
	stored, _ := env.tickets.GetByID(ctx, "ticket-1")
	if len(stored.Attachments) != 1 || stored.Attachments[0].ID != att.ID {
		t.Fatalf("stored attachments = %+v", stored.Attachments)
	}

	_, err = env.attachSvc.Upload(ctx, "ticket-1", "empty.pdf", "", nil)
	requireCode(t, err, apperrors.CodeValidation)
	_, err = env.attachSvc.Upload(ctx, "ticket-1", " ", "", []byte("x"))
	requireCode(t, err, apperrors.CodeValidation)
	_, err = env.attachSvc.Upload(ctx, "ticket-404", "a.pdf", "", []byte("x"))
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestListAttachmentsMigratesLegacy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.store.put("old.pdf", []byte("old"))
	seedTicket(t, env, "ticket-1", legacyAttachment("att-old", "old.pdf"), canonicalAttachment("att-new", "new.pdf"))

	atts, err := env.attachSvc.ListTicketAttachments(ctx, "ticket-1")
	if err != nil {
		t.Fatalf("ListTicketAttachments: %v", err)
	}
	if len(atts) != 2 || domain.AnyLegacy(atts) {
		t.Fatalf("attachments = %+v", atts)
	}
	if atts[1].ID != "att-new" {
		t.Fatalf("canonical attachment moved or replaced: %+v", atts[1])
	}
	stored, _ := env.tickets.GetByID(ctx, "ticket-1")
	if domain.AnyLegacy(stored.Attachments) {
		t.Fatal("migration was not persisted")
	}
	migrated := env.dispatcher.ofType(events.EventAttachmentsMigrated)
	if len(migrated) != 1 {
		t.Fatalf("migrated events = %d", len(migrated))
	}
	if p := migrated[0].Payload.(events.AttachmentsMigratedPayload); p.Migrated != 1 || p.Failed != 0 {
		t.Fatalf("payload = %+v", p)
	}

	calls := env.store.callCount()
	if _, err := env.attachSvc.ListTicketAttachments(ctx, "ticket-1"); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if env.store.callCount() != calls {
		t.Fatal("second list touched the store")
	}
}

func TestListAttachmentsKeepsFailedLegacy(t *testing.T) {
	env := newTestEnv(t)
	seedTicket(t, env, "ticket-1", legacyAttachment("att-gone", "gone.pdf"))

	atts, err := env.attachSvc.ListTicketAttachments(context.Background(), "ticket-1")
	if err != nil {
		t.Fatalf("ListTicketAttachments: %v", err)
	}
	if len(atts) != 1 || atts[0].ID != "att-gone" {
		t.Fatalf("attachments = %+v", atts)
	}
}

func TestListAttachmentsEmpty(t *testing.T) {
	env := newTestEnv(t)
	seedTicket(t, env, "ticket-1")
	atts, err := env.attachSvc.ListTicketAttachments(context.Background(), "ticket-1")
	if err != nil || atts == nil || len(atts) != 0 {
		t.Fatalf("attachments = %v, %v", atts, err)
	}
}

func TestDownloadAndDeleteAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seedTicket(t, env, "ticket-1", canonicalAttachment("att-1", "a.pdf"), canonicalAttachment("att-2", "b.pdf"))
	env.store.put("tickets/2024-03-15/a.pdf", []byte("aaa"))

	data, att, err := env.attachSvc.Download(ctx, "ticket-1", "att-1")
	if err != nil || string(data) != "aaa" || att.Filename != "a.pdf" {
		t.Fatalf("Download = %q %+v %v", data, att, err)
	}
	_, _, err = env.attachSvc.Download(ctx, "ticket-1", "att-2")
	requireCode(t, err, apperrors.CodeNotFound)
	_, _, err = env.attachSvc.Download(ctx, "ticket-1", "att-404")
	requireCode(t, err, apperrors.CodeNotFound)

	if err := env.attachSvc.Delete(ctx, "ticket-1", "att-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if env.store.has("tickets/2024-03-15/a.pdf") {
		t.Fatal("file not deleted")
	}
	// b.pdf was never stored; the reference still goes away.
	if err := env.attachSvc.Delete(ctx, "ticket-1", "att-2"); err != nil {
		t.Fatalf("Delete missing file: %v", err)
	}
	stored, _ := env.tickets.GetByID(ctx, "ticket-1")
	if len(stored.Attachments) != 0 {
		t.Fatalf("attachments left = %+v", stored.Attachments)
	}
	requireCode(t, env.attachSvc.Delete(ctx, "ticket-1", "att-1"), apperrors.CodeNotFound)
}

func TestMigrateAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.store.put("one.pdf", []byte("1"))
	env.store.put("two.pdf", []byte("2"))
	seedTicket(t, env, "ticket-a", legacyAttachment("a1", "one.pdf"))
	seedTicket(t, env, "ticket-b", legacyAttachment("b1", "two.pdf"), legacyAttachment("b2", "missing.pdf"))
	seedTicket(t, env, "ticket-c", canonicalAttachment("c1", "c.pdf"))
	seedTicket(t, env, "ticket-d")

	summary, err := env.attachSvc.MigrateAll(ctx)
	if err != nil {
		t.Fatalf("MigrateAll: %v", err)
	}
	if summary.TotalTickets != 3 {
		t.Fatalf("total = %d, want 3", summary.TotalTickets)
	}
	if summary.MigratedTickets != 2 || summary.ErrorsCount != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("results = %+v", summary.Results)
	}
	for _, r := range summary.Results {
		if r.TicketID == "ticket-b" && (r.Migrated != 1 || r.Failed != 1 || len(r.Errors) != 1) {
			t.Fatalf("ticket-b report = %+v", r)
		}
	}

	b, _ := env.tickets.GetByID(ctx, "ticket-b")
	if b.Attachments[0].IsLegacy() || b.Attachments[1].ID != "b2" {
		t.Fatalf("ticket-b attachments = %+v", b.Attachments)
	}

	again, err := env.attachSvc.MigrateAll(ctx)
	if err != nil || again.MigratedTickets != 0 || again.ErrorsCount != 1 {
		t.Fatalf("second sweep = %+v, %v", again, err)
	}
}

func TestMigrateTicketAndGetAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.store.put("plan.pdf", []byte("plan"))
	seedTicket(t, env, "ticket-1", legacyAttachment("att-plan", "plan.pdf"), legacyAttachment("att-lost", "lost.pdf"))

	result, err := env.attachSvc.MigrateTicket(ctx, "ticket-1")
	if err != nil {
		t.Fatalf("MigrateTicket: %v", err)
	}
	if len(result.Succeeded) != 1 || len(result.Failed) != 1 || result.Failed[0].Index != 1 {
		t.Fatalf("result = %+v", result)
	}
	requireCode(t, result.Failed[0].Err, apperrors.CodeDownloadFailed)

	migrated := result.Attachments[0]
	got, err := env.attachSvc.GetAttachment(ctx, "ticket-1", migrated.ID)
	if err != nil {
		t.Fatalf("GetAttachment: %v", err)
	}
	if got.FolderPath != "tickets/2024-03-15" || got.IsLegacy() {
		t.Fatalf("attachment = %+v", got)
	}

	_, err = env.attachSvc.GetAttachment(ctx, "ticket-1", "att-plan")
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = env.attachSvc.MigrateTicket(ctx, "ticket-404")
	requireCode(t, err, apperrors.CodeNotFound)
}
