package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/events"
	"github.com/spec-kit/maintenance-tickets/internal/filestore"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// maxReportedResults caps the per-ticket entries returned by MigrateAll.
const maxReportedResults = 50

// AttachmentService manages ticket files.
type AttachmentService struct {
	tickets    repository.TicketRepository
	store      filestore.Store
	migrator   *AttachmentMigrator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	sweepSize  int
	now        func() time.Time
}

// AttachmentDependencies bundles collaborators for the attachment service.
type AttachmentDependencies struct {
	TicketRepo    repository.TicketRepository
	Store         filestore.Store
	Migrator      *AttachmentMigrator
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	SweepPageSize int
}

// TicketMigrationReport summarizes one ticket in a sweep.
type TicketMigrationReport struct {
	TicketID string   `json:"ticketId"`
	Migrated int      `json:"migrated"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// MigrationSummary is the outcome of MigrateAll.
type MigrationSummary struct {
	TotalTickets    int                     `json:"totalTickets"`
	MigratedTickets int                     `json:"migratedTickets"`
	ErrorsCount     int                     `json:"errorsCount"`
	Results         []TicketMigrationReport `json:"results"`
}

// NewAttachmentService constructs the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sweep := deps.SweepPageSize
	if sweep <= 0 {
		sweep = 100
	}
	return &AttachmentService{
		tickets:    deps.TicketRepo,
		store:      deps.Store,
		migrator:   deps.Migrator,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		sweepSize:  sweep,
		now:        time.Now,
	}
}

// Upload stores data under tickets/<today>/<filename> and appends the reference.
func (s *AttachmentService) Upload(ctx context.Context, ticketID, filename, contentType string, data []byte) (*domain.AttachmentRef, error) {
	filename = path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if filename == "" || filename == "." || filename == "/" {
		return nil, apperrors.NewValidationError("filename is required", map[string]any{"field": "filename"})
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("file is empty", map[string]any{"field": "file"})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	folder := domain.CanonicalFolder(now)
	contentType = filestore.ContentTypeFor(filename, contentType)
	uploaded, err := s.store.Upload(ctx, data, filename, contentType, folder)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	size := uploaded.Size
	att := domain.AttachmentRef{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		Size:        &size,
		URL:         uploaded.URL,
		UploadedAt:  &now,
		UploadDate:  now.Format(domain.UploadDateLayout),
		FolderPath:  folder,
	}

	atts := append(append([]domain.AttachmentRef{}, ticket.Attachments...), att)
	if _, err := s.tickets.Update(ctx, ticketID, repository.NewTicketPatch().SetAttachments(atts)); err != nil {
		return nil, err
	}
	return &att, nil
}

// ListTicketAttachments returns the ticket's attachments, first migrating all
// of them when any one is still in a legacy shape.
func (s *AttachmentService) ListTicketAttachments(ctx context.Context, ticketID string) ([]domain.AttachmentRef, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if len(ticket.Attachments) == 0 {
		return []domain.AttachmentRef{}, nil
	}
	if !domain.AnyLegacy(ticket.Attachments) {
		return ticket.Attachments, nil
	}
	updated, _, err := s.migrateTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}
	return updated.Attachments, nil
}

// GetAttachment finds one attachment on a ticket.
func (s *AttachmentService) GetAttachment(ctx context.Context, ticketID, attachmentID string) (*domain.AttachmentRef, error) {
	atts, err := s.ListTicketAttachments(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	for i := range atts {
		if atts[i].ID == attachmentID {
			return &atts[i], nil
		}
	}
	return nil, apperrors.NewNotFound("attachment", map[string]any{"ticketId": ticketID, "attachmentId": attachmentID})
}

// Download returns the file bytes and content type of one attachment.
func (s *AttachmentService) Download(ctx context.Context, ticketID, attachmentID string) ([]byte, *domain.AttachmentRef, error) {
	att, err := s.GetAttachment(ctx, ticketID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.store.Download(ctx, attachmentFolder(*att), att.Filename)
	if errors.Is(err, filestore.ErrNotExist) {
		return nil, nil, apperrors.NewNotFound("attachment file", map[string]any{"ticketId": ticketID, "attachmentId": attachmentID})
	}
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	return data, att, nil
}

// Delete removes the stored file and the reference. A file already gone
// from the store does not block removing the reference.
func (s *AttachmentService) Delete(ctx context.Context, ticketID, attachmentID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	idx := -1
	for i := range ticket.Attachments {
		if ticket.Attachments[i].ID == attachmentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.NewNotFound("attachment", map[string]any{"ticketId": ticketID, "attachmentId": attachmentID})
	}
	att := ticket.Attachments[idx]
	if folder := attachmentFolder(att); folder != "" {
		if _, err := s.store.Delete(ctx, folder, att.Filename); err != nil {
			s.logger.Warn("attachment file delete failed",
				zap.String("ticket_id", ticketID), zap.String("attachment_id", attachmentID), zap.Error(err))
		}
	}
	remaining := make([]domain.AttachmentRef, 0, len(ticket.Attachments)-1)
	remaining = append(remaining, ticket.Attachments[:idx]...)
	remaining = append(remaining, ticket.Attachments[idx+1:]...)
	_, err = s.tickets.Update(ctx, ticketID, repository.NewTicketPatch().SetAttachments(remaining))
	return err
}

// MigrateTicket migrates the legacy attachments of one ticket.
func (s *AttachmentService) MigrateTicket(ctx context.Context, ticketID string) (MigrationResult, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return MigrationResult{}, err
	}
	_, result, err := s.migrateTicket(ctx, ticket)
	return result, err
}

// MigrateAll sweeps every ticket with attachments. Per-ticket failures are
// counted and reported, never fatal to the sweep.
func (s *AttachmentService) MigrateAll(ctx context.Context) (MigrationSummary, error) {
	summary := MigrationSummary{Results: []TicketMigrationReport{}}
	var candidates []domain.Ticket
	err := s.tickets.ForEach(ctx, repository.TicketFilter{HasAttachments: true, PageSize: s.sweepSize}, func(t domain.Ticket) error {
		summary.TotalTickets++
		if domain.AnyLegacy(t.Attachments) {
			candidates = append(candidates, t)
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		report := TicketMigrationReport{TicketID: candidates[i].ID}
		_, result, err := s.migrateTicket(ctx, &candidates[i])
		report.Migrated = len(result.Succeeded)
		report.Failed = len(result.Failed)
		for _, f := range result.Failed {
			report.Errors = append(report.Errors, f.Attachment.Filename+": "+f.Err.Error())
		}
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
		}
		if report.Migrated > 0 && err == nil {
			summary.MigratedTickets++
		}
		if report.Failed > 0 || err != nil {
			summary.ErrorsCount++
		}
		if len(summary.Results) < maxReportedResults {
			summary.Results = append(summary.Results, report)
		}
	}
	s.logger.Info("attachment sweep finished",
		zap.Int("total_tickets", summary.TotalTickets),
		zap.Int("migrated_tickets", summary.MigratedTickets),
		zap.Int("errors", summary.ErrorsCount))
	return summary, nil
}

// migrateTicket migrates every attachment of ticket and persists the list when
// anything changed. The audio reference is migrated alongside.
func (s *AttachmentService) migrateTicket(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, MigrationResult, error) {
	result := s.migrator.MigrateMany(ctx, ticket.ID, ticket.Attachments, nil)
	patch := repository.NewTicketPatch()
	if result.Changed() {
		patch.SetAttachments(result.Attachments)
	}
	if ticket.Audio != nil && ticket.Audio.IsLegacy() {
		audio, err := s.migrator.Migrate(ctx, *ticket.Audio, ticket.ID, nil)
		if err != nil {
			s.logger.Warn("audio migration failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		} else {
			patch.SetAudio(&audio)
		}
	}
	if patch.Empty() {
		return ticket, result, nil
	}
	updated, err := s.tickets.Update(ctx, ticket.ID, patch)
	if err != nil {
		return nil, result, err
	}
	s.publishMigrated(ctx, ticket.ID, result)
	return updated, result, nil
}

func (s *AttachmentService) publishMigrated(ctx context.Context, ticketID string, result MigrationResult) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAttachmentsMigrated,
		TicketID:  ticketID,
		Timestamp: time.Now(),
		Payload: events.AttachmentsMigratedPayload{
			Migrated: len(result.Succeeded),
			Failed:   len(result.Failed),
		},
	})
}

// attachmentFolder is where the file of a canonical attachment lives.
func attachmentFolder(att domain.AttachmentRef) string {
	if att.FolderPath != "" {
		return att.FolderPath
	}
	if att.UploadDate != "" {
		return domain.CanonicalFolderFor(att.UploadDate)
	}
	return ""
}
