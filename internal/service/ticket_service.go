package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/events"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// DefaultBulkConcurrency bounds fan-out of administrative bulk operations.
const DefaultBulkConcurrency = 4

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	factory     *TicketFactory
	resolver    *AssignmentResolver
	lifecycle   *TicketLifecycle
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo      repository.TicketRepository
	Factory         *TicketFactory
	Resolver        *AssignmentResolver
	Lifecycle       *TicketLifecycle
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	BulkConcurrency int
}

// CreateTicketInput describes a ticket submitted through the API.
type CreateTicketInput struct {
	Title         string
	Description   string
	PhoneNumber   string
	Transcription *string
	Priority      domain.TicketPriority
	Category      *domain.TicketCategory
	Subcategory   *domain.TicketSubcategory
	Source        domain.TicketSource
	Audio         *domain.AttachmentRef
	Attachments   []domain.AttachmentRef
	ReporterID    *string
	Location      *domain.LocationKey
	Assignees     AssigneeInput
	// Template prefills title, description, priority and category when they are empty.
	Template TemplateKind
	// Note, when set, becomes the first entry of the ticket log.
	Note     string
	NoteType domain.NoteType
	Actor    domain.Actor
}

// WorkTicketInput describes an emergency, preventive or corrective ticket.
// The category always follows the method called.
type WorkTicketInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Subcategory *domain.TicketSubcategory
	ReporterID  *string
	Location    *domain.LocationKey
	AssigneeIDs []string
	Attachments []domain.AttachmentRef
}

// IntakeInput describes a ticket arriving as raw caller text.
type IntakeInput struct {
	Audio         *domain.AttachmentRef
	Description   string
	FromText      string
	ReporterEmail string
	Transcription *string
	Source        domain.TicketSource
	Priority      domain.TicketPriority
	Category      *domain.TicketCategory
	Subcategory   *domain.TicketSubcategory
	Attachments   []domain.AttachmentRef
	ReporterID    *string
	Location      *domain.LocationKey
}

// UpdateTicketInput is a partial update. Nil pointers and unset Nullables
// leave the field alone; Set Nullables holding nil clear it.
type UpdateTicketInput struct {
	Title         *string
	Description   *string
	PhoneNumber   *string
	Transcription domain.Nullable[string]
	Priority      *domain.TicketPriority
	Category      domain.Nullable[domain.TicketCategory]
	Subcategory   domain.Nullable[domain.TicketSubcategory]
	Source        *domain.TicketSource
	Status        *domain.TicketStatus
	ResolvedAt    domain.Nullable[time.Time]
	ClosedAt      domain.Nullable[time.Time]
	Reason        string
	AssigneeIDs   domain.Nullable[[]string]
	Assignees     []domain.Person
	ReporterID    domain.Nullable[string]
	Location      domain.Nullable[domain.LocationKey]
	Audio         domain.Nullable[domain.AttachmentRef]
	Attachments   *[]domain.AttachmentRef
	Actor         domain.Actor
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := deps.BulkConcurrency
	if concurrency <= 0 {
		concurrency = DefaultBulkConcurrency
	}
	lifecycle := deps.Lifecycle
	if lifecycle == nil {
		lifecycle = NewTicketLifecycle()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		factory:     deps.Factory,
		resolver:    deps.Resolver,
		lifecycle:   lifecycle,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Create resolves every reference before the ticket is written; any
// unresolvable id rejects the request.
func (s *TicketService) Create(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	if input.Template != "" {
		if err := s.applyTemplate(&input); err != nil {
			return nil, err
		}
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if err := validateClassification(input.Priority, input.Category, input.Source); err != nil {
		return nil, err
	}
	if input.NoteType != "" && !input.NoteType.Valid() {
		return nil, apperrors.NewValidationError("invalid note type", map[string]any{"field": "noteType", "value": input.NoteType})
	}

	assignees, err := s.resolver.ResolveForCreate(ctx, input.Assignees)
	if err != nil {
		return nil, err
	}
	reporter, err := s.resolver.ResolveReporter(ctx, nullableFromPtr(input.ReporterID))
	if err != nil {
		return nil, err
	}
	location, err := s.resolver.ResolveLocation(ctx, nullableFromPtr(input.Location))
	if err != nil {
		return nil, err
	}

	opts := TicketOptions{
		Priority:    input.Priority,
		Category:    input.Category,
		Subcategory: input.Subcategory,
		Reporter:    reporter,
		Location:    location,
		Assignees:   assignees,
		Attachments: input.Attachments,
	}
	source := input.Source
	if source == "" {
		source = domain.TicketSourceWeb
	}
	var ticket *domain.Ticket
	if note := strings.TrimSpace(input.Note); note != "" {
		ticket = s.factory.WithNote(title, input.Description, source, opts, note, input.NoteType, input.Actor)
	} else {
		ticket = s.factory.FromWeb(title, input.Description, opts)
		ticket.Source = source
	}
	ticket.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	ticket.Transcription = input.Transcription
	ticket.Audio = input.Audio

	return s.insert(ctx, ticket, "")
}

// applyTemplate fills the fields the caller left empty from the named template.
func (s *TicketService) applyTemplate(input *CreateTicketInput) error {
	tmpl, description, ok := s.factory.Template(input.Template)
	if !ok {
		return apperrors.NewValidationError("unknown template", map[string]any{"field": "template", "value": input.Template})
	}
	if strings.TrimSpace(input.Title) == "" {
		input.Title = tmpl.Title
	}
	if strings.TrimSpace(input.Description) == "" {
		input.Description = description
	}
	if input.Priority == "" {
		input.Priority = tmpl.Priority
	}
	if input.Category == nil {
		input.Category = tmpl.Category
	}
	return nil
}

// CreateEmergency files a HIGH priority EMERGENCY ticket. The location is
// required; Priority is ignored.
func (s *TicketService) CreateEmergency(ctx context.Context, input WorkTicketInput) (*domain.Ticket, error) {
	if input.Location == nil {
		return nil, apperrors.NewValidationError("location is required", map[string]any{"field": "locationId"})
	}
	refs, err := s.resolveWork(ctx, input)
	if err != nil {
		return nil, err
	}
	ticket := s.factory.Emergency(refs.title, input.Description, refs.location, refs.reporter, input.Attachments)
	ticket.Subcategory = normalizeSubcategory(input.Subcategory)
	ticket.SetAssignees(refs.assignees)
	return s.insert(ctx, ticket, "")
}

// CreatePreventive files scheduled PREVENTIVE work. At least one assignee is
// required and the ticket carries no reporter.
func (s *TicketService) CreatePreventive(ctx context.Context, input WorkTicketInput) (*domain.Ticket, error) {
	if len(uniqueIDs(input.AssigneeIDs)) == 0 {
		return nil, apperrors.NewValidationError("at least one assignee is required", map[string]any{"field": "assigneeIds"})
	}
	if input.ReporterID != nil {
		return nil, apperrors.NewValidationError("preventive tickets have no reporter", map[string]any{"field": "reporterId"})
	}
	refs, err := s.resolveWork(ctx, input)
	if err != nil {
		return nil, err
	}
	ticket := s.factory.Preventive(refs.title, input.Description, refs.assignees, TicketOptions{
		Priority:    input.Priority,
		Subcategory: input.Subcategory,
		Location:    refs.location,
		Attachments: input.Attachments,
	})
	return s.insert(ctx, ticket, "")
}

// CreateCorrective files reported CORRECTIVE work. Both reporter and location
// are required.
func (s *TicketService) CreateCorrective(ctx context.Context, input WorkTicketInput) (*domain.Ticket, error) {
	if input.ReporterID == nil || strings.TrimSpace(*input.ReporterID) == "" {
		return nil, apperrors.NewValidationError("reporter is required", map[string]any{"field": "reporterId"})
	}
	if input.Location == nil {
		return nil, apperrors.NewValidationError("location is required", map[string]any{"field": "locationId"})
	}
	refs, err := s.resolveWork(ctx, input)
	if err != nil {
		return nil, err
	}
	ticket := s.factory.Corrective(refs.title, input.Description, refs.reporter, refs.location, TicketOptions{
		Priority:    input.Priority,
		Subcategory: input.Subcategory,
		Assignees:   refs.assignees,
		Attachments: input.Attachments,
	})
	return s.insert(ctx, ticket, "")
}

type workRefs struct {
	title     string
	reporter  domain.Ref[domain.Person]
	location  domain.Ref[domain.Location]
	assignees []domain.Ref[domain.Person]
}

func (s *TicketService) resolveWork(ctx context.Context, input WorkTicketInput) (workRefs, error) {
	var refs workRefs
	refs.title = strings.TrimSpace(input.Title)
	if refs.title == "" {
		return refs, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}
	if input.Priority != "" && !input.Priority.Valid() {
		return refs, apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority", "value": input.Priority})
	}
	var err error
	if refs.assignees, err = s.resolver.ResolveForCreate(ctx, AssigneeInput{IDs: input.AssigneeIDs}); err != nil {
		return refs, err
	}
	if refs.reporter, err = s.resolver.ResolveReporter(ctx, nullableFromPtr(input.ReporterID)); err != nil {
		return refs, err
	}
	if refs.location, err = s.resolver.ResolveLocation(ctx, nullableFromPtr(input.Location)); err != nil {
		return refs, err
	}
	return refs, nil
}

func (s *TicketService) insert(ctx context.Context, ticket *domain.Ticket, contactEmail string) (*domain.Ticket, error) {
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishCreated(ctx, ticket, contactEmail)
	return ticket, nil
}

// CreateFromCaller builds a ticket from phone-system or inbox caller text.
// Explicit reporter and location ids must resolve; auto-assignment is best-effort.
func (s *TicketService) CreateFromCaller(ctx context.Context, input IntakeInput) (*domain.Ticket, error) {
	if err := validateClassification(input.Priority, input.Category, input.Source); err != nil {
		return nil, err
	}
	reporter, err := s.resolver.ResolveReporter(ctx, nullableFromPtr(input.ReporterID))
	if err != nil {
		return nil, err
	}
	location, err := s.resolver.ResolveLocation(ctx, nullableFromPtr(input.Location))
	if err != nil {
		return nil, err
	}

	ticket := s.factory.FromCallerText(ctx, CallerTicketInput{
		Audio:         input.Audio,
		Description:   input.Description,
		FromText:      input.FromText,
		ReporterEmail: input.ReporterEmail,
		Transcription: input.Transcription,
		Source:        input.Source,
		Options: TicketOptions{
			Priority:    input.Priority,
			Category:    input.Category,
			Subcategory: input.Subcategory,
			Reporter:    reporter,
			Location:    location,
			Attachments: input.Attachments,
		},
	})
	return s.insert(ctx, ticket, input.ReporterEmail)
}

// CreateFromEmail files a ticket from an inbound email. The sender address
// drives reporter and location matching and receives the notifications.
func (s *TicketService) CreateFromEmail(ctx context.Context, input EmailTicketInput) (*domain.Ticket, error) {
	address := domain.NormalizeEmail(input.FromAddress)
	if !strings.Contains(address, "@") {
		return nil, apperrors.NewValidationError("sender address is required", map[string]any{"field": "from"})
	}
	if strings.TrimSpace(input.Subject) == "" && strings.TrimSpace(input.Body) == "" {
		return nil, apperrors.NewValidationError("subject or body is required", map[string]any{"field": "subject"})
	}
	input.FromAddress = address
	ticket := s.factory.FromEmail(ctx, input)
	return s.insert(ctx, ticket, address)
}

// Get returns a ticket by id.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// List returns one page of tickets.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) (docstore.Page[domain.Ticket], error) {
	return s.tickets.List(ctx, filter)
}

// Update applies a partial update as a single patch. Every reference is
// resolved first so a failed lookup leaves the ticket untouched.
func (s *TicketService) Update(ctx context.Context, id string, input UpdateTicketInput) (*domain.Ticket, error) {
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := repository.NewTicketPatch()
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", map[string]any{"field": "title"})
		}
		patch.SetTitle(title)
	}
	if input.Description != nil {
		patch.SetDescription(strings.TrimSpace(*input.Description))
	}
	if input.PhoneNumber != nil {
		patch.SetPhoneNumber(strings.TrimSpace(*input.PhoneNumber))
	}
	if input.Transcription.Set {
		patch.SetTranscription(input.Transcription.Value)
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority", "value": *input.Priority})
		}
		patch.SetPriority(*input.Priority)
	}
	if input.Category.Set {
		if input.Category.Value != nil && !input.Category.Value.Valid() {
			return nil, apperrors.NewValidationError("invalid category", map[string]any{"field": "category", "value": *input.Category.Value})
		}
		patch.SetCategory(input.Category.Value)
	}
	if input.Subcategory.Set {
		patch.SetSubcategory(normalizeSubcategory(input.Subcategory.Value))
	}
	if input.Source != nil {
		if !input.Source.Valid() {
			return nil, apperrors.NewValidationError("invalid source", map[string]any{"field": "source", "value": *input.Source})
		}
		patch.SetSource(*input.Source)
	}
	if input.Audio.Set {
		patch.SetAudio(input.Audio.Value)
	}
	if input.Attachments != nil {
		patch.SetAttachments(*input.Attachments)
	}

	if input.AssigneeIDs.Set && len(input.Assignees) > 0 {
		return nil, apperrors.NewConflictingAssigneeInput()
	}
	switch {
	case input.AssigneeIDs.Set:
		refs, err := s.resolver.ResolveForUpdate(ctx, input.AssigneeIDs)
		if err != nil {
			return nil, err
		}
		patch.SetAssignees(refs)
	case len(input.Assignees) > 0:
		refs, err := s.resolver.ResolveForCreate(ctx, AssigneeInput{Inline: input.Assignees})
		if err != nil {
			return nil, err
		}
		patch.SetAssignees(refs)
	}
	if input.ReporterID.Set {
		ref, err := s.resolver.ResolveReporter(ctx, input.ReporterID)
		if err != nil {
			return nil, err
		}
		patch.SetReporter(ref)
	}
	if input.Location.Set {
		ref, err := s.resolver.ResolveLocation(ctx, input.Location)
		if err != nil {
			return nil, err
		}
		patch.SetLocation(ref)
	}

	var transition *TransitionPatch
	if input.Status != nil {
		tp, err := s.lifecycle.Transition(current, StatusChange{
			Status:     *input.Status,
			ResolvedAt: input.ResolvedAt,
			ClosedAt:   input.ClosedAt,
			Reason:     input.Reason,
			Actor:      input.Actor,
		}, s.now())
		if err != nil {
			return nil, err
		}
		tp.Into(patch, current.Notes)
		transition = &tp
	} else {
		if input.ResolvedAt.Set {
			patch.SetResolvedAt(input.ResolvedAt.Value)
		}
		if input.ClosedAt.Set {
			patch.SetClosedAt(input.ClosedAt.Value)
		}
	}

	if patch.Empty() {
		return current, nil
	}
	updated, err := s.tickets.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if transition != nil && transition.From != transition.Status {
		s.publishStatusChanged(ctx, updated, *transition, input.Reason, input.Actor)
	}
	if patch.Has("assigneeIds") {
		s.publishAssigned(ctx, updated, input.Actor)
	}
	return updated, nil
}

// ChangeStatus applies one lifecycle transition.
func (s *TicketService) ChangeStatus(ctx context.Context, id string, change StatusChange) (*domain.Ticket, error) {
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, current, change)
}

// Cancel moves an open ticket to CANCELLED, recording reason as a note.
func (s *TicketService) Cancel(ctx context.Context, id, reason string, actor domain.Actor) (*domain.Ticket, error) {
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(current.Status) {
		return nil, apperrors.NewTicketAlreadyClosed(string(current.Status))
	}
	return s.transition(ctx, current, StatusChange{
		Status: domain.TicketStatusCancelled,
		Reason: reason,
		Actor:  actor,
	})
}

func (s *TicketService) transition(ctx context.Context, current *domain.Ticket, change StatusChange) (*domain.Ticket, error) {
	tp, err := s.lifecycle.Transition(current, change, s.now())
	if err != nil {
		return nil, err
	}
	patch := repository.NewTicketPatch()
	tp.Into(patch, current.Notes)
	updated, err := s.tickets.Update(ctx, current.ID, patch)
	if err != nil {
		return nil, err
	}
	if tp.From != tp.Status {
		s.publishStatusChanged(ctx, updated, tp, change.Reason, change.Actor)
	}
	return updated, nil
}

// Assign replaces the assignee list and logs an assignment note.
func (s *TicketService) Assign(ctx context.Context, id string, assigneeIDs []string, actor domain.Actor) (*domain.Ticket, error) {
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	refs, err := s.resolver.ResolveForUpdate(ctx, domain.Some(assigneeIDs))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Snapshot().FullName())
	}
	content := "Unassigned"
	if len(names) > 0 {
		content = "Assigned to " + strings.Join(names, ", ")
	}
	note := s.newNote(content, domain.NoteTypeAssignment, actor)

	patch := repository.NewTicketPatch().
		SetAssignees(refs).
		SetNotes(appendNote(current.Notes, note))
	updated, err := s.tickets.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publishAssigned(ctx, updated, actor)
	return updated, nil
}

// AddNote appends a note to the ticket log.
func (s *TicketService) AddNote(ctx context.Context, id, content string, noteType domain.NoteType, actor domain.Actor) (*domain.Note, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("note content is required", map[string]any{"field": "content"})
	}
	if noteType == "" {
		noteType = domain.NoteTypeGeneral
	}
	if !noteType.Valid() {
		return nil, apperrors.NewValidationError("invalid note type", map[string]any{"field": "type", "value": noteType})
	}
	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	note := s.newNote(content, noteType, actor)
	if _, err := s.tickets.Update(ctx, id, repository.NewTicketPatch().SetNotes(appendNote(current.Notes, note))); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketNoteAdded,
		TicketID: id,
		Actor:    eventActor(actor),
		Payload: events.TicketNoteAddedPayload{
			NoteID:      note.ID,
			NoteType:    note.Type,
			BodyPreview: preview(note.Content),
		},
	})
	return &note, nil
}

// ListNotes returns the ticket log oldest first.
func (s *TicketService) ListNotes(ctx context.Context, id string) ([]domain.Note, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Notes == nil {
		return []domain.Note{}, nil
	}
	return ticket.Notes, nil
}

// MigrateNotes gives every ticket stored without a notes array an empty one.
func (s *TicketService) MigrateNotes(ctx context.Context) (int, error) {
	ids, err := s.collectIDs(ctx, repository.TicketFilter{MissingNotes: true})
	if err != nil {
		return 0, err
	}
	migrated := 0
	for _, id := range ids {
		if _, err := s.tickets.Update(ctx, id, repository.NewTicketPatch().SetNotes(nil)); err != nil {
			if apperrors.HasCode(err, apperrors.CodeNotFound) {
				continue
			}
			return migrated, err
		}
		migrated++
	}
	s.logger.Info("ticket notes migrated", zap.Int("count", migrated))
	return migrated, nil
}

// Delete removes one ticket.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	deleted, err := s.tickets.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("ticket", map[string]any{"ticketId": id})
	}
	return nil
}

// DeleteAll removes every ticket with bounded concurrency and returns how
// many were deleted.
func (s *TicketService) DeleteAll(ctx context.Context) (int, error) {
	ids, err := s.collectIDs(ctx, repository.TicketFilter{})
	if err != nil {
		return 0, err
	}
	deleted := make([]bool, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			ok, err := s.tickets.Delete(gctx, id)
			deleted[i] = ok
			return err
		})
	}
	err = g.Wait()
	count := 0
	for _, ok := range deleted {
		if ok {
			count++
		}
	}
	s.logger.Warn("tickets deleted", zap.Int("count", count), zap.Error(err))
	return count, err
}

// Clone copies a ticket into a new NEW ticket.
func (s *TicketService) Clone(ctx context.Context, id string) (*domain.Ticket, error) {
	src, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, s.factory.Clone(src), "")
}

func (s *TicketService) collectIDs(ctx context.Context, filter repository.TicketFilter) ([]string, error) {
	filter.PageSize = docstore.MaxPageSize
	var ids []string
	err := s.tickets.ForEach(ctx, filter, func(t domain.Ticket) error {
		ids = append(ids, t.ID)
		return nil
	})
	return ids, err
}

func (s *TicketService) newNote(content string, noteType domain.NoteType, actor domain.Actor) domain.Note {
	return domain.Note{
		ID:            uuid.NewString(),
		Content:       content,
		Type:          noteType,
		CreatedAt:     s.now().UTC(),
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
	}
}

// publishCreated falls back to contactEmail when no reporter was resolved.
func (s *TicketService) publishCreated(ctx context.Context, t *domain.Ticket, contactEmail string) {
	payload := events.TicketCreatedPayload{
		Source:     t.Source,
		Priority:   t.Priority,
		Title:      t.Title,
		ReporterID: t.ReporterID,
		LocationID: t.LocationID,
	}
	payload.ReporterEmail = domain.NormalizeEmail(contactEmail)
	if t.Reporter != nil && t.Reporter.Email != "" {
		payload.ReporterEmail = t.Reporter.Email
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: t.ID,
		Payload:  payload,
	})
}

func (s *TicketService) publishStatusChanged(ctx context.Context, t *domain.Ticket, tp TransitionPatch, reason string, actor domain.Actor) {
	payload := events.TicketStatusChangedPayload{
		OldStatus: tp.From,
		NewStatus: tp.Status,
		Source:    t.Source,
		Title:     t.Title,
		Reason:    strings.TrimSpace(reason),
	}
	if t.Reporter != nil {
		payload.ReporterName = t.Reporter.FullName()
		payload.ReporterEmail = t.Reporter.Email
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: t.ID,
		Actor:    eventActor(actor),
		Payload:  payload,
	})
}

func (s *TicketService) publishAssigned(ctx context.Context, t *domain.Ticket, actor domain.Actor) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: t.ID,
		Actor:    eventActor(actor),
		Payload:  events.TicketAssignedPayload{AssigneeIDs: t.AssigneeIDs},
	})
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

func eventActor(actor domain.Actor) events.Actor {
	return events.Actor{ID: actor.ID, Name: actor.Name}
}

func validateClassification(priority domain.TicketPriority, category *domain.TicketCategory, source domain.TicketSource) error {
	if priority != "" && !priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority", "value": priority})
	}
	if category != nil && !category.Valid() {
		return apperrors.NewValidationError("invalid category", map[string]any{"field": "category", "value": *category})
	}
	if source != "" && !source.Valid() {
		return apperrors.NewValidationError("invalid source", map[string]any{"field": "source", "value": source})
	}
	return nil
}

func nullableFromPtr[T any](v *T) domain.Nullable[T] {
	if v == nil {
		return domain.Nullable[T]{}
	}
	return domain.Some(*v)
}

func preview(body string) string {
	const limit = 140
	runes := []rune(body)
	if len(runes) <= limit {
		return body
	}
	return string(runes[:limit]) + "..."
}
