package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/directory"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
)

// TicketOptions are the optional classification and people fields shared by
// the factory constructors. Set references win over anything auto-resolved.
type TicketOptions struct {
	Title       string
	Priority    domain.TicketPriority
	Category    *domain.TicketCategory
	Subcategory *domain.TicketSubcategory
	Reporter    domain.Ref[domain.Person]
	Location    domain.Ref[domain.Location]
	Assignees   []domain.Ref[domain.Person]
	Attachments []domain.AttachmentRef
}

// CallerTicketInput is a ticket arriving from the phone system or an inbox.
type CallerTicketInput struct {
	Audio         *domain.AttachmentRef
	Description   string
	FromText      string
	ReporterEmail string
	Transcription *string
	Source        domain.TicketSource
	Options       TicketOptions
}

// EmailTicketInput is a ticket built from an inbound email.
type EmailTicketInput struct {
	FromAddress string
	FromName    string
	Subject     string
	Body        string
	Attachments []domain.AttachmentRef
}

// TemplateKind names a canned ticket template.
type TemplateKind string

const (
	TemplateMaintenance TemplateKind = "maintenance"
	TemplateInspection  TemplateKind = "inspection"
	TemplateRepair      TemplateKind = "repair"
)

// TicketFactory builds new tickets in the NEW state.
type TicketFactory struct {
	parser    *CallerParser
	persons   directory.PersonDirectory
	locations directory.LocationDirectory
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewTicketFactory constructs the factory.
func NewTicketFactory(persons directory.PersonDirectory, locations directory.LocationDirectory, logger *zap.Logger) *TicketFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketFactory{
		parser:    NewCallerParser(),
		persons:   persons,
		locations: locations,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// FromCallerText parses the caller text and enriches the ticket with whatever
// reporter and location the directories can match. Lookup failures are
// logged and never block creation.
func (f *TicketFactory) FromCallerText(ctx context.Context, in CallerTicketInput) *domain.Ticket {
	caller := f.parser.Parse(in.FromText)
	title := caller.Name
	phone := caller.Phone

	reporter, location := f.autoAssign(ctx, phone, in.ReporterEmail)
	if in.Options.Reporter.IsSet() {
		reporter = in.Options.Reporter
	}
	if in.Options.Location.IsSet() {
		location = in.Options.Location
	}
	if p := reporter.Snapshot(); p != nil {
		title = p.FirstName + " " + p.LastName
		if p.PhoneNumber != "" {
			phone = p.PhoneNumber
		}
	}
	if strings.TrimSpace(title) == "" {
		title = UnknownCallerName
	}

	source := in.Source
	if source == "" {
		source = domain.TicketSourcePhoneSystem
	}
	opts := in.Options
	opts.Title = title
	opts.Reporter = reporter
	opts.Location = location
	t := f.build(in.Description, source, opts)
	t.PhoneNumber = phone
	t.Audio = in.Audio
	t.Transcription = in.Transcription
	return t
}

func (f *TicketFactory) autoAssign(ctx context.Context, phone, email string) (domain.Ref[domain.Person], domain.Ref[domain.Location]) {
	var (
		reporter *domain.Person
		location *domain.Location
	)
	if phone != "" {
		reporter = f.findPersonByPhone(ctx, domain.DepartmentMaintenance, phone)
		if reporter == nil {
			reporter = f.findPersonByPhone(ctx, domain.DepartmentLocation, phone)
		}
		if reporter != nil {
			location = f.locationOf(ctx, reporter)
		} else {
			location = f.lookupLocation(ctx, "phone", phone, f.locations.FindByPhone)
		}
	}
	if email = domain.NormalizeEmail(email); email != "" {
		if reporter == nil {
			person, err := f.persons.FindByEmail(ctx, email)
			if err != nil {
				f.logger.Warn("reporter lookup by email failed", zap.String("email", email), zap.Error(err))
			}
			if person != nil {
				reporter = person
				if loc := f.locationOf(ctx, person); loc != nil {
					location = loc
				}
			}
		}
		if location == nil {
			location = f.lookupLocation(ctx, "email_domain", domain.EmailDomain(email), f.locations.FindByEmailDomain)
		}
	}
	return domain.PersonRef(reporter), domain.LocationRef(location)
}

func (f *TicketFactory) findPersonByPhone(ctx context.Context, dept domain.Department, phone string) *domain.Person {
	person, err := f.persons.FindByPhone(ctx, dept, phone)
	if err != nil {
		f.logger.Warn("reporter lookup by phone failed",
			zap.String("department", string(dept)), zap.String("phone", phone), zap.Error(err))
		return nil
	}
	return person
}

// locationOf returns the site of a location-scoped person.
func (f *TicketFactory) locationOf(ctx context.Context, p *domain.Person) *domain.Location {
	if p.Department != domain.DepartmentLocation || p.LocationID == "" {
		return nil
	}
	location, err := f.locations.FindByID(ctx, p.LocationTypeID, p.LocationID)
	if err != nil {
		f.logger.Warn("reporter location lookup failed", zap.String("person_id", p.ID), zap.Error(err))
		return nil
	}
	return location
}

func (f *TicketFactory) lookupLocation(ctx context.Context, by, value string, find func(context.Context, string) (*domain.Location, error)) *domain.Location {
	if value == "" {
		return nil
	}
	location, err := find(ctx, value)
	if err != nil {
		f.logger.Warn("location lookup failed", zap.String("by", by), zap.String("value", value), zap.Error(err))
		return nil
	}
	return location
}

// FromEmail titles the ticket after the matched sender, else the sender name or subject.
func (f *TicketFactory) FromEmail(ctx context.Context, in EmailTicketInput) *domain.Ticket {
	fromText := strings.TrimSpace(in.FromName)
	if fromText == "" {
		fromText = strings.TrimSpace(in.Subject)
	}
	description := strings.TrimSpace(in.Body)
	if subject := strings.TrimSpace(in.Subject); subject != "" && description != "" {
		description = subject + "\n\n" + description
	} else if description == "" {
		description = subject
	}
	return f.FromCallerText(ctx, CallerTicketInput{
		Description:   description,
		FromText:      fromText,
		ReporterEmail: in.FromAddress,
		Source:        domain.TicketSourceEmail,
		Options:       TicketOptions{Attachments: in.Attachments},
	})
}

// FromWeb builds a ticket submitted through a form.
func (f *TicketFactory) FromWeb(title, description string, opts TicketOptions) *domain.Ticket {
	opts.Title = title
	return f.build(description, domain.TicketSourceWeb, opts)
}

// Emergency is always HIGH priority in the EMERGENCY category.
func (f *TicketFactory) Emergency(title, description string, location domain.Ref[domain.Location], reporter domain.Ref[domain.Person], attachments []domain.AttachmentRef) *domain.Ticket {
	category := domain.TicketCategoryEmergency
	return f.build(description, domain.TicketSourceOther, TicketOptions{
		Title:       title,
		Priority:    domain.TicketPriorityHigh,
		Category:    &category,
		Reporter:    reporter,
		Location:    location,
		Attachments: attachments,
	})
}

// Preventive is pre-assigned scheduled work.
func (f *TicketFactory) Preventive(title, description string, assignees []domain.Ref[domain.Person], opts TicketOptions) *domain.Ticket {
	category := domain.TicketCategoryPreventive
	opts.Title = title
	opts.Category = &category
	opts.Assignees = assignees
	opts.Reporter = domain.Ref[domain.Person]{}
	return f.build(description, domain.TicketSourceOther, opts)
}

// Corrective is reported repair work at a known location.
func (f *TicketFactory) Corrective(title, description string, reporter domain.Ref[domain.Person], location domain.Ref[domain.Location], opts TicketOptions) *domain.Ticket {
	category := domain.TicketCategoryCorrective
	opts.Title = title
	opts.Category = &category
	opts.Reporter = reporter
	opts.Location = location
	return f.build(description, domain.TicketSourceOther, opts)
}

// WithNote builds a ticket whose log starts with one note.
func (f *TicketFactory) WithNote(title, description string, source domain.TicketSource, opts TicketOptions, content string, noteType domain.NoteType, actor domain.Actor) *domain.Ticket {
	if source == "" {
		source = domain.TicketSourceOther
	}
	if !noteType.Valid() {
		noteType = domain.NoteTypeGeneral
	}
	opts.Title = title
	t := f.build(description, source, opts)
	t.Notes = []domain.Note{{
		ID:            f.newID(),
		Content:       content,
		Type:          noteType,
		CreatedAt:     t.CreatedAt,
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
	}}
	return t
}

// Template returns the canned title, description and classification for kind.
func (f *TicketFactory) Template(kind TemplateKind) (TicketOptions, string, bool) {
	preventive, corrective := domain.TicketCategoryPreventive, domain.TicketCategoryCorrective
	switch kind {
	case TemplateMaintenance:
		return TicketOptions{Title: "Maintenance Task", Priority: domain.TicketPriorityMedium, Category: &preventive}, "Scheduled maintenance task", true
	case TemplateInspection:
		return TicketOptions{Title: "Inspection", Priority: domain.TicketPriorityLow, Category: &preventive}, "Routine inspection task", true
	case TemplateRepair:
		return TicketOptions{Title: "Repair Task", Priority: domain.TicketPriorityHigh, Category: &corrective}, "Equipment repair required", true
	}
	return TicketOptions{}, "", false
}

// Clone copies src into a fresh NEW ticket with an empty log.
func (f *TicketFactory) Clone(src *domain.Ticket) *domain.Ticket {
	now := f.now().UTC()
	t := *src
	t.ID = f.newID()
	t.Status = domain.TicketStatusNew
	t.CreatedAt = now
	t.UpdatedAt = now
	t.ResolvedAt = nil
	t.ClosedAt = nil
	t.Notes = []domain.Note{}
	t.Transcription = copyPtr(src.Transcription)
	t.Category = copyPtr(src.Category)
	t.Subcategory = copyPtr(src.Subcategory)
	if src.Audio != nil {
		audio := copyAttachment(*src.Audio)
		t.Audio = &audio
	}
	t.Attachments = make([]domain.AttachmentRef, len(src.Attachments))
	for i, att := range src.Attachments {
		t.Attachments[i] = copyAttachment(att)
	}
	t.ReporterID = copyPtr(src.ReporterID)
	t.Reporter = copyPtr(src.Reporter)
	t.AssigneeIDs = append([]string{}, src.AssigneeIDs...)
	t.Assignees = append([]domain.Person{}, src.Assignees...)
	t.LocationID = copyPtr(src.LocationID)
	t.LocationTypeID = copyPtr(src.LocationTypeID)
	if src.Location != nil {
		loc := *src.Location
		loc.PhoneNumbers = slices.Clone(loc.PhoneNumbers)
		loc.EmailDomains = slices.Clone(loc.EmailDomains)
		t.Location = &loc
	}
	return &t
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyAttachment(att domain.AttachmentRef) domain.AttachmentRef {
	att.Size = copyPtr(att.Size)
	att.UploadedAt = copyPtr(att.UploadedAt)
	return att
}

func (f *TicketFactory) build(description string, source domain.TicketSource, opts TicketOptions) *domain.Ticket {
	now := f.now().UTC()
	priority := opts.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = UnknownCallerName
	}
	t := &domain.Ticket{
		ID:          f.newID(),
		Title:       title,
		Description: strings.TrimSpace(description),
		Status:      domain.TicketStatusNew,
		Priority:    priority,
		Category:    opts.Category,
		Subcategory: normalizeSubcategory(opts.Subcategory),
		Attachments: domain.DedupeAttachments(opts.Attachments),
		Source:      source,
		Notes:       []domain.Note{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.SetReporter(opts.Reporter)
	t.SetLocation(opts.Location)
	t.SetAssignees(opts.Assignees)
	return t
}

func normalizeSubcategory(sub *domain.TicketSubcategory) *domain.TicketSubcategory {
	if sub == nil || strings.TrimSpace(sub.Name) == "" {
		return nil
	}
	out := domain.TicketSubcategory{Name: strings.ToUpper(strings.TrimSpace(sub.Name)), DisplayName: strings.TrimSpace(sub.DisplayName)}
	if out.DisplayName == "" {
		out.DisplayName = out.Name
	}
	return &out
}
