package repository

import (
	"time"

	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
)

// TicketPatch accumulates field updates for one ticket. Reference setters
// always write the id and its snapshot in the same patch.
type TicketPatch struct {
	fields docstore.Patch
}

// NewTicketPatch returns an empty patch.
func NewTicketPatch() *TicketPatch {
	return &TicketPatch{fields: docstore.Patch{}}
}

// Fields returns the persisted field assignments.
func (p *TicketPatch) Fields() docstore.Patch {
	return p.fields
}

// Empty reports whether nothing would change.
func (p *TicketPatch) Empty() bool {
	return len(p.fields) == 0
}

// Has reports whether field is already part of the patch.
func (p *TicketPatch) Has(field string) bool {
	_, ok := p.fields[field]
	return ok
}

func (p *TicketPatch) SetTitle(v string) *TicketPatch {
	p.fields["title"] = v
	return p
}

func (p *TicketPatch) SetDescription(v string) *TicketPatch {
	p.fields["description"] = v
	return p
}

func (p *TicketPatch) SetPhoneNumber(v string) *TicketPatch {
	p.fields["phoneNumber"] = v
	return p
}

func (p *TicketPatch) SetTranscription(v *string) *TicketPatch {
	p.fields["transcription"] = v
	return p
}

func (p *TicketPatch) SetStatus(v domain.TicketStatus) *TicketPatch {
	p.fields["status"] = v
	return p
}

func (p *TicketPatch) SetPriority(v domain.TicketPriority) *TicketPatch {
	p.fields["priority"] = v
	return p
}

func (p *TicketPatch) SetCategory(v *domain.TicketCategory) *TicketPatch {
	p.fields["category"] = v
	return p
}

func (p *TicketPatch) SetSubcategory(v *domain.TicketSubcategory) *TicketPatch {
	p.fields["subcategory"] = v
	return p
}

func (p *TicketPatch) SetSource(v domain.TicketSource) *TicketPatch {
	p.fields["source"] = v
	return p
}

func (p *TicketPatch) SetAudio(v *domain.AttachmentRef) *TicketPatch {
	p.fields["audio"] = v
	return p
}

// SetAttachments stores the list with duplicate ids removed.
func (p *TicketPatch) SetAttachments(atts []domain.AttachmentRef) *TicketPatch {
	p.fields["attachments"] = domain.DedupeAttachments(atts)
	return p
}

func (p *TicketPatch) SetNotes(notes []domain.Note) *TicketPatch {
	if notes == nil {
		notes = []domain.Note{}
	}
	p.fields["notes"] = notes
	return p
}

func (p *TicketPatch) SetReporter(ref domain.Ref[domain.Person]) *TicketPatch {
	var t domain.Ticket
	t.SetReporter(ref)
	p.fields["reporterId"] = t.ReporterID
	p.fields["reporter"] = t.Reporter
	return p
}

func (p *TicketPatch) SetAssignees(refs []domain.Ref[domain.Person]) *TicketPatch {
	var t domain.Ticket
	t.SetAssignees(refs)
	p.fields["assigneeIds"] = t.AssigneeIDs
	p.fields["assignees"] = t.Assignees
	return p
}

func (p *TicketPatch) SetLocation(ref domain.Ref[domain.Location]) *TicketPatch {
	var t domain.Ticket
	t.SetLocation(ref)
	p.fields["locationId"] = t.LocationID
	p.fields["locationTypeId"] = t.LocationTypeID
	p.fields["location"] = t.Location
	return p
}

func (p *TicketPatch) SetResolvedAt(v *time.Time) *TicketPatch {
	p.fields["resolvedAt"] = utcPtr(v)
	return p
}

func (p *TicketPatch) SetClosedAt(v *time.Time) *TicketPatch {
	p.fields["closedAt"] = utcPtr(v)
	return p
}

// Apply copies the patch onto an in-memory ticket so callers can reason about
// the post-update state without a round trip.
func (p *TicketPatch) Apply(t *domain.Ticket) {
	for field, value := range p.fields {
		switch field {
		case "title":
			t.Title = value.(string)
		case "description":
			t.Description = value.(string)
		case "phoneNumber":
			t.PhoneNumber = value.(string)
		case "transcription":
			t.Transcription = value.(*string)
		case "status":
			t.Status = value.(domain.TicketStatus)
		case "priority":
			t.Priority = value.(domain.TicketPriority)
		case "category":
			t.Category = value.(*domain.TicketCategory)
		case "subcategory":
			t.Subcategory = value.(*domain.TicketSubcategory)
		case "source":
			t.Source = value.(domain.TicketSource)
		case "audio":
			t.Audio = value.(*domain.AttachmentRef)
		case "attachments":
			t.Attachments = value.([]domain.AttachmentRef)
		case "notes":
			t.Notes = value.([]domain.Note)
		case "reporterId":
			t.ReporterID = value.(*string)
		case "reporter":
			t.Reporter = value.(*domain.Person)
		case "assigneeIds":
			t.AssigneeIDs = value.([]string)
		case "assignees":
			t.Assignees = value.([]domain.Person)
		case "locationId":
			t.LocationID = value.(*string)
		case "locationTypeId":
			t.LocationTypeID = value.(*string)
		case "location":
			t.Location = value.(*domain.Location)
		case "resolvedAt":
			t.ResolvedAt = value.(*time.Time)
		case "closedAt":
			t.ClosedAt = value.(*time.Time)
		}
	}
}

func utcPtr(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	u := v.UTC()
	return &u
}
