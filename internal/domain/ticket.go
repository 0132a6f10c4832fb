package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew       TicketStatus = "NEW"
	TicketStatusOpen      TicketStatus = "OPEN"
	TicketStatusDone      TicketStatus = "DONE"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusNew, TicketStatusOpen, TicketStatusDone, TicketStatusCancelled:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketCategory classifies the kind of maintenance work.
type TicketCategory string

const (
	TicketCategoryPreventive TicketCategory = "PREVENTIVE"
	TicketCategoryCorrective TicketCategory = "CORRECTIVE"
	TicketCategoryEmergency  TicketCategory = "EMERGENCY"
	TicketCategoryDeferred   TicketCategory = "DEFERRED"
	TicketCategoryOther      TicketCategory = "OTHER"
)

func (c TicketCategory) Valid() bool {
	switch c {
	case TicketCategoryPreventive, TicketCategoryCorrective, TicketCategoryEmergency,
		TicketCategoryDeferred, TicketCategoryOther:
		return true
	}
	return false
}

// TicketSource records the intake channel.
type TicketSource string

const (
	TicketSourcePhoneSystem TicketSource = "PHONE_SYSTEM"
	TicketSourceEmail       TicketSource = "EMAIL"
	TicketSourceWeb         TicketSource = "WEB"
	TicketSourceOther       TicketSource = "OTHER"
)

func (s TicketSource) Valid() bool {
	switch s {
	case TicketSourcePhoneSystem, TicketSourceEmail, TicketSourceWeb, TicketSourceOther:
		return true
	}
	return false
}

// legacyPhoneSystemSource is the vendor name older documents were written with.
const legacyPhoneSystemSource = "RINGCENTRAL"

// ParseTicketSource folds case and hyphens and maps the legacy phone-system
// label. Unknown values are returned as given so Valid can reject them.
func ParseTicketSource(raw string) TicketSource {
	v := strings.ToUpper(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "-", "_")
	if v == legacyPhoneSystemSource {
		return TicketSourcePhoneSystem
	}
	return TicketSource(v)
}

// UnmarshalJSON accepts PHONE-SYSTEM and RINGCENTRAL as PHONE_SYSTEM.
func (s *TicketSource) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*s = ""
		return nil
	}
	*s = ParseTicketSource(*raw)
	return nil
}

// UnmarshalBSONValue applies the same mapping to stored documents.
func (s *TicketSource) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*s = ""
		return nil
	}
	var raw string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&raw); err != nil {
		return err
	}
	*s = ParseTicketSource(raw)
	return nil
}

// TicketSubcategory is the classification pair stored on a ticket.
type TicketSubcategory struct {
	Name        string `json:"name" bson:"name"`
	DisplayName string `json:"displayName" bson:"displayName"`
}

// Ticket is the aggregate for maintenance requests.
type Ticket struct {
	ID             string             `json:"id" bson:"_id"`
	Title          string             `json:"title" bson:"title"`
	Description    string             `json:"description" bson:"description"`
	PhoneNumber    string             `json:"phoneNumber" bson:"phoneNumber"`
	Transcription  *string            `json:"transcription" bson:"transcription"`
	Status         TicketStatus       `json:"status" bson:"status"`
	Priority       TicketPriority     `json:"priority" bson:"priority"`
	Category       *TicketCategory    `json:"category" bson:"category"`
	Subcategory    *TicketSubcategory `json:"subcategory" bson:"subcategory"`
	Audio          *AttachmentRef     `json:"audio" bson:"audio"`
	Attachments    []AttachmentRef    `json:"attachments" bson:"attachments"`
	ReporterID     *string            `json:"reporterId" bson:"reporterId"`
	Reporter       *Person            `json:"reporter" bson:"reporter"`
	AssigneeIDs    []string           `json:"assigneeIds" bson:"assigneeIds"`
	Assignees      []Person           `json:"assignees" bson:"assignees"`
	LocationID     *string            `json:"locationId" bson:"locationId"`
	LocationTypeID *string            `json:"locationTypeId" bson:"locationTypeId"`
	Location       *Location          `json:"location" bson:"location"`
	Source         TicketSource       `json:"source" bson:"source"`
	Notes          []Note             `json:"notes" bson:"notes"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt" bson:"updatedAt"`
	ResolvedAt     *time.Time         `json:"resolvedAt" bson:"resolvedAt"`
	ClosedAt       *time.Time         `json:"closedAt" bson:"closedAt"`
}

// SetReporter writes the reporter id and snapshot together.
func (t *Ticket) SetReporter(ref Ref[Person]) {
	t.ReporterID = ref.idPtr()
	t.Reporter = ref.Snapshot()
}

// ReporterRef returns the stored reporter pair.
func (t *Ticket) ReporterRef() Ref[Person] {
	if t.ReporterID == nil || t.Reporter == nil {
		return Ref[Person]{}
	}
	return Ref[Person]{id: *t.ReporterID, snapshot: t.Reporter}
}

// SetAssignees replaces the assignee id list and snapshots together.
func (t *Ticket) SetAssignees(refs []Ref[Person]) {
	ids, snapshots := splitRefs(refs)
	t.AssigneeIDs = ids
	t.Assignees = snapshots
}

// SetLocation writes the location id, type and snapshot together.
func (t *Ticket) SetLocation(ref Ref[Location]) {
	t.LocationID = ref.idPtr()
	t.Location = ref.Snapshot()
	t.LocationTypeID = nil
	if loc := ref.Snapshot(); loc != nil && loc.LocationTypeID != "" {
		typeID := loc.LocationTypeID
		t.LocationTypeID = &typeID
	}
}

// CheckReferences verifies every id/snapshot pair is either fully set or fully empty.
func (t *Ticket) CheckReferences() error {
	if (t.ReporterID == nil) != (t.Reporter == nil) {
		return fmt.Errorf("ticket %s: reporter id and snapshot diverged", t.ID)
	}
	if len(t.AssigneeIDs) != len(t.Assignees) {
		return fmt.Errorf("ticket %s: %d assignee ids but %d snapshots", t.ID, len(t.AssigneeIDs), len(t.Assignees))
	}
	for i := range t.AssigneeIDs {
		if t.Assignees[i].ID != t.AssigneeIDs[i] {
			return fmt.Errorf("ticket %s: assignee %d id mismatch", t.ID, i)
		}
	}
	if (t.LocationID == nil) != (t.Location == nil) {
		return fmt.Errorf("ticket %s: location id and snapshot diverged", t.ID)
	}
	return nil
}

// DedupeAttachments keeps the first occurrence of each attachment id.
func DedupeAttachments(atts []AttachmentRef) []AttachmentRef {
	seen := make(map[string]struct{}, len(atts))
	out := make([]AttachmentRef, 0, len(atts))
	for _, att := range atts {
		if _, ok := seen[att.ID]; ok {
			continue
		}
		seen[att.ID] = struct{}{}
		out = append(out, att)
	}
	return out
}
