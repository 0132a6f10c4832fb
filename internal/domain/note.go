package domain

import "time"

// NoteType tags why a note was written.
type NoteType string

const (
	NoteTypeGeneral      NoteType = "general"
	NoteTypeCancellation NoteType = "cancellation"
	NoteTypeStatusChange NoteType = "status_change"
	NoteTypeAssignment   NoteType = "assignment"
	NoteTypeResolution   NoteType = "resolution"
)

func (t NoteType) Valid() bool {
	switch t {
	case NoteTypeGeneral, NoteTypeCancellation, NoteTypeStatusChange, NoteTypeAssignment, NoteTypeResolution:
		return true
	}
	return false
}

// Note is an append-only entry in a ticket's log.
type Note struct {
	ID            string    `json:"id" bson:"id"`
	Content       string    `json:"content" bson:"content"`
	Type          NoteType  `json:"type" bson:"type"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	CreatedBy     string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	CreatedByName string    `json:"createdByName,omitempty" bson:"createdByName,omitempty"`
}

// Actor identifies who triggered a change, when known.
type Actor struct {
	ID   string
	Name string
}
