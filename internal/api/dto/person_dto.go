package dto

import "github.com/spec-kit/maintenance-tickets/internal/domain"

// PersonRequest is used both for directory writes and inline assignees.
type PersonRequest struct {
	ID             string            `json:"id"`
	FirstName      string            `json:"firstName"`
	LastName       string            `json:"lastName"`
	PhoneNumber    string            `json:"phoneNumber"`
	Email          string            `json:"email"`
	Role           domain.PersonRole `json:"role"`
	Department     domain.Department `json:"department"`
	LocationID     string            `json:"locationId"`
	LocationTypeID string            `json:"locationTypeId"`
}

// Person converts the request into a directory record.
func (r PersonRequest) Person() domain.Person {
	return domain.Person{
		ID:             r.ID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		PhoneNumber:    r.PhoneNumber,
		Email:          r.Email,
		Role:           r.Role,
		Department:     r.Department,
		LocationID:     r.LocationID,
		LocationTypeID: r.LocationTypeID,
	}
}

// UpdatePersonRequest payload.
type UpdatePersonRequest struct {
	FirstName      *string            `json:"firstName"`
	LastName       *string            `json:"lastName"`
	PhoneNumber    *string            `json:"phoneNumber"`
	Email          *string            `json:"email"`
	Role           *domain.PersonRole `json:"role"`
	Department     *domain.Department `json:"department"`
	LocationID     *string            `json:"locationId"`
	LocationTypeID *string            `json:"locationTypeId"`
}

// BulkPersonRequest payload.
type BulkPersonRequest struct {
	Persons []PersonRequest `json:"persons"`
}
