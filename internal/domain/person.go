package domain

import (
	"strings"
	"time"
)

// PersonRole enumerates directory roles.
type PersonRole string

const (
	PersonRoleAdmin      PersonRole = "admin"
	PersonRoleUser       PersonRole = "user"
	PersonRoleSupervisor PersonRole = "supervisor"
	PersonRoleTechnician PersonRole = "technician"
)

func (r PersonRole) Valid() bool {
	switch r {
	case PersonRoleAdmin, PersonRoleUser, PersonRoleSupervisor, PersonRoleTechnician:
		return true
	}
	return false
}

// Department groups people for lookups.
type Department string

const (
	DepartmentMaintenance    Department = "MAINTENANCE"
	DepartmentLocation       Department = "LOCATION"
	DepartmentAdministration Department = "ADMINISTRATION"
)

func (d Department) Valid() bool {
	switch d {
	case DepartmentMaintenance, DepartmentLocation, DepartmentAdministration:
		return true
	}
	return false
}

// Person is a reporter or assignee record in the directory.
type Person struct {
	ID             string     `json:"id" bson:"_id"`
	FirstName      string     `json:"firstName" bson:"firstName"`
	LastName       string     `json:"lastName" bson:"lastName"`
	PhoneNumber    string     `json:"phoneNumber,omitempty" bson:"phoneNumber,omitempty"`
	Email          string     `json:"email,omitempty" bson:"email,omitempty"`
	Role           PersonRole `json:"role" bson:"role"`
	Department     Department `json:"department,omitempty" bson:"department,omitempty"`
	LocationID     string     `json:"locationId,omitempty" bson:"locationId,omitempty"`
	LocationTypeID string     `json:"locationTypeId,omitempty" bson:"locationTypeId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// FullName joins first and last name.
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the part after '@', lowercased.
func EmailDomain(email string) string {
	email = NormalizeEmail(email)
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return email[at+1:]
}
