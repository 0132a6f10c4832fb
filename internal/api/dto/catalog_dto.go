package dto

import "github.com/spec-kit/maintenance-tickets/internal/domain"

// LocationRequest payload.
type LocationRequest struct {
	ID             string   `json:"id"`
	LocationTypeID string   `json:"locationTypeId"`
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	PhoneNumbers   []string `json:"phoneNumbers"`
	EmailDomains   []string `json:"emailDomains"`
}

// CategoryRequest payload.
type CategoryRequest struct {
	ID            string               `json:"id"`
	DisplayName   string               `json:"displayName"`
	Description   string               `json:"description"`
	IsActive      *bool                `json:"isActive"`
	Subcategories []domain.Subcategory `json:"subcategories"`
}

// SubcategoryRequest payload.
type SubcategoryRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	IsActive    *bool  `json:"isActive"`
	Order       int    `json:"order"`
}
