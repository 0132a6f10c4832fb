package domain

import "time"

// Location is a serviced site.
type Location struct {
	ID             string    `json:"id" bson:"_id"`
	LocationTypeID string    `json:"locationTypeId" bson:"locationTypeId"`
	Name           string    `json:"name" bson:"name"`
	Address        string    `json:"address,omitempty" bson:"address,omitempty"`
	PhoneNumbers   []string  `json:"phoneNumbers" bson:"phoneNumbers"`
	EmailDomains   []string  `json:"emailDomains" bson:"emailDomains"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// LocationKey addresses a location in the directory.
type LocationKey struct {
	LocationTypeID string `json:"locationTypeId"`
	LocationID     string `json:"locationId"`
}
