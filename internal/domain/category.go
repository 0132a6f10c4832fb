package domain

import (
	"sort"
	"time"
)

// Subcategory is one entry in a category's catalog.
type Subcategory struct {
	Name        string `json:"name" bson:"name"`
	DisplayName string `json:"displayName" bson:"displayName"`
	IsActive    bool   `json:"isActive" bson:"isActive"`
	Order       int    `json:"order" bson:"order"`
}

// Category groups subcategories under a ticket category id.
type Category struct {
	ID            string        `json:"id" bson:"_id"`
	DisplayName   string        `json:"displayName" bson:"displayName"`
	Description   string        `json:"description,omitempty" bson:"description,omitempty"`
	IsActive      bool          `json:"isActive" bson:"isActive"`
	Subcategories []Subcategory `json:"subcategories" bson:"subcategories"`
	CreatedAt     time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// UpsertSubcategory replaces the subcategory with the same name or appends it.
func (c *Category) UpsertSubcategory(sub Subcategory) {
	for i := range c.Subcategories {
		if c.Subcategories[i].Name == sub.Name {
			c.Subcategories[i] = sub
			c.sortSubcategories()
			return
		}
	}
	c.Subcategories = append(c.Subcategories, sub)
	c.sortSubcategories()
}

// RemoveSubcategory drops the named subcategory and reports whether it existed.
func (c *Category) RemoveSubcategory(name string) bool {
	for i := range c.Subcategories {
		if c.Subcategories[i].Name == name {
			c.Subcategories = append(c.Subcategories[:i], c.Subcategories[i+1:]...)
			return true
		}
	}
	return false
}

// FindSubcategory looks a subcategory up by name.
func (c *Category) FindSubcategory(name string) (Subcategory, bool) {
	for _, sub := range c.Subcategories {
		if sub.Name == name {
			return sub, true
		}
	}
	return Subcategory{}, false
}

func (c *Category) sortSubcategories() {
	sort.SliceStable(c.Subcategories, func(i, j int) bool {
		return c.Subcategories[i].Order < c.Subcategories[j].Order
	})
}
