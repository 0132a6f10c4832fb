package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
)

// Collection names shared by every backend.
const (
	CollectionTickets    = "tickets"
	CollectionPersons    = "persons"
	CollectionLocations  = "locations"
	CollectionCategories = "categories"
)

// Collections bundles the typed document collections of one backend.
type Collections struct {
	Tickets    docstore.Collection[domain.Ticket]
	Persons    docstore.Collection[domain.Person]
	Locations  docstore.Collection[domain.Location]
	Categories docstore.Collection[domain.Category]
}

// NewPostgresCollections binds the JSONB tables created by the SQL migrations.
func NewPostgresCollections(pool *pgxpool.Pool) Collections {
	return Collections{
		Tickets:    docstore.NewPostgresCollection[domain.Ticket](pool, CollectionTickets),
		Persons:    docstore.NewPostgresCollection[domain.Person](pool, CollectionPersons),
		Locations:  docstore.NewPostgresCollection[domain.Location](pool, CollectionLocations),
		Categories: docstore.NewPostgresCollection[domain.Category](pool, CollectionCategories),
	}
}

// NewMongoCollections binds MongoDB collections of the same names.
func NewMongoCollections(db *mongo.Database) Collections {
	return Collections{
		Tickets:    docstore.NewMongoCollection[domain.Ticket](db, CollectionTickets),
		Persons:    docstore.NewMongoCollection[domain.Person](db, CollectionPersons),
		Locations:  docstore.NewMongoCollection[domain.Location](db, CollectionLocations),
		Categories: docstore.NewMongoCollection[domain.Category](db, CollectionCategories),
	}
}

// NewMemoryCollections returns process-local collections.
func NewMemoryCollections() Collections {
	return Collections{
		Tickets:    docstore.NewMemoryCollection[domain.Ticket](),
		Persons:    docstore.NewMemoryCollection[domain.Person](),
		Locations:  docstore.NewMemoryCollection[domain.Location](),
		Categories: docstore.NewMemoryCollection[domain.Category](),
	}
}
