package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-tickets/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	Attachments *handlers.AttachmentsHandler
	Persons     *handlers.PersonsHandler
	Catalog     *handlers.CatalogHandler
	Admin       *handlers.AdminHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/export", cfg.Tickets.ExportTickets)
	tickets.Post("/intake", cfg.Tickets.Intake)
	tickets.Post("/intake/email", cfg.Tickets.EmailIntake)
	tickets.Post("/emergency", cfg.Tickets.CreateEmergency)
	tickets.Post("/preventive", cfg.Tickets.CreatePreventive)
	tickets.Post("/corrective", cfg.Tickets.CreateCorrective)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Post("/:id/cancel", cfg.Tickets.CancelTicket)
	tickets.Post("/:id/assign", cfg.Tickets.AssignTicket)
	tickets.Post("/:id/clone", cfg.Tickets.CloneTicket)
	tickets.Get("/:id/notes", cfg.Tickets.ListNotes)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)

	tickets.Get("/:id/attachments", cfg.Attachments.List)
	tickets.Post("/:id/attachments", cfg.Attachments.Upload)
	tickets.Post("/:id/attachments/migrate", cfg.Attachments.Migrate)
	tickets.Get("/:id/attachments/:attachmentId", cfg.Attachments.Get)
	tickets.Delete("/:id/attachments/:attachmentId", cfg.Attachments.Delete)
	tickets.Get("/:id/attachments/:attachmentId/download", cfg.Attachments.Download)

	persons := api.Group("/persons")
	persons.Post("/", cfg.Persons.Create)
	persons.Get("/", cfg.Persons.List)
	persons.Post("/bulk", cfg.Persons.BulkCreate)
	persons.Post("/ensure", cfg.Persons.Ensure)
	persons.Get("/by-email/:email", cfg.Persons.GetByEmail)
	persons.Get("/:id", cfg.Persons.Get)
	persons.Patch("/:id", cfg.Persons.Update)
	persons.Delete("/:id", cfg.Persons.Delete)

	locations := api.Group("/locations")
	locations.Get("/", cfg.Catalog.ListLocations)
	locations.Post("/", cfg.Catalog.UpsertLocation)
	locations.Post("/seed", cfg.Catalog.SeedLocations)
	locations.Get("/:id", cfg.Catalog.GetLocation)
	locations.Put("/:id", cfg.Catalog.UpsertLocation)
	locations.Delete("/:id", cfg.Catalog.DeleteLocation)

	categories := api.Group("/categories")
	categories.Get("/", cfg.Catalog.ListCategories)
	categories.Post("/", cfg.Catalog.UpsertCategory)
	categories.Post("/seed", cfg.Catalog.SeedCategories)
	categories.Get("/:id", cfg.Catalog.GetCategory)
	categories.Put("/:id", cfg.Catalog.UpsertCategory)
	categories.Delete("/:id", cfg.Catalog.DeleteCategory)
	categories.Put("/:id/subcategories/:name", cfg.Catalog.UpsertSubcategory)
	categories.Delete("/:id/subcategories/:name", cfg.Catalog.DeleteSubcategory)

	admin := api.Group("/admin")
	admin.Post("/attachments/migrate-all", cfg.Admin.MigrateAllAttachments)
	admin.Post("/tickets/migrate-notes", cfg.Admin.MigrateNotes)
	admin.Delete("/tickets", cfg.Admin.DeleteAllTickets)
}
