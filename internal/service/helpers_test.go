package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/directory"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/events"
	"github.com/spec-kit/maintenance-tickets/internal/filestore"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// memStore is an in-memory file store that records every call.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	calls   []string
	failOn  map[string]error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, failOn: map[string]error{}}
}

func (s *memStore) put(objectPath string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[objectPath] = data
}

func (s *memStore) has(objectPath string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[objectPath]
	return ok
}

func (s *memStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *memStore) record(op, objectPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op+" "+objectPath)
	return s.failOn[op+" "+objectPath]
}

func (s *memStore) Upload(_ context.Context, data []byte, filename, _, prefix string) (filestore.UploadResult, error) {
	p := filestore.ObjectPath(prefix, filename)
	if err := s.record("upload", p); err != nil {
		return filestore.UploadResult{}, err
	}
	s.put(p, data)
	return filestore.UploadResult{Path: p, URL: "https://files.example.com/maintenance/" + p, Size: int64(len(data))}, nil
}

func (s *memStore) Download(_ context.Context, prefix, filename string) ([]byte, error) {
	p := filestore.ObjectPath(prefix, filename)
	if err := s.record("download", p); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[p]
	if !ok {
		return nil, filestore.ErrNotExist
	}
	return data, nil
}

func (s *memStore) Delete(_ context.Context, prefix, filename string) (bool, error) {
	p := filestore.ObjectPath(prefix, filename)
	if err := s.record("delete", p); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[p]
	delete(s.objects, p)
	return ok, nil
}

func (s *memStore) Exists(_ context.Context, prefix, filename string) (bool, error) {
	p := filestore.ObjectPath(prefix, filename)
	_ = s.record("exists", p)
	return s.has(p), nil
}

// recordingDispatcher keeps published events in order.
type recordingDispatcher struct {
	events.Dispatcher
	mu        sync.Mutex
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher(nil)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	d.published = append(d.published, event)
	d.mu.Unlock()
	return d.Dispatcher.Publish(ctx, event)
}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.published {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testEnv wires the services over memory collections seeded with the fixtures.
type testEnv struct {
	repos       repository.Collections
	tickets     repository.TicketRepository
	persons     repository.PersonRepository
	locations   repository.LocationRepository
	categories  repository.CategoryRepository
	personDir   directory.PersonDirectory
	locationDir directory.LocationDirectory
	store       *memStore
	dispatcher  *recordingDispatcher
	factory     *TicketFactory
	resolver    *AssignmentResolver
	migrator    *AttachmentMigrator
	ticketSvc   *TicketService
	attachSvc   *AttachmentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	cols := repository.NewMemoryCollections()
	env := &testEnv{
		repos:      cols,
		tickets:    repository.NewTicketRepository(cols.Tickets),
		persons:    repository.NewPersonRepository(cols.Persons),
		locations:  repository.NewLocationRepository(cols.Locations),
		categories: repository.NewCategoryRepository(cols.Categories),
		store:      newMemStore(),
		dispatcher: newRecordingDispatcher(),
	}
	if err := directory.Seed(ctx, env.persons, env.locations, zap.NewNop()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	env.personDir = directory.NewPersonDirectory(env.persons)
	env.locationDir = directory.NewLocationDirectory(env.locations)

	env.factory = NewTicketFactory(env.personDir, env.locationDir, nil)
	env.factory.now = fixedClock
	env.resolver = NewAssignmentResolver(env.personDir, env.locationDir)
	env.resolver.now = fixedClock
	env.migrator = NewAttachmentMigrator(env.store, nil, MigratorConfig{})
	env.migrator.now = fixedClock

	env.ticketSvc = NewTicketService(TicketDependencies{
		TicketRepo: env.tickets,
		Factory:    env.factory,
		Resolver:   env.resolver,
		Dispatcher: env.dispatcher,
	})
	env.ticketSvc.now = fixedClock
	env.attachSvc = NewAttachmentService(AttachmentDependencies{
		TicketRepo: env.tickets,
		Store:      env.store,
		Migrator:   env.migrator,
		Dispatcher: env.dispatcher,
	})
	env.attachSvc.now = fixedClock
	return env
}

// legacyAttachment is shaped like references written before canonical folders existed.
func legacyAttachment(id, filename string) domain.AttachmentRef {
	return domain.AttachmentRef{
		ID:          id,
		Filename:    filename,
		ContentType: "application/pdf",
		URL:         "https://files.example.com/maintenance/" + filename,
	}
}

func canonicalAttachment(id, filename string) domain.AttachmentRef {
	size := int64(3)
	at := fixedNow
	return domain.AttachmentRef{
		ID:          id,
		Filename:    filename,
		ContentType: "application/pdf",
		Size:        &size,
		URL:         "https://files.example.com/maintenance/tickets/2024-03-15/" + filename,
		UploadedAt:  &at,
		UploadDate:  "2024-03-15",
		FolderPath:  "tickets/2024-03-15",
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if !apperrors.HasCode(err, code) {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func strPtr(s string) *string { return &s }
