package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/filestore"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// DefaultLegacyRootMarker is the URL segment old attachment URLs were rooted under.
const DefaultLegacyRootMarker = "/maintenance/"

// DefaultMigrationConcurrency bounds parallel migrations within one batch.
const DefaultMigrationConcurrency = 4

// MigrationFailure records one attachment a batch could not migrate.
type MigrationFailure struct {
	Index      int
	Attachment domain.AttachmentRef
	Err        error
}

// MigrationResult is the outcome of a batch. Attachments has one entry per
// input at the same position; failed entries hold the original reference.
type MigrationResult struct {
	Attachments []domain.AttachmentRef
	Succeeded   []domain.AttachmentRef
	Failed      []MigrationFailure
}

// Changed reports whether any attachment was actually rewritten.
func (r MigrationResult) Changed() bool {
	return len(r.Succeeded) > 0
}

// MigratorConfig tunes the migrator.
type MigratorConfig struct {
	LegacyRootMarker string
	Concurrency      int
}

// AttachmentMigrator moves legacy attachments into tickets/<date>/<filename>.
type AttachmentMigrator struct {
	store       filestore.Store
	logger      *zap.Logger
	marker      string
	concurrency int
	now         func() time.Time
	newID       func() string
}

// NewAttachmentMigrator constructs the migrator.
func NewAttachmentMigrator(store filestore.Store, logger *zap.Logger, cfg MigratorConfig) *AttachmentMigrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	marker := cfg.LegacyRootMarker
	if marker == "" {
		marker = DefaultLegacyRootMarker
	}
	if !strings.HasPrefix(marker, "/") {
		marker = "/" + marker
	}
	if !strings.HasSuffix(marker, "/") {
		marker += "/"
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultMigrationConcurrency
	}
	return &AttachmentMigrator{
		store:       store,
		logger:      logger,
		marker:      marker,
		concurrency: concurrency,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

type sourceCandidate struct {
	prefix   string
	filename string
	label    string
}

func (c sourceCandidate) objectPath() string {
	return filestore.ObjectPath(c.prefix, c.filename)
}

// Migrate copies one legacy attachment to its canonical location and returns
// the new reference. Canonical input is returned unchanged without touching
// the file store.
func (m *AttachmentMigrator) Migrate(ctx context.Context, legacy domain.AttachmentRef, ticketID string, targetDate *time.Time) (domain.AttachmentRef, error) {
	if !legacy.IsLegacy() {
		return legacy, nil
	}
	if strings.TrimSpace(legacy.Filename) == "" {
		return legacy, apperrors.NewInvalidAttachment("attachment is missing a filename")
	}
	if strings.TrimSpace(legacy.URL) == "" && strings.TrimSpace(legacy.FolderPath) == "" {
		return legacy, apperrors.NewInvalidAttachment(fmt.Sprintf("attachment %s has neither url nor folderPath", legacy.Filename))
	}

	now := m.now().UTC()
	day := now
	if targetDate != nil {
		day = targetDate.UTC()
	}

	data, source, err := m.download(ctx, legacy, now)
	if err != nil {
		return legacy, err
	}

	contentType := filestore.ContentTypeFor(legacy.Filename, legacy.ContentType)
	folder := domain.CanonicalFolder(day)
	uploaded, err := m.store.Upload(ctx, data, legacy.Filename, contentType, folder)
	if err != nil {
		return legacy, fmt.Errorf("upload %s: %w", legacy.Filename, err)
	}

	if source.objectPath() != filestore.ObjectPath(folder, legacy.Filename) {
		if _, err := m.store.Delete(ctx, source.prefix, source.filename); err != nil {
			m.logger.Warn("legacy attachment cleanup failed",
				zap.String("ticket_id", ticketID),
				zap.String("path", source.objectPath()),
				zap.Error(err))
		}
	}

	size := uploaded.Size
	m.logger.Info("attachment migrated",
		zap.String("ticket_id", ticketID),
		zap.String("from", source.objectPath()),
		zap.String("to", uploaded.Path),
		zap.String("candidate", source.label))
	return domain.AttachmentRef{
		ID:          m.newID(),
		Filename:    legacy.Filename,
		ContentType: contentType,
		Size:        &size,
		URL:         uploaded.URL,
		UploadedAt:  &now,
		UploadDate:  day.Format(domain.UploadDateLayout),
		FolderPath:  folder,
	}, nil
}

// MigrateMany migrates each attachment independently with bounded
// concurrency. A failure keeps the original reference at its position and
// never stops the siblings.
func (m *AttachmentMigrator) MigrateMany(ctx context.Context, ticketID string, atts []domain.AttachmentRef, targetDate *time.Time) MigrationResult {
	out := make([]domain.AttachmentRef, len(atts))
	errs := make([]error, len(atts))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i := range atts {
		i := i
		g.Go(func() error {
			migrated, err := m.Migrate(ctx, atts[i], ticketID, targetDate)
			if err != nil {
				out[i], errs[i] = atts[i], err
				return nil
			}
			out[i] = migrated
			return nil
		})
	}
	_ = g.Wait()

	result := MigrationResult{Attachments: out}
	for i := range atts {
		if errs[i] != nil {
			m.logger.Warn("attachment migration failed",
				zap.String("ticket_id", ticketID),
				zap.String("filename", atts[i].Filename),
				zap.Error(errs[i]))
			result.Failed = append(result.Failed, MigrationFailure{Index: i, Attachment: atts[i], Err: errs[i]})
			continue
		}
		if atts[i].IsLegacy() {
			result.Succeeded = append(result.Succeeded, out[i])
		}
	}
	return result
}

func (m *AttachmentMigrator) download(ctx context.Context, att domain.AttachmentRef, now time.Time) ([]byte, sourceCandidate, error) {
	var lastErr error
	for _, c := range m.candidates(att, now) {
		data, err := m.store.Download(ctx, c.prefix, c.filename)
		if err == nil {
			return data, c, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, sourceCandidate{}, ctxErr
		}
		if !errors.Is(err, filestore.ErrNotExist) {
			m.logger.Debug("legacy download attempt failed",
				zap.String("path", c.objectPath()), zap.String("candidate", c.label), zap.Error(err))
		}
		lastErr = err
	}
	return nil, sourceCandidate{}, apperrors.NewDownloadFailed(att.Filename, lastErr)
}

// candidates lists where a legacy file may live, most specific first.
func (m *AttachmentMigrator) candidates(att domain.AttachmentRef, now time.Time) []sourceCandidate {
	var out []sourceCandidate
	seen := map[string]bool{}
	add := func(prefix, filename, label string) {
		if filename == "" {
			return
		}
		c := sourceCandidate{prefix: strings.Trim(prefix, "/"), filename: filename, label: label}
		if seen[c.objectPath()] {
			return
		}
		seen[c.objectPath()] = true
		out = append(out, c)
	}

	if prefix, filename, ok := m.splitLegacyURL(att.URL); ok {
		add(prefix, filename, "url")
	}
	if att.FolderPath != "" {
		add(att.FolderPath, att.Filename, "folder_path")
	}
	add("", att.Filename, "root")
	add("", url.PathEscape(att.Filename), "root_encoded")
	if att.UploadDate != "" {
		add(domain.CanonicalFolderFor(att.UploadDate), att.Filename, "upload_date")
	}
	add(domain.CanonicalFolder(now), att.Filename, "today")
	return out
}

// splitLegacyURL returns the folder and decoded filename found after the
// storage-root marker in rawURL.
func (m *AttachmentMigrator) splitLegacyURL(rawURL string) (string, string, bool) {
	if rawURL == "" {
		return "", "", false
	}
	if u, err := url.Parse(rawURL); err == nil && u.EscapedPath() != "" {
		rawURL = u.EscapedPath()
	}
	idx := strings.Index(rawURL, m.marker)
	if idx < 0 {
		return "", "", false
	}
	rest := rawURL[idx+len(m.marker):]
	dir, file := path.Split(rest)
	if file == "" {
		return "", "", false
	}
	if decoded, err := url.PathUnescape(file); err == nil {
		file = decoded
	}
	if decoded, err := url.PathUnescape(dir); err == nil {
		dir = decoded
	}
	return strings.TrimSuffix(dir, "/"), file, true
}
