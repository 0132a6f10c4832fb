package domain

import (
	"path"
	"regexp"
	"strings"
	"time"
)

// UploadDateLayout is the partition format used under the tickets folder.
const UploadDateLayout = "2006-01-02"

// TicketsFolder is the root of the canonical attachment layout.
const TicketsFolder = "tickets"

var (
	canonicalURLPattern    = regexp.MustCompile(`/tickets/\d{4}-\d{2}-\d{2}/`)
	legacyDirectURLPattern = regexp.MustCompile(`(?i)/maintenance/[^/]+\.(pdf|jpg|png|doc|docx)$`)
)

// AttachmentRef describes one stored file owned by a ticket.
type AttachmentRef struct {
	ID          string     `json:"id" bson:"id"`
	Filename    string     `json:"filename" bson:"filename"`
	ContentType string     `json:"contentType" bson:"contentType"`
	Size        *int64     `json:"size,omitempty" bson:"size,omitempty"`
	URL         string     `json:"url,omitempty" bson:"url,omitempty"`
	UploadedAt  *time.Time `json:"uploadedAt,omitempty" bson:"uploadedAt,omitempty"`
	UploadDate  string     `json:"uploadDate,omitempty" bson:"uploadDate,omitempty"`
	FolderPath  string     `json:"folderPath,omitempty" bson:"folderPath,omitempty"`
}

// IsLegacy reports whether the attachment predates the tickets/<date>/<file> layout.
// New historical shapes belong here and nowhere else.
func (a AttachmentRef) IsLegacy() bool {
	switch {
	case a.UploadDate == "":
		return true
	case !canonicalURLPattern.MatchString(a.URL):
		return true
	case legacyDirectURLPattern.MatchString(a.URL):
		return true
	case strings.Contains(a.ID, "="):
		// base64 ids from the first storage scheme
		return true
	case strings.HasSuffix(strings.ToLower(a.Filename), ".pdf") && a.ContentType == "audio/m4a":
		return true
	}
	return false
}

// AnyLegacy reports whether at least one attachment needs migration.
func AnyLegacy(atts []AttachmentRef) bool {
	for _, att := range atts {
		if att.IsLegacy() {
			return true
		}
	}
	return false
}

// CanonicalFolder returns tickets/<date> for the given day.
func CanonicalFolder(day time.Time) string {
	return path.Join(TicketsFolder, day.Format(UploadDateLayout))
}

// CanonicalFolderFor returns tickets/<uploadDate> for an already formatted date.
func CanonicalFolderFor(uploadDate string) string {
	return path.Join(TicketsFolder, uploadDate)
}
