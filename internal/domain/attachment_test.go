package domain

import (
	"testing"
	"time"
)

func TestAttachmentRefIsLegacy(t *testing.T) {
	canonical := AttachmentRef{
		ID:          "5b7c2c7e-8f0a-4c7b-9d0e-1f2a3b4c5d6e",
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		URL:         "https://files.example.com/maintenance/tickets/2024-05-01/report.pdf",
		UploadDate:  "2024-05-01",
		FolderPath:  "tickets/2024-05-01",
	}

	tests := []struct {
		name   string
		mutate func(a *AttachmentRef)
		want   bool
	}{
		{name: "canonical", mutate: func(a *AttachmentRef) {}, want: false},
		{name: "missing upload date", mutate: func(a *AttachmentRef) { a.UploadDate = "" }, want: true},
		{name: "url outside tickets partition", mutate: func(a *AttachmentRef) {
			a.URL = "https://files.example.com/maintenance/uploads/report.pdf"
		}, want: true},
		{name: "empty url", mutate: func(a *AttachmentRef) { a.URL = "" }, want: true},
		{name: "direct file under maintenance root", mutate: func(a *AttachmentRef) {
			a.URL = "https://files.example.com/tickets/2024-05-01/x/maintenance/report.PDF"
		}, want: true},
		{name: "base64 id", mutate: func(a *AttachmentRef) { a.ID = "cmVwb3J0LnBkZg==" }, want: true},
		{name: "pdf labelled as m4a", mutate: func(a *AttachmentRef) { a.ContentType = "audio/m4a" }, want: true},
		{name: "m4a labelled as m4a", mutate: func(a *AttachmentRef) {
			a.Filename = "voice.m4a"
			a.ContentType = "audio/m4a"
			a.URL = "https://files.example.com/maintenance/tickets/2024-05-01/voice.m4a"
		}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			att := canonical
			tt.mutate(&att)
			if got := att.IsLegacy(); got != tt.want {
				t.Errorf("IsLegacy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnyLegacy(t *testing.T) {
	ok := AttachmentRef{ID: "a", Filename: "a.png", URL: "/tickets/2024-01-01/a.png", UploadDate: "2024-01-01"}
	old := AttachmentRef{ID: "b", Filename: "b.png", URL: "/maintenance/b.png"}

	if AnyLegacy([]AttachmentRef{ok}) {
		t.Error("expected no legacy attachments")
	}
	if !AnyLegacy([]AttachmentRef{ok, old}) {
		t.Error("expected legacy attachment to be detected")
	}
	if AnyLegacy(nil) {
		t.Error("empty list has no legacy attachments")
	}
}

func TestCanonicalFolder(t *testing.T) {
	day := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	if got := CanonicalFolder(day); got != "tickets/2024-03-09" {
		t.Errorf("CanonicalFolder() = %q", got)
	}
	if got := CanonicalFolderFor("2023-12-31"); got != "tickets/2023-12-31" {
		t.Errorf("CanonicalFolderFor() = %q", got)
	}
}

func TestDedupeAttachments(t *testing.T) {
	atts := []AttachmentRef{
		{ID: "1", Filename: "first.png"},
		{ID: "2", Filename: "second.png"},
		{ID: "1", Filename: "duplicate.png"},
	}
	got := DedupeAttachments(atts)
	if len(got) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(got))
	}
	if got[0].Filename != "first.png" {
		t.Errorf("expected first occurrence to win, got %q", got[0].Filename)
	}
}
