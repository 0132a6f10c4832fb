package filestore

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestLocalStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "http://files.test/maintenance/")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	res, err := store.Upload(ctx, []byte("hello"), "work order.pdf", "application/pdf", "tickets/2024-05-01")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.Size != 5 || res.Path != "tickets/2024-05-01/work order.pdf" {
		t.Errorf("unexpected upload result %+v", res)
	}
	if res.URL != "http://files.test/maintenance/tickets/2024-05-01/work%20order.pdf" {
		t.Errorf("unexpected url %q", res.URL)
	}

	ok, err := store.Exists(ctx, "tickets/2024-05-01", "work order.pdf")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v", ok, err)
	}
	data, err := store.Download(ctx, "/tickets/2024-05-01/", "work order.pdf")
	if err != nil || string(data) != "hello" {
		t.Fatalf("Download() = %q, %v", data, err)
	}

	deleted, err := store.Delete(ctx, "tickets/2024-05-01", "work order.pdf")
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v, %v", deleted, err)
	}
	if _, err := store.Download(ctx, "tickets/2024-05-01", "work order.pdf"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist after delete, got %v", err)
	}
	deleted, err = store.Delete(ctx, "tickets/2024-05-01", "work order.pdf")
	if err != nil || deleted {
		t.Errorf("second Delete() = %v, %v", deleted, err)
	}
}

func TestLocalStoreRootAndTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "http://files.test")
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}

	if _, err := store.Upload(ctx, []byte("x"), "root.txt", "text/plain", ""); err != nil {
		t.Fatalf("upload at root: %v", err)
	}
	if ok, _ := store.Exists(ctx, "", "root.txt"); !ok {
		t.Error("expected root file to exist")
	}
	if _, err := store.Upload(ctx, []byte("x"), "../../etc/passwd", "text/plain", "tickets"); err == nil {
		t.Error("expected traversal outside root to fail")
	}
	if _, err := store.Download(ctx, "", " "); err == nil || !strings.Contains(err.Error(), "filename") {
		t.Errorf("expected filename validation error, got %v", err)
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		filename string
		current  string
		want     string
	}{
		{"voice.M4A", "application/pdf", "audio/m4a"},
		{"memo.mp3", "", "audio/mpeg"},
		{"call.wav", "", "audio/wav"},
		{"invoice.pdf", "audio/m4a", "application/pdf"},
		{"photo.JPEG", "", "image/jpeg"},
		{"photo.jpg", "", "image/jpeg"},
		{"plan.png", "", "image/png"},
		{"letter.doc", "", "application/msword"},
		{"letter.docx", "", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"sheet.xls", "", "application/vnd.ms-excel"},
		{"sheet.xlsx", "", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"notes.txt", "", "text/plain"},
		{"archive.zip", "application/zip", "application/zip"},
		{"archive.bin", "", "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := ContentTypeFor(tt.filename, tt.current); got != tt.want {
				t.Errorf("ContentTypeFor(%q, %q) = %q, want %q", tt.filename, tt.current, got, tt.want)
			}
		})
	}
}
