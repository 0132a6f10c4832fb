// Package filestore holds attachment bytes behind a path-prefix/filename API.
package filestore

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotExist is returned by Download when no object lives at the path.
var ErrNotExist = errors.New("file does not exist")

// UploadResult describes a stored object.
type UploadResult struct {
	Path string
	URL  string
	Size int64
}

// Store is implemented by every storage backend.
type Store interface {
	Upload(ctx context.Context, data []byte, filename, contentType, prefix string) (UploadResult, error)
	Download(ctx context.Context, prefix, filename string) ([]byte, error)
	Delete(ctx context.Context, prefix, filename string) (bool, error)
	Exists(ctx context.Context, prefix, filename string) (bool, error)
}

// ObjectPath joins a prefix and filename into a slash path without leading slash.
func ObjectPath(prefix, filename string) string {
	return strings.TrimPrefix(path.Join(strings.Trim(prefix, "/"), filename), "/")
}

var contentTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/m4a",
	".wav":  "audio/wav",
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".txt":  "text/plain",
}

// ContentTypeFor derives the MIME type from the filename extension.
// Unknown extensions keep current, or application/octet-stream when empty.
func ContentTypeFor(filename, current string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(filename))]; ok {
		return ct
	}
	if current != "" {
		return current
	}
	return "application/octet-stream"
}
