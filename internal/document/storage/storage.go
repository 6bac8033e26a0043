package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrObjectNotFound is returned when a key has no stored content.
var ErrObjectNotFound = errors.New("object not found")

// Blob stores uploaded file bytes under opaque keys. Metadata lives in the
// documentos table; a Blob only knows keys and content.
type Blob interface {
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// NewKey builds a storage key of the form documentos/YYYY/MM/<uuid>_<name>.
func NewKey(now time.Time, filename string) string {
	return fmt.Sprintf("documentos/%d/%02d/%s_%s", now.Year(), now.Month(), uuid.NewString(), SanitizeFilename(filename))
}

// SanitizeFilename keeps the base name and replaces characters that are
// unsafe in object keys and file paths.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "archivo"
	}
	return out
}
