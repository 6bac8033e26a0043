package models

import (
	"io"
	"mime"
	"strings"
	"time"
)

// Document is an uploaded scan or file, usually a page of a parish book.
type Document struct {
	ID            int64     `json:"id"`
	LibroID       *int64    `json:"libro_id"`
	NombreArchivo string    `json:"nombre_archivo"`
	StorageKey    string    `json:"-"`
	ContentType   string    `json:"content_type"`
	Tamano        int64     `json:"tamano"`
	Activo        bool      `json:"activo"`
	FechaRegistro time.Time `json:"fecha_registro"`
}

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
	"application/pdf": true,
}

// NormalizeContentType strips parameters and lowercases the media type.
func NormalizeContentType(ct string) string {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

// IsAllowedContentType reports whether uploads of ct are accepted.
func IsAllowedContentType(ct string) bool {
	return allowedContentTypes[NormalizeContentType(ct)]
}

// UploadRequest carries one uploaded file. Tamano is the size declared by
// the multipart header; Content must yield exactly that many bytes.
type UploadRequest struct {
	NombreArchivo string
	ContentType   string
	LibroID       *int64
	Tamano        int64
	Content       io.Reader
}
