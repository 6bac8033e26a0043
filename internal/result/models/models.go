package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	dErrors "sacra360/pkg/domain-errors"
)

// Storage targets reported in almacenamiento.
const (
	StorageRemote = "remoto"
	StorageLocal  = "local"
)

var collectionName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CreateResultRequest is a recognition result for one page or document.
type CreateResultRequest struct {
	Coleccion   string         `json:"coleccion" validate:"required,max=100"`
	DocumentoID *int64         `json:"documento_id" validate:"omitempty,gt=0"`
	Datos       map[string]any `json:"datos" validate:"required"`
}

// Check enforces what struct tags cannot express.
func (r *CreateResultRequest) Check() error {
	r.Coleccion = strings.TrimSpace(r.Coleccion)
	if !collectionName.MatchString(r.Coleccion) {
		return dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("nombre de colección inválido %q: solo letras, dígitos, '-' y '_'", r.Coleccion)).
			WithDetail("campo", "coleccion")
	}
	if len(r.Datos) == 0 {
		return dErrors.New(dErrors.CodeValidation, "datos no puede estar vacío").WithDetail("campo", "datos")
	}
	return nil
}

// Document is the body sent to the hosted document store.
func (r *CreateResultRequest) Document() map[string]any {
	doc := map[string]any{"datos": r.Datos}
	if r.DocumentoID != nil {
		doc["documento_id"] = *r.DocumentoID
	}
	return doc
}

// StoredResult is a row of the local resultados table.
type StoredResult struct {
	ID            int64
	Coleccion     string
	DocumentoID   *int64
	Payload       map[string]any
	FechaRegistro time.Time
}

// Result is returned to the client. ID is the remote document id or the
// local row id rendered as a string.
type Result struct {
	ID             string    `json:"id"`
	Coleccion      string    `json:"coleccion"`
	DocumentoID    *int64    `json:"documento_id"`
	Almacenamiento string    `json:"almacenamiento"`
	FechaRegistro  time.Time `json:"fecha_registro"`
}
