package audit

import (
	"time"
)

// EventCategory classifies audit events by their primary purpose so
// consumers can route and retain them differently.
type EventCategory string

const (
	// CategoryRecord covers changes to sacramental records. These are the
	// archive's legal trail and are retained indefinitely.
	CategoryRecord EventCategory = "registro"

	// CategorySecurity covers authentication and account events.
	CategorySecurity EventCategory = "seguridad"

	// CategoryOperations covers catalog maintenance and file handling.
	CategoryOperations EventCategory = "operaciones"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID            string
	Category      EventCategory
	Timestamp     time.Time
	Action        string
	AggregateType string
	AggregateID   string
	// UserID is the authenticated officiant or operator, 0 when anonymous.
	UserID    int64
	Subject   string
	RequestID string
	ClientIP  string
	UserAgent string
	Details   map[string]any
}

type AuditEvent string

const (
	// Sacramental records
	EventBaptismRegistered   AuditEvent = "bautizo_registrado"
	EventMarriageRegistered  AuditEvent = "matrimonio_registrado"
	EventSacramentCreated    AuditEvent = "sacramento_creado"
	EventSacramentUpdated    AuditEvent = "sacramento_actualizado"
	EventSacramentDeactivate AuditEvent = "sacramento_desactivado"
	EventSacramentPurged     AuditEvent = "sacramento_eliminado"
	EventPersonUpdated       AuditEvent = "persona_actualizada"
	EventPersonDeactivated   AuditEvent = "persona_desactivada"

	// Accounts
	EventUserCreated     AuditEvent = "usuario_creado"
	EventUserDeactivated AuditEvent = "usuario_desactivado"
	EventLoginSucceeded  AuditEvent = "inicio_sesion"
	EventLoginFailed     AuditEvent = "inicio_sesion_fallido"

	// Catalogs and files
	EventBookCreated            AuditEvent = "libro_creado"
	EventBookUpdated            AuditEvent = "libro_actualizado"
	EventBookDeactivated        AuditEvent = "libro_desactivado"
	EventInstitutionCreated     AuditEvent = "institucion_creada"
	EventInstitutionUpdated     AuditEvent = "institucion_actualizada"
	EventInstitutionDeactivated AuditEvent = "institucion_desactivada"
	EventDocumentUploaded       AuditEvent = "documento_subido"
	EventResultStored           AuditEvent = "resultado_guardado"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventBaptismRegistered:   CategoryRecord,
	EventMarriageRegistered:  CategoryRecord,
	EventSacramentCreated:    CategoryRecord,
	EventSacramentUpdated:    CategoryRecord,
	EventSacramentDeactivate: CategoryRecord,
	EventSacramentPurged:     CategoryRecord,
	EventPersonUpdated:       CategoryRecord,
	EventPersonDeactivated:   CategoryRecord,

	EventUserCreated:     CategorySecurity,
	EventUserDeactivated: CategorySecurity,
	EventLoginSucceeded:  CategorySecurity,
	EventLoginFailed:     CategorySecurity,
}

// Category returns the category of the event, defaulting to operations.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryOperations
}

// OutboxEntry is one row of the outbox table awaiting publication.
type OutboxEntry struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}
