package models

import (
	"strings"
	"time"

	"sacra360/pkg/platform/listing"
)

// Roles accepted by the usuarios_rol_check constraint.
const (
	RoleAdmin     = "admin"
	RoleSecretary = "secretaria"
	RolePriest    = "sacerdote"
)

// User is an operator of the archive. Officiants recorded on sacraments are
// users with the sacerdote role.
type User struct {
	ID                 int64     `json:"id"`
	Nombre             string    `json:"nombre"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	Rol                string    `json:"rol"`
	Activo             bool      `json:"activo"`
	FechaRegistro      time.Time `json:"fecha_registro"`
	FechaActualizacion time.Time `json:"fecha_actualizacion"`
}

type CreateUserRequest struct {
	Nombre   string `json:"nombre" validate:"notblank,max=200"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Rol      string `json:"rol" validate:"required,oneof=admin secretaria sacerdote"`
}

// Normalize trims the name and lower-cases the email.
func (r *CreateUserRequest) Normalize() {
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Email = NormalizeEmail(r.Email)
}

// UpdateUserRequest changes name and role; an empty password keeps the
// current one.
type UpdateUserRequest struct {
	Nombre   string `json:"nombre" validate:"notblank,max=200"`
	Password string `json:"password" validate:"omitempty,min=8,max=72"`
	Rol      string `json:"rol" validate:"required,oneof=admin secretaria sacerdote"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type ListFilter struct {
	Nombre string
	Rol    string
	listing.Params
}

var OrderFields = []string{"id", "nombre", "email", "fecha_registro"}

var DefaultOrder = listing.Order{Field: "nombre"}
