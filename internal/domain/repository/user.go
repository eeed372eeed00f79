package repository

import (
	"context"
	"time"
)

// Login fields reconocidos. El campo activo se elige por configuración.
const (
	LoginFieldUsername = "username"
	LoginFieldEmail    = "email"
)

// User representa una cuenta del sistema.
type User struct {
	ID        string
	Username  string
	Email     string
	Mobile    string
	// PasswordHash es el PHC string argon2id; nil = password inutilizable
	// (cuentas creadas por el flujo passwordless).
	PasswordHash *string
	IsActive     bool
	IsStaff      bool
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// LoginValue retorna el valor del atributo de login configurado.
func (u *User) LoginValue(field string) string {
	if field == LoginFieldEmail {
		return u.Email
	}
	return u.Username
}

// HasUsablePassword reporta si la cuenta puede autenticarse por password.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// CreateUserInput contiene los datos para crear un usuario.
type CreateUserInput struct {
	Username     string
	Email        string
	Mobile       string
	PasswordHash *string // nil = password inutilizable
	IsActive     bool
	IsStaff      bool
}

// UpdateUserInput contiene los campos actualizables de un usuario.
// Punteros nil = sin cambio.
type UpdateUserInput struct {
	Email  *string
	Mobile *string
}

// ListUsersFilter opciones para listar usuarios.
type ListUsersFilter struct {
	Limit  int // Default 50, max 200
	Offset int
	// OnlyID restringe el listado a un único usuario (política hide_users).
	OnlyID string
}

// UserRepository define operaciones sobre usuarios.
type UserRepository interface {
	// GetByPK busca un usuario por primary key.
	// Retorna ErrNotFound si no existe.
	GetByPK(ctx context.Context, id string) (*User, error)

	// GetByLogin busca por el atributo de login (match case-insensitive).
	// Retorna ErrNotFound si no existe.
	GetByLogin(ctx context.Context, field, value string) (*User, error)

	// GetByIdentifier busca por email o mobile (match case-insensitive).
	// field es LoginFieldEmail o "mobile".
	GetByIdentifier(ctx context.Context, field, value string) (*User, error)

	// GetActiveByEmail retorna los usuarios activos con ese email.
	GetActiveByEmail(ctx context.Context, email string) ([]User, error)

	// GetInactiveByEmail retorna el usuario inactivo con ese email.
	// Retorna ErrNotFound si no existe.
	GetInactiveByEmail(ctx context.Context, email string) (*User, error)

	// List lista usuarios con paginación.
	List(ctx context.Context, filter ListUsersFilter) ([]User, error)

	// Create crea un usuario. Retorna ErrConflict si el login o email ya existen.
	Create(ctx context.Context, input CreateUserInput) (*User, error)

	// Update actualiza campos mutables. Retorna ErrConflict en duplicados.
	Update(ctx context.Context, userID string, input UpdateUserInput) (*User, error)

	// Delete elimina un usuario. Retorna ErrNotFound si no existe.
	Delete(ctx context.Context, userID string) error

	// SetPassword reemplaza el hash del password (nil = inutilizable).
	SetPassword(ctx context.Context, userID string, hash *string) error

	// SetActive muta el flag is_active.
	SetActive(ctx context.Context, userID string, active bool) error

	// SetLastLogin actualiza el timestamp de último login.
	SetLastLogin(ctx context.Context, userID string, t time.Time) error

	// UpdateLogin cambia el identificador de login configurado.
	// Retorna ErrConflict si el nuevo valor ya está tomado.
	UpdateLogin(ctx context.Context, userID, field, value string) error
}
