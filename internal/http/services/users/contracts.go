// Package users implementa la lógica de cuentas: alta, activación, resets
// de password y de username, y el directorio de usuarios.
package users

import (
	"context"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/email"
	"github.com/dropDatabas3/accountd/internal/events"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/security/linktoken"
	"github.com/dropDatabas3/accountd/internal/security/password"
	"github.com/dropDatabas3/accountd/internal/store"
)

// Service define las operaciones de cuentas.
type Service interface {
	Create(ctx context.Context, in dto.CreateRequest) (*repository.User, error)
	Activate(ctx context.Context, in dto.ActivationRequest) error
	ResendActivation(ctx context.Context, emailAddr string) error

	ResetPassword(ctx context.Context, emailAddr string) error
	ResetPasswordConfirm(ctx context.Context, in dto.PasswordResetConfirmRequest) error
	SetPassword(ctx context.Context, caller *repository.User, in dto.SetPasswordRequest) error

	SetUsername(ctx context.Context, caller *repository.User, in dto.SetUsernameRequest) error
	ResetUsername(ctx context.Context, emailAddr string) error
	ResetUsernameConfirm(ctx context.Context, in dto.UsernameResetConfirmRequest) error

	List(ctx context.Context, caller *repository.User, limit, offset int) ([]repository.User, error)
	Get(ctx context.Context, caller *repository.User, id string) (*repository.User, error)
	Update(ctx context.Context, caller *repository.User, id string, in dto.UpdateRequest) (*repository.User, error)
	Delete(ctx context.Context, caller *repository.User, id, currentPassword string) error
}

// Deps contiene las dependencias del service de cuentas.
type Deps struct {
	Store  store.Store
	Cfg    *config.Config
	Bus    *events.Bus
	Mailer *email.Dispatcher
	Codec  *linktoken.Codec
	Policy password.Policy
}

type service struct {
	deps Deps
}

// NewService crea el service de cuentas.
func NewService(deps Deps) Service {
	return &service{deps: deps}
}
