// Package users contiene los controllers del dominio de cuentas.
package users

import (
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	svc "github.com/dropDatabas3/accountd/internal/http/services/users"
)

// Controllers agrupa todos los controllers del dominio de cuentas.
type Controllers struct {
	Create     *CreateController
	Activation *ActivationController
	Password   *PasswordController
	Username   *UsernameController
	Directory  *DirectoryController
}

// NewControllers crea el agregador de controllers de cuentas.
func NewControllers(s svc.Service) *Controllers {
	return &Controllers{
		Create:     NewCreateController(s),
		Activation: NewActivationController(s),
		Password:   NewPasswordController(s),
		Username:   NewUsernameController(s),
		Directory:  NewDirectoryController(s),
	}
}

// toResponse proyecta un usuario a su representación pública.
func toResponse(u *repository.User) dto.UserResponse {
	return dto.UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Mobile: u.Mobile}
}
