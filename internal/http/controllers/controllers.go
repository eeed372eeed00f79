// Package controllers agrupa todos los controllers HTTP. Es el composition
// root: los services se crean una vez y se inyectan acá.
package controllers

import (
	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/email"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/controllers/health"
	plessctrl "github.com/dropDatabas3/accountd/internal/http/controllers/passwordless"
	tokenctrl "github.com/dropDatabas3/accountd/internal/http/controllers/token"
	usersctrl "github.com/dropDatabas3/accountd/internal/http/controllers/users"
	wactrl "github.com/dropDatabas3/accountd/internal/http/controllers/webauthn"
	plesssvc "github.com/dropDatabas3/accountd/internal/http/services/passwordless"
	tokensvc "github.com/dropDatabas3/accountd/internal/http/services/token"
	userssvc "github.com/dropDatabas3/accountd/internal/http/services/users"
	wasvc "github.com/dropDatabas3/accountd/internal/http/services/webauthn"
	"github.com/dropDatabas3/accountd/internal/security/linktoken"
	"github.com/dropDatabas3/accountd/internal/security/password"
	"github.com/dropDatabas3/accountd/internal/store"
)

// Deps contiene las dependencias externas compartidas por todos los services.
type Deps struct {
	Store  store.Store
	Cfg    *config.Config
	Bus    *events.Bus
	Mailer *email.Dispatcher
	Codec  *linktoken.Codec
	Policy password.Policy
	SMS    plesssvc.SMSSender
}

// Controllers agrupa todos los sub-controllers por dominio.
type Controllers struct {
	Users        *usersctrl.Controllers
	Token        *tokenctrl.Controllers
	Passwordless *plessctrl.Controllers
	Webauthn     *wactrl.Controllers
	Health       *health.Controllers
}

// New crea services y controllers en cascada.
func New(deps Deps) *Controllers {
	users := userssvc.NewService(userssvc.Deps{
		Store:  deps.Store,
		Cfg:    deps.Cfg,
		Bus:    deps.Bus,
		Mailer: deps.Mailer,
		Codec:  deps.Codec,
		Policy: deps.Policy,
	})
	token := tokensvc.NewService(tokensvc.Deps{
		Store: deps.Store,
		Cfg:   deps.Cfg,
		Bus:   deps.Bus,
	})
	pless := plesssvc.NewService(plesssvc.Deps{
		Store:  deps.Store,
		Cfg:    deps.Cfg,
		Bus:    deps.Bus,
		Mailer: deps.Mailer,
		SMS:    deps.SMS,
	})
	webauthn := wasvc.NewService(wasvc.Deps{
		Store:  deps.Store,
		Cfg:    deps.Cfg,
		Bus:    deps.Bus,
		Mailer: deps.Mailer,
	})

	return &Controllers{
		Users:        usersctrl.NewControllers(users),
		Token:        tokenctrl.NewControllers(token),
		Passwordless: plessctrl.NewControllers(pless, deps.Cfg),
		Webauthn:     wactrl.NewControllers(webauthn),
		Health:       health.NewControllers(deps.Store),
	}
}
