// Package events implementa el bus de señales de dominio: publicación
// sincrónica in-process con payload tipado. Las señales se emiten después de
// que la mutación asociada fue confirmada en el repositorio; los errores de
// los suscriptores se propagan al emisor.
package events

import (
	"context"
	"sync"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/observability/logger"
)

// Name identifica una señal de dominio.
type Name string

// El set de señales es contrato estable entre releases.
const (
	UserRegistered         Name = "user_registered"
	UserActivated          Name = "user_activated"
	UserUpdated            Name = "user_updated"
	UserDeleted            Name = "user_deleted"
	PasswordUpdated        Name = "password_updated"
	PasswordResetCompleted Name = "password_reset_completed"
	UsernameUpdated        Name = "username_updated"
	TokenCreated           Name = "token_created"
	TokenDestroyed         Name = "token_destroyed"
	UserLoggedIn           Name = "user_logged_in"
	UserLoginFailed        Name = "user_login_failed"
	UserLoggedOut          Name = "user_logged_out"
)

// Event es el payload de una señal.
type Event struct {
	Name Name
	// User es el usuario afectado; puede ser nil (ej: user_login_failed
	// con credenciales desconocidas).
	User *repository.User
	// RequestID correlaciona la señal con el request HTTP que la originó.
	RequestID string
}

// Handler procesa una señal. Un error aborta la emisión y se propaga.
type Handler func(ctx context.Context, e Event) error

// Bus entrega señales a los suscriptores en orden de registro, en la misma
// goroutine del emisor.
type Bus struct {
	mu   sync.RWMutex
	subs map[Name][]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Name][]Handler)}
}

// Subscribe registra un handler para una señal.
func (b *Bus) Subscribe(n Name, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[n] = append(b.subs[n], h)
}

// Emit entrega la señal sincrónicamente. Retorna el primer error de un
// suscriptor; los siguientes no se invocan.
func (b *Bus) Emit(ctx context.Context, e Event) error {
	b.mu.RLock()
	handlers := b.subs[e.Name]
	b.mu.RUnlock()

	log := logger.From(ctx)
	log.Debug("signal emitted", logger.Signal(string(e.Name)), logger.Count(len(handlers)))

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			log.Error("signal handler failed", logger.Signal(string(e.Name)), logger.Err(err))
			return err
		}
	}
	return nil
}
