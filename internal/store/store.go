// Package store define la interfaz de persistencia agregada y el registro de
// adapters. Los adapters concretos (memory, pg) se registran via init() y se
// importan blank desde cmd.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

// Config es la configuración de conexión de un adapter.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store agrupa los repositorios del dominio.
type Store interface {
	Users() repository.UserRepository
	Sessions() repository.SessionTokenRepository
	Challenges() repository.ChallengeRepository
	WebauthnCredentials() repository.WebauthnCredentialRepository

	Ping(ctx context.Context) error
	Close()
}

// OpenFunc abre una conexión del adapter.
type OpenFunc func(ctx context.Context, cfg Config) (Store, error)

var (
	mu       sync.RWMutex
	adapters = map[string]OpenFunc{}
)

// RegisterAdapter registra un adapter por nombre. Llamar desde init().
func RegisterAdapter(name string, open OpenFunc) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := adapters[name]; dup {
		panic(fmt.Sprintf("store: adapter %q registered twice", name))
	}
	adapters[name] = open
}

// Open abre el store del driver configurado.
func Open(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	open, ok := adapters[cfg.Driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: unknown driver %q (registered: %v)", cfg.Driver, registered())
	}
	return open(ctx, cfg)
}

func registered() []string {
	names := make([]string, 0, len(adapters))
	for n := range adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
