// Package memory implementa el store en memoria. Se usa en dev y en los
// tests; no persiste nada. Las sesiones van sobre go-cache (thread-safe);
// usuarios y challenges necesitan scans, así que usan maps con RWMutex.
package memory

import (
	"context"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/store"
)

func init() {
	store.RegisterAdapter("memory", func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return New(), nil
	})
}

type memoryStore struct {
	users      *userRepo
	sessions   *sessionRepo
	challenges *challengeRepo
	webauthn   *webauthnRepo
}

// New crea un store en memoria vacío.
func New() store.Store {
	users := newUserRepo()
	return &memoryStore{
		users: users,
		sessions: &sessionRepo{
			byKey:  gocache.New(gocache.NoExpiration, 0),
			byUser: gocache.New(gocache.NoExpiration, 0),
		},
		challenges: newChallengeRepo(users),
		webauthn:   newWebauthnRepo(),
	}
}

func (s *memoryStore) Users() repository.UserRepository             { return s.users }
func (s *memoryStore) Sessions() repository.SessionTokenRepository  { return s.sessions }
func (s *memoryStore) Challenges() repository.ChallengeRepository   { return s.challenges }
func (s *memoryStore) WebauthnCredentials() repository.WebauthnCredentialRepository {
	return s.webauthn
}

func (s *memoryStore) Ping(ctx context.Context) error { return nil }
func (s *memoryStore) Close()                         {}
