package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

// sessionRepo mantiene dos índices sobre go-cache: key -> token y
// user_id -> key. El mutex serializa GetOrCreate para sostener la
// invariante de un token por usuario.
type sessionRepo struct {
	mu     sync.Mutex
	byKey  *gocache.Cache
	byUser *gocache.Cache
}

func (r *sessionRepo) GetOrCreate(ctx context.Context, userID, candidateKey string) (*repository.SessionToken, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if k, ok := r.byUser.Get(userID); ok {
		if v, ok := r.byKey.Get(k.(string)); ok {
			tok := v.(repository.SessionToken)
			return &tok, false, nil
		}
	}

	tok := repository.SessionToken{
		Key:       candidateKey,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	r.byKey.Set(tok.Key, tok, gocache.NoExpiration)
	r.byUser.Set(userID, tok.Key, gocache.NoExpiration)
	return &tok, true, nil
}

func (r *sessionRepo) DeleteForUser(ctx context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.byUser.Get(userID)
	if !ok {
		return false, nil
	}
	r.byKey.Delete(k.(string))
	r.byUser.Delete(userID)
	return true, nil
}

func (r *sessionRepo) Lookup(ctx context.Context, key string) (*repository.SessionToken, error) {
	v, ok := r.byKey.Get(key)
	if !ok {
		return nil, repository.ErrNotFound
	}
	tok := v.(repository.SessionToken)
	return &tok, nil
}
