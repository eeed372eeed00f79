package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

type webauthnRepo struct {
	mu    sync.RWMutex
	creds map[string]repository.WebauthnCredential // por id
}

func newWebauthnRepo() *webauthnRepo {
	return &webauthnRepo{creds: map[string]repository.WebauthnCredential{}}
}

func cloneCred(c repository.WebauthnCredential) *repository.WebauthnCredential {
	out := c
	if c.UserID != nil {
		id := *c.UserID
		out.UserID = &id
	}
	return &out
}

func (r *webauthnRepo) Create(ctx context.Context, cred *repository.WebauthnCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.creds {
		if c.Ukey == cred.Ukey {
			return repository.ErrConflict
		}
	}
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	r.creds[cred.ID] = *cloneCred(*cred)
	return nil
}

func (r *webauthnRepo) GetByUkey(ctx context.Context, ukey string) (*repository.WebauthnCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.creds {
		if c.Ukey == ukey {
			return cloneCred(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *webauthnRepo) GetByUsername(ctx context.Context, username string) (*repository.WebauthnCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.creds {
		if iequal(c.Username, username) {
			return cloneCred(c), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *webauthnRepo) Update(ctx context.Context, cred *repository.WebauthnCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[cred.ID]; !ok {
		return repository.ErrNotFound
	}
	r.creds[cred.ID] = *cloneCred(*cred)
	return nil
}

func (r *webauthnRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.creds, id)
	return nil
}
