package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

type userRepo struct {
	mu    sync.RWMutex
	users map[string]repository.User // por id
}

func newUserRepo() *userRepo {
	return &userRepo{users: map[string]repository.User{}}
}

func cloneUser(u repository.User) *repository.User {
	out := u
	if u.PasswordHash != nil {
		h := *u.PasswordHash
		out.PasswordHash = &h
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		out.LastLogin = &t
	}
	return &out
}

func iequal(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (r *userRepo) GetByPK(ctx context.Context, id string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByLogin(ctx context.Context, field, value string) (*repository.User, error) {
	return r.GetByIdentifier(ctx, field, value)
}

func (r *userRepo) GetByIdentifier(ctx context.Context, field, value string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if iequal(identifierValue(&u, field), value) && identifierValue(&u, field) != "" {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func identifierValue(u *repository.User, field string) string {
	switch field {
	case repository.LoginFieldEmail:
		return u.Email
	case "mobile":
		return u.Mobile
	default:
		return u.Username
	}
}

func (r *userRepo) GetActiveByEmail(ctx context.Context, email string) ([]repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []repository.User
	for _, u := range r.users {
		if u.IsActive && iequal(u.Email, email) && u.Email != "" {
			out = append(out, *cloneUser(u))
		}
	}
	return out, nil
}

func (r *userRepo) GetInactiveByEmail(ctx context.Context, email string) (*repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if !u.IsActive && iequal(u.Email, email) && u.Email != "" {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(ctx context.Context, filter repository.ListUsersFilter) ([]repository.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	all := make([]repository.User, 0, len(r.users))
	for _, u := range r.users {
		if filter.OnlyID != "" && u.ID != filter.OnlyID {
			continue
		}
		all = append(all, *cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if filter.Offset >= len(all) {
		return []repository.User{}, nil
	}
	end := filter.Offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[filter.Offset:end], nil
}

func (r *userRepo) Create(ctx context.Context, input repository.CreateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(input.Username) == "" {
		return nil, repository.ErrInvalidInput
	}
	for _, u := range r.users {
		if iequal(u.Username, input.Username) {
			return nil, repository.ErrConflict
		}
		if input.Email != "" && iequal(u.Email, input.Email) && u.Email != "" {
			return nil, repository.ErrConflict
		}
	}

	u := repository.User{
		ID:        uuid.NewString(),
		Username:  strings.TrimSpace(input.Username),
		Email:     strings.TrimSpace(input.Email),
		Mobile:    strings.TrimSpace(input.Mobile),
		IsActive:  input.IsActive,
		IsStaff:   input.IsStaff,
		CreatedAt: time.Now().UTC(),
	}
	if input.PasswordHash != nil {
		h := *input.PasswordHash
		u.PasswordHash = &h
	}
	r.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *userRepo) Update(ctx context.Context, userID string, input repository.UpdateUserInput) (*repository.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if input.Email != nil {
		for id, other := range r.users {
			if id != userID && *input.Email != "" && iequal(other.Email, *input.Email) && other.Email != "" {
				return nil, repository.ErrConflict
			}
		}
		u.Email = strings.TrimSpace(*input.Email)
	}
	if input.Mobile != nil {
		u.Mobile = strings.TrimSpace(*input.Mobile)
	}
	r.users[userID] = u
	return cloneUser(u), nil
}

func (r *userRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, userID)
	return nil
}

func (r *userRepo) SetPassword(ctx context.Context, userID string, hash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if hash == nil {
		u.PasswordHash = nil
	} else {
		h := *hash
		u.PasswordHash = &h
	}
	r.users[userID] = u
	return nil
}

func (r *userRepo) SetActive(ctx context.Context, userID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	r.users[userID] = u
	return nil
}

func (r *userRepo) SetLastLogin(ctx context.Context, userID string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	tt := t
	u.LastLogin = &tt
	r.users[userID] = u
	return nil
}

func (r *userRepo) UpdateLogin(ctx context.Context, userID, field, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.users {
		if id != userID && iequal(identifierValue(&other, field), value) && identifierValue(&other, field) != "" {
			return repository.ErrConflict
		}
	}
	switch field {
	case repository.LoginFieldEmail:
		u.Email = strings.TrimSpace(value)
	default:
		u.Username = strings.TrimSpace(value)
	}
	r.users[userID] = u
	return nil
}
