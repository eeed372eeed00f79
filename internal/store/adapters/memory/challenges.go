package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

type challengeRepo struct {
	mu         sync.Mutex
	challenges map[string]repository.Challenge // por id
	users      *userRepo
}

func newChallengeRepo(users *userRepo) *challengeRepo {
	return &challengeRepo{
		challenges: map[string]repository.Challenge{},
		users:      users,
	}
}

func (r *challengeRepo) PurgeStale(ctx context.Context, lifetime time.Duration, maxUses int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	purged := 0
	for id, c := range r.challenges {
		if !c.Valid(lifetime, maxUses, now) {
			delete(r.challenges, id)
			purged++
		}
	}
	return purged, nil
}

func (r *challengeRepo) DeleteForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.challenges {
		if c.UserID == userID {
			delete(r.challenges, id)
		}
	}
	return nil
}

func (r *challengeRepo) Create(ctx context.Context, input repository.CreateChallengeInput) (*repository.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.challenges {
		if c.LongToken == input.LongToken || c.ShortToken == input.ShortToken {
			return nil, repository.ErrConflict
		}
	}

	c := repository.Challenge{
		ID:             uuid.NewString(),
		LongToken:      input.LongToken,
		ShortToken:     input.ShortToken,
		UserID:         input.UserID,
		IdentifierKind: input.IdentifierKind,
		CreatedAt:      time.Now().UTC(),
	}
	r.challenges[c.ID] = c
	out := c
	return &out, nil
}

func (r *challengeRepo) Find(ctx context.Context, value, kind, identifierValue string) (*repository.Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.challenges {
		if c.LongToken == value {
			out := c
			return &out, nil
		}
		if c.ShortToken == value && c.IdentifierKind == kind && r.userIdentifierMatches(ctx, c.UserID, kind, identifierValue) {
			out := c
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *challengeRepo) userIdentifierMatches(ctx context.Context, userID, kind, value string) bool {
	if value == "" {
		return false
	}
	u, err := r.users.GetByPK(ctx, userID)
	if err != nil {
		return false
	}
	return iequal(identifierValue(u, kind), value)
}

func (r *challengeRepo) Redeem(ctx context.Context, challengeID string, maxUses int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.challenges[challengeID]
	if !ok {
		return false, nil
	}
	if c.Uses >= maxUses {
		return false, nil
	}
	c.Uses++
	r.challenges[challengeID] = c
	return true, nil
}
