package token

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/token"
	"github.com/dropDatabas3/accountd/internal/security/password"
	"github.com/dropDatabas3/accountd/internal/store"
	"github.com/dropDatabas3/accountd/internal/store/adapters/memory"
)

type harness struct {
	svc   Service
	store store.Store
	cfg   *config.Config
	bus   *events.Bus
}

func newHarness(t *testing.T, mutate func(cfg *config.Config)) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.SecretKey = "test-secret"
	if mutate != nil {
		mutate(cfg)
	}

	st := memory.New()
	bus := events.NewBus()
	return &harness{
		svc:   NewService(Deps{Store: st, Cfg: cfg, Bus: bus}),
		store: st,
		cfg:   cfg,
		bus:   bus,
	}
}

func (h *harness) seedUser(t *testing.T, username, pass string, active bool) *repository.User {
	t.Helper()
	hash, err := password.Hash(password.Default, pass)
	require.NoError(t, err)
	u, err := h.store.Users().Create(context.Background(), repository.CreateUserInput{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: &hash,
		IsActive:     active,
	})
	require.NoError(t, err)
	return u
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t, nil)
	u := h.seedUser(t, "walter", "blue crystal 99", true)

	var loggedIn, tokenCreated int
	h.bus.Subscribe(events.UserLoggedIn, func(ctx context.Context, e events.Event) error {
		loggedIn++
		return nil
	})
	h.bus.Subscribe(events.TokenCreated, func(ctx context.Context, e events.Event) error {
		tokenCreated++
		return nil
	})

	key, err := h.svc.Login(context.Background(), dto.CreateRequest{Username: "walter", Password: "blue crystal 99"})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{40}$`), key)
	assert.Equal(t, 1, loggedIn)
	assert.Equal(t, 1, tokenCreated)

	// last_login actualizado
	got, err := h.store.Users().GetByPK(context.Background(), u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLogin)

	// segundo login reusa el token, no emite token_created de nuevo
	again, err := h.svc.Login(context.Background(), dto.CreateRequest{Username: "walter", Password: "blue crystal 99"})
	require.NoError(t, err)
	assert.Equal(t, key, again)
	assert.Equal(t, 2, loggedIn)
	assert.Equal(t, 1, tokenCreated)
}

func TestLogin_CaseInsensitiveUsername(t *testing.T) {
	h := newHarness(t, nil)
	h.seedUser(t, "walter", "blue crystal 99", true)

	_, err := h.svc.Login(context.Background(), dto.CreateRequest{Username: "WALTER", Password: "blue crystal 99"})
	assert.NoError(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t, nil)
	h.seedUser(t, "walter", "blue crystal 99", true)

	var failed int
	h.bus.Subscribe(events.UserLoginFailed, func(ctx context.Context, e events.Event) error {
		failed++
		return nil
	})

	_, err := h.svc.Login(context.Background(), dto.CreateRequest{Username: "walter", Password: "incorrecto"})
	assert.ErrorIs(t, err, apierr.ErrInvalidCredentials)
	assert.Equal(t, 1, failed)
}

func TestLogin_UnknownUser(t *testing.T) {
	h := newHarness(t, nil)

	// mismo error que password incorrecto: no se revela existencia
	_, err := h.svc.Login(context.Background(), dto.CreateRequest{Username: "nadie", Password: "lo que sea"})
	assert.ErrorIs(t, err, apierr.ErrInvalidCredentials)
}

func TestLogin_UnusablePassword(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.store.Users().Create(context.Background(), repository.CreateUserInput{
		Username: "passwordless", IsActive: true,
	})
	require.NoError(t, err)

	_, err = h.svc.Login(context.Background(), dto.CreateRequest{Username: "passwordless", Password: "x"})
	assert.ErrorIs(t, err, apierr.ErrInvalidCredentials)
}

func TestLogin_InactiveAccount(t *testing.T) {
	h := newHarness(t, nil)
	h.seedUser(t, "walter", "blue crystal 99", false)

	// credenciales correctas: el error distingue cuenta deshabilitada
	_, err := h.svc.Login(context.Background(), dto.CreateRequest{Username: "walter", Password: "blue crystal 99"})
	assert.ErrorIs(t, err, apierr.ErrInactiveAccount)
}

func TestLogin_MissingFields(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Login(context.Background(), dto.CreateRequest{})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "username")
	assert.Contains(t, apiErr.Fields, "password")
}

func TestLogin_ByEmailField(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.LoginField = repository.LoginFieldEmail
	})
	h.seedUser(t, "walter", "blue crystal 99", true)

	_, err := h.svc.Login(context.Background(), dto.CreateRequest{
		Email: "Walter@Example.com", Password: "blue crystal 99",
	})
	assert.NoError(t, err)

	// clientes que mandan el email en el campo username
	_, err = h.svc.Login(context.Background(), dto.CreateRequest{
		Username: "walter@example.com", Password: "blue crystal 99",
	})
	assert.NoError(t, err)
}

func TestLogin_SessionsDisabled(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.Session.Enabled = false
	})
	h.seedUser(t, "walter", "blue crystal 99", true)

	_, err := h.svc.Login(context.Background(), dto.CreateRequest{Username: "walter", Password: "blue crystal 99"})
	assert.ErrorIs(t, err, apierr.ErrTokenModelNone)
}

func TestLogout(t *testing.T) {
	h := newHarness(t, nil)
	u := h.seedUser(t, "walter", "blue crystal 99", true)

	key, err := h.svc.Login(context.Background(), dto.CreateRequest{Username: "walter", Password: "blue crystal 99"})
	require.NoError(t, err)

	var destroyed int
	h.bus.Subscribe(events.TokenDestroyed, func(ctx context.Context, e events.Event) error {
		destroyed++
		return nil
	})

	require.NoError(t, h.svc.Logout(context.Background(), u))
	assert.Equal(t, 1, destroyed)

	_, err = h.store.Sessions().Lookup(context.Background(), key)
	assert.True(t, repository.IsNotFound(err))

	// logout sin sesión es idempotente
	require.NoError(t, h.svc.Logout(context.Background(), u))
	assert.Equal(t, 1, destroyed)
}
