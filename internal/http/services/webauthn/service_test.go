package webauthn

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/email"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/webauthn"
	"github.com/dropDatabas3/accountd/internal/security/linktoken"
	"github.com/dropDatabas3/accountd/internal/store"
	"github.com/dropDatabas3/accountd/internal/store/adapters/memory"
)

type harness struct {
	svc     Service
	store   store.Store
	cfg     *config.Config
	mailbox *email.RecordingSender
	bus     *events.Bus
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
	mailbox := &email.RecordingSender{}
	mailer := &email.Dispatcher{
		Sender:        mailbox,
		Codec:         &linktoken.Codec{Secret: []byte(cfg.SecretKey), LoginField: cfg.Auth.LoginField},
		Domain:        "localhost",
		SiteName:      "accountd",
		Protocol:      "http",
		ActivationURL: "activate/{uid}/{token}",
		LoginField:    cfg.Auth.LoginField,
	}

	return &harness{
		svc:     NewService(Deps{Store: st, Cfg: cfg, Bus: bus, Mailer: mailer}),
		store:   st,
		cfg:     cfg,
		mailbox: mailbox,
		bus:     bus,
	}
}

// signupUser corre el flujo completo de registro y devuelve el usuario.
func (h *harness) signupUser(t *testing.T, username string, signCount int) *repository.User {
	t.Helper()
	_, ukey, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: username})
	require.NoError(t, err)

	u, err := h.svc.Signup(context.Background(), ukey, dto.SignupBody{
		CredentialID: "cred-" + username,
		PublicKey:    "pk-" + username,
		SignCount:    signCount,
	})
	require.NoError(t, err)
	return u
}

func TestSignupRequest(t *testing.T) {
	h := newHarness(t, nil)

	opts, ukey, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{
		Username: "walter", DisplayName: "Walter White",
	})
	require.NoError(t, err)

	assert.Len(t, ukey, h.cfg.WebAuthn.UkeyLength)
	assert.Len(t, opts.Challenge, h.cfg.WebAuthn.ChallengeLength)
	assert.Equal(t, h.cfg.WebAuthn.RPID, opts.RP.ID)
	assert.Equal(t, ukey, opts.User.ID)
	assert.Equal(t, "Walter White", opts.User.DisplayName)
	require.Len(t, opts.PubKeyCP, 2)
	assert.Equal(t, -7, opts.PubKeyCP[0].Alg)

	// la credencial pendiente queda registrada bajo el ukey
	cred, err := h.store.WebauthnCredentials().GetByUkey(context.Background(), ukey)
	require.NoError(t, err)
	assert.Equal(t, "walter", cred.Username)
	assert.Equal(t, opts.Challenge, cred.Challenge)
	assert.Nil(t, cred.UserID)
}

func TestSignupRequest_DisplayNameDefaults(t *testing.T) {
	h := newHarness(t, nil)

	opts, _, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: "walter"})
	require.NoError(t, err)
	assert.Equal(t, "walter", opts.User.DisplayName)
}

func TestSignupRequest_TakenUsername(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.store.Users().Create(context.Background(), repository.CreateUserInput{
		Username: "walter", IsActive: true,
	})
	require.NoError(t, err)

	_, _, err = h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: "walter"})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"User walter already exists."}, apiErr.Fields["username"])
}

func TestSignupRequest_InvalidUsername(t *testing.T) {
	h := newHarness(t, nil)

	_, _, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: "no spaces"})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "username")
}

func TestSignup(t *testing.T) {
	h := newHarness(t, nil)

	var registered int
	h.bus.Subscribe(events.UserRegistered, func(ctx context.Context, e events.Event) error {
		registered++
		return nil
	})

	u := h.signupUser(t, "walter", 0)
	assert.True(t, u.IsActive)
	assert.False(t, u.HasUsablePassword())
	assert.Equal(t, 1, registered)

	// la credencial quedó ligada a la cuenta con el challenge consumido
	cred, err := h.store.WebauthnCredentials().GetByUsername(context.Background(), "walter")
	require.NoError(t, err)
	require.NotNil(t, cred.UserID)
	assert.Equal(t, u.ID, *cred.UserID)
	assert.Empty(t, cred.Challenge)
	assert.Equal(t, "cred-walter", cred.CredentialID)
}

func TestSignup_UnknownUkey(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Signup(context.Background(), "no-such-ukey", dto.SignupBody{
		CredentialID: "cred", PublicKey: "pk",
	})
	assert.ErrorIs(t, err, apierr.ErrNotFound)
}

func TestSignup_VerificationFailure(t *testing.T) {
	h := newHarness(t, nil)
	_, ukey, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: "walter"})
	require.NoError(t, err)

	// sin public key el registro no verifica
	_, err = h.svc.Signup(context.Background(), ukey, dto.SignupBody{CredentialID: "cred"})
	assert.ErrorIs(t, err, errWebauthnVerification)
}

func TestSignup_ConsumedUkey(t *testing.T) {
	h := newHarness(t, nil)
	_, ukey, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: "walter"})
	require.NoError(t, err)

	_, err = h.svc.Signup(context.Background(), ukey, dto.SignupBody{CredentialID: "cred", PublicKey: "pk"})
	require.NoError(t, err)

	// el ukey no se puede reusar para registrar otra cuenta
	_, err = h.svc.Signup(context.Background(), ukey, dto.SignupBody{CredentialID: "cred2", PublicKey: "pk2"})
	assert.ErrorIs(t, err, errWebauthnVerification)
}

func TestSignup_WithActivationEmail(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.SendActivationEmail = true
	})
	_, ukey, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: "walter"})
	require.NoError(t, err)

	u, err := h.svc.Signup(context.Background(), ukey, dto.SignupBody{
		CredentialID: "cred", PublicKey: "pk", Email: "walter@example.com",
	})
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	require.Len(t, h.mailbox.Messages(), 1)
	assert.Equal(t, "walter@example.com", h.mailbox.Messages()[0].To)
}

func TestLoginRequest(t *testing.T) {
	h := newHarness(t, nil)
	h.signupUser(t, "walter", 0)

	opts, err := h.svc.LoginRequest(context.Background(), dto.LoginRequestBody{Username: "walter"})
	require.NoError(t, err)
	assert.Len(t, opts.Challenge, h.cfg.WebAuthn.ChallengeLength)
	assert.Equal(t, []string{"cred-walter"}, opts.AllowCredentials)
	assert.Equal(t, h.cfg.WebAuthn.RPID, opts.RPID)
}

func TestLoginRequest_UnknownUser(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.LoginRequest(context.Background(), dto.LoginRequestBody{Username: "nadie"})
	assert.ErrorIs(t, err, apierr.ErrInvalidCredentials)
}

func TestLoginRequest_IncompleteSignup(t *testing.T) {
	h := newHarness(t, nil)
	_, _, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: "walter"})
	require.NoError(t, err)

	// el registro nunca se completó: la credencial no sirve para login
	_, err = h.svc.LoginRequest(context.Background(), dto.LoginRequestBody{Username: "walter"})
	assert.ErrorIs(t, err, apierr.ErrInvalidCredentials)
}

func TestLogin(t *testing.T) {
	h := newHarness(t, nil)
	u := h.signupUser(t, "walter", 1)

	_, err := h.svc.LoginRequest(context.Background(), dto.LoginRequestBody{Username: "walter"})
	require.NoError(t, err)

	key, err := h.svc.Login(context.Background(), dto.LoginBody{
		Username: "walter", CredentialID: "cred-walter", SignCount: 2,
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{40}$`), key)

	tok, err := h.store.Sessions().Lookup(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, u.ID, tok.UserID)

	// el sign_count avanzó
	cred, err := h.store.WebauthnCredentials().GetByUsername(context.Background(), "walter")
	require.NoError(t, err)
	assert.Equal(t, 2, cred.SignCount)
}

func TestLogin_SignCountReplay(t *testing.T) {
	h := newHarness(t, nil)
	h.signupUser(t, "walter", 5)

	_, err := h.svc.LoginRequest(context.Background(), dto.LoginRequestBody{Username: "walter"})
	require.NoError(t, err)

	// un contador que no avanza delata una credencial clonada
	_, err = h.svc.Login(context.Background(), dto.LoginBody{
		Username: "walter", CredentialID: "cred-walter", SignCount: 5,
	})
	assert.ErrorIs(t, err, errWebauthnVerification)
}

func TestLogin_WrongCredentialID(t *testing.T) {
	h := newHarness(t, nil)
	h.signupUser(t, "walter", 0)

	_, err := h.svc.LoginRequest(context.Background(), dto.LoginRequestBody{Username: "walter"})
	require.NoError(t, err)

	_, err = h.svc.Login(context.Background(), dto.LoginBody{
		Username: "walter", CredentialID: "otra-credencial", SignCount: 1,
	})
	assert.ErrorIs(t, err, errWebauthnVerification)
}

func TestLogin_WithoutChallenge(t *testing.T) {
	h := newHarness(t, nil)
	h.signupUser(t, "walter", 0)

	// sin login_request previo no hay challenge pendiente
	_, err := h.svc.Login(context.Background(), dto.LoginBody{
		Username: "walter", CredentialID: "cred-walter", SignCount: 1,
	})
	assert.ErrorIs(t, err, errWebauthnVerification)
}

func TestLogin_InactiveUser(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.SendActivationEmail = true
	})
	_, ukey, err := h.svc.SignupRequest(context.Background(), dto.SignupRequestBody{Username: "walter"})
	require.NoError(t, err)
	_, err = h.svc.Signup(context.Background(), ukey, dto.SignupBody{
		CredentialID: "cred-walter", PublicKey: "pk", Email: "walter@example.com",
	})
	require.NoError(t, err)

	_, err = h.svc.LoginRequest(context.Background(), dto.LoginRequestBody{Username: "walter"})
	require.NoError(t, err)

	_, err = h.svc.Login(context.Background(), dto.LoginBody{
		Username: "walter", CredentialID: "cred-walter", SignCount: 1,
	})
	assert.ErrorIs(t, err, apierr.ErrInvalidCredentials)
}
