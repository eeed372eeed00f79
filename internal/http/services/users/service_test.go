package users

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/accountd/internal/config"
	"github.com/dropDatabas3/accountd/internal/domain/repository"
	"github.com/dropDatabas3/accountd/internal/email"
	"github.com/dropDatabas3/accountd/internal/events"
	"github.com/dropDatabas3/accountd/internal/http/apierr"
	dto "github.com/dropDatabas3/accountd/internal/http/dto/users"
	"github.com/dropDatabas3/accountd/internal/security/linktoken"
	"github.com/dropDatabas3/accountd/internal/security/password"
	"github.com/dropDatabas3/accountd/internal/store"
	"github.com/dropDatabas3/accountd/internal/store/adapters/memory"
)

type harness struct {
	svc     Service
	store   store.Store
	cfg     *config.Config
	codec   *linktoken.Codec
	mailbox *email.RecordingSender
	bus     *events.Bus
}

func newHarness(t *testing.T, mutate func(cfg *config.Config)) *harness {
	t.Helper()

	cfg := config.Default()
	cfg.SecretKey = "test-secret"
	cfg.Auth.ActivationURL = "activate/{uid}/{token}"
	cfg.Auth.PasswordResetConfirmURL = "password/reset/{uid}/{token}"
	cfg.Auth.UsernameResetConfirmURL = "username/reset/{uid}/{token}"
	if mutate != nil {
		mutate(cfg)
	}

	st := memory.New()
	codec := &linktoken.Codec{
		Secret:     []byte(cfg.SecretKey),
		MaxAge:     cfg.Auth.TokenMaxAge,
		LoginField: cfg.Auth.LoginField,
	}
	mailbox := &email.RecordingSender{}
	mailer := &email.Dispatcher{
		Sender:                  mailbox,
		Codec:                   codec,
		Domain:                  "localhost",
		SiteName:                "accountd",
		Protocol:                "http",
		ActivationURL:           cfg.Auth.ActivationURL,
		PasswordResetConfirmURL: cfg.Auth.PasswordResetConfirmURL,
		UsernameResetConfirmURL: cfg.Auth.UsernameResetConfirmURL,
		LoginField:              cfg.Auth.LoginField,
	}
	bus := events.NewBus()

	svc := NewService(Deps{
		Store:  st,
		Cfg:    cfg,
		Bus:    bus,
		Mailer: mailer,
		Codec:  codec,
		Policy: password.Policy{MinLength: cfg.Auth.Password.MinLength},
	})
	return &harness{svc: svc, store: st, cfg: cfg, codec: codec, mailbox: mailbox, bus: bus}
}

func (h *harness) createUser(t *testing.T, username, emailAddr, pass string) *repository.User {
	t.Helper()
	u, err := h.svc.Create(context.Background(), dto.CreateRequest{
		Username: username,
		Email:    emailAddr,
		Password: pass,
	})
	require.NoError(t, err)
	return u
}

func TestCreate_ActiveWhenActivationDisabled(t *testing.T) {
	h := newHarness(t, nil)

	var registered int
	h.bus.Subscribe(events.UserRegistered, func(ctx context.Context, e events.Event) error {
		registered++
		return nil
	})

	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	assert.True(t, u.IsActive)
	assert.Equal(t, 1, registered)
	assert.Empty(t, h.mailbox.Messages(), "sin activation ni confirmation configurados no se manda nada")

	// el hash nunca es el password en claro
	stored, err := h.store.Users().GetByPK(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "blue crystal 99", *stored.PasswordHash)
	assert.True(t, password.Verify("blue crystal 99", *stored.PasswordHash))
}

func TestCreate_InactiveWithActivationEmail(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.SendActivationEmail = true
	})

	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	assert.False(t, u.IsActive)

	msgs := h.mailbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "walter@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].TextBody, linktoken.EncodeUID(u.ID))
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Create(context.Background(), dto.CreateRequest{Username: "walter"})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Contains(t, apiErr.Fields, "password")

	_, err = h.svc.Create(context.Background(), dto.CreateRequest{
		Username: "walter", Email: "not-an-email", Password: "blue crystal 99",
	})
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "email")
}

func TestCreate_PasswordRetype(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.UserCreatePasswordRetype = true
	})

	_, err := h.svc.Create(context.Background(), dto.CreateRequest{
		Username: "walter", Password: "blue crystal 99", RePassword: "otra cosa",
	})
	assert.ErrorIs(t, err, apierr.ErrPasswordMismatch)
}

func TestCreate_WeakPassword(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.svc.Create(context.Background(), dto.CreateRequest{Username: "walter", Password: "corto"})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "password_invalid", apiErr.Code)
	assert.Contains(t, apiErr.Fields["password"], "too_short")
}

func TestCreate_DuplicateConcealed(t *testing.T) {
	h := newHarness(t, nil)
	h.createUser(t, "walter", "walter@example.com", "blue crystal 99")

	// el conflicto no dice qué campo colisionó
	_, err := h.svc.Create(context.Background(), dto.CreateRequest{
		Username: "Walter", Password: "blue crystal 99",
	})
	assert.ErrorIs(t, err, apierr.ErrCannotCreateUser)
}

func TestActivate_FullFlow(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.SendActivationEmail = true
	})
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	require.False(t, u.IsActive)

	tok := h.codec.Make(u, linktoken.PurposeActivation)
	uid := linktoken.EncodeUID(u.ID)

	require.NoError(t, h.svc.Activate(context.Background(), dto.ActivationRequest{UID: uid, Token: tok}))

	got, err := h.store.Users().GetByPK(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	// reusar el mismo token sobre la cuenta ya activa: stale (403), no inválido
	err = h.svc.Activate(context.Background(), dto.ActivationRequest{UID: uid, Token: tok})
	assert.ErrorIs(t, err, apierr.ErrStaleToken)
}

func TestActivate_InvalidInputs(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.SendActivationEmail = true
	})
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	uid := linktoken.EncodeUID(u.ID)

	err := h.svc.Activate(context.Background(), dto.ActivationRequest{UID: "###", Token: "x"})
	assert.ErrorIs(t, err, apierr.ErrInvalidUID)

	err = h.svc.Activate(context.Background(), dto.ActivationRequest{
		UID: linktoken.EncodeUID("00000000-0000-0000-0000-000000000000"), Token: "x",
	})
	assert.ErrorIs(t, err, apierr.ErrInvalidUID)

	err = h.svc.Activate(context.Background(), dto.ActivationRequest{UID: uid, Token: "1abc.deadbeef"})
	assert.ErrorIs(t, err, apierr.ErrInvalidToken)
}

func TestResendActivation(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.SendActivationEmail = true
	})
	h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	h.mailbox.Reset()

	require.NoError(t, h.svc.ResendActivation(context.Background(), "walter@example.com"))
	assert.Len(t, h.mailbox.Messages(), 1)

	// email desconocido: silencio, sin revelar existencia
	h.mailbox.Reset()
	require.NoError(t, h.svc.ResendActivation(context.Background(), "nadie@example.com"))
	assert.Empty(t, h.mailbox.Messages())
}

func TestResendActivation_UnusablePassword(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.SendActivationEmail = true
	})
	_, err := h.store.Users().Create(context.Background(), repository.CreateUserInput{
		Username: "ghost", Email: "ghost@example.com", IsActive: false,
	})
	require.NoError(t, err)

	// cuenta inactiva sin password utilizable: silencio, sin email
	require.NoError(t, h.svc.ResendActivation(context.Background(), "ghost@example.com"))
	assert.Empty(t, h.mailbox.Messages())
}

func TestResendActivation_Disabled(t *testing.T) {
	h := newHarness(t, nil)
	err := h.svc.ResendActivation(context.Background(), "walter@example.com")
	assert.ErrorIs(t, err, apierr.ErrActivationDisabled)
}

func TestResetPassword_Concealment(t *testing.T) {
	h := newHarness(t, nil)

	// default: 204 silencioso aunque el email no exista
	require.NoError(t, h.svc.ResetPassword(context.Background(), "nadie@example.com"))
	assert.Empty(t, h.mailbox.Messages())
}

func TestResetPassword_ShowEmailNotFound(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.PasswordResetShowEmailNotFound = true
	})
	err := h.svc.ResetPassword(context.Background(), "nadie@example.com")
	assert.ErrorIs(t, err, apierr.ErrEmailNotFound)
}

func TestReset_SkipsUnusablePassword(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.store.Users().Create(context.Background(), repository.CreateUserInput{
		Username: "ghost", Email: "ghost@example.com", IsActive: true,
	})
	require.NoError(t, err)

	// una cuenta passwordless no recibe links de reset
	require.NoError(t, h.svc.ResetPassword(context.Background(), "ghost@example.com"))
	require.NoError(t, h.svc.ResetUsername(context.Background(), "ghost@example.com"))
	assert.Empty(t, h.mailbox.Messages())
}

func TestResetPassword_UnusableCountsAsNotFound(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.PasswordResetShowEmailNotFound = true
	})
	_, err := h.store.Users().Create(context.Background(), repository.CreateUserInput{
		Username: "ghost", Email: "ghost@example.com", IsActive: true,
	})
	require.NoError(t, err)

	err = h.svc.ResetPassword(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, apierr.ErrEmailNotFound)
}

func TestResetPasswordConfirm_FullFlow(t *testing.T) {
	h := newHarness(t, nil)
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")

	require.NoError(t, h.svc.ResetPassword(context.Background(), "walter@example.com"))
	require.Len(t, h.mailbox.Messages(), 1)

	tok := h.codec.Make(u, linktoken.PurposePasswordReset)
	uid := linktoken.EncodeUID(u.ID)

	require.NoError(t, h.svc.ResetPasswordConfirm(context.Background(), dto.PasswordResetConfirmRequest{
		UID: uid, Token: tok, NewPassword: "say my name 2008",
	}))

	got, err := h.store.Users().GetByPK(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify("say my name 2008", *got.PasswordHash))

	// el token cubría el hash viejo: un segundo canje falla
	err = h.svc.ResetPasswordConfirm(context.Background(), dto.PasswordResetConfirmRequest{
		UID: uid, Token: tok, NewPassword: "otra vez distinta",
	})
	assert.ErrorIs(t, err, apierr.ErrInvalidToken)
}

func TestResetPasswordConfirm_Retype(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.PasswordResetConfirmRetype = true
	})
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")

	tok := h.codec.Make(u, linktoken.PurposePasswordReset)
	err := h.svc.ResetPasswordConfirm(context.Background(), dto.PasswordResetConfirmRequest{
		UID: linktoken.EncodeUID(u.ID), Token: tok,
		NewPassword: "say my name 2008", ReNewPassword: "no coincide",
	})
	assert.ErrorIs(t, err, apierr.ErrPasswordMismatch)
}

func TestSetPassword(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.LogoutOnPasswordChange = true
	})
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")

	_, created, err := h.store.Sessions().GetOrCreate(context.Background(), u.ID, strings.Repeat("a", 40))
	require.NoError(t, err)
	require.True(t, created)

	err = h.svc.SetPassword(context.Background(), u, dto.SetPasswordRequest{
		NewPassword: "say my name 2008", CurrentPassword: "incorrecto",
	})
	assert.ErrorIs(t, err, apierr.ErrInvalidPassword)

	require.NoError(t, h.svc.SetPassword(context.Background(), u, dto.SetPasswordRequest{
		NewPassword: "say my name 2008", CurrentPassword: "blue crystal 99",
	}))

	got, err := h.store.Users().GetByPK(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, password.Verify("say my name 2008", *got.PasswordHash))

	// logout_on_password_change invalida la sesión
	deleted, err := h.store.Sessions().DeleteForUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "la sesión ya tenía que estar invalidada")
}

func TestSetUsername(t *testing.T) {
	h := newHarness(t, nil)
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	h.createUser(t, "jesse", "jesse@example.com", "capn cook 1996")

	err := h.svc.SetUsername(context.Background(), u, dto.SetUsernameRequest{
		NewUsername: "heisenberg", CurrentPassword: "incorrecto",
	})
	assert.ErrorIs(t, err, apierr.ErrInvalidPassword)

	// colisión con otro usuario
	err = h.svc.SetUsername(context.Background(), u, dto.SetUsernameRequest{
		NewUsername: "jesse", CurrentPassword: "blue crystal 99",
	})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "new_username")

	require.NoError(t, h.svc.SetUsername(context.Background(), u, dto.SetUsernameRequest{
		NewUsername: "heisenberg", CurrentPassword: "blue crystal 99",
	}))
	got, err := h.store.Users().GetByPK(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "heisenberg", got.Username)
}

func TestResetUsernameConfirm_SelfInvalidates(t *testing.T) {
	h := newHarness(t, nil)
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")

	tok := h.codec.Make(u, linktoken.PurposeUsernameReset)
	uid := linktoken.EncodeUID(u.ID)

	require.NoError(t, h.svc.ResetUsernameConfirm(context.Background(), dto.UsernameResetConfirmRequest{
		UID: uid, Token: tok, NewUsername: "heisenberg",
	}))

	// el token cubría el username viejo
	err := h.svc.ResetUsernameConfirm(context.Background(), dto.UsernameResetConfirmRequest{
		UID: uid, Token: tok, NewUsername: "otro",
	})
	assert.ErrorIs(t, err, apierr.ErrInvalidToken)
}

func TestResetConfirm_UpdatesLastLogin(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	require.Nil(t, u.LastLogin)

	tok := h.codec.Make(u, linktoken.PurposePasswordReset)
	require.NoError(t, h.svc.ResetPasswordConfirm(ctx, dto.PasswordResetConfirmRequest{
		UID: linktoken.EncodeUID(u.ID), Token: tok, NewPassword: "say my name 2008",
	}))
	stored, err := h.store.Users().GetByPK(ctx, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	// el confirm de username también cuenta como login
	jesse := h.createUser(t, "jesse", "jesse@example.com", "capn cook 1996")
	tok = h.codec.Make(jesse, linktoken.PurposeUsernameReset)
	require.NoError(t, h.svc.ResetUsernameConfirm(ctx, dto.UsernameResetConfirmRequest{
		UID: linktoken.EncodeUID(jesse.ID), Token: tok, NewUsername: "pinkman",
	}))
	stored, err = h.store.Users().GetByPK(ctx, jesse.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestDirectory_UpdateEmailReactivation(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Auth.SendActivationEmail = true
	})
	ctx := context.Background()

	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	require.NoError(t, h.store.Users().SetActive(ctx, u.ID, true))
	u.IsActive = true
	h.mailbox.Reset()

	// cambiar el email degrada la cuenta a inactiva y reenvía la activación
	newEmail := "ww@example.com"
	got, err := h.svc.Update(ctx, u, u.ID, dto.UpdateRequest{Email: &newEmail})
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	stored, err := h.store.Users().GetByPK(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	msgs := h.mailbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ww@example.com", msgs[0].To)

	// tocar solo el mobile no dispara nada
	require.NoError(t, h.store.Users().SetActive(ctx, u.ID, true))
	h.mailbox.Reset()
	mobile := "+5491100000001"
	got, err = h.svc.Update(ctx, u, u.ID, dto.UpdateRequest{Mobile: &mobile})
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.Empty(t, h.mailbox.Messages())
}

func TestDirectory_HideUsers(t *testing.T) {
	h := newHarness(t, nil) // hide_users=true por default
	ctx := context.Background()

	walter := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	jesse := h.createUser(t, "jesse", "jesse@example.com", "capn cook 1996")

	// no-staff solo se ve a sí mismo en el listado
	list, err := h.svc.List(ctx, walter, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, walter.ID, list[0].ID)

	// detalle ajeno: 404, no 403, para ocultar existencia
	_, err = h.svc.Get(ctx, walter, jesse.ID)
	assert.ErrorIs(t, err, apierr.ErrNotFound)

	// el dueño sí se ve
	got, err := h.svc.Get(ctx, walter, walter.ID)
	require.NoError(t, err)
	assert.Equal(t, "walter", got.Username)
}

func TestDirectory_StaffSeesAll(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	walter := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")
	h.createUser(t, "jesse", "jesse@example.com", "capn cook 1996")

	staff, err := h.store.Users().Create(ctx, repository.CreateUserInput{
		Username: "admin", IsActive: true, IsStaff: true,
	})
	require.NoError(t, err)

	list, err := h.svc.List(ctx, staff, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	got, err := h.svc.Get(ctx, staff, walter.ID)
	require.NoError(t, err)
	assert.Equal(t, "walter", got.Username)
}

func TestDirectory_Update(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")

	newEmail := "ww@example.com"
	got, err := h.svc.Update(ctx, u, u.ID, dto.UpdateRequest{Email: &newEmail})
	require.NoError(t, err)
	assert.Equal(t, "ww@example.com", got.Email)

	bad := "no es un email"
	_, err = h.svc.Update(ctx, u, u.ID, dto.UpdateRequest{Email: &bad})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Fields, "email")
}

func TestDirectory_Delete(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	u := h.createUser(t, "walter", "walter@example.com", "blue crystal 99")

	err := h.svc.Delete(ctx, u, u.ID, "incorrecto")
	assert.ErrorIs(t, err, apierr.ErrInvalidPassword)

	require.NoError(t, h.svc.Delete(ctx, u, u.ID, "blue crystal 99"))
	_, err = h.store.Users().GetByPK(ctx, u.ID)
	assert.True(t, repository.IsNotFound(err))
}
