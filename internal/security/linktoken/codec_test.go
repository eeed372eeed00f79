package linktoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

func testUser() *repository.User {
	hash := "$argon2id$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA"
	return &repository.User{
		ID:           "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Username:     "walter",
		Email:        "walter@example.com",
		PasswordHash: &hash,
	}
}

func testCodec() *Codec {
	return &Codec{Secret: []byte("test-secret"), MaxAge: time.Hour, LoginField: "username"}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := testCodec()
	u := testUser()

	for _, p := range []Purpose{PurposeActivation, PurposePasswordReset, PurposeUsernameReset} {
		tok := c.Make(u, p)
		require.NoError(t, c.Check(u, p, tok), "purpose %s", p)
	}
}

func TestCodec_PurposeIsolation(t *testing.T) {
	c := testCodec()
	u := testUser()

	// un token de reset no sirve para activación y viceversa
	tok := c.Make(u, PurposePasswordReset)
	assert.ErrorIs(t, c.Check(u, PurposeActivation, tok), ErrInvalidToken)
	assert.ErrorIs(t, c.Check(u, PurposeUsernameReset, tok), ErrInvalidToken)
}

func TestCodec_Tampered(t *testing.T) {
	c := testCodec()
	u := testUser()

	tok := c.Make(u, PurposePasswordReset)
	assert.ErrorIs(t, c.Check(u, PurposePasswordReset, tok+"x"), ErrInvalidToken)
	assert.ErrorIs(t, c.Check(u, PurposePasswordReset, "no-dot"), ErrInvalidToken)
	assert.ErrorIs(t, c.Check(u, PurposePasswordReset, ""), ErrInvalidToken)
}

func TestCodec_WrongSecret(t *testing.T) {
	u := testUser()
	tok := testCodec().Make(u, PurposePasswordReset)

	other := &Codec{Secret: []byte("other-secret"), MaxAge: time.Hour, LoginField: "username"}
	assert.ErrorIs(t, other.Check(u, PurposePasswordReset, tok), ErrInvalidToken)
}

func TestCodec_Expiry(t *testing.T) {
	u := testUser()
	issued := time.Now()

	c := testCodec()
	c.Now = func() time.Time { return issued }
	tok := c.Make(u, PurposePasswordReset)

	c.Now = func() time.Time { return issued.Add(30 * time.Minute) }
	require.NoError(t, c.Check(u, PurposePasswordReset, tok))

	c.Now = func() time.Time { return issued.Add(2 * time.Hour) }
	assert.ErrorIs(t, c.Check(u, PurposePasswordReset, tok), ErrInvalidToken)
}

func TestCodec_ActivationStaleAfterActivation(t *testing.T) {
	c := testCodec()
	u := testUser()
	u.IsActive = false

	tok := c.Make(u, PurposeActivation)
	require.NoError(t, c.Check(u, PurposeActivation, tok))

	// misma firma, usuario ya activo: stale, no inválido
	u.IsActive = true
	assert.ErrorIs(t, c.Check(u, PurposeActivation, tok), ErrStaleToken)
}

func TestCodec_PasswordResetSelfInvalidates(t *testing.T) {
	c := testCodec()
	u := testUser()

	tok := c.Make(u, PurposePasswordReset)
	require.NoError(t, c.Check(u, PurposePasswordReset, tok))

	// el HMAC cubre el hash: cambiar el password invalida el token
	newHash := "$argon2id$v=19$m=65536,t=3,p=1$b3Ryb3NhbA$b3Ryb2hhc2g"
	u.PasswordHash = &newHash
	assert.ErrorIs(t, c.Check(u, PurposePasswordReset, tok), ErrInvalidToken)
}

func TestCodec_UsernameResetSelfInvalidates(t *testing.T) {
	c := testCodec()
	u := testUser()

	tok := c.Make(u, PurposeUsernameReset)
	require.NoError(t, c.Check(u, PurposeUsernameReset, tok))

	u.Username = "heisenberg"
	assert.ErrorIs(t, c.Check(u, PurposeUsernameReset, tok), ErrInvalidToken)
}

func TestCodec_LoginInvalidatesToken(t *testing.T) {
	c := testCodec()
	u := testUser()

	tok := c.Make(u, PurposePasswordReset)
	now := time.Now()
	u.LastLogin = &now
	assert.ErrorIs(t, c.Check(u, PurposePasswordReset, tok), ErrInvalidToken)
}

func TestUID_RoundTrip(t *testing.T) {
	pk := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	uid := EncodeUID(pk)
	require.NotEqual(t, pk, uid)

	got, err := DecodeUID(uid)
	require.NoError(t, err)
	assert.Equal(t, pk, got)
}

func TestUID_Invalid(t *testing.T) {
	_, err := DecodeUID("not*base64*at*all")
	assert.Error(t, err)
}
