// Package linktoken implementa el token firmado de los flujos por link
// (activación, reset de password, reset de username).
//
// El token es stateless: `base36(ts).hmac`, donde el HMAC cubre la primary
// key, el hash del password, el último login, el timestamp, y el atributo que
// el flujo va a mutar. Como ese atributo cambia al completar el flujo, todos
// los tokens previos del mismo propósito quedan inválidos solos.
package linktoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dropDatabas3/accountd/internal/domain/repository"
)

// Purpose identifica el flujo al que pertenece un token.
type Purpose string

const (
	PurposeActivation    Purpose = "activation"
	PurposePasswordReset Purpose = "password_reset"
	PurposeUsernameReset Purpose = "username_reset"
)

var (
	// ErrInvalidToken: firma incorrecta, formato roto o token vencido.
	ErrInvalidToken = errors.New("invalid token")

	// ErrStaleToken: la firma verifica contra el estado de emisión pero la
	// acción ya se completó (usuario ya activo). Mapea a 403.
	ErrStaleToken = errors.New("stale token")
)

// Codec produce y verifica tokens de link.
type Codec struct {
	// Secret es la clave HMAC del proceso.
	Secret []byte
	// MaxAge limita la edad del token.
	MaxAge time.Duration
	// LoginField es el atributo de login configurado; lo cubre el HMAC del
	// propósito username_reset.
	LoginField string

	// Now es inyectable para tests; nil = time.Now.
	Now func() time.Time
}

func (c *Codec) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Make genera un token para el usuario y propósito dados.
func (c *Codec) Make(u *repository.User, p Purpose) string {
	ts := c.now().Unix()
	return strconv.FormatInt(ts, 36) + "." + c.sign(u, p, ts, u.IsActive)
}

// Check verifica un token contra el estado actual del usuario.
// Para activación, un token válido-al-emitir sobre un usuario ya activo
// retorna ErrStaleToken; cualquier otra falla es ErrInvalidToken.
func (c *Codec) Check(u *repository.User, p Purpose, token string) error {
	tsPart, mac, ok := strings.Cut(token, ".")
	if !ok {
		return ErrInvalidToken
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts <= 0 {
		return ErrInvalidToken
	}
	if c.MaxAge > 0 && c.now().Sub(time.Unix(ts, 0)) > c.MaxAge {
		return ErrInvalidToken
	}

	if p == PurposeActivation {
		// Los tokens de activación se emiten siempre con is_active=false;
		// recomputar contra ese estado y distinguir stale de inválido.
		if !constantTimeEqual(mac, c.sign(u, p, ts, false)) {
			return ErrInvalidToken
		}
		if u.IsActive {
			return ErrStaleToken
		}
		return nil
	}

	if !constantTimeEqual(mac, c.sign(u, p, ts, u.IsActive)) {
		return ErrInvalidToken
	}
	return nil
}

// sign computa el HMAC truncado sobre el estado del usuario.
func (c *Codec) sign(u *repository.User, p Purpose, ts int64, isActive bool) string {
	var lastLogin int64
	if u.LastLogin != nil {
		lastLogin = u.LastLogin.Unix()
	}
	var hash string
	if u.PasswordHash != nil {
		hash = *u.PasswordHash
	}

	var sb strings.Builder
	sb.WriteString(u.ID)
	sb.WriteString(hash)
	fmt.Fprintf(&sb, "%d", lastLogin)
	switch p {
	case PurposeActivation:
		fmt.Fprintf(&sb, "%t", isActive)
	case PurposeUsernameReset:
		sb.WriteString(strings.ToLower(u.LoginValue(c.LoginField)))
	}
	fmt.Fprintf(&sb, "%d", ts)

	mac := hmac.New(sha256.New, c.purposeKey(p))
	mac.Write([]byte(sb.String()))
	digest := hex.EncodeToString(mac.Sum(nil))

	// Truncado URL-safe: un char hex de cada dos.
	out := make([]byte, 0, len(digest)/2)
	for i := 0; i < len(digest); i += 2 {
		out = append(out, digest[i])
	}
	return string(out)
}

// purposeKey deriva una clave por propósito a partir del secret del proceso,
// para que un token de reset no sirva como token de activación.
func (c *Codec) purposeKey(p Purpose) []byte {
	mac := hmac.New(sha256.New, c.Secret)
	mac.Write([]byte("accountd.linktoken." + string(p)))
	return mac.Sum(nil)
}

func constantTimeEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
