// Package tokens genera material aleatorio criptográficamente fuerte:
// keys de sesión, challenges passwordless y usernames autogenerados.
package tokens

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// SessionKey genera la key opaca de sesión: 40 caracteres hex.
func SessionKey() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Challenge genera un string aleatorio de length caracteres del alfabeto dado.
func Challenge(length int, chars string) (string, error) {
	if length <= 0 || len(chars) == 0 {
		return "", fmt.Errorf("tokens: invalid challenge parameters")
	}
	max := big.NewInt(int64(len(chars)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}

// RandomUsername genera un identificador para cuentas creadas por el flujo
// passwordless (minúsculas + dígitos).
func RandomUsername(size int) (string, error) {
	return Challenge(size, "abcdefghijklmnopqrstuvwxyz0123456789")
}
