package linktoken

import (
	"encoding/base64"
	"errors"
	"unicode/utf8"
)

// ErrInvalidUID cubre cualquier falla de decodificación del uid:
// base64 inválido, bytes malformados, vacío.
var ErrInvalidUID = errors.New("invalid uid")

// EncodeUID codifica la primary key como base64 URL-safe sin padding.
func EncodeUID(pk string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(pk))
}

// DecodeUID revierte EncodeUID. Toda falla es ErrInvalidUID.
func DecodeUID(uid string) (string, error) {
	if uid == "" {
		return "", ErrInvalidUID
	}
	b, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", ErrInvalidUID
	}
	if !utf8.Valid(b) || len(b) == 0 {
		return "", ErrInvalidUID
	}
	return string(b), nil
}
