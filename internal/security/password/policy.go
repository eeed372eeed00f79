package password

import "unicode"

// Policy valida candidatos de password. Se aplica igual en user_create,
// reset_password_confirm y set_password.
type Policy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool

	// Extra son validadores adicionales; cada uno retorna un mensaje de error
	// o "" si el candidato pasa. Reciben el login del usuario como contexto.
	Extra []func(candidate, login string) string
}

func (p Policy) Validate(s, login string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !hasL {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !hasS {
		reasons = append(reasons, "missing_symbol")
	}
	for _, fn := range p.Extra {
		if msg := fn(s, login); msg != "" {
			reasons = append(reasons, msg)
		}
	}
	return len(reasons) == 0, reasons
}
