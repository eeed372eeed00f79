package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(Default, "correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(phc, "$argon2id$"))

	assert.True(t, Verify("correct horse battery staple", phc))
	assert.False(t, Verify("wrong password", phc))
}

func TestHash_UniqueSalt(t *testing.T) {
	a, err := Hash(Default, "same input")
	require.NoError(t, err)
	b, err := Hash(Default, "same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_MalformedPHC(t *testing.T) {
	assert.False(t, Verify("whatever", ""))
	assert.False(t, Verify("whatever", "$argon2id$garbage"))
	assert.False(t, Verify("whatever", "plaintext"))
}

func TestVerify_ParsesStoredParams(t *testing.T) {
	// parámetros no-default: el verify tiene que derivar la clave con los
	// valores del PHC almacenado, no con los actuales del proceso
	weak := Params{Memory: 8 * 1024, Time: 1, Parallelism: 2, KeyLen: 16}
	phc, err := Hash(weak, "correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, Verify("correct horse battery staple", phc))
	assert.False(t, Verify("wrong password", phc))
}

func TestVerify_RejectsForeignPHC(t *testing.T) {
	phc, err := Hash(Default, "correct horse battery staple")
	require.NoError(t, err)

	// otro algoritmo o versión en el header: nunca valida
	assert.False(t, Verify("correct horse battery staple", strings.Replace(phc, "argon2id", "argon2i", 1)))
	assert.False(t, Verify("correct horse battery staple", strings.Replace(phc, "v=19", "v=16", 1)))
	// un segmento de menos tampoco
	assert.False(t, Verify("correct horse battery staple", strings.TrimSuffix(phc, "$"+strings.Split(phc, "$")[5])))
}

func TestDummyVerify_AlwaysFalse(t *testing.T) {
	assert.False(t, DummyVerify("anything"))
	assert.False(t, DummyVerify(""))
}

func TestPolicy_MinLength(t *testing.T) {
	p := Policy{MinLength: 8}

	ok, reasons := p.Validate("short", "")
	assert.False(t, ok)
	assert.Contains(t, reasons, "too_short")

	ok, _ = p.Validate("long enough", "")
	assert.True(t, ok)
}

func TestPolicy_CharacterClasses(t *testing.T) {
	p := Policy{MinLength: 1, RequireUpper: true, RequireLower: true, RequireDigit: true, RequireSymbol: true}

	ok, reasons := p.Validate("abc", "")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"missing_upper", "missing_digit", "missing_symbol"}, reasons)

	ok, _ = p.Validate("Abc123!", "")
	assert.True(t, ok)
}

func TestPolicy_ExtraValidators(t *testing.T) {
	p := Policy{
		MinLength: 1,
		Extra: []func(candidate, login string) string{
			func(candidate, login string) string {
				if strings.EqualFold(candidate, login) {
					return "too_similar_to_login"
				}
				return ""
			},
		},
	}

	ok, reasons := p.Validate("walter", "Walter")
	assert.False(t, ok)
	assert.Contains(t, reasons, "too_similar_to_login")

	ok, _ = p.Validate("unrelated", "walter")
	assert.True(t, ok)
}
