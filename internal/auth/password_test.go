package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustd/pkg/domain-errors"
)

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.NoError(t, VerifyPassword(encoded, "correct horse battery staple"))

	err = VerifyPassword(encoded, "wrong password")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHashPasswordSaltsAreUnique(t *testing.T) {
	a, err := HashPassword("same password")
	require.NoError(t, err)
	b, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "same password must not produce the same encoded hash")
}

func TestHashPasswordEncodedShape(t *testing.T) {
	encoded, err := HashPassword("pw")
	require.NoError(t, err)

	salt, hash, ok := strings.Cut(encoded, ":")
	require.True(t, ok)
	assert.Len(t, salt, saltLen*2)
	assert.Len(t, hash, keyLen*2)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{"", "no-separator", "zz:zz", "abcd:not-hex"} {
		err := VerifyPassword(encoded, "pw")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal), "encoded=%q", encoded)
	}
}
