package encryption

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	svc, err := NewService(testKey, zerolog.Nop())
	require.NoError(t, err)

	sealed, err := svc.Encrypt("shpat_secret_token")
	require.NoError(t, err)
	assert.NotEqual(t, "shpat_secret_token", sealed)

	plain, err := svc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "shpat_secret_token", plain)
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	svc, err := NewService(testKey, zerolog.Nop())
	require.NoError(t, err)

	a, err := svc.Encrypt("same")
	require.NoError(t, err)
	b, err := svc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPassThroughWithoutKey(t *testing.T) {
	svc, err := NewService("", zerolog.Nop())
	require.NoError(t, err)

	sealed, err := svc.Encrypt("plaintext")
	require.NoError(t, err)
	assert.Equal(t, "plaintext", sealed)

	plain, err := svc.Decrypt("plaintext")
	require.NoError(t, err)
	assert.Equal(t, "plaintext", plain)
}

func TestDecryptLegacyPlaintextFallsThrough(t *testing.T) {
	svc, err := NewService(testKey, zerolog.Nop())
	require.NoError(t, err)

	// Rows written before encryption was enabled hold raw tokens.
	plain, err := svc.Decrypt("shpat_legacy_plaintext")
	require.NoError(t, err)
	assert.Equal(t, "shpat_legacy_plaintext", plain)
}

func TestNewServiceRejectsBadKeys(t *testing.T) {
	_, err := NewService("not-hex", zerolog.Nop())
	assert.Error(t, err)

	_, err = NewService(strings.Repeat("ab", 16), zerolog.Nop())
	assert.Error(t, err)
}

func TestEmptyValuesPassThrough(t *testing.T) {
	svc, err := NewService(testKey, zerolog.Nop())
	require.NoError(t, err)

	sealed, err := svc.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", sealed)

	plain, err := svc.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", plain)
}
