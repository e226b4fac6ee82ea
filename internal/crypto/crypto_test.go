package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	for _, key := range []string{"0123456789abcdef0123456789abcdef", "short passphrase"} {
		c, err := NewCipher(key)
		require.NoError(t, err)

		sealed, err := c.Encrypt("ptla_example_key")
		require.NoError(t, err)
		assert.NotContains(t, sealed, "ptla_example_key")

		plain, err := c.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, "ptla_example_key", plain)
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	c, err := NewCipher("passphrase")
	require.NoError(t, err)

	a, _ := c.Encrypt("same")
	b, _ := c.Encrypt("same")
	assert.NotEqual(t, a, b)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	a, _ := NewCipher("first")
	b, _ := NewCipher("second")

	sealed, err := a.Encrypt("secret")
	require.NoError(t, err)
	_, err = b.Decrypt(sealed)
	assert.Error(t, err)

	_, err = a.Decrypt("AAAA")
	assert.Error(t, err)
}

func TestNewCipherRejectsEmptyKey(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
}
