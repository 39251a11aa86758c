package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoManager(t *testing.T) {
	manager, err := NewCryptoManager("master-key")
	require.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		encrypted, err := manager.Encrypt("gho_sometoken")
		require.NoError(t, err)
		assert.NotEqual(t, "gho_sometoken", encrypted)

		decrypted, err := manager.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, "gho_sometoken", decrypted)
	})

	t.Run("unique nonce per encryption", func(t *testing.T) {
		a, err := manager.Encrypt("same-value")
		require.NoError(t, err)
		b, err := manager.Encrypt("same-value")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		other, err := NewCryptoManager("a-different-master-key")
		require.NoError(t, err)

		encrypted, err := manager.Encrypt("secret")
		require.NoError(t, err)

		_, err = other.Decrypt(encrypted)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		encrypted, err := manager.Encrypt("secret")
		require.NoError(t, err)

		tampered := "A" + encrypted[1:]
		_, err = manager.Decrypt(tampered)
		assert.Error(t, err)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := manager.Decrypt("%%%not-base64%%%")
		assert.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := manager.Decrypt("YWJj") // "abc", shorter than a nonce
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("long keys are truncated consistently", func(t *testing.T) {
		long, err := NewCryptoManager("0123456789abcdef0123456789abcdef-extra")
		require.NoError(t, err)
		exact, err := NewCryptoManager("0123456789abcdef0123456789abcdef")
		require.NoError(t, err)

		encrypted, err := long.Encrypt("secret")
		require.NoError(t, err)
		decrypted, err := exact.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, "secret", decrypted)
	})
}
