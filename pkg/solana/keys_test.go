package solana

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyManager(t *testing.T) {
	km := NewKeyManager()

	t.Run("Generate Key Pair", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)
		assert.NotNil(t, account)
		assert.NotEmpty(t, account.PublicKey.ToBase58())
		assert.Equal(t, 64, len(account.PrivateKey), "Private key should be 64 bytes")
	})

	t.Run("Validate Signing Key", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)

		encoded := base58.Encode(account.PrivateKey)
		address, err := km.ValidateSigningKey(encoded)
		require.NoError(t, err)
		assert.Equal(t, account.PublicKey.ToBase58(), address)
	})

	t.Run("Reject Malformed Signing Keys", func(t *testing.T) {
		_, err := km.ValidateSigningKey("not-base58-0OIl")
		assert.Error(t, err)

		// A 32-byte seed is not a full keypair.
		_, err = km.ValidateSigningKey("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
		assert.Error(t, err)
	})

	t.Run("Encrypt and Decrypt Private Key", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)

		password := "test-password"
		encrypted, err := km.EncryptPrivateKey(account.PrivateKey, password)
		require.NoError(t, err)
		assert.NotEmpty(t, encrypted)

		decrypted, err := km.DecryptPrivateKey(encrypted, password)
		require.NoError(t, err)
		assert.Equal(t, []byte(account.PrivateKey), decrypted)
	})

	t.Run("Wrong Password Fails", func(t *testing.T) {
		account, err := km.GenerateKeyPair()
		require.NoError(t, err)

		encrypted, err := km.EncryptPrivateKey(account.PrivateKey, "right")
		require.NoError(t, err)

		_, err = km.DecryptPrivateKey(encrypted, "wrong")
		assert.Error(t, err)
	})
}
