package securetoken

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("Length", func(t *testing.T) {
		token, err := Generate(DefaultByteLength)
		require.NoError(t, err)
		assert.Len(t, token, 64)

		// Output must be valid lowercase hex
		decoded, err := hex.DecodeString(token)
		require.NoError(t, err)
		assert.Len(t, decoded, DefaultByteLength)
	})

	t.Run("InvalidLength", func(t *testing.T) {
		_, err := Generate(0)
		assert.Error(t, err)

		_, err = Generate(-1)
		assert.Error(t, err)
	})

	t.Run("NoCollisions", func(t *testing.T) {
		seen := make(map[string]struct{}, 100000)
		for i := 0; i < 100000; i++ {
			token, err := Generate(DefaultByteLength)
			require.NoError(t, err)
			_, dup := seen[token]
			require.False(t, dup, "duplicate token generated")
			seen[token] = struct{}{}
		}
	})
}

func TestGenerateNonce(t *testing.T) {
	t.Run("Length", func(t *testing.T) {
		nonce, err := GenerateNonce(16)
		require.NoError(t, err)
		// 16 bytes in unpadded base64 is 22 characters
		assert.Len(t, nonce, 22)
	})

	t.Run("Unique", func(t *testing.T) {
		a, err := GenerateNonce(16)
		require.NoError(t, err)
		b, err := GenerateNonce(16)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}
