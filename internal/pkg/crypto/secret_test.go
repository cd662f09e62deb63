package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretSealerRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	sealer, err := NewSecretSealer(key)
	require.NoError(t, err)

	plaintext := "sk-test-api-key-1234567890"
	sealed, err := sealer.Seal(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, sealed)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plaintext, opened)
}

func TestSecretSealerNonDeterministic(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	sealer, err := NewSecretSealer(key)
	require.NoError(t, err)

	// 随机nonce保证同一明文两次加密得到不同密文
	a, err := sealer.Seal("same-secret")
	require.NoError(t, err)
	b, err := sealer.Seal("same-secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSecretSealerWrongKey(t *testing.T) {
	keyA, err := GenerateKey()
	require.NoError(t, err)
	keyB, err := GenerateKey()
	require.NoError(t, err)

	sealerA, err := NewSecretSealer(keyA)
	require.NoError(t, err)
	sealerB, err := NewSecretSealer(keyB)
	require.NoError(t, err)

	sealed, err := sealerA.Seal("secret")
	require.NoError(t, err)

	_, err = sealerB.Open(sealed)
	assert.Error(t, err)
}

func TestNewSecretSealerInvalidKey(t *testing.T) {
	_, err := NewSecretSealer("not-base64!!!")
	assert.Error(t, err)

	// 长度不足32字节
	_, err = NewSecretSealer("c2hvcnQ=")
	assert.Error(t, err)
}

func TestSecretSealerOpenGarbage(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	sealer, err := NewSecretSealer(key)
	require.NoError(t, err)

	_, err = sealer.Open("%%%not-base64%%%")
	assert.Error(t, err)

	_, err = sealer.Open("c2hvcnQ=")
	assert.Error(t, err)
}
