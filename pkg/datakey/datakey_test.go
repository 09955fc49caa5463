package datakey

import (
	"bytes"
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func TestNew(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)
	assert.NotNil(t, c)

	_, err = New(make([]byte, 16))
	assert.Error(t, err, "AES-128 keys are rejected")
}

func TestSealOpen(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	tests := []struct {
		name      string
		aad       []byte
		plaintext []byte
	}{
		{"fernet key", []byte("user:1"), []byte("cw_0x689RpI-jtRR7oE8h_eQsKImvJapLeSbXpwF4e4=")},
		{"empty", []byte("user:2"), []byte{}},
		{"long", []byte("user:3"), bytes.Repeat([]byte("x"), 4096)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := c.Seal(tt.aad, tt.plaintext)
			require.NoError(t, err)
			assert.Equal(t, versionMagic, sealed[0])
			assert.Len(t, sealed, headerSize+len(tt.plaintext))

			opened, err := c.Open(tt.aad, sealed)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(tt.plaintext, opened))
		})
	}
}

func TestSealWithFixedNonceIsDeterministic(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)
	nonce := bytes.Repeat([]byte{7}, nonceSize)

	a := c.sealWithNonce([]byte("aad"), []byte("value"), nonce)
	b := c.sealWithNonce([]byte("aad"), []byte("value"), nonce)
	assert.Equal(t, a, b)
	assert.Equal(t, nonce, a[1+tagSize:headerSize])
}

func TestOpenFailures(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("user:1"), []byte("material"))
	require.NoError(t, err)

	t.Run("wrong aad", func(t *testing.T) {
		_, err := c.Open([]byte("user:2"), sealed)
		assert.Error(t, err)
	})

	t.Run("flipped bit", func(t *testing.T) {
		corrupt := append([]byte(nil), sealed...)
		corrupt[len(corrupt)-1] ^= 0x01
		_, err := c.Open([]byte("user:1"), corrupt)
		assert.Error(t, err)
	})

	t.Run("too short", func(t *testing.T) {
		_, err := c.Open([]byte("user:1"), sealed[:headerSize-1])
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("unknown version", func(t *testing.T) {
		corrupt := append([]byte(nil), sealed...)
		corrupt[0] = 'X'
		_, err := c.Open([]byte("user:1"), corrupt)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestGenerateAndDecode(t *testing.T) {
	encoded, err := Generate()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Len(t, raw, KeySize)

	_, err = Decode(encoded)
	assert.NoError(t, err)

	_, err = Decode("not base64!")
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	c, set, err := FromEnv()
	assert.NoError(t, err)
	assert.False(t, set)
	assert.Nil(t, c)

	t.Setenv(EnvVar, base64.StdEncoding.EncodeToString(testKey()))
	c, set, err = FromEnv()
	assert.NoError(t, err)
	assert.True(t, set)
	assert.NotNil(t, c)

	t.Setenv(EnvVar, base64.StdEncoding.EncodeToString([]byte("short")))
	_, set, err = FromEnv()
	assert.True(t, set)
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	c, err := New(testKey())
	require.NoError(t, err)

	got, ok := FromContext(NewContext(context.Background(), c))
	assert.True(t, ok)
	assert.Same(t, c, got)
}
