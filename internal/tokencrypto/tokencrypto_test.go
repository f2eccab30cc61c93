package tokencrypto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	codec, err := New("unit-test-secret")
	require.NoError(t, err)

	sealed, err := codec.Encrypt("BQDrefresh-token-value")
	require.NoError(t, err)
	require.NotEmpty(t, sealed)

	// Envelope is self-describing JSON with iv/content/tag fields.
	var env map[string]string
	require.NoError(t, json.Unmarshal([]byte(sealed), &env))
	assert.NotEmpty(t, env["iv"])
	assert.NotEmpty(t, env["tag"])

	opened, err := codec.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "BQDrefresh-token-value", opened)
}

func TestEncryptEmptyToken(t *testing.T) {
	codec, err := New("unit-test-secret")
	require.NoError(t, err)

	sealed, err := codec.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := codec.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	codec, err := New("secret-one")
	require.NoError(t, err)
	other, err := New("secret-two")
	require.NoError(t, err)

	sealed, err := codec.Encrypt("token")
	require.NoError(t, err)

	_, err = other.Decrypt(sealed)
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	codec, err := New("unit-test-secret")
	require.NoError(t, err)

	_, err = codec.Decrypt("not json at all")
	assert.Error(t, err)

	_, err = codec.Decrypt(`{"iv":"!!","content":"??","tag":"**"}`)
	assert.Error(t, err)
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestCiphertextsDiffer(t *testing.T) {
	codec, err := New("unit-test-secret")
	require.NoError(t, err)

	first, err := codec.Encrypt("same-token")
	require.NoError(t, err)
	second, err := codec.Encrypt("same-token")
	require.NoError(t, err)

	// Random nonces mean identical plaintexts never collide.
	assert.NotEqual(t, first, second)
}
