// Package tokencrypto encrypts Spotify tokens at rest. AES-256-GCM with a
// key derived from the configured secret; ciphertexts are self-describing
// JSON so key rotation can be layered on later.
package tokencrypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

const nonceSize = 12

// Codec seals and opens token strings with a fixed derived key
type Codec struct {
	key [32]byte
}

// New derives the AES key from the secret via SHA-256.
func New(secret string) (*Codec, error) {
	if secret == "" {
		return nil, eris.New("tokencrypto: encryption secret is required")
	}
	return &Codec{key: sha256.Sum256([]byte(secret))}, nil
}

type envelope struct {
	IV      string `json:"iv"`
	Content string `json:"content"`
	Tag     string `json:"tag"`
}

// Encrypt seals a plaintext token. Empty input yields an empty ciphertext.
func (c *Codec) Encrypt(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", eris.Wrap(err, "tokencrypto: generate nonce")
	}

	sealed := gcm.Seal(nil, nonce, []byte(plain), nil)
	content, tag := sealed[:len(sealed)-gcm.Overhead()], sealed[len(sealed)-gcm.Overhead():]

	encoded, err := json.Marshal(envelope{
		IV:      base64.StdEncoding.EncodeToString(nonce),
		Content: base64.StdEncoding.EncodeToString(content),
		Tag:     base64.StdEncoding.EncodeToString(tag),
	})
	if err != nil {
		return "", eris.Wrap(err, "tokencrypto: encode envelope")
	}
	return string(encoded), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Empty input yields an
// empty token.
func (c *Codec) Decrypt(payload string) (string, error) {
	if payload == "" {
		return "", nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return "", eris.Wrap(err, "tokencrypto: decode envelope")
	}

	nonce, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil {
		return "", eris.Wrap(err, "tokencrypto: decode nonce")
	}
	content, err := base64.StdEncoding.DecodeString(env.Content)
	if err != nil {
		return "", eris.Wrap(err, "tokencrypto: decode content")
	}
	tag, err := base64.StdEncoding.DecodeString(env.Tag)
	if err != nil {
		return "", eris.Wrap(err, "tokencrypto: decode tag")
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	plain, err := gcm.Open(nil, nonce, append(content, tag...), nil)
	if err != nil {
		return "", eris.Wrap(err, "tokencrypto: open ciphertext")
	}
	return string(plain), nil
}

func (c *Codec) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, eris.Wrap(err, "tokencrypto: init cipher")
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, eris.Wrap(err, "tokencrypto: init gcm")
	}
	return gcm, nil
}
