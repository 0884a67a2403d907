package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// MinSecretLength is the shortest accepted secret.
const MinSecretLength = 32

// Codec seals strings into opaque URL-safe tokens and opens them again.
// Tokens are AES-GCM encrypted, so a client can neither read nor forge
// them. It protects values the framework round-trips through the browser,
// such as the source page and the fields-present list.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec creates a Codec keyed by secret. An empty secret generates a
// random per-process key; tokens then do not survive restarts or cross
// instances.
func NewCodec(secret string) (*Codec, error) {
	var key [32]byte
	switch {
	case secret == "":
		if _, err := rand.Read(key[:]); err != nil {
			return nil, fmt.Errorf("cookie: generate key: %w", err)
		}
	case len(secret) < MinSecretLength:
		return nil, ErrShortSecret
	default:
		key = sha256.Sum256([]byte(secret))
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cookie: cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cookie: gcm: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// MustCodec is like NewCodec but panics on error.
func MustCodec(secret string) *Codec {
	c, err := NewCodec(secret)
	if err != nil {
		panic(err)
	}
	return c
}

// Seal encrypts value into a token.
func (c *Codec) Seal(value string) string {
	nonce := make([]byte, c.aead.NonceSize())
	_, _ = rand.Read(nonce) // crypto/rand.Read never fails
	sealed := c.aead.Seal(nonce, nonce, []byte(value), nil)
	return base64.RawURLEncoding.EncodeToString(sealed)
}

// Open decrypts a token produced by Seal. Any malformed or modified token
// gives ErrTampered.
func (c *Codec) Open(token string) (string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(data) < c.aead.NonceSize() {
		return "", ErrTampered
	}
	n := c.aead.NonceSize()
	plain, err := c.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", ErrTampered
	}
	return string(plain), nil
}
