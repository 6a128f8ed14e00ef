package service

import (
	"crypto/rand"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	appErrors "github.com/noah-isme/hqhq-web/pkg/errors"
)

const nonceSize = 24

// PasswordSealer keeps the admin password encrypted while it sits in the session store.
type PasswordSealer struct {
	key [32]byte
}

// NewPasswordSealer derives the secretbox key from the configured secret.
func NewPasswordSealer(secret string) *PasswordSealer {
	return &PasswordSealer{key: sha256.Sum256([]byte(secret))}
}

// Seal encrypts the password with a random nonce prefixed to the output.
func (s *PasswordSealer) Seal(password string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seal password")
	}
	return secretbox.Seal(nonce[:], []byte(password), &nonce, &s.key), nil
}

// Open decrypts a value produced by Seal.
func (s *PasswordSealer) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", appErrors.Clone(appErrors.ErrInternal, "sealed password is malformed")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plain, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrInternal, "sealed password cannot be opened")
	}
	return string(plain), nil
}
