package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"campusevents/internal/domain"
)

const nonceSize = 24

// ErrUnsealFailed is returned when a stored value cannot be opened with the configured key.
var ErrUnsealFailed = errors.New("stored value could not be unsealed")

// ParseSecret decodes a 64 character hex string into a secretbox key.
func ParseSecret(s string) (*[32]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode store secret: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("store secret must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

type sealedStore struct {
	inner domain.KeyValueStore
	key   *[32]byte
}

// NewSealedStore encrypts values with NaCl secretbox before handing them to inner.
func NewSealedStore(inner domain.KeyValueStore, key *[32]byte) domain.KeyValueStore {
	return &sealedStore{inner: inner, key: key}
}

func (s *sealedStore) Get(ctx context.Context, key string) (string, error) {
	stored, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrUnsealFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, s.key)
	if !ok {
		return "", ErrUnsealFailed
	}
	return string(plain), nil
}

func (s *sealedStore) Set(ctx context.Context, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, s.key)
	return s.inner.Set(ctx, key, base64.StdEncoding.EncodeToString(sealed))
}

func (s *sealedStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}
