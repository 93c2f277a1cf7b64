package blob

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// sealedMagic prefixes every sealed object: magic | nonce | ciphertext.
var sealedMagic = []byte("AMS-GCM1")

var errSealedWithoutKey = errors.New("archived object is encrypted but archive.encryption_key is not set")

type sealedStore struct {
	backend Store
	aead    cipher.AEAD
}

// withSealing wraps backend with AES-GCM when rawKey is set. Without a key the
// backend is returned as is and sealed objects fail to read.
func withSealing(backend Store, rawKey string) (Store, error) {
	rawKey = strings.TrimSpace(rawKey)
	if rawKey == "" {
		return plainStore{backend}, nil
	}
	key, err := base64.StdEncoding.DecodeString(rawKey)
	if err != nil {
		return nil, fmt.Errorf("archive.encryption_key must be base64: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("archive.encryption_key must be 16/24/32 bytes after decoding")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &sealedStore{backend: backend, aead: aead}, nil
}

func (s *sealedStore) Write(ctx context.Context, key string, data []byte) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	out := make([]byte, 0, len(sealedMagic)+len(nonce)+len(data)+s.aead.Overhead())
	out = append(out, sealedMagic...)
	out = append(out, nonce...)
	out = s.aead.Seal(out, nonce, data, []byte(key))
	return s.backend.Write(ctx, key, out)
}

// Read opens sealed objects and passes through plaintext written before a key
// was configured.
func (s *sealedStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := s.backend.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, sealedMagic) {
		return data, nil
	}
	body := data[len(sealedMagic):]
	nonceSize := s.aead.NonceSize()
	if len(body) < nonceSize {
		return nil, errors.New("sealed object too short")
	}
	plain, err := s.aead.Open(nil, body[:nonceSize], body[nonceSize:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("open sealed object %s: %w", key, err)
	}
	return plain, nil
}

type plainStore struct {
	backend Store
}

func (p plainStore) Write(ctx context.Context, key string, data []byte) error {
	return p.backend.Write(ctx, key, data)
}

func (p plainStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := p.backend.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, sealedMagic) {
		return nil, errSealedWithoutKey
	}
	return data, nil
}
