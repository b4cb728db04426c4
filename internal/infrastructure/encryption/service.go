package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Service encrypts credential material with AES-GCM under a process-wide key.
// With no key configured it runs in pass-through mode so non-production
// environments keep functioning; that condition is logged once at startup as
// a degraded-security warning, never treated as an error.
type Service struct {
	aead   cipher.AEAD
	logger zerolog.Logger
}

// NewService builds the vault from a 64-hex-char (32-byte) key. An empty key
// yields pass-through mode; a malformed key is a hard configuration error.
func NewService(keyHex string, logger zerolog.Logger) (*Service, error) {
	if keyHex == "" {
		logger.Warn().Msg("ENCRYPTION_KEY not set, credential encryption disabled")
		return &Service{logger: logger}, nil
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gcm: %w", err)
	}

	return &Service{aead: aead, logger: logger}, nil
}

// Encrypt seals the plaintext. Pass-through mode returns the input unchanged.
func (s *Service) Encrypt(plaintext string) (string, error) {
	if s.aead == nil || plaintext == "" {
		return plaintext, nil
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed value. Values that do not decode or fail
// authentication are returned unchanged: rows written before encryption was
// enabled hold plaintext, and that mixed-era data must stay readable.
func (s *Service) Decrypt(ciphertext string) (string, error) {
	if s.aead == nil || ciphertext == "" {
		return ciphertext, nil
	}

	sealed, err := base64.URLEncoding.DecodeString(ciphertext)
	if err != nil {
		return ciphertext, nil
	}
	if len(sealed) < s.aead.NonceSize() {
		return ciphertext, nil
	}

	nonce, body := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, body, nil)
	if err != nil {
		s.logger.Debug().Msg("credential value failed authentication, returning as-is")
		return ciphertext, nil
	}
	return string(plaintext), nil
}
