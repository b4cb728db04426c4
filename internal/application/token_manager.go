package application

import (
	"fmt"

	"profitpulse-sync-core/internal/domain"
	"profitpulse-sync-core/internal/ports"
)

// TokenManager is the only path between plaintext credentials and the
// encrypted fields on an Integration. Everything else handles tokens as
// opaque ciphertext.
type TokenManager struct {
	vault ports.Vault
}

// NewTokenManager creates a new token manager
func NewTokenManager(vault ports.Vault) *TokenManager {
	return &TokenManager{vault: vault}
}

// AccessToken returns the integration's access token in plaintext
func (m *TokenManager) AccessToken(i *domain.Integration) (string, error) {
	token, err := m.vault.Decrypt(i.AccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}

// RefreshToken returns the integration's refresh token in plaintext, or ""
// when the platform issued none
func (m *TokenManager) RefreshToken(i *domain.Integration) (string, error) {
	if i.RefreshToken == "" {
		return "", nil
	}
	token, err := m.vault.Decrypt(i.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	return token, nil
}

// SetTokens encrypts and stores new credential material on the integration.
// An empty refresh token keeps the existing one: providers routinely omit it
// on refresh responses.
func (m *TokenManager) SetTokens(i *domain.Integration, accessToken, refreshToken string) error {
	sealed, err := m.vault.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	i.AccessToken = sealed

	if refreshToken != "" {
		sealedRefresh, err := m.vault.Encrypt(refreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		i.RefreshToken = sealedRefresh
	}

	return nil
}
