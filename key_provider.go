package pagefs

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// PasswordKeyProvider implements KeyProvider using PBKDF2
type PasswordKeyProvider struct {
	password []byte
	params   PBKDF2Params
}

// NewPasswordKeyProvider creates a new password-based key provider. The
// password is copied; call Destroy to wipe the copy.
func NewPasswordKeyProvider(password []byte, params PBKDF2Params) *PasswordKeyProvider {
	// Set defaults
	if params.Iterations == 0 {
		params.Iterations = 100000
	}
	if params.SaltSize == 0 {
		params.SaltSize = 32
	}
	if params.KeySize == 0 {
		params.KeySize = 32
	}

	return &PasswordKeyProvider{
		password: append([]byte(nil), password...),
		params:   params,
	}
}

// DeriveKey derives a key from the password and salt
func (p *PasswordKeyProvider) DeriveKey(salt []byte) ([]byte, error) {
	if len(p.password) == 0 {
		return nil, NewValidationError("password", nil, "password cannot be empty")
	}
	if len(salt) == 0 {
		return nil, NewValidationError("salt", nil, "salt cannot be empty")
	}

	return PBKDF2(p.params.HashFunc, p.password, salt, p.params.Iterations, p.params.KeySize)
}

// GenerateSalt generates a new random salt
func (p *PasswordKeyProvider) GenerateSalt() ([]byte, error) {
	salt := make([]byte, p.params.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Destroy wipes the stored password. Later DeriveKey calls fail.
func (p *PasswordKeyProvider) Destroy() {
	Wipe(p.password)
	p.password = nil
}

// MultiKeyProvider tries multiple key providers in order
type MultiKeyProvider struct {
	providers []KeyProvider
	primary   KeyProvider // Primary provider for new salts and keys
}

// NewMultiKeyProvider creates a new multi-key provider.
// The first provider is primary, the others are fallbacks for TryDeriveKey.
func NewMultiKeyProvider(providers ...KeyProvider) (*MultiKeyProvider, error) {
	if len(providers) == 0 {
		return nil, NewValidationError("providers", 0, "at least one key provider required")
	}

	return &MultiKeyProvider{
		providers: providers,
		primary:   providers[0],
	}, nil
}

// DeriveKey uses the primary provider
func (m *MultiKeyProvider) DeriveKey(salt []byte) ([]byte, error) {
	return m.primary.DeriveKey(salt)
}

// GenerateSalt uses the primary provider
func (m *MultiKeyProvider) GenerateSalt() ([]byte, error) {
	return m.primary.GenerateSalt()
}

// TryDeriveKey attempts each provider in order and returns the first
// successful key together with the index of the provider that produced it.
func (m *MultiKeyProvider) TryDeriveKey(salt []byte) ([]byte, int, error) {
	var errs []error
	for i, provider := range m.providers {
		key, err := provider.DeriveKey(salt)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return key, i, nil
	}
	return nil, -1, fmt.Errorf("all key providers failed: %w", errors.Join(errs...))
}
