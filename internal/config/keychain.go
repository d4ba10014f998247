package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keychainService = "bear-mcp"
	keychainUser    = "api-token"
)

// ErrTokenNotFound is returned when the keychain holds no token.
var ErrTokenNotFound = errors.New("no Bear API token in keychain")

// GetToken reads the Bear API token from the system keychain.
func GetToken() (string, error) {
	token, err := keyring.Get(keychainService, keychainUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("keychain error: %w", err)
	}
	return token, nil
}

// SetToken stores the Bear API token in the system keychain.
func SetToken(token string) error {
	if token == "" {
		return &ValidationError{"token", "must not be empty"}
	}
	if err := keyring.Set(keychainService, keychainUser, token); err != nil {
		return fmt.Errorf("keychain error: %w", err)
	}
	return nil
}

// DeleteToken removes the stored token.
func DeleteToken() error {
	if err := keyring.Delete(keychainService, keychainUser); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrTokenNotFound
		}
		return fmt.Errorf("keychain error: %w", err)
	}
	return nil
}
