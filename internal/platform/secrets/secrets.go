// Package secrets resolves channel credentials from the OS keyring with an
// environment fallback for headless hosts.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	apperrors "staywithme/internal/platform/errors"
)

const Service = "staywithme"

type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
}

type KeyringStore struct {
	service string
	lookup  func(string) (string, bool)
}

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: Service, lookup: os.LookupEnv}
}

// Get reads name from the keyring, then from STAYWITHME_SECRET_<NAME>.
func (s *KeyringStore) Get(name string) (string, error) {
	value, err := keyring.Get(s.service, name)
	if err == nil {
		return value, nil
	}
	if v, ok := s.lookup(EnvName(name)); ok && v != "" {
		return v, nil
	}
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: secret %s", apperrors.ErrNotFound, name)
	}
	return "", fmt.Errorf("read secret %s: %w", name, err)
}

func (s *KeyringStore) Set(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: secret name is required", apperrors.ErrInvalidInput)
	}
	if err := keyring.Set(s.service, name, value); err != nil {
		return fmt.Errorf("write secret %s: %w", name, err)
	}
	return nil
}

func EnvName(name string) string {
	replacer := strings.NewReplacer("-", "_", ".", "_")
	return "STAYWITHME_SECRET_" + strings.ToUpper(replacer.Replace(name))
}
