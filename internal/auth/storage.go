package auth

import (
	"github.com/zalando/go-keyring"

	"github.com/dbxbak/dbxbak/internal/utils"
)

// DefaultProfile is the storage slot used when no profile is given
const DefaultProfile = "default"

// StorageBackend defines the interface for token storage
type StorageBackend interface {
	Save(profile string, data []byte) error
	Load(profile string) ([]byte, error)
	Delete(profile string) error
	Name() string
}

// KeyringStorage uses the system keyring for token storage
type KeyringStorage struct {
	serviceName string
}

// NewKeyringStorage creates a keyring storage backend
func NewKeyringStorage() *KeyringStorage {
	return &KeyringStorage{serviceName: utils.KeyringService}
}

func (s *KeyringStorage) Save(profile string, data []byte) error {
	return keyring.Set(s.serviceName, profile, string(data))
}

func (s *KeyringStorage) Load(profile string) ([]byte, error) {
	data, err := keyring.Get(s.serviceName, profile)
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

func (s *KeyringStorage) Delete(profile string) error {
	return keyring.Delete(s.serviceName, profile)
}

func (s *KeyringStorage) Name() string {
	return "system-keyring"
}
