package secrets

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const service = "tplc"

// Keyring stores secrets in the OS keychain under the tplc service.
type Keyring struct{}

func NewKeyring() *Keyring {
	return &Keyring{}
}

func (k *Keyring) Get(key string) (string, error) {
	val, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (k *Keyring) Set(key, value string) error {
	return keyring.Set(service, key, value)
}

func (k *Keyring) Delete(key string) error {
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
