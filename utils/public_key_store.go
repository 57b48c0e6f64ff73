package utils

import (
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// PublicKeyStore maps JWT kid values to RSA public keys. Keys arrive either
// from a PEM directory at startup or over the key-rotation gRPC service.
type PublicKeyStore struct {
	keys map[string]*rsa.PublicKey
	mu   sync.RWMutex
}

func NewPublicKeyStore() *PublicKeyStore {
	return &PublicKeyStore{
		keys: make(map[string]*rsa.PublicKey),
	}
}

// LoadKeys reads every <kid>_public.pem in dir into the store.
func (store *PublicKeyStore) LoadKeys(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, "_public.pem") {
			continue
		}
		kid := strings.TrimSuffix(name, "_public.pem")

		path := filepath.Join(dir, name)
		pubKeyData, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read public key file %s: %v", path, err)
		}

		pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubKeyData)
		if err != nil {
			return fmt.Errorf("failed to parse public key from file %s: %v", path, err)
		}

		store.mu.Lock()
		store.keys[kid] = pubKey
		store.mu.Unlock()
	}

	return nil
}

// AddOrUpdateKey parses a PEM public key and stores it under kid, replacing
// any previous key with the same kid.
func (store *PublicKeyStore) AddOrUpdateKey(kid, pemStr string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	pubKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemStr))
	if err != nil {
		return fmt.Errorf("failed to parse RSA public key: %w", err)
	}

	store.keys[kid] = pubKey
	return nil
}

func (store *PublicKeyStore) RemoveKey(kid string) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.keys, kid)
}

func (store *PublicKeyStore) GetKey(kid string) (*rsa.PublicKey, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	key, exists := store.keys[kid]
	if !exists {
		return nil, fmt.Errorf("public key not found for kid: %s", kid)
	}
	return key, nil
}
