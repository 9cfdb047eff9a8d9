// Package keystore implements the wallet's on-disk keypair storage,
// reproducing the original implementation's layout: each named key is a
// pair of PEM files under a keys directory, and a "default" pointer file
// names the key used when no name is given explicitly.
package keystore

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jjantschulev/zenchain/internal/zcrypto"
)

// ErrNoDefaultKey is returned by LoadDefault when no default pointer file
// exists yet.
var ErrNoDefaultKey = errors.New("keystore: no default key set")

// KeyStore is the collaborator interface the node and wallet consume; the
// core only ever needs "load the default keypair at startup" (§6).
type KeyStore interface {
	Generate(name string) (*rsa.PrivateKey, error)
	Load(name string) (*rsa.PrivateKey, error)
	LoadDefault() (*rsa.PrivateKey, error)
	SetDefault(name string) error
	DefaultName() (string, error)
	Delete(name string) error
	List() ([]string, error)
}

// DiskKeyStore stores keys as dir/<name>.sk (PKCS1 private key PEM) and
// dir/<name>.pk (PKIX public key PEM), with dir/default holding the name
// of the current default key.
type DiskKeyStore struct {
	dir string
}

// New returns a DiskKeyStore rooted at dir, creating it if necessary.
func New(dir string) (*DiskKeyStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: create %s: %w", dir, err)
	}
	return &DiskKeyStore{dir: dir}, nil
}

func (ks *DiskKeyStore) skPath(name string) string { return filepath.Join(ks.dir, name+".sk") }
func (ks *DiskKeyStore) pkPath(name string) string { return filepath.Join(ks.dir, name+".pk") }
func (ks *DiskKeyStore) defaultPath() string       { return filepath.Join(ks.dir, "default") }

// Generate creates a fresh RSA-2048 keypair named name and writes it to
// disk, making it the default if no default currently exists.
func (ks *DiskKeyStore) Generate(name string) (*rsa.PrivateKey, error) {
	if name == "" {
		return nil, errors.New("keystore: key name must not be empty")
	}
	priv, err := zcrypto.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("keystore: generate key: %w", err)
	}

	skPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
	if err := os.WriteFile(ks.skPath(name), skPEM, 0o600); err != nil {
		return nil, fmt.Errorf("keystore: write private key: %w", err)
	}

	pkDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("keystore: marshal public key: %w", err)
	}
	pkPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pkDER})
	if err := os.WriteFile(ks.pkPath(name), pkPEM, 0o644); err != nil {
		return nil, fmt.Errorf("keystore: write public key: %w", err)
	}

	if _, err := ks.DefaultName(); errors.Is(err, ErrNoDefaultKey) {
		if err := ks.SetDefault(name); err != nil {
			return nil, err
		}
	}

	return priv, nil
}

// Load reads the named key's private key from disk.
func (ks *DiskKeyStore) Load(name string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(ks.skPath(name))
	if err != nil {
		return nil, fmt.Errorf("keystore: read key %q: %w", name, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("keystore: key %q is not valid PEM", name)
	}
	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("keystore: parse key %q: %w", name, err)
	}
	return priv, nil
}

// DefaultName returns the name stored in the default pointer file.
func (ks *DiskKeyStore) DefaultName() (string, error) {
	data, err := os.ReadFile(ks.defaultPath())
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoDefaultKey
	}
	if err != nil {
		return "", fmt.Errorf("keystore: read default pointer: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// LoadDefault loads the private key named by the default pointer file.
func (ks *DiskKeyStore) LoadDefault() (*rsa.PrivateKey, error) {
	name, err := ks.DefaultName()
	if err != nil {
		return nil, err
	}
	return ks.Load(name)
}

// SetDefault points the default pointer file at name, which must already
// exist.
func (ks *DiskKeyStore) SetDefault(name string) error {
	if _, err := os.Stat(ks.skPath(name)); err != nil {
		return fmt.Errorf("keystore: key %q does not exist: %w", name, err)
	}
	if err := os.WriteFile(ks.defaultPath(), []byte(name), 0o600); err != nil {
		return fmt.Errorf("keystore: write default pointer: %w", err)
	}
	return nil
}

// Delete removes the named key's files.
func (ks *DiskKeyStore) Delete(name string) error {
	if err := os.Remove(ks.skPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("keystore: delete private key %q: %w", name, err)
	}
	if err := os.Remove(ks.pkPath(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("keystore: delete public key %q: %w", name, err)
	}
	return nil
}

// List returns every key name present in the store, sorted.
func (ks *DiskKeyStore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.dir)
	if err != nil {
		return nil, fmt.Errorf("keystore: list %s: %w", ks.dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".sk") {
			names = append(names, strings.TrimSuffix(e.Name(), ".sk"))
		}
	}
	sort.Strings(names)
	return names, nil
}
