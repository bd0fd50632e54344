package launchpad

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// CredentialStore abstracts persistence for Launchpad OAuth credentials.
type CredentialStore interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Remove() error
}

// FileCredentialStore writes credentials to a JSON file on disk.
type FileCredentialStore struct {
	path string
}

// NewFileCredentialStore builds a FileCredentialStore rooted at the provided path.
func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

// Path returns the backing file location.
func (s *FileCredentialStore) Path() string {
	return s.path
}

// Load reads credentials from disk. A missing file resolves to empty credentials.
func (s *FileCredentialStore) Load() (Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, fmt.Errorf("read launchpad credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode launchpad credentials: %w", err)
	}
	return creds, nil
}

// Save persists credentials to disk with restricted permissions.
func (s *FileCredentialStore) Save(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ensure credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode launchpad credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write launchpad credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace launchpad credentials: %w", err)
	}
	return nil
}

// Remove deletes cached credentials. A missing file is not an error.
func (s *FileCredentialStore) Remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove launchpad credentials: %w", err)
	}
	return nil
}

// LoadValid loads credentials and reports ErrCredentialsMissing when the
// store holds no usable access token.
func LoadValid(store CredentialStore) (Credentials, error) {
	creds, err := store.Load()
	if err != nil {
		return Credentials{}, err
	}
	if !creds.Valid() {
		return Credentials{}, ErrCredentialsMissing
	}
	return creds, nil
}
