// ABOUTME: Persistence for the mutable half of the Google OAuth credential
// ABOUTME: One credential per installation, in the document store or a 0600 file at an XDG path
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	stdsync "sync"

	"github.com/adrg/xdg"

	"github.com/harperreed/prospecta/models"
	"github.com/harperreed/prospecta/store"
)

// CredentialCollection holds one credential document per installation.
const CredentialCollection = "oauth_credentials"

// CredentialStore persists the installation's Google credential.
type CredentialStore interface {
	// Load returns the stored credential or ErrNotAuthenticated.
	Load(ctx context.Context) (*models.Credential, error)
	// Save persists a freshly exchanged credential. An empty refresh token keeps the stored one.
	Save(ctx context.Context, cred *models.Credential) error
	// UpdateAccessToken changes only access_token and expiry_date.
	UpdateAccessToken(ctx context.Context, accessToken string, expiryDate int64) error
	// Delete removes the credential; deleting a missing credential is not an error.
	Delete(ctx context.Context) error
}

// DocumentCredentials stores the credential as a document keyed by project id.
type DocumentCredentials struct {
	docs      store.Documents
	projectID string
}

func NewDocumentCredentials(docs store.Documents, projectID string) *DocumentCredentials {
	return &DocumentCredentials{docs: docs, projectID: projectID}
}

func (d *DocumentCredentials) Load(ctx context.Context) (*models.Credential, error) {
	var cred models.Credential
	err := store.GetJSON(ctx, d.docs, CredentialCollection, d.projectID, &cred)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return &cred, nil
}

func (d *DocumentCredentials) Save(ctx context.Context, cred *models.Credential) error {
	if err := store.MergeJSON(ctx, d.docs, CredentialCollection, d.projectID, cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

func (d *DocumentCredentials) UpdateAccessToken(ctx context.Context, accessToken string, expiryDate int64) error {
	patch := map[string]any{
		"access_token": accessToken,
		"expiry_date":  expiryDate,
	}
	if err := store.MergeJSON(ctx, d.docs, CredentialCollection, d.projectID, patch); err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}
	return nil
}

func (d *DocumentCredentials) Delete(ctx context.Context) error {
	err := d.docs.Delete(ctx, CredentialCollection, d.projectID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// TokenPath returns XDG-compliant path for storing OAuth tokens.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "prospecta", "google-credentials.json")
}

// FileCredentials stores the credential as JSON in a single file.
type FileCredentials struct {
	path string
	mu   stdsync.Mutex
}

func NewFileCredentials(path string) *FileCredentials {
	if path == "" {
		path = TokenPath()
	}
	return &FileCredentials{path: path}
}

func (f *FileCredentials) Load(_ context.Context) (*models.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load()
}

func (f *FileCredentials) load() (*models.Credential, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &cred, nil
}

func (f *FileCredentials) Save(_ context.Context, cred *models.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := *cred
	if next.RefreshToken == "" {
		if prev, err := f.load(); err == nil {
			next.RefreshToken = prev.RefreshToken
		}
	}
	return f.write(&next)
}

func (f *FileCredentials) UpdateAccessToken(_ context.Context, accessToken string, expiryDate int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cred, err := f.load()
	if err != nil {
		return err
	}
	cred.AccessToken = accessToken
	cred.ExpiryDate = expiryDate
	return f.write(cred)
}

func (f *FileCredentials) Delete(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// write replaces the file atomically with restricted permissions.
func (f *FileCredentials) write(cred *models.Credential) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}
