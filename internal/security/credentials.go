package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"snowshift/internal/common"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// Keyring service name
	keyringService = "snowshift"
	// Salt for key derivation
	saltSize = 32
	// Number of iterations for PBKDF2
	pbkdf2Iterations = 100000
	// Key size for AES-256
	keySize = 32
)

// CredentialStore keeps Snowflake passwords out of config files and shell
// history. It prefers the system keyring and falls back to AES-encrypted
// files under the app directory.
type CredentialStore struct {
	useKeyring bool
	masterKey  []byte
}

type storedCredential struct {
	Account   string `json:"account"`
	User      string `json:"user"`
	Value     string `json:"value"`
	Encrypted bool   `json:"encrypted"`
}

// NewCredentialStore creates a new credential store
func NewCredentialStore() (*CredentialStore, error) {
	cs := &CredentialStore{
		useKeyring: isKeyringAvailable(),
	}

	// Initialize master key if not using system keyring
	if !cs.useKeyring {
		key, err := cs.getMasterKey()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize master key: %w", err)
		}
		cs.masterKey = key
	}

	return cs, nil
}

// credentialKey names a stored password the way a DSN would
func credentialKey(account, user string) string {
	return fmt.Sprintf("%s@%s", user, account)
}

// StorePassword securely stores the password for a user on an account
func (cs *CredentialStore) StorePassword(account, user, password string) error {
	if cs.useKeyring {
		return cs.storeInKeyring(account, user, password)
	}
	return cs.storeEncrypted(account, user, password)
}

// GetPassword retrieves the stored password for a user on an account
func (cs *CredentialStore) GetPassword(account, user string) (string, error) {
	var cred *storedCredential
	var err error

	if cs.useKeyring {
		cred, err = cs.getFromKeyring(account, user)
	} else {
		cred, err = cs.getEncrypted(account, user)
	}
	if err != nil {
		return "", err
	}

	return cred.Value, nil
}

// DeletePassword removes the stored password for a user on an account
func (cs *CredentialStore) DeletePassword(account, user string) error {
	key := credentialKey(account, user)

	if cs.useKeyring {
		if err := keyring.Delete(keyringService, key); err != nil {
			return fmt.Errorf("failed to delete from keyring: %w", err)
		}
		return cs.updateCredentialIndex(key, false)
	}

	path := cs.getCredentialPath(key)
	return os.Remove(path)
}

// ListKeys returns the stored credential keys (user@account)
func (cs *CredentialStore) ListKeys() ([]string, error) {
	if cs.useKeyring {
		// Keyring doesn't support listing, so we maintain a separate index
		return cs.getCredentialIndex()
	}
	return cs.listEncrypted()
}

// Keyring storage methods

func (cs *CredentialStore) storeInKeyring(account, user, password string) error {
	cred := storedCredential{
		Account:   account,
		User:      user,
		Value:     password,
		Encrypted: false,
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	key := credentialKey(account, user)
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	// Update index
	return cs.updateCredentialIndex(key, true)
}

func (cs *CredentialStore) getFromKeyring(account, user string) (*storedCredential, error) {
	data, err := keyring.Get(keyringService, credentialKey(account, user))
	if err != nil {
		return nil, fmt.Errorf("failed to get from keyring: %w", err)
	}

	var cred storedCredential
	if err := json.Unmarshal([]byte(data), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	return &cred, nil
}

// Encrypted file storage methods

func (cs *CredentialStore) storeEncrypted(account, user, password string) error {
	encrypted, err := cs.encrypt(password)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	cred := storedCredential{
		Account:   account,
		User:      user,
		Value:     encrypted,
		Encrypted: true,
	}

	return cs.saveCredentialFile(credentialKey(account, user), &cred)
}

func (cs *CredentialStore) getEncrypted(account, user string) (*storedCredential, error) {
	cred, err := cs.loadCredentialFile(credentialKey(account, user))
	if err != nil {
		return nil, err
	}

	if cred.Encrypted {
		decrypted, err := cs.decrypt(cred.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt credential: %w", err)
		}
		cred.Value = decrypted
		cred.Encrypted = false
	}

	return cred, nil
}

func (cs *CredentialStore) listEncrypted() ([]string, error) {
	dir := cs.getCredentialsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var keys []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".cred") {
			keys = append(keys, strings.TrimSuffix(entry.Name(), ".cred"))
		}
	}

	return keys, nil
}

// Encryption methods

func (cs *CredentialStore) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(cs.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (cs *CredentialStore) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(cs.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, encryptedData := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encryptedData, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// Helper methods

func (cs *CredentialStore) getMasterKey() ([]byte, error) {
	keyPath := cs.getMasterKeyPath()

	validatedPath, err := common.ValidatePath(keyPath, cs.getCredentialsDir())
	if err != nil {
		return nil, fmt.Errorf("invalid master key path: %w", err)
	}

	// Check if master key exists
	data, err := os.ReadFile(validatedPath) // #nosec G304 - path is validated
	if err == nil {
		// Extract the key part (skip the salt)
		if len(data) != saltSize+keySize {
			return nil, fmt.Errorf("invalid master key file size")
		}
		return data[saltSize:], nil
	}

	// Generate new master key
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}

	// Derive key from machine-specific data
	machineID := getMachineID()
	key := pbkdf2.Key([]byte(machineID), salt, pbkdf2Iterations, keySize, sha256.New)

	// Store salt and key together
	keyData := append(salt, key...)
	if err := os.MkdirAll(cs.getCredentialsDir(), common.DirPermissionSecure); err != nil {
		return nil, err
	}

	validatedWritePath, err := common.ValidatePath(keyPath, cs.getCredentialsDir())
	if err != nil {
		return nil, fmt.Errorf("invalid master key path for writing: %w", err)
	}

	if err := os.WriteFile(validatedWritePath, keyData, common.FilePermissionSecure); err != nil { // #nosec G304
		return nil, err
	}

	return key, nil
}

func (cs *CredentialStore) getCredentialsDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, common.AppDirName, "credentials")
}

func (cs *CredentialStore) getCredentialPath(key string) string {
	return filepath.Join(cs.getCredentialsDir(), key+".cred")
}

func (cs *CredentialStore) getMasterKeyPath() string {
	return filepath.Join(cs.getCredentialsDir(), ".master")
}

func (cs *CredentialStore) saveCredentialFile(key string, cred *storedCredential) error {
	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cs.getCredentialsDir(), common.DirPermissionSecure); err != nil {
		return err
	}

	path := cs.getCredentialPath(key)
	validatedPath, err := common.ValidatePath(path, cs.getCredentialsDir())
	if err != nil {
		return fmt.Errorf("invalid credential file path: %w", err)
	}
	return os.WriteFile(validatedPath, data, common.FilePermissionSecure) // #nosec G304
}

func (cs *CredentialStore) loadCredentialFile(key string) (*storedCredential, error) {
	path := cs.getCredentialPath(key)
	validatedPath, err := common.ValidatePath(path, cs.getCredentialsDir())
	if err != nil {
		return nil, fmt.Errorf("invalid credential file path: %w", err)
	}
	data, err := os.ReadFile(validatedPath) // #nosec G304
	if err != nil {
		return nil, err
	}

	var cred storedCredential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, err
	}

	return &cred, nil
}

func (cs *CredentialStore) getCredentialIndex() ([]string, error) {
	indexPath := filepath.Join(cs.getCredentialsDir(), ".index")
	validatedPath, err := common.ValidatePath(indexPath, cs.getCredentialsDir())
	if err != nil {
		return nil, fmt.Errorf("invalid index file path: %w", err)
	}
	data, err := os.ReadFile(validatedPath) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var index []string
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}

	return index, nil
}

func (cs *CredentialStore) updateCredentialIndex(key string, add bool) error {
	index, err := cs.getCredentialIndex()
	if err != nil {
		return err
	}

	found := false
	newIndex := []string{}
	for _, k := range index {
		if k == key {
			found = true
			if add {
				newIndex = append(newIndex, k)
			}
		} else {
			newIndex = append(newIndex, k)
		}
	}

	if add && !found {
		newIndex = append(newIndex, key)
	}

	data, err := json.Marshal(newIndex)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cs.getCredentialsDir(), common.DirPermissionSecure); err != nil {
		return err
	}

	indexPath := filepath.Join(cs.getCredentialsDir(), ".index")
	validatedPath, err := common.ValidatePath(indexPath, cs.getCredentialsDir())
	if err != nil {
		return fmt.Errorf("invalid index file path: %w", err)
	}
	return os.WriteFile(validatedPath, data, common.FilePermissionSecure) // #nosec G304
}

// Platform-specific helpers

func isKeyringAvailable() bool {
	// Check if keyring usage is explicitly disabled
	if os.Getenv("SNOWSHIFT_USE_KEYCHAIN") == "false" {
		return false
	}

	switch runtime.GOOS {
	case "darwin", "windows":
		return true
	case "linux":
		// Check if a supported keyring backend is available
		if os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != "" {
			return true
		}
	}
	return false
}

func getMachineID() string {
	hostname, _ := os.Hostname()
	user := os.Getenv("USER")
	if user == "" {
		user = os.Getenv("USERNAME")
	}

	data := fmt.Sprintf("%s-%s-%s-%s", hostname, user, runtime.GOOS, runtime.GOARCH)
	hash := sha256.Sum256([]byte(data))
	return base64.StdEncoding.EncodeToString(hash[:])
}
