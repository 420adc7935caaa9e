package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/zalando/go-keyring"
)

// Prefix marks a descriptor placeholder that is read from the keyring
// instead of the environment: ${keyring:service/user}.
const Prefix = "keyring:"

// ErrNotFound is returned when a secret is not stored.
var ErrNotFound = errors.New("secret not found in keyring")

// Store is a place secrets can be read from and written to.
type Store interface {
	Set(service, user, secret string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// FileKeyring implements a file-based keyring for headless servers
type FileKeyring struct {
	mu          sync.Mutex
	keyringPath string
	masterKey   []byte
}

// KeyringEntry represents a stored keyring entry
type KeyringEntry struct {
	Service string `json:"service"`
	User    string `json:"user"`
	Data    string `json:"data"` // encrypted data
}

// KeyringManager uses the system keyring when available, the encrypted file otherwise.
type KeyringManager struct {
	fileKeyring *FileKeyring
	useFile     bool
}

// NewKeyringManager creates a new keyring manager that tries the system
// keyring first and falls back to the file keyring. The probe gives up after
// probeTimeout so headless hosts without a secret service don't hang.
func NewKeyringManager(keyringPath, masterPassword string, probeTimeout time.Duration) *KeyringManager {
	testService := "redb-connect-probe"
	testKey := "probe"

	done := make(chan error, 1)
	go func() {
		err := keyring.Set(testService, testKey, "ok")
		if err == nil {
			keyring.Delete(testService, testKey)
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			return &KeyringManager{useFile: false}
		}
	case <-time.After(probeTimeout):
	}

	return NewFileKeyringManager(keyringPath, masterPassword)
}

// NewFileKeyringManager returns a manager that only uses the encrypted file.
func NewFileKeyringManager(keyringPath, masterPassword string) *KeyringManager {
	return &KeyringManager{
		fileKeyring: NewFileKeyring(keyringPath, masterPassword),
		useFile:     true,
	}
}

// UsesFile reports whether secrets are kept in the encrypted file.
func (km *KeyringManager) UsesFile() bool {
	return km.useFile
}

// Set stores a value in the keyring (system or file)
func (km *KeyringManager) Set(service, user, secret string) error {
	if !km.useFile {
		return keyring.Set(service, user, secret)
	}
	return km.fileKeyring.Set(service, user, secret)
}

// Get retrieves a value from the keyring (system or file)
func (km *KeyringManager) Get(service, user string) (string, error) {
	if !km.useFile {
		secret, err := keyring.Get(service, user)
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return secret, err
	}
	return km.fileKeyring.Get(service, user)
}

// Delete removes a value from the keyring (system or file)
func (km *KeyringManager) Delete(service, user string) error {
	if !km.useFile {
		err := keyring.Delete(service, user)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return km.fileKeyring.Delete(service, user)
}

// NewFileKeyring creates a new file-based keyring
func NewFileKeyring(keyringPath, masterPassword string) *FileKeyring {
	hash := sha256.Sum256([]byte(masterPassword))

	return &FileKeyring{
		keyringPath: keyringPath,
		masterKey:   hash[:],
	}
}

// encrypt encrypts plaintext using AES-GCM
func (fk *FileKeyring) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(fk.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts ciphertext using AES-GCM
func (fk *FileKeyring) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(fk.masterKey)
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

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt keyring entry (wrong master password?): %w", err)
	}

	return string(plaintext), nil
}

func (fk *FileKeyring) load() (map[string]KeyringEntry, error) {
	entries := make(map[string]KeyringEntry)

	data, err := os.ReadFile(fk.keyringPath)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring file: %w", err)
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse keyring file: %w", err)
	}
	return entries, nil
}

func (fk *FileKeyring) save(entries map[string]KeyringEntry) error {
	if err := os.MkdirAll(filepath.Dir(fk.keyringPath), 0700); err != nil {
		return fmt.Errorf("failed to create keyring directory: %w", err)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	return os.WriteFile(fk.keyringPath, data, 0600)
}

// Set stores an entry in the file keyring
func (fk *FileKeyring) Set(service, user, secret string) error {
	fk.mu.Lock()
	defer fk.mu.Unlock()

	entries, err := fk.load()
	if err != nil {
		return err
	}

	encrypted, err := fk.encrypt(secret)
	if err != nil {
		return err
	}

	entries[entryKey(service, user)] = KeyringEntry{
		Service: service,
		User:    user,
		Data:    encrypted,
	}

	return fk.save(entries)
}

// Get retrieves an entry from the file keyring
func (fk *FileKeyring) Get(service, user string) (string, error) {
	fk.mu.Lock()
	defer fk.mu.Unlock()

	entries, err := fk.load()
	if err != nil {
		return "", err
	}

	entry, exists := entries[entryKey(service, user)]
	if !exists {
		return "", ErrNotFound
	}

	return fk.decrypt(entry.Data)
}

// Delete removes an entry from the file keyring
func (fk *FileKeyring) Delete(service, user string) error {
	fk.mu.Lock()
	defer fk.mu.Unlock()

	entries, err := fk.load()
	if err != nil {
		return err
	}

	key := entryKey(service, user)
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)

	return fk.save(entries)
}

func entryKey(service, user string) string {
	return fmt.Sprintf("%s:%s", service, user)
}

// Lookup returns a variable lookup for descriptor resolution. Names of the
// form "keyring:service/user" are read from store; every other name is
// passed to next (os.LookupEnv when nil).
func Lookup(store Store, next func(string) (string, bool)) func(string) (string, bool) {
	if next == nil {
		next = os.LookupEnv
	}
	return func(name string) (string, bool) {
		ref, ok := strings.CutPrefix(name, Prefix)
		if !ok {
			return next(name)
		}
		service, user, ok := strings.Cut(ref, "/")
		if !ok || service == "" || user == "" {
			return "", false
		}
		secret, err := store.Get(service, user)
		if err != nil {
			return "", false
		}
		return secret, true
	}
}

// GetMasterPasswordFromEnv gets master password from environment variable
func GetMasterPasswordFromEnv() string {
	if password := os.Getenv("REDB_CONNECT_KEYRING_PASSWORD"); password != "" {
		return password
	}
	// Default password for development (change this in production!)
	return "default-master-password-change-me"
}

// GetDefaultKeyringPath returns the default keyring file path
func GetDefaultKeyringPath() string {
	if path := os.Getenv("REDB_CONNECT_KEYRING_PATH"); path != "" {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "redb-connect-keyring.json")
	}
	return filepath.Join(homeDir, ".local", "share", "redb-connect", "keyring.json")
}
