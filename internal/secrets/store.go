// Package secrets keeps API tokens in the OS keyring, with an encrypted file
// fallback on systems without a keyring service.
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/99designs/keyring"
	"golang.org/x/term"

	"github.com/salmonumbrella/mdoutline/internal/config"
)

// Token modes. Encrypted graphs only accept writes through the Append API.
const (
	ModeCloud     = "cloud"
	ModeEncrypted = "encrypted"
)

const (
	envKeyringBackend  = "MDOUTLINE_KEYRING_BACKEND"
	envKeyringPassword = "MDOUTLINE_KEYRING_PASSWORD"
	tokenKeyPrefix     = "token:"
	keyringOpenTimeout = 5 * time.Second
)

var errKeyringTimeout = errors.New("timed out opening keyring")

// keyringOpenFunc is swapped in tests.
var keyringOpenFunc = keyring.Open

// Token is a stored credential.
type Token struct {
	Profile   string    `json:"profile"`
	Value     string    `json:"value"`
	Mode      string    `json:"mode,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists tokens by profile name.
type Store interface {
	Keys() ([]string, error)
	SetToken(profile string, tok Token) error
	GetToken(profile string) (Token, error)
	DeleteToken(profile string) error
	ListTokens() ([]Token, error)
}

// KeyringStore is a Store backed by a keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// KeyringBackendInfo is the configured backend and where it came from.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

// ResolveKeyringBackend reads the backend from the environment, then the
// config file, defaulting to auto.
func ResolveKeyringBackend() KeyringBackendInfo {
	if v := strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))); v != "" {
		return KeyringBackendInfo{Value: v, Source: "env"}
	}
	if cfg, err := config.ReadConfig(); err == nil && strings.TrimSpace(cfg.KeyringBackend) != "" {
		return KeyringBackendInfo{Value: strings.ToLower(strings.TrimSpace(cfg.KeyringBackend)), Source: "config"}
	}
	return KeyringBackendInfo{Value: "auto", Source: "default"}
}

// OpenDefault opens the keyring selected by ResolveKeyringBackend.
func OpenDefault() (Store, error) {
	info := ResolveKeyringBackend()
	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")

	keyringDir, err := config.EnsureKeyringDir()
	if err != nil {
		return nil, err
	}

	cfg := keyring.Config{
		ServiceName:              config.AppName,
		KeychainTrustApplication: true,
		FileDir:                  keyringDir,
		FilePasswordFunc:         filePassword,
	}

	switch {
	case info.Value == "file" || shouldForceFileBackend(runtime.GOOS, info, dbusAddr):
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	case info.Value == "keychain":
		cfg.AllowedBackends = []keyring.BackendType{keyring.KeychainBackend}
	case info.Value != "auto":
		return nil, fmt.Errorf("invalid keyring backend %q (expected auto, keychain, or file)", info.Value)
	}

	var ring keyring.Keyring
	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		ring, err = openKeyringWithTimeout(cfg, keyringOpenTimeout)
	} else {
		ring, err = keyringOpenFunc(cfg)
	}
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	return &KeyringStore{ring: ring}, nil
}

// shouldForceFileBackend reports whether auto mode must use the file
// backend: Linux without a D-Bus session has no Secret Service.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr == ""
}

// shouldUseKeyringTimeout reports whether opening may hang on a Secret
// Service prompt.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr != ""
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	done := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		done <- result{ring: ring, err: err}
	}()

	select {
	case res := <-done:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s; set %s=file to use the encrypted file backend", errKeyringTimeout, timeout, envKeyringBackend)
	}
}

func filePassword(prompt string) (string, error) {
	if v := os.Getenv(envKeyringPassword); v != "" {
		return v, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("%s is required for the file keyring when stdin is not a terminal", envKeyringPassword)
	}
	fmt.Fprintf(os.Stderr, "%s: ", prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// wrapKeychainError adds unlock instructions to locked-keychain errors.
func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	if msg := err.Error(); strings.Contains(msg, "errSecInteractionNotAllowed") || IsKeychainLockedError(msg) {
		return fmt.Errorf("%w\n\nThe keychain is locked. Unlock it with:\n  security unlock-keychain %s", err, loginKeychainPath())
	}
	return err
}

// Keys lists all keyring keys.
func (s *KeyringStore) Keys() ([]string, error) {
	return s.ring.Keys()
}

// SetToken stores tok under profile.
func (s *KeyringStore) SetToken(profile string, tok Token) error {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return errors.New("missing profile")
	}
	if tok.Value == "" {
		return errors.New("missing token")
	}
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}
	tok.Profile = profile

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	return wrapKeychainError(s.ring.Set(keyring.Item{
		Key:   tokenKeyPrefix + profile,
		Data:  data,
		Label: config.AppName + " " + profile,
	}))
}

// GetToken loads the token stored under profile.
func (s *KeyringStore) GetToken(profile string) (Token, error) {
	item, err := s.ring.Get(tokenKeyPrefix + strings.TrimSpace(profile))
	if err != nil {
		return Token{}, wrapKeychainError(err)
	}
	var tok Token
	if err := json.Unmarshal(item.Data, &tok); err != nil {
		return Token{}, fmt.Errorf("decode token: %w", err)
	}
	return tok, nil
}

// DeleteToken removes the token stored under profile. A missing token is
// not an error.
func (s *KeyringStore) DeleteToken(profile string) error {
	err := s.ring.Remove(tokenKeyPrefix + strings.TrimSpace(profile))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return wrapKeychainError(err)
	}
	return nil
}

// ListTokens returns all stored tokens sorted by profile.
func (s *KeyringStore) ListTokens() ([]Token, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	var out []Token
	for _, key := range keys {
		if !strings.HasPrefix(key, tokenKeyPrefix) {
			continue
		}
		tok, err := s.GetToken(strings.TrimPrefix(key, tokenKeyPrefix))
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Profile < out[j].Profile })
	return out, nil
}
