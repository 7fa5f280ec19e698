package secrets

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/99designs/keyring"
)

func TestWrapKeychainError(t *testing.T) {
	if wrapKeychainError(nil) != nil {
		t.Fatal("wrapKeychainError(nil) should stay nil")
	}

	other := errors.New("item not found")
	if got := wrapKeychainError(other); got != other {
		t.Errorf("unrelated errors pass through unchanged, got %v", got)
	}

	locked := fmt.Errorf("set token: errSecInteractionNotAllowed -25308")
	wrapped := wrapKeychainError(locked)
	if !errors.Is(wrapped, locked) {
		t.Errorf("wrapped error should keep the cause")
	}
	if !strings.Contains(wrapped.Error(), "security unlock-keychain") {
		t.Errorf("locked keychain error should explain the unlock, got %q", wrapped)
	}
}

func TestKeyringStore_TokenRoundTrip(t *testing.T) {
	store := &KeyringStore{ring: keyring.NewArrayKeyring(nil)}

	if err := store.SetToken("default", Token{Value: "secret", Mode: ModeEncrypted}); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}
	if err := store.SetToken("graph:default", Token{Value: "notes"}); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}

	tok, err := store.GetToken("default")
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if tok.Value != "secret" || tok.Mode != ModeEncrypted || tok.Profile != "default" || tok.CreatedAt.IsZero() {
		t.Errorf("GetToken() = %+v", tok)
	}

	tokens, err := store.ListTokens()
	if err != nil {
		t.Fatalf("ListTokens() error = %v", err)
	}
	if len(tokens) != 2 || tokens[0].Profile != "default" || tokens[1].Profile != "graph:default" {
		t.Errorf("ListTokens() = %+v", tokens)
	}

	if err := store.DeleteToken("default"); err != nil {
		t.Fatalf("DeleteToken() error = %v", err)
	}
	if _, err := store.GetToken("default"); err == nil {
		t.Error("GetToken() after delete expected error")
	}
	if err := store.DeleteToken("default"); err != nil {
		t.Errorf("DeleteToken() of missing token = %v, want nil", err)
	}
}

func TestKeyringStore_SetTokenValidation(t *testing.T) {
	store := &KeyringStore{ring: keyring.NewArrayKeyring(nil)}

	if err := store.SetToken(" ", Token{Value: "x"}); err == nil {
		t.Error("SetToken() with blank profile expected error")
	}
	if err := store.SetToken("default", Token{}); err == nil {
		t.Error("SetToken() with empty value expected error")
	}
}
