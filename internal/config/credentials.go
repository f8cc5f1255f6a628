package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/zalando/go-keyring"
	"golang.org/x/term"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "gitcontribs"

	// KeyringTokenItem is the key for the remote clone token
	KeyringTokenItem = "remote-token"
)

// tokenEnvVars are checked in order before the keychain. A token is only
// needed when cloning private remotes over HTTPS.
var tokenEnvVars = []string{"GITCONTRIBS_GIT_TOKEN", "GITHUB_TOKEN", "GH_TOKEN"}

// ResolveRemoteToken retrieves the clone token using the priority chain:
// environment variables, then the OS keychain. Returns "" when no token is
// configured - anonymous clones are the common case.
func ResolveRemoteToken() string {
	for _, envVar := range tokenEnvVars {
		if token := os.Getenv(envVar); token != "" {
			return token
		}
	}

	token, err := keyring.Get(KeyringService, KeyringTokenItem)
	if err != nil {
		// keyring.ErrNotFound or no keychain on this system
		return ""
	}
	return token
}

// StoreRemoteToken saves the clone token in the OS keychain.
// OS-level encryption: macOS Keychain, Windows Credential Manager,
// Linux Secret Service (requires libsecret).
func StoreRemoteToken(token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	if err := keyring.Set(KeyringService, KeyringTokenItem, token); err != nil {
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	return nil
}

// ClearRemoteToken removes the clone token from the OS keychain.
// Deleting a token that was never stored is not an error.
func ClearRemoteToken() error {
	err := keyring.Delete(KeyringService, KeyringTokenItem)
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	return nil
}

// KeyringAvailable checks if the OS keychain is usable. Returns false on
// headless systems (CI) where no secret service is running.
func KeyringAvailable() bool {
	_, err := keyring.Get(KeyringService, "availability-probe")
	if err == keyring.ErrNotFound {
		return true
	}
	return err == nil
}

// RemoteTokenSource reports where the active token comes from:
// "env", "keychain", or "none".
func RemoteTokenSource() string {
	for _, envVar := range tokenEnvVars {
		if os.Getenv(envVar) != "" {
			return "env"
		}
	}
	if token, err := keyring.Get(KeyringService, KeyringTokenItem); err == nil && token != "" {
		return "keychain"
	}
	return "none"
}

// PromptRemoteToken reads a token from stdin without echoing when stdin is
// a terminal, falling back to a plain line read for piped input.
func PromptRemoteToken() (string, error) {
	fmt.Print("Enter token: ")

	if term.IsTerminal(int(syscall.Stdin)) {
		bytes, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// MaskToken masks a token for display: "ghp_abc...wxyz"
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	if len(token) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", token[:7], token[len(token)-4:])
}
