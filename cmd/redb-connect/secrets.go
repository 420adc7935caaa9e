package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// secretsCmd represents the secrets command
var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage keyring secrets referenced as ${keyring:service/user}",
}

var setSecretCmd = &cobra.Command{
	Use:   "set [service/user]",
	Short: "Store a secret in the keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, user, err := splitRef(args[0])
		if err != nil {
			return err
		}
		secret, err := readSecret()
		if err != nil {
			return err
		}
		km := cfg.Keyring()
		if err := km.Set(service, user, secret); err != nil {
			return fmt.Errorf("failed to store secret: %w", err)
		}
		where := "system keyring"
		if km.UsesFile() {
			where = cfg.KeyringPath
		}
		fmt.Printf("Stored %s/%s in %s\n", service, user, where)
		return nil
	},
}

var deleteSecretCmd = &cobra.Command{
	Use:   "delete [service/user]",
	Short: "Remove a secret from the keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, user, err := splitRef(args[0])
		if err != nil {
			return err
		}
		if err := cfg.Keyring().Delete(service, user); err != nil {
			return fmt.Errorf("failed to delete secret: %w", err)
		}
		fmt.Printf("Deleted %s/%s\n", service, user)
		return nil
	},
}

func splitRef(ref string) (string, string, error) {
	service, user, ok := strings.Cut(ref, "/")
	if !ok || service == "" || user == "" {
		return "", "", fmt.Errorf("expected service/user, got %q", ref)
	}
	return service, user, nil
}

// readSecret prompts without echo on a terminal and reads one line otherwise.
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Secret: ")
		b, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
