package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jpalmerr/tcup/internal/session"
	"github.com/spf13/cobra"
)

// hashPasswordCmd prints a bcrypt hash for use as users[].password_hash.
var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a dashboard password",
	Long: `Read a password from stdin and print its bcrypt hash.

Example:
  echo -n 's3cret' | tcup hash-password`,
	RunE: runHashPassword,
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	hash, err := hashFromReader(cmd.InOrStdin())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

// hashFromReader hashes the first line of r.
func hashFromReader(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	return session.HashPassword(password)
}
