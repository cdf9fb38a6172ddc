package main

import (
	"bufio"
	"fmt"
	"strings"

	"event-registration-platform/internal/utils"

	"github.com/spf13/cobra"
)

func hashAdminKeyCmd() *cobra.Command {
	var generate bool

	cmd := &cobra.Command{
		Use:   "hash-admin-key",
		Short: "Produce an ADMIN_KEY_HASH value",
		Long: `Read an admin key from stdin (or generate one with --generate) and print its
Argon2id hash for the ADMIN_KEY_HASH setting.

Examples:
  echo -n "my-key" | paymentctl hash-admin-key
  paymentctl hash-admin-key --generate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var key string
			if generate {
				token, err := utils.GenerateSecureToken(32)
				if err != nil {
					return err
				}
				key = token
				fmt.Fprintf(out, "ADMIN_KEY=%s\n", key)
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read key from stdin: %w", err)
				}
				key = strings.TrimSpace(line)
			}

			hash, err := utils.HashSecret(key)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "ADMIN_KEY_HASH=%s\n", hash)
			return nil
		},
	}

	cmd.Flags().BoolVar(&generate, "generate", false, "generate a random key")
	return cmd
}
