package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noblesavage/site/internal/auth"
	"github.com/noblesavage/site/internal/notify"
)

func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key [key]",
		Short: "Print an argon2id hash for ADMIN_API_KEY_HASH",
		Long: `Hashes the given admin key for use in ADMIN_API_KEY_HASH.
Without an argument a new random key is generated and printed once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				key, hash, err := auth.GenerateAdminKey()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "key:  %s\n", key)
				fmt.Fprintf(out, "hash: %s\n", hash)
				return nil
			}

			hash, err := auth.HashKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, hash)
			return nil
		},
	}
}

func newGenSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-secret",
		Short: "Print a random NOTIFY_WEBHOOK_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := notify.GenerateSecret()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
}
