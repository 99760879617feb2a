package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"booking-escalator/internal/auth"
)

func newTokenCommand() *cobra.Command {
	var (
		secret  string
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an invoker token for the platform's Authorization header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return fmt.Errorf("a secret is required (--secret or INVOKER_JWT_SECRET)")
			}
			tok, err := auth.GenerateInvokerToken(subject, secret, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("INVOKER_JWT_SECRET"), "HMAC secret shared with the server")
	cmd.Flags().StringVar(&subject, "subject", "appwrite", "invoker identity")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultInvokerTokenTTL, "token lifetime")
	return cmd
}
