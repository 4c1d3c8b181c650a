package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-blackjack/internal/auth"
	"github.com/vovakirdan/wirechat-blackjack/internal/config"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token for a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			token, err := issueToken(cfg, args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name embedded in the token")
	return cmd
}

func issueToken(cfg *config.Config, userID, name string) (string, error) {
	svc := auth.NewService(&auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
	return svc.IssueToken(userID, name)
}
