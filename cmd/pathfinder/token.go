package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/pathfinder/internal/config"
	"github.com/jonathan/pathfinder/internal/server"
)

var tokenUserID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a user bearer token for calling the launch endpoint",
	Long: "Signs a token with JWT_SECRET for local testing. Production tokens come " +
		"from the main application, which shares the secret.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jwtConfig, err := config.NewJWTConfig()
		if err != nil {
			return err
		}
		return issueToken(cmd.OutOrStdout(), server.NewUserTokens(jwtConfig), tokenUserID)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "User ID to issue the token for (default: a new random ID)")
	rootCmd.AddCommand(tokenCmd)
}

func issueToken(w io.Writer, tokens *server.UserTokens, rawUserID string) error {
	userID := uuid.New()
	if rawUserID != "" {
		id, err := uuid.Parse(rawUserID)
		if err != nil {
			return fmt.Errorf("invalid --user-id: %w", err)
		}
		userID = id
	}

	token, expiresAt, err := tokens.Issue(userID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "User:    %s\nExpires: %s\n\n%s\n", userID, expiresAt.UTC().Format(time.RFC3339), token)
	return nil
}
