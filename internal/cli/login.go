package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veerbhadra0524/lumina/internal/session"
)

var loginEmail string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your account",
	Long: `Sign in with your email and password.

The session is stored locally, so later invocations of 'lumina chat' pick
it up without signing in again.

Examples:
  lumina login
  lumina login --email ada@example.com`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	email := loginEmail
	if email == "" {
		var err error
		email, err = promptLine("Email")
		if err != nil {
			return err
		}
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}

	ctrl := session.New(provider, api, terminal, logger)
	ctrl.Start()
	defer ctrl.Close()

	if err := ctrl.SignIn(ctx, email, password); err != nil {
		// The surface already showed the user-facing message.
		return fmt.Errorf("sign-in failed")
	}
	return nil
}
