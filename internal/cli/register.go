package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veerbhadra0524/lumina/internal/session"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long: `Create a new account and sign in.

You will be asked for a display name, email, and password. The password
must be at least 6 characters.`,
	Args: cobra.NoArgs,
	RunE: runRegister,
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	name, err := promptLine("Name")
	if err != nil {
		return err
	}
	email, err := promptLine("Email")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		terminal.ShowError("Passwords do not match.")
		return fmt.Errorf("registration failed")
	}

	ctrl := session.New(provider, api, terminal, logger)
	ctrl.Start()
	defer ctrl.Close()

	if err := ctrl.SignUp(ctx, name, email, password); err != nil {
		return fmt.Errorf("registration failed")
	}
	return nil
}
