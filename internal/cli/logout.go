package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veerbhadra0524/lumina/internal/session"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if provider.Current() == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	ctrl := session.New(provider, api, terminal, logger)
	ctrl.Start()
	defer ctrl.Close()

	ctrl.SignOut(ctx)
	return nil
}
