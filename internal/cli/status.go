package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session state",
	Long: `Show whether a provider session is stored locally and whether the
backend still accepts it.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cred := provider.Current()
	if cred == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	label := cred.DisplayName
	if label == "" {
		label = cred.Email
	}
	fmt.Printf("Stored session: %s (%s)\n", label, cred.Email)

	status, err := api.Status(ctx)
	if err != nil {
		fmt.Println("Backend session: unreachable")
		logger.Debug("status check failed", "error", err)
		return nil
	}
	if status.Authenticated {
		fmt.Printf("Backend session: active (%s)\n", status.User.Email)
	} else {
		fmt.Println("Backend session: expired, run 'lumina chat' to re-verify")
	}
	return nil
}
