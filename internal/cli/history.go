package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veerbhadra0524/lumina/internal/chat"
	"github.com/Veerbhadra0524/lumina/internal/history"
	"github.com/Veerbhadra0524/lumina/internal/session"
)

var historyCachedOnly bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your conversations",
	Long: `List past conversations with message counts and last activity.

With --cached the locally stored snapshot is shown without contacting the
backend.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyCachedOnly, "cached", false, "show the local snapshot only")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sidecar := history.New(api, terminal, chat.New(api, terminal, logger), history.NewCache(cfg.CacheDir), logger)

	if historyCachedOnly {
		sidecar.SeedFromCache()
		return nil
	}

	ctrl := session.New(provider, api, terminal, logger)
	ctrl.Start()
	defer ctrl.Close()

	resumed, err := ctrl.Resume(ctx)
	if err != nil {
		return fmt.Errorf("session verification failed")
	}
	if !resumed {
		terminal.ShowAuth()
		return nil
	}

	return sidecar.LoadConversations(ctx)
}
