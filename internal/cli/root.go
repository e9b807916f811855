// Package cli provides the command-line interface for lumina.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Veerbhadra0524/lumina/internal/backend"
	"github.com/Veerbhadra0524/lumina/internal/config"
	"github.com/Veerbhadra0524/lumina/internal/idp"
	"github.com/Veerbhadra0524/lumina/internal/ux"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and clients, set up in PersistentPreRunE
	cfg      config.Config
	logger   *slog.Logger
	cleanup  func() error
	api      *backend.Client
	provider *idp.HTTPProvider
	terminal *ux.Terminal
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "lumina",
	Short: "Chat with your documents from the terminal",
	Long: `Lumina is a terminal client for a document question-answering service.

Sign in once, then ask questions about your indexed documents and browse
past conversations. Answers cite the source documents they draw from.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, cleanup = config.SetupLogger(cfg.LogFile, level)
		slog.SetDefault(logger)

		api = backend.New(cfg.BackendURL, cfg.ClientTimeout)
		provider = idp.NewHTTPProvider(idp.HTTPConfig{
			BaseURL:  cfg.IdPURL,
			APIKey:   cfg.IdPAPIKey,
			CacheDir: cfg.CacheDir,
			Logger:   logger,
		})
		terminal = ux.NewTerminal(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if provider != nil {
			provider.Close()
		}
		if cleanup != nil {
			if err := cleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(chatCmd)
}
