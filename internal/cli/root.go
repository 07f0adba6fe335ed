// Package cli implements quillctl, the operator command line for schema
// migrations, fixtures, classifier training and token maintenance.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillhq/quill/internal/config"
	"github.com/quillhq/quill/internal/logging"
)

// Execute runs quillctl and exits non-zero on failure.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		newPrinter(os.Stderr).fail("%v", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "quillctl",
		Short:         "Quill operator tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if envFile != "" {
				os.Setenv("ENV_FILE", envFile)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to read before the environment (default .env)")

	cmd.AddCommand(migrateCmd(), seedCmd(), modelCmd(), tokensCmd())
	return cmd
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

// quietLogger discards service logs below warn; the CLI reports progress itself.
func quietLogger(w io.Writer) *slog.Logger {
	return logging.New(w, logging.Options{Level: "warn", Format: "text"})
}
