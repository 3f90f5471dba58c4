package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/passvault/internal/domain/model"
)

var version = "dev"

func main() {
	err := newRootCmd().Execute()
	switch code := exitCode(err); code {
	case 0:
	case 2:
		slog.Error("invalid configuration", "error", err)
		os.Exit(code)
	default:
		slog.Error("fatal error", "error", err)
		os.Exit(code)
	}
}

// exitCode maps a command error to the process exit status. Configuration
// problems exit 2 so supervisors can tell them apart from runtime failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case model.IsConfigurationFailure(err):
		return 2
	default:
		return 1
	}
}

// newRootCmd builds the command tree. Running without a subcommand serves the
// API, the same as "passvault serve".
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "passvault",
		Short:         "Password generator and encrypted credential vault",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default ./passvault.yaml or $XDG_CONFIG_HOME/passvault/passvault.yaml)")
	addServeFlags(cmd)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGenerateCmd())
	cmd.AddCommand(newKeygenCmd())

	return cmd
}
