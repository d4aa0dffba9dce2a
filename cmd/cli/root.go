package main

import (
	"io"

	"github.com/akeren/clawsec-waitlist/config"
	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// NewRootCommand builds a fresh command tree so tests can run commands in isolation.
func NewRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "cli",
		Short:         "Operator commands for the Clawsec waitlist service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")

	logger := func(cmd *cobra.Command) *log.Logger {
		if logLevel != "" {
			return log.NewLogger(cmd.ErrOrStderr(), logLevel)
		}
		return log.NewLoggerWithJSONOutput()
	}

	root.AddCommand(
		newMigrateCommand(logger),
		newCountCommand(logger),
		newParticlesCommand(),
		newDemoCommand(),
	)
	return root
}

type loggerFunc func(cmd *cobra.Command) *log.Logger

// loadEnv reads .env once per command so CLI runs see the same settings as the server.
func loadEnv(logger *log.Logger) {
	config.InitializeEnvFile(logger)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
