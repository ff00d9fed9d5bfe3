// Command extresolve resolves an application's extension dependencies from manifest files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bayleafwalker/bindery-resolver/internal/logger"
)

var (
	logLevel string
	verbose  bool
)

func main() {
	if err := createRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func createRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "extresolve",
		Short: "Resolve extension dependencies into runtime and deployment classpaths",
		Long: `extresolve computes the closure of an application's extension dependencies,
activating conditional dependencies once their conditions hold, and prints the
resulting classpaths and deployment graph.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	root.AddCommand(createResolveCommand())
	root.AddCommand(createValidateCommand())
	attachLoggingHooks(root)
	return root
}

// attachLoggingHooks installs the logger before any subcommand runs.
func attachLoggingHooks(root *cobra.Command) {
	for _, sub := range root.Commands() {
		sub.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
			_, err := logger.Init(resolveRequestedLogLevel(cmd))
			return err
		}
	}
}

// resolveRequestedLogLevel prefers --log-level and falls back to --verbose.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
		return "debug"
	}
	return ""
}
