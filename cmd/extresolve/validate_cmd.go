package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/bayleafwalker/bindery-resolver/internal/logger"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
)

func createValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Validate manifest files without resolving",
		Long: `Validate checks every document of the given files or directories against the
manifest schema, then checks each ExtensionManifest's coordinates, scopes,
exclusion patterns and trigger sets.`,
		Args: cobra.MinimumNArgs(1),
		RunE: executeValidate,
	}
}

func executeValidate(cmd *cobra.Command, args []string) error {
	log := logger.Logger()

	loader, err := manifest.NewLoader()
	if err != nil {
		return err
	}
	set, err := loader.LoadPaths(args...)
	if err != nil {
		return err
	}

	var errs error
	for i := range set.Extensions {
		ext := &set.Extensions[i]
		if err := manifest.Validate(ext); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ExtensionManifest %s: %w", ext.Name, err))
			continue
		}
		log.Debugf("ExtensionManifest %s is valid", ext.Name)
	}
	if errs != nil {
		return errs
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d application(s) and %d extension manifest(s) valid\n",
		len(set.Applications), len(set.Extensions))
	return nil
}
