package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/bayleafwalker/bindery-resolver/internal/classpath"
	"github.com/bayleafwalker/bindery-resolver/internal/config"
	"github.com/bayleafwalker/bindery-resolver/internal/logger"
	"github.com/bayleafwalker/bindery-resolver/internal/manifest"
	"github.com/bayleafwalker/bindery-resolver/internal/publish"
	"github.com/bayleafwalker/bindery-resolver/internal/resolver"
)

// Resolve command flags
var (
	appPath          string
	extensionPaths   []string
	configPath       string
	resolveFormat    string
	publishPlan      bool
	strictExclusions bool
	maxPasses        int
)

// newPublisher is swapped out by tests.
var newPublisher = publish.NewNATSPublisher

func createResolveCommand() *cobra.Command {
	resolveCmd := &cobra.Command{
		Use:   "resolve --app FILE --extensions PATH [flags]",
		Short: "Resolve an application against a set of extension manifests",
		Long: `Resolve loads the Application from --app and every ExtensionManifest found in
the --extensions files or directories, computes the dependency closure and
prints the plan: both classpaths, the deployment graph and diagnostics.`,
		Args: cobra.NoArgs,
		RunE: executeResolve,
	}

	resolveCmd.Flags().StringVar(&appPath, "app", "", "Application manifest file")
	resolveCmd.Flags().StringSliceVar(&extensionPaths, "extensions", nil, "ExtensionManifest files or directories (repeatable)")
	resolveCmd.Flags().StringVar(&configPath, "config", "", "Resolver configuration file")
	resolveCmd.Flags().StringVar(&resolveFormat, "format", "", "Output format: yaml, json or text (default from config)")
	resolveCmd.Flags().BoolVar(&publishPlan, "publish", false, "Publish a resolution event on NATS")
	resolveCmd.Flags().BoolVar(&strictExclusions, "strict-exclusions", false, "Fail on exclusions that match no package")
	resolveCmd.Flags().IntVar(&maxPasses, "max-passes", 0, "Cap on closure passes (0 runs to convergence)")
	_ = resolveCmd.MarkFlagRequired("app")
	return resolveCmd
}

// loadResolveConfig layers command flags over the file and environment configuration.
func loadResolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format = resolveFormat
	}
	if cmd.Flags().Changed("publish") {
		cfg.Publish.Enabled = publishPlan
	}
	if cmd.Flags().Changed("strict-exclusions") {
		cfg.StrictExclusions = strictExclusions
	}
	if cmd.Flags().Changed("max-passes") {
		cfg.MaxPasses = maxPasses
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func executeResolve(cmd *cobra.Command, _ []string) error {
	log := logger.Logger()

	cfg, err := loadResolveConfig(cmd)
	if err != nil {
		return err
	}

	loader, err := manifest.NewLoader()
	if err != nil {
		return err
	}
	appSet, err := loader.LoadPaths(appPath)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	app, err := appSet.Application()
	if err != nil {
		return fmt.Errorf("%s: %w", appPath, err)
	}
	exts := appSet.Extensions
	if len(extensionPaths) > 0 {
		extSet, err := loader.LoadPaths(extensionPaths...)
		if err != nil {
			return fmt.Errorf("load extensions: %w", err)
		}
		exts = append(exts, extSet.Extensions...)
	}
	log.Infof("Resolving application %s against %d extension manifest(s)", app.Name, len(exts))

	conv, err := manifest.NewConverter(0)
	if err != nil {
		return err
	}
	in, err := conv.Input(app, exts)
	if err != nil {
		return fmt.Errorf("invalid manifests: %w", err)
	}
	in.Options = cfg.ResolverOptions()
	if in.PlatformVersion == "" {
		in.PlatformVersion = cfg.PlatformVersion
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	plan, err := resolver.NewDefault().Resolve(ctx, in)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", app.Name, err)
	}
	log.Infof("Resolved %d artifact(s) in %d pass(es), run %s", len(plan.Dependencies), plan.Passes, plan.RunID)
	for _, u := range plan.Diagnostics.Unsatisfied {
		log.Debugf("Conditional dependency %s not activated", u.Package)
	}
	for _, w := range plan.Diagnostics.Warnings {
		log.Warnf("%s %s: %s", w.Kind, w.Package, w.Message)
	}

	if err := writePlan(cmd.OutOrStdout(), cfg.Output.Format, plan); err != nil {
		return err
	}

	if cfg.Publish.Enabled {
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pub, err := newPublisher(pctx, cfg.Publish.NATSURL)
		if err != nil {
			return err
		}
		defer pub.Close()
		ev := publish.NewResolutionEvent(app.Namespace, app.Name, plan, time.Now())
		if err := publish.PublishResolution(pctx, pub, cfg.Publish.Subject, ev); err != nil {
			return err
		}
		log.Infof("Published resolution event on %s", cfg.Publish.Subject)
	}
	return nil
}

func writePlan(w io.Writer, format string, plan resolver.Plan) error {
	switch strings.ToLower(format) {
	case config.FormatJSON:
		b, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		_, _ = fmt.Fprintln(w, string(b))
		return nil
	case config.FormatYAML, "":
		b, err := yaml.Marshal(plan)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = w.Write(b)
		return err
	case config.FormatText:
		renderPlanText(w, plan)
		return nil
	default:
		return fmt.Errorf("invalid --format %q (expected yaml|json|text)", format)
	}
}

func renderPlanText(w io.Writer, plan resolver.Plan) {
	fmt.Fprintf(w, "Run %s (%d passes)\n", plan.RunID, plan.Passes)

	fmt.Fprintln(w, "Runtime classpath:")
	for _, d := range classpath.RuntimeClasspath(plan.Dependencies) {
		fmt.Fprintf(w, "  %s [%s]\n", d.Coordinate, d.RuntimeScope)
	}
	fmt.Fprintln(w, "Deployment classpath:")
	for _, d := range classpath.DeploymentClasspath(plan.Dependencies) {
		fmt.Fprintf(w, "  %s [%s]\n", d.Coordinate, d.DeploymentScope)
	}

	if len(plan.DeploymentGraph.Nodes) > 0 {
		fmt.Fprintln(w, "Deployment graph:")
		for _, n := range plan.DeploymentGraph.Nodes {
			deps := make([]string, 0, len(n.DependsOn))
			for _, d := range n.DependsOn {
				deps = append(deps, d.String())
			}
			if len(deps) == 0 {
				fmt.Fprintf(w, "  %s\n", n.Artifact)
				continue
			}
			fmt.Fprintf(w, "  %s -> %s\n", n.Artifact, strings.Join(deps, ", "))
		}
	}

	if len(plan.Diagnostics.Unsatisfied) > 0 {
		fmt.Fprintln(w, "Not activated:")
		for _, u := range plan.Diagnostics.Unsatisfied {
			by := make([]string, 0, len(u.OfferedBy))
			for _, o := range u.OfferedBy {
				by = append(by, o.Key().String())
			}
			missing := make([]string, 0, len(u.MissingTriggers))
			for _, m := range u.MissingTriggers {
				missing = append(missing, m.String())
			}
			fmt.Fprintf(w, "  %s offered by %s, missing %s\n", u.Package.Key(), strings.Join(by, ", "), strings.Join(missing, ", "))
		}
	}

	if len(plan.Diagnostics.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range plan.Diagnostics.Warnings {
			fmt.Fprintf(w, "  %s %s: %s\n", warn.Kind, warn.Package, warn.Message)
		}
	}
}
