package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	_ "compliance/cmd/compliance-service/docs"
	"compliance/internal/check"
	"compliance/internal/config"
	"compliance/internal/constants"
	"compliance/internal/ingest"
	"compliance/internal/logger"
	"compliance/internal/report"
	"compliance/internal/rules"
	"compliance/pkg/logging"
)

var (
	configFile string
)

// @title           Compliance Service API
// @version         1.0
// @description     REST API for managing compliance check rules and running checks against meeting minutes
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.example.com/support
// @contact.email  support@example.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @schemes   http https

func main() {
	rootCmd := &cobra.Command{
		Use:   "compliance-service",
		Short: "Compliance rule engine for meeting minutes",
		Long:  "Compliance Service manages check rules and validates structured records against them",
		RunE:  serveCmd().RunE,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (required)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(rulesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config and logger and initializes the App. The returned
// cleanup shuts the App down.
func setup(ctx context.Context) (*App, logger.Logger, func(), error) {
	earlyLog := logging.NewEarlyLog()

	if configFile == "" {
		configFile = os.Getenv("CONFIG_FILE")
		if configFile == "" {
			earlyLog.Error("Config file is required. Use --config flag or CONFIG_FILE environment variable")
			return nil, nil, nil, fmt.Errorf("config file is required")
		}
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		earlyLog.Error("Failed to load config: %v", err)
		return nil, nil, nil, err
	}

	log, err := logger.New(cfg.Logging.Level,
		logger.WithEncoding(cfg.Logging.Format),
		logger.WithServiceName(constants.ServiceName),
	)
	if err != nil {
		earlyLog.Error("Failed to init logger: %v", err)
		return nil, nil, nil, err
	}

	app := NewApp(cfg, log)
	if err := app.Initialize(ctx); err != nil {
		log.Sync()
		return nil, nil, nil, err
	}

	cleanup := func() {
		if err := app.Shutdown(context.Background()); err != nil {
			log.ErrorwCtx(context.Background(), "Shutdown error", "error", err)
		}
		log.Sync()
	}
	return app, log, cleanup, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the compliance service",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			app, log, _, err := setup(ctx)
			if err != nil {
				return err
			}
			defer log.Sync()

			log.InfowCtx(ctx, "Starting Compliance Service")

			if err := app.Serve(ctx); err != nil {
				log.ErrorwCtx(ctx, "Application error", "error", err)
				return err
			}
			return nil
		},
	}
}

func checkCmd() *cobra.Command {
	var (
		deep     bool
		mode     string
		saveToKB bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "check [patterns...]",
		Short: "Check record files against the configured rules",
		Long: "Runs one check over the JSON/YAML files matched by the given glob patterns " +
			"(e.g. \"minutes/**/*.yaml\") and prints the report.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			artifacts, err := ingest.LoadFiles(args)
			if err != nil {
				return err
			}

			app, log, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := app.lifecycle.Start(ctx, check.Request{
				Artifacts:    artifacts,
				DeepAnalysis: deep,
				Mode:         report.Mode(mode),
				SaveToKB:     saveToKB,
			})
			if err != nil {
				return err
			}

			if err := app.lifecycle.WaitNarrative(ctx); err != nil {
				log.WarnwCtx(ctx, "Narrative did not finish", "error", err)
			}

			doc, location, err := app.lifecycle.Export(ctx)
			if err != nil && doc.Body == nil {
				return err
			}
			if err != nil {
				log.WarnwCtx(ctx, "Report was not written to the report directory", "error", err)
			}

			if output != "" {
				if err := os.WriteFile(output, doc.Body, 0o644); err != nil {
					return err
				}
				location = output
			} else {
				os.Stdout.Write(doc.Body)
			}

			log.InfowCtx(ctx, "Check finished",
				"run_id", snap.RunID,
				"total", snap.Summary.Total,
				"warnings", snap.Summary.Warnings,
				"errors", snap.Summary.Errors,
				"report", location,
			)

			if snap.Summary.Errors > 0 {
				return fmt.Errorf("%d compliance errors found", snap.Summary.Errors)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "Stream an external review after the local rules")
	cmd.Flags().StringVar(&mode, "mode", "", "Check mode: local_rules, local_rules_with_review or export_prompt")
	cmd.Flags().BoolVar(&saveToKB, "save-to-kb", false, "Mark the report as saved to the knowledge base")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to this file instead of stdout")
	return cmd
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect or reset the stored rule collection",
	}
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesSeedCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the stored rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, _, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			return printRules(app, app.store.List(ctx), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json or yaml")
	return cmd
}

func rulesSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace the stored rules with the default rule set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, log, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			seeded, err := app.store.Seed(ctx)
			if err != nil {
				return err
			}
			log.InfowCtx(ctx, "Rule slot reseeded", "key", app.store.Key(), "count", len(seeded))
			return printRules(app, seeded, "table")
		},
	}
}

func printRules(app *App, list []rules.CheckRule, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "yaml":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(list)
	case "table", "":
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tFIELDS\tCONSTRAINTS\tPROTECTED")
		for _, r := range list {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%t\n", r.ID, r.Name, len(r.Fields), len(r.Constraints), app.store.IsProtected(r.ID))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
