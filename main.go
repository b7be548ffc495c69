package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"diabetesrisk/config"
	rhttp "diabetesrisk/http"
	"diabetesrisk/logging"
	"diabetesrisk/ml"
	"diabetesrisk/risk"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

// exitErr carries a numeric exit code through the cobra error path.
type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func codeError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

func main() {
	var configPath string
	root := &cobra.Command{
		Use:           "diabetesrisk",
		Short:         "Estimate diabetes risk from eight clinical measurements",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the web form and the JSON/websocket API",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		newAssessCommand(&configPath),
		&cobra.Command{
			Use:   "inspect",
			Short: "Load the artifacts and print what they contain",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInspect(cmd.Context(), cmd.OutOrStdout(), configPath)
			},
		},
	)

	if err := root.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, "Error:", ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, codeError(2, "loading config: %s", err)
	}
	logger, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, nil, codeError(2, "building logger: %s", err)
	}
	return cfg, logger, nil
}

func loadArtifacts(ctx context.Context, cfg *config.Config) (*ml.Artifacts, error) {
	artifacts, err := ml.LoadArtifacts(ctx, cfg.Artifacts.ScalerPath, cfg.Artifacts.ModelPath, cfg.Artifacts.ModelType)
	if err != nil {
		return nil, codeError(3, "loading artifacts: %s", err)
	}
	return artifacts, nil
}

func runServe(ctx context.Context, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	artifacts, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("artifacts loaded",
		zap.String("model", ml.DescribeModel(artifacts.Model)),
		zap.String("scaler_path", artifacts.ScalerPath),
		zap.String("model_path", artifacts.ModelPath))

	store := ml.NewStore(artifacts, logger)
	assessor, err := risk.NewAssessor(store, cfg.Cache.Size, logger)
	if err != nil {
		return codeError(2, "building assessor: %s", err)
	}
	app, err := rhttp.NewApp(assessor, store, logger)
	if err != nil {
		return err
	}
	server := rhttp.NewServer(rhttp.ServerConfig{
		Port:         cfg.Http.Port,
		Timeout:      cfg.Http.Timeout,
		MaxBodyBytes: cfg.Http.MaxBodyBytes,
	}, app, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	if cfg.Artifacts.Watch {
		g.Go(func() error {
			return ml.NewWatcher(store, logger).Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return server.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newAssessCommand(configPath *string) *cobra.Command {
	var asJSON bool
	values := make(map[string]*float64)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score one set of measurements and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := url.Values{}
			for key, v := range values {
				if cmd.Flags().Changed(key) {
					form.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
				}
			}
			return runAssess(cmd.Context(), cmd.OutOrStdout(), *configPath, ml.ParseForm(form), asJSON)
		},
	}

	f := cmd.Flags()
	for _, field := range ml.InputFields() {
		values[field.Key] = f.Float64(field.Key, field.Default,
			fmt.Sprintf("%s (%g to %g)", field.Label, field.Min, field.Max))
	}
	f.BoolVar(&asJSON, "json", false, "Print the assessment as JSON")
	return cmd
}

func runAssess(ctx context.Context, out io.Writer, configPath string, inputs ml.Measurements, asJSON bool) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	artifacts, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return err
	}
	assessor, err := risk.NewAssessor(ml.NewStore(artifacts, logger), 0, logger)
	if err != nil {
		return codeError(2, "building assessor: %s", err)
	}
	assessment, err := assessor.Assess(ctx, inputs)
	if err != nil {
		return codeError(4, "assessment failed: %s", err)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	}
	printAssessment(out, assessment)
	return nil
}

func printAssessment(out io.Writer, a *risk.Assessment) {
	fmt.Fprintf(out, "Prediction: %s (%s)\n", a.Verdict, a.Delta)
	fmt.Fprintf(out, "%s %s\n", a.Message.Icon, a.Message.Headline)
	for _, line := range a.Message.Bullets {
		fmt.Fprintf(out, "  - %s\n", line)
	}
	for _, line := range a.Message.Paragraphs {
		fmt.Fprintf(out, "  %s\n", line)
	}
	fmt.Fprintln(out, "\nFeature impact (|scaled value|):")
	for _, impact := range a.Impacts {
		fmt.Fprintf(out, "  %-26s %6.3f\n", impact.Feature, impact.Impact)
	}
}

func runInspect(ctx context.Context, out io.Writer, configPath string) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	artifacts, err := loadArtifacts(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "model:  %s (%s)\n", ml.DescribeModel(artifacts.Model), artifacts.ModelPath)
	fmt.Fprintf(out, "scaler: %s\n", artifacts.ScalerPath)
	fmt.Fprintf(out, "  %-26s %10s %10s\n", "feature", "mean", "scale")
	for i, name := range ml.FeatureNames() {
		fmt.Fprintf(out, "  %-26s %10.4f %10.4f\n", name, artifacts.Scaler.Mean[i], artifacts.Scaler.Scale[i])
	}
	return nil
}
