package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/logo-redact/internal/config"
	"github.com/ironsheep/logo-redact/internal/detection"
	"github.com/ironsheep/logo-redact/internal/logger"
	"github.com/ironsheep/logo-redact/internal/pipeline"
	"github.com/ironsheep/logo-redact/internal/server"
	"github.com/ironsheep/logo-redact/internal/sink"
	"github.com/ironsheep/logo-redact/internal/vision"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// jobFlags are the per-job settings shared by run and detect.
type jobFlags struct {
	autoThreshold   float64
	reviewThreshold float64
	formatKey       string
	roi             string
	detector        string
	policy          string
	fill            string
	pages           string
	debugPreview    bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	d := pipeline.DefaultSettings()
	cmd.Flags().Float64Var(&f.autoThreshold, "auto-threshold", d.AutoThreshold, "score at or above which a plausible match is removed")
	cmd.Flags().Float64Var(&f.reviewThreshold, "review-threshold", d.ReviewThreshold, "score at or above which a page is flagged for review")
	cmd.Flags().StringVar(&f.formatKey, "format", d.FormatKey, "format profile key")
	cmd.Flags().StringVar(&f.roi, "roi", string(d.ROI), "search zone: auto, bottom-right, bottom, footer, page")
	cmd.Flags().StringVar(&f.detector, "detector", string(d.DetectorMode), "detector mode: deterministic, ai-probe, ai-cut")
	cmd.Flags().StringVar(&f.policy, "page-failure", string(d.PageFailurePolicy), "page failure policy: abort, degrade")
	cmd.Flags().StringVar(&f.fill, "fill", string(d.FillStrategy), "fill colour strategy: sampled, brand")
	cmd.Flags().StringVar(&f.pages, "pages", "", "pages to process, e.g. 1,3-5 (default all)")
	cmd.Flags().BoolVar(&f.debugPreview, "debug-preview", false, "write per-page preview PNGs to LOGO_REDACT_DEBUG_DIR")
}

func (f *jobFlags) settings() (pipeline.Settings, error) {
	s := pipeline.DefaultSettings()
	s.AutoThreshold = f.autoThreshold
	s.ReviewThreshold = f.reviewThreshold
	s.FormatKey = f.formatKey
	s.ROI = detection.ROI(f.roi)
	s.DetectorMode = detection.Mode(f.detector)
	s.PageFailurePolicy = pipeline.FailurePolicy(f.policy)
	s.FillStrategy = pipeline.FillStrategy(f.fill)
	s.DebugPreview = f.debugPreview
	if f.pages != "" {
		pages, err := pipeline.ParsePages(f.pages)
		if err != nil {
			return s, err
		}
		s.Pages = pages
	}
	s.Normalize()
	return s, s.Validate()
}

// app is the process-wide state built from the environment.
type app struct {
	cfg    *config.Config
	engine *pipeline.Engine
	blobs  *sink.BlobStore
}

func newApp() (*app, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	var profiles config.Profiles
	if cfg.ProfilesFile != "" {
		if profiles, err = config.LoadProfiles(cfg.ProfilesFile); err != nil {
			return nil, err
		}
	}

	var prober detection.Prober
	if cfg.Vision.APIKey != "" {
		prober = vision.NewClient(vision.Config{
			BaseURL:  cfg.Vision.BaseURL,
			APIKey:   cfg.Vision.APIKey,
			Model:    cfg.Vision.Model,
			Timeout:  cfg.Vision.Timeout,
			MaxWidth: cfg.Vision.MaxWidth,
		})
	}

	var blobs *sink.BlobStore
	if cfg.Storage.BlobEnabled() {
		if blobs, err = sink.NewBlobStore(cfg.Storage.AccountName, cfg.Storage.AccountKey, cfg.Storage.ServiceURL); err != nil {
			return nil, err
		}
	}

	engine, err := pipeline.NewEngine(cfg, profiles, prober)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, engine: engine, blobs: blobs}, nil
}

func (a *app) read(ctx context.Context, location string) ([]byte, error) {
	src, err := sink.Resolve(location, a.blobs)
	if err != nil {
		return nil, err
	}
	return src.Read(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		logger.WithError(err).Error("Command failed")
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "logo-redact",
		Short:         "Detect and redact logos in the footer of PDF documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("log-level") {
				logger.SetLevel(logLevel)
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(runCmd(), detectCmd(), templatesCmd(), serveCmd(), versionCmd())
	return root
}

func runCmd() *cobra.Command {
	var (
		flags             jobFlags
		input, output     string
		auditPath         string
		forceFooterBanner bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Redact one document and write the result and its audit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := flags.settings()
			if err != nil {
				return err
			}
			settings.ForceFooterBanner = forceFooterBanner

			a, err := newApp()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			data, err := a.read(ctx, input)
			if err != nil {
				return err
			}
			req := pipeline.Request{Input: data, Settings: settings}
			if req.Output, err = sink.Resolve(output, a.blobs); err != nil {
				return err
			}
			if auditPath != "" {
				if req.Audit, err = sink.Resolve(auditPath, a.blobs); err != nil {
					return err
				}
			}

			res, err := a.engine.Run(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", "input PDF or image (path or az://container/blob)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output PDF (path or az://container/blob)")
	cmd.Flags().StringVar(&auditPath, "audit", "", "audit JSON destination")
	cmd.Flags().BoolVar(&forceFooterBanner, "force-footer-banner", false, "replace the footer band on every page without detection")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func detectCmd() *cobra.Command {
	var (
		flags jobFlags
		input string
	)
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print page audit records without writing a document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := flags.settings()
			if err != nil {
				return err
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			data, err := a.read(cmd.Context(), input)
			if err != nil {
				return err
			}
			report, err := a.engine.Detect(cmd.Context(), data, settings)
			if err != nil {
				return err
			}
			return printJSON(cmd, report)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", "input PDF or image (path or az://container/blob)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "Build the template library and list its variants",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			lib, err := a.engine.LoadLibrary(true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "References: %s\n\n", strings.Join(lib.ReferenceNames(), ", "))
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REFERENCE\tWIDTH\tHEIGHT\tEDGES")
			for _, t := range lib.Templates {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", t.Reference, t.Width, t.Height, t.EdgeCount)
			}
			return w.Flush()
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the redaction tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			logger.WithFields(map[string]interface{}{
				"version": Version,
				"commit":  GitCommit,
			}).Debug("Starting MCP server")
			return server.New(a.engine, a.blobs, Version).Run(cmd.Context())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "logo-redact %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
