package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Happyholic1203/cursor-arm/config"
	"github.com/Happyholic1203/cursor-arm/internal/logging"
	"github.com/Happyholic1203/cursor-arm/internal/target"
	"github.com/Happyholic1203/cursor-arm/internal/tools"
)

const defaultLogLevel = "info"

// requiredTools are checked before any pipeline work begins: patchelf
// rewrites the AppImage interpreter, unzip unpacks the Cursor bundle.
var requiredTools = []string{"patchelf", "unzip"}

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("build interrupted", "error", err)
			os.Exit(130)
		}
		logger.Error("build failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	var (
		logLevel      = defaultLogLevel
		configPath    string
		cursorVersion string
		codiumVersion string
		downloadDir   string
		buildDir      string
		distDir       string
	)

	root := &cobra.Command{
		Use:   "cursor-arm <target>",
		Short: "Assemble Cursor desktop builds for ARM Linux",
		Long: "cursor-arm combines a Cursor editor release with a VSCodium base\n" +
			"distribution and packages the result as a tar archive and an AppImage.\n\n" +
			"Supported targets: " + strings.Join(target.Advertised(), ", "),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Usage()
				return fmt.Errorf("expected exactly one target argument, got %d", len(args))
			}
			return nil
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLogLevel(logLevel)
			if err != nil {
				return err
			}
			levelVar.Set(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			targetID := strings.TrimSpace(args[0])
			if targetID == "" {
				return fmt.Errorf("target identifier is required")
			}

			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			applyFlag(cmd, "cursor-version", &cfg.CursorVersion, cursorVersion)
			applyFlag(cmd, "codium-version", &cfg.CodiumVersion, codiumVersion)
			applyFlag(cmd, "download-dir", &cfg.DownloadDir, downloadDir)
			applyFlag(cmd, "build-dir", &cfg.BuildDir, buildDir)
			applyFlag(cmd, "dist-dir", &cfg.DistDir, distDir)

			if err := tools.Verify(requiredTools...); err != nil {
				return err
			}

			artifact, err := config.Assemble(cmd.Context(), targetID, cfg, logger)
			if err != nil {
				if errors.Is(err, target.ErrUnsupportedTarget) {
					logger.Error("unrecognized target",
						"target", targetID,
						"supported", strings.Join(target.Advertised(), ", "),
					)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Build complete. Artifacts written to %s:\n  %s\n  %s\n",
				cfg.DistDir, artifact.TarPath, artifact.ImagePath)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.Flags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	root.Flags().StringVar(&cursorVersion, "cursor-version", "", "Cursor version to build, or 'latest'")
	root.Flags().StringVar(&codiumVersion, "codium-version", "", "VSCodium base version")
	root.Flags().StringVar(&downloadDir, "download-dir", "", "Directory for cached downloads")
	root.Flags().StringVar(&buildDir, "build-dir", "", "Directory for build working trees")
	root.Flags().StringVar(&distDir, "dist-dir", "", "Directory for final artifacts")

	return root
}

func applyFlag(cmd *cobra.Command, name string, dst *string, value string) {
	if cmd.Flags().Changed(name) {
		*dst = value
	}
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}
