// Package main provides the dev-tools extraction service entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/PakStar92/dev-tools/internal/core"
	"github.com/PakStar92/dev-tools/internal/flood"
	httpserver "github.com/PakStar92/dev-tools/internal/http"
	"github.com/PakStar92/dev-tools/pkg/medialink"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "devtools",
	Short: "Direct video URL extraction service",
	Long: `devtools serves a small web tool that resolves a video page URL into
direct CDN download links by querying several conversion services
concurrently. No media bytes are stored or proxied.`,
	RunE: runServer,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json, console)")
	rootCmd.PersistentFlags().String("server-host", "0.0.0.0", "HTTP server bind host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Duration("resolver-timeout", 30*time.Second, "per-adapter upstream HTTP timeout")
	rootCmd.PersistentFlags().Duration("convert-delay", time.Second, "politeness delay between two-phase requests")
	rootCmd.PersistentFlags().Int("flood-limit", 10, "extraction requests per client per minute (0 disables)")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
	}

	viper.SetEnvPrefix("DEVTOOLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	if host := viper.GetString("server-host"); host != "" {
		cfg.Server.Host = host
	}
	if port := viper.GetInt("server-port"); port != 0 {
		cfg.Server.Port = port
	}

	cfg.Log.Level = viper.GetString("log-level")
	if format := viper.GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}

	if timeout := viper.GetDuration("resolver-timeout"); timeout > 0 {
		cfg.Resolver.HTTPTimeout = timeout
	}
	if delay := viper.GetDuration("convert-delay"); delay >= 0 {
		cfg.Resolver.ConvertDelay = delay
	}
	cfg.Flood.RequestsPerMinute = viper.GetInt("flood-limit")

	return cfg
}

func buildLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if strings.ToLower(format) == "console" {
		cfg.Encoding = "console"
	}

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runServer(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting dev-tools extractor",
		zap.Duration("resolver_timeout", config.Resolver.HTTPTimeout),
		zap.Duration("convert_delay", config.Resolver.ConvertDelay))

	settings := medialink.Settings{
		HTTPTimeout:  config.Resolver.HTTPTimeout,
		ConvertDelay: config.Resolver.ConvertDelay,
	}
	manager := medialink.NewManager(
		logger.Named("medialink"),
		medialink.WithResolvers(medialink.DefaultResolvers(settings)...),
		medialink.WithQualityScores(config.Resolver.QualityScores),
	)

	var gate *flood.Floodgate
	if config.Flood.RequestsPerMinute > 0 {
		gate = flood.New(config.Flood.RequestsPerMinute)
		defer gate.Stop()
	}

	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"), manager, gate)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return httpServer.Start(gCtx)
	})

	logger.Info("dev-tools extractor started",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("dev-tools extractor stopped with error", zap.Error(err))
		return err
	}

	logger.Info("dev-tools extractor stopped gracefully")
	return nil
}
