package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/dataflow/config"
	"github.com/kbukum/dataflow/logger"
	"github.com/kbukum/dataflow/version"
)

const serviceName = "sdfsched"

var (
	flagConfig   string
	flagEnvFile  string
	flagLogLevel string
	flagNoColor  bool

	appConfig *config.AppConfig
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Static scheduler and buffer allocator for synchronous dataflow graphs",
		Long: `sdfsched reads a synchronous or cyclo-static dataflow graph, computes a
periodic static schedule and sizes every FIFO, then plans the buffer memory
the FIFOs share. It runs one-shot from the command line or as an HTTP service.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup()
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "Service configuration file (default: search sdfsched.yml, config.yml)")
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Environment file loaded before SDFSCHED_* variables are read")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	root.AddCommand(scheduleCmd())
	root.AddCommand(legalizeCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(serveCmd())

	return root
}

// setup loads the service configuration and installs the global logger.
func setup() error {
	opts := []config.LoaderOption{config.WithEnvPrefix("SDFSCHED")}
	if flagConfig != "" {
		opts = append(opts, config.WithConfigFile(flagConfig))
	}
	if flagEnvFile != "" {
		opts = append(opts, config.WithEnvFile(flagEnvFile))
	}

	cfg, err := config.LoadApp(serviceName, opts...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
		if err := cfg.Logging.Validate(); err != nil {
			return err
		}
	}
	if flagNoColor {
		cfg.Logging.NoColor = true
		disableColor()
	}

	logger.SetGlobalLogger(logger.New(&cfg.Logging, cfg.Name))
	appConfig = cfg
	return nil
}
