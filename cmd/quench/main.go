// Command quench compiles TypeScript sources down to ES5 JavaScript
// with source maps.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/quenchjs/quench/internal/driver"
)

var version = "0.3.0"

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: false,
		Prefix:          "quench",
	})

	var (
		configPath string
		outDir     string
		moduleKind string
		sourceMap  bool
		inlineMap  bool
		watch      bool
		verbose    bool
	)

	root := &cobra.Command{
		Use:           "quench",
		Short:         "TypeScript to ES5 compiler",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	build := &cobra.Command{
		Use:   "build [files...]",
		Short: "Compile TypeScript files to ES5",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if len(args) > 0 {
				cfg.Include = args
			}
			if outDir != "" {
				cfg.OutDir = outDir
			}
			if cmd.Flags().Changed("module") {
				cfg.Module = moduleKind
			}
			if cmd.Flags().Changed("sourcemap") {
				cfg.IncludeSourceMap = sourceMap
			}
			if cmd.Flags().Changed("inline-sourcemap") {
				cfg.InlineSourceMap = inlineMap
				if inlineMap {
					cfg.IncludeSourceMap = false
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := driver.New(cfg, logger)
			if watch {
				err := c.Watch(ctx)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
			return c.Run(ctx)
		},
	}
	build.Flags().StringVarP(&configPath, "config", "c", "quench.yaml", "path to quench.yaml")
	build.Flags().StringVarP(&outDir, "out-dir", "o", "", "output directory")
	build.Flags().StringVarP(&moduleKind, "module", "m", "commonjs", "module lowering: commonjs or none")
	build.Flags().BoolVar(&sourceMap, "sourcemap", false, "emit external .js.map files")
	build.Flags().BoolVar(&inlineMap, "inline-sourcemap", false, "embed the source map in the output")
	build.Flags().BoolVarP(&watch, "watch", "w", false, "recompile on file changes")
	root.AddCommand(build)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the quench version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("quench " + version)
		},
	})

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when the
// default path does not exist.
func loadConfig(path string) (driver.Config, error) {
	cfg, err := driver.LoadConfig(path)
	if err != nil {
		if os.IsNotExist(err) && path == "quench.yaml" {
			return driver.DefaultConfig(), nil
		}
		return driver.Config{}, err
	}
	return cfg, nil
}
