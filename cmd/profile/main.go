// Command profile builds elevation profiles from GeoJSON files without the
// API server. Logs go to stderr; the profile is written to stdout or --out.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samirrijal/elevprofile/internal/pkg/config"
	"github.com/samirrijal/elevprofile/internal/pkg/logging"
)

var (
	cfg      *config.Config
	logLevel string

	rootCmd = &cobra.Command{
		Use:           "profile",
		Short:         "Build linear-referenced elevation profiles from GeoJSON lines",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load("elevprofile-cli")
			if err != nil {
				return err
			}
			cfg = c
			level := cfg.Log.Level
			if logLevel != "" {
				level = logLevel
			}
			logging.SetupTo(os.Stderr, level, "text")
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	rootCmd.AddCommand(newBuildCmd(), newTileCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
