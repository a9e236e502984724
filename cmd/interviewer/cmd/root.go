package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pilab-dev/shadow-interview/config"
	"github.com/pilab-dev/shadow-interview/internal/app"
	"github.com/pilab-dev/shadow-interview/log"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const appName = "interviewer"

var (
	cfgFile     string
	callbackURL string

	appLogger log.Logger
	client    *app.App
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "interviewer signs users in and hosts the interview session",
	Long: `A command-line client for the interview app: password and Google sign-in,
profile lookup and a long-running host that follows the signed-in session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}

		level, parseErr := zerolog.ParseLevel(cfg.LogLevel)
		if parseErr != nil {
			level = zerolog.InfoLevel
		}
		appLogger = log.NewZerologAdapter(level, cfg.LogPretty)
		zerolog.SetGlobalLevel(level)
		if cfg.LogPretty {
			zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		}
		if parseErr != nil {
			appLogger.Warn(cmd.Context(), "Invalid LOG_LEVEL configured, defaulting to 'info'", log.Fields{
				"configured_log_level": cfg.LogLevel,
			})
		}

		var opts []app.Option
		if callbackURL != "" {
			opts = append(opts, app.WithLaunchURL(callbackURL))
		}
		client, err = app.Bootstrap(cmd.Context(), cfg, appLogger, opts...)
		if err != nil {
			appLogger.Error(cmd.Context(), "Failed to initialize client", err)
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if client != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Close(ctx)
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if client != nil {
			client.Close(context.Background())
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.shadow-interview/config.yaml)")
}
