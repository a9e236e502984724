package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pilab-dev/shadow-interview/internal/app"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Host the app: finish any redirect sign-in and follow the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		host := client.Host
		unwatch := host.Watch(func(s app.State) {
			who := "signed out"
			if s.Session != nil {
				who = s.Session.Email
			}
			fmt.Fprintf(out, "[%s] %s\n", s.Route, who)
		})
		defer unwatch()

		host.Start(ctx)
		if err := host.WaitReady(ctx); err != nil {
			return err
		}
		appLogger.Info(ctx, "Host ready, press Ctrl+C to exit")

		<-ctx.Done()
		appLogger.Info(cmd.Context(), "Shutting down host")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&callbackURL, "callback-url", "",
		"URL the provider redirected to, completes a pending Google sign-in")
	rootCmd.AddCommand(runCmd)
}
