package cmd

import (
	"fmt"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var useRedirect bool

var googleCmd = &cobra.Command{
	Use:   "google",
	Short: "Sign in with Google",
	Long: `Sign in with Google in the browser.

With --redirect the consent page is opened and the command exits. The provider
then redirects to GOOGLE_REDIRECT_URL; pass that URL to 'interviewer run
--callback-url' to finish signing in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if useRedirect {
			res := client.Gateway.BeginGoogleRedirect(cmd.Context())
			if !res.Success {
				return userError(res.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Continue signing in at:\n%s\n", res.Value)
			if err := browser.OpenURL(res.Value); err != nil {
				appLogger.Warn(cmd.Context(), "Could not open the browser", map[string]any{"error": err.Error()})
			}
			return nil
		}

		res := client.Gateway.SignInWithGoogle(cmd.Context())
		if res.Value != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (ID: %s)\n", res.Value.Email, res.Value.UID)
		}
		if !res.Success {
			return userError(res.Err)
		}
		return nil
	},
}

func init() {
	googleCmd.Flags().BoolVar(&useRedirect, "redirect", false, "use the redirect flow instead of a local callback")
	rootCmd.AddCommand(googleCmd)
}
