package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/pilab-dev/shadow-interview/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormat string

var profileCmd = &cobra.Command{
	Use:   "profile [uid]",
	Short: "Show a user profile (the signed-in user's by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var uid domain.UserID
		if len(args) == 1 {
			uid = domain.UserID(args[0])
		} else if s := client.Gateway.CurrentUser(); s != nil {
			uid = s.UID
		} else {
			return errors.New("not signed in; pass a uid")
		}

		res := client.Gateway.GetUserProfile(cmd.Context(), uid)
		if !res.Success {
			return userError(res.Err)
		}
		return printProfile(cmd.OutOrStdout(), res.Value, outputFormat)
	},
}

func printProfile(w io.Writer, p *domain.Profile, format string) error {
	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(p)
	}
	return fmt.Errorf("unknown output format %q (want yaml or json)", format)
}

func init() {
	profileCmd.Flags().StringVarP(&outputFormat, "output", "o", "yaml", "output format: yaml or json")
	rootCmd.AddCommand(profileCmd)
}
