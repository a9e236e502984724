package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	serrors "github.com/pilab-dev/shadow-interview/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	email       string
	displayName string
)

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account with email and password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, password, err := readCredentials(cmd)
		if err != nil {
			return err
		}
		res := client.Gateway.SignUp(cmd.Context(), addr, password, displayName)
		if res.Value != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Signed up as %s (ID: %s)\n", res.Value.Email, res.Value.UID)
		}
		if !res.Success {
			return userError(res.Err)
		}
		return nil
	},
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with email and password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, password, err := readCredentials(cmd)
		if err != nil {
			return err
		}
		res := client.Gateway.SignIn(cmd.Context(), addr, password)
		if !res.Success {
			return userError(res.Err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (ID: %s)\n", res.Value.Email, res.Value.UID)
		return nil
	},
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "End the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if res := client.Gateway.LogOut(cmd.Context()); !res.Success {
			return userError(res.Err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoAmICmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := client.Gateway.CurrentUser()
		if s == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (ID: %s, provider: %s, expires: %s)\n",
			s.Email, s.UID, s.ProviderID, s.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

// readCredentials takes the email from --email or the command input and reads
// the password without echo when that input is a terminal.
func readCredentials(cmd *cobra.Command) (string, string, error) {
	src := cmd.InOrStdin()
	in := bufio.NewReader(src)
	out := cmd.OutOrStdout()

	addr := email
	if addr == "" {
		fmt.Fprint(out, "Enter email: ")
		line, err := in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", "", fmt.Errorf("failed to read email: %w", err)
		}
		addr = strings.TrimSpace(line)
	}

	fmt.Fprint(out, "Enter password: ")
	if fd, ok := terminalFd(src); ok {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		return addr, string(b), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	return addr, strings.TrimRight(line, "\r\n"), nil
}

// terminalFd returns the descriptor of r when r is a terminal.
func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

// userError turns a gateway failure into the message meant for the user.
func userError(err error) error {
	ae := serrors.From(err)
	if ae == nil {
		return nil
	}
	if ae.Retryable() {
		return fmt.Errorf("%s (%s, try again)", ae.Message, ae.Code)
	}
	return fmt.Errorf("%s (%s)", ae.Message, ae.Code)
}

func init() {
	for _, c := range []*cobra.Command{signUpCmd, signInCmd} {
		c.Flags().StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	}
	signUpCmd.Flags().StringVarP(&displayName, "name", "n", "", "display name (defaults to the email local part)")

	rootCmd.AddCommand(signUpCmd, signInCmd, signOutCmd, whoAmICmd)
}
