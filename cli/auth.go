// ABOUTME: Google OAuth CLI commands
// ABOUTME: Handles consent URL, local browser login, connection status, and logout
package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Connect the Google Calendar account",
}

var authURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the Google consent URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{requireGoogle: true}, func(ctx context.Context, a *app) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.tokens.AuthURL())
			return nil
		})
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open the browser and complete the OAuth flow locally",
	Long: `Starts a one-shot listener on GOOGLE_REDIRECT_URI, opens the consent page,
and stores the credential once Google redirects back.`,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a Google credential is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{requireGoogle: true}, func(ctx context.Context, a *app) error {
			out := cmd.OutOrStdout()
			if a.tokens.Connected(ctx) {
				fmt.Fprintln(out, "✓ Connected to Google Calendar")
			} else {
				fmt.Fprintln(out, "✗ Not connected. Run 'prospecta auth login'.")
			}
			return nil
		})
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the stored Google credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, appOptions{requireGoogle: true}, func(ctx context.Context, a *app) error {
			if err := a.tokens.Disconnect(ctx); err != nil {
				return fmt.Errorf("failed to remove credential: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Disconnected")
			return nil
		})
	},
}

var authLoginFlags struct {
	Timeout   time.Duration
	NoBrowser bool
}

func init() {
	authLoginCmd.Flags().DurationVar(&authLoginFlags.Timeout, "timeout", 5*time.Minute, "How long to wait for the redirect")
	authLoginCmd.Flags().BoolVar(&authLoginFlags.NoBrowser, "no-browser", false, "Only print the consent URL")

	authCmd.AddCommand(authURLCmd, authLoginCmd, authStatusCmd, authLogoutCmd)
	RootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	return withApp(cmd, appOptions{requireGoogle: true}, func(ctx context.Context, a *app) error {
		redirect, err := url.Parse(a.cfg.Google.RedirectURI)
		if err != nil {
			return fmt.Errorf("invalid redirect URI: %w", err)
		}

		listener, err := net.Listen("tcp", redirect.Host)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
		}

		done := make(chan error, 1)
		finish := func(err error) {
			select {
			case done <- err:
			default:
			}
		}
		mux := http.NewServeMux()
		mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
			if e := r.URL.Query().Get("error"); e != "" {
				http.Error(w, "Authorization failed: "+e, http.StatusBadRequest)
				finish(fmt.Errorf("authorization denied: %s", e))
				return
			}
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "No authorization code received", http.StatusBadRequest)
				finish(errors.New("no authorization code received"))
				return
			}
			if _, err := a.tokens.ExchangeCode(r.Context(), code); err != nil {
				http.Error(w, "Failed to exchange authorization code", http.StatusInternalServerError)
				finish(err)
				return
			}
			_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
			finish(nil)
		})

		server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				finish(err)
			}
		}()
		defer func() { _ = server.Shutdown(context.Background()) }()

		out := cmd.OutOrStdout()
		authURL := a.tokens.AuthURL()
		fmt.Fprintln(out, "Opening browser for Google OAuth...")
		fmt.Fprintf(out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
		if !authLoginFlags.NoBrowser {
			_ = openBrowser(authURL)
		}

		select {
		case err := <-done:
			if err != nil {
				return fmt.Errorf("OAuth flow failed: %w", err)
			}
		case <-time.After(authLoginFlags.Timeout):
			return errors.New("timed out waiting for the OAuth redirect")
		case <-ctx.Done():
			return ctx.Err()
		}

		fmt.Fprintln(out, "✓ Authenticated successfully")
		fmt.Fprintln(out, "Ready to sync! Run 'prospecta calendar sync'.")
		return nil
	})
}

func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	return exec.Command(cmd, args...).Start()
}
