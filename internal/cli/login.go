package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stavren/modelsync/internal/config"
)

func newLoginCmd() *cobra.Command {
	var (
		username string
		role     string
		daemon   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain a daemon bearer token and save it",
		Long: `Exchanges a username and role for a bearer token at the daemon's
/token endpoint and stores it for later commands. Also prompts for the
optional catalog API key, read without echo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppContext()
			if err != nil {
				return err
			}
			defer app.close()

			if daemon != "" {
				app.cfg.Daemon.URL = daemon
			}
			if username == "" {
				username = promptLine("Username", app.cfg.Daemon.Username)
			}
			if role == "" {
				role = promptLine("Role (user/admin)", app.cfg.Daemon.Role)
			}

			token, err := app.daemon.Login(cmd.Context(), username, role)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := app.store.SaveToken(token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			apiKey, err := promptSecret("Catalog API key (optional, hidden)")
			if err != nil {
				return err
			}
			if apiKey != "" {
				app.cfg.Catalog.APIKey = apiKey
			}

			app.cfg.Daemon.Username = username
			app.cfg.Daemon.Role = role
			if err := config.SaveConfig(app.cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Printf("Logged in as %s (%s)\n", username, role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "daemon username")
	cmd.Flags().StringVarP(&role, "role", "r", "", "requested role (user or admin)")
	cmd.Flags().StringVar(&daemon, "daemon", "", "daemon base URL override")
	return cmd
}

func promptLine(label, fallback string) string {
	if fallback != "" {
		fmt.Printf("%s [%s]: ", label, fallback)
	} else {
		fmt.Printf("%s: ", label)
	}
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return fallback
	}
	return line
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line), nil
	}
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
