// Package cli implements minepanelctl, the operator command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"minepanel/internal/auth"
	"minepanel/internal/config"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "minepanelctl",
		Short:         "Operator tools for the MinePanel dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHashPasswordCmd(), newCheckConfigCmd(), newPanelCmd())
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash (reads stdin when no argument is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = strings.TrimRight(string(raw), "\r\n")
			}
			if password == "" {
				return fmt.Errorf("password is empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the environment and .env file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Environment:     %s\n", cfg.AppEnv)
			fmt.Fprintf(out, "Port:            %s\n", cfg.Port)
			fmt.Fprintf(out, "Record store:    %s\n", cfg.StoreBackend)
			fmt.Fprintf(out, "Session store:   %s (ttl %s)\n", cfg.SessionBackend, cfg.SessionTTL)
			fmt.Fprintf(out, "Discord login:   %t\n", cfg.DiscordEnabled())
			fmt.Fprintf(out, "Secure cookies:  %t\n", cfg.SecureCookies)
			fmt.Fprintf(out, "Key encryption:  %t\n", cfg.EncryptionKey != "")
			return nil
		},
	}
}
