// Command pinfill is a terminal client for the pinfill address API.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dukerupert/pinfill/internal"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/spf13/cobra"
)

var (
	apiURL   string
	timeout  time.Duration
	logLevel string

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pinfill",
	Short: "Indian pincode lookup and address entry",
	Long: `pinfill talks to a running pinfill server.

Use "lookup" for a one-off pincode query, or "form" to fill a shipping and
billing address interactively with city and state filled from the pincode.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = internal.NewLogger(os.Stderr, "dev", logLevel)
		if timeout <= 0 {
			return fmt.Errorf("--timeout must be positive")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("PINCODE_API_URL", "http://localhost:3000"), "pinfill server URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", pincode.DefaultTimeout, "per-request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "debug, info, warn or error")

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(formCmd)
}

func newClient() (*pincode.Client, error) {
	return pincode.NewClient(pincode.ClientConfig{BaseURL: apiURL, Timeout: timeout})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
