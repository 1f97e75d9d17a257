package main

import (
	"errors"
	"fmt"

	"github.com/dukerupert/pinfill/internal/form"
	"github.com/dukerupert/pinfill/internal/pincode"
	"github.com/spf13/cobra"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <pincode>",
	Short: "Print the city and state for a pincode",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	code := form.SanitizePostalCode(args[0])
	loc, err := client.Lookup(cmd.Context(), code)
	if err != nil {
		logger.Debug("lookup failed", "pincode", code, "error", err)
		return errors.New(pincode.Classify(err).Message())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %s\n", code, loc.City, loc.State)
	return nil
}
