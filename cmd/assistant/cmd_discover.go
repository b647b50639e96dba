package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/proyectoj/assistant/internal/ui"
)

var discoverPlain bool

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find the assistant server and remember it",
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverPlain, "plain", false, "print the endpoint only, without the spinner")
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}

	if discoverPlain || !isatty.IsTerminal(os.Stdout.Fd()) {
		snap, err := a.Discover(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", snap.Candidate.Endpoint, snap.Candidate.Source, snap.ResolvedAt.Format(time.RFC3339))
		return nil
	}

	_, err = ui.RunDiscovery(ctx, a.Discover, ui.Options{ThemeName: flags.theme})
	return err
}
