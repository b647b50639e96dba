package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/proyectoj/assistant/internal/ui"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check whether a newer build is published",
	Long: `Compare version_code from the config file with the latest build the server
publishes and print the decision. Nothing is downloaded.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		check, err := a.CheckUpdate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderUpdate(ui.GetTheme(flags.theme).Styles(), check))
		return nil
	},
}
