package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/proyectoj/assistant/internal/app"
	"github.com/proyectoj/assistant/internal/ui"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep checking the server until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		a, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		styles := ui.GetTheme(flags.theme).Styles()
		out := cmd.OutOrStdout()
		a.Watch(ctx, watchInterval, func(s app.Status) {
			fmt.Fprintln(out, ui.RenderStatus(styles, s))
		})
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 10*time.Second, "time between checks while healthy")
}
