package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var forgetCmd = &cobra.Command{
	Use:   "forget",
	Short: "Drop the remembered server address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		a.Forget()
		fmt.Fprintln(cmd.OutOrStdout(), "forgot remembered server")
		return nil
	},
}
