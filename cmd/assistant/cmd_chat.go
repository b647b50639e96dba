package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/proyectoj/assistant/internal/ui"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message...]",
	Short: "Send a message to the assistant",
	Long: `Send a message and print the reply. With no arguments, each line read from
stdin is sent as its own message until EOF.`,
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	styles := ui.GetTheme(flags.theme).Styles()
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		reply, err := a.Chat(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, ui.RenderReply(styles, reply))
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		reply, err := a.Chat(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.RenderError(styles, err))
			continue
		}
		fmt.Fprintln(out, ui.RenderReply(styles, reply))
	}
	return scanner.Err()
}
