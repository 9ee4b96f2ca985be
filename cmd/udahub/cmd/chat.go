package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/udahub/udahub/internal/router"
)

var chatEmail string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive support conversation",
	Run:   runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatEmail, "email", "e", "", "Customer email for account lookups")
}

func runChat(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		fatal(err)
	}
	defer a.close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	sessionID := "chat:" + uuid.NewString()
	color.Cyan("UDA-Hub support chat (session %s)", sessionID)
	fmt.Println("Type your message, or /quit to exit.")

	for {
		input, err := line.Prompt("you> ")
		if err != nil {
			// Ctrl-C or Ctrl-D ends the session.
			fmt.Println()
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			return
		}
		line.AppendHistory(input)

		turn, err := a.engine.HandleTurn(ctx, router.Request{
			SessionID:     sessionID,
			CustomerEmail: chatEmail,
			Message:       input,
		})
		if err != nil {
			color.Red("error: %v", err)
			continue
		}

		if turn.Escalated {
			color.Yellow("-- escalated to a human specialist --")
		}
		color.Green("udahub> %s", turn.Reply)
	}
}
