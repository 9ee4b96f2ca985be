package cmd

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/udahub/udahub/internal/router"
)

var (
	runMessage string
	runSession string
	runEmail   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a single customer message and print the reply",
	Run:   runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runMessage, "message", "m", "", "Customer message (required)")
	runCmd.Flags().StringVarP(&runSession, "session", "s", "cli:default", "Session ID")
	runCmd.Flags().StringVarP(&runEmail, "email", "e", "", "Customer email for account lookups")
}

func runRun(cmd *cobra.Command, args []string) {
	if runMessage == "" {
		fatal(fmt.Errorf("--message is required"))
	}

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

	turn, err := a.engine.HandleTurn(ctx, router.Request{
		SessionID:     runSession,
		CustomerEmail: runEmail,
		Message:       runMessage,
	})
	if err != nil {
		fatal(err)
	}

	printTurn(turn)
}

func printTurn(turn *router.Turn) {
	if turn.Classification != nil {
		color.New(color.Faint).Printf("[%s | %s | %s | route=%s]\n",
			turn.Classification.IssueType, turn.Classification.Priority,
			turn.Classification.Sentiment, turn.Route)
	}
	if turn.Escalated {
		color.Yellow("-- escalated to a human specialist --")
	}
	fmt.Println(turn.Reply)
}
