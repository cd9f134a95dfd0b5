package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/studyplan/internal/api"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat <plan-id> <message>",
	Short: "Ask for changes to an existing plan",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		planID, err := strconv.Atoi(args[0])
		if err != nil || planID < 1 {
			return fmt.Errorf("invalid plan id %q", args[0])
		}
		message := strings.TrimSpace(strings.Join(args[1:], " "))
		if message == "" {
			return fmt.Errorf("message is empty")
		}

		ctx := cmd.Context()
		client := newAPIClient(clientBaseURL(cmd))
		chat, err := client.planChat(ctx, planID)
		if err != nil {
			return err
		}

		turn := api.Turn{Role: "user", Content: message}
		res, err := client.continueChat(ctx, planID, append(chat, turn))
		if err != nil {
			return err
		}

		printTranscript(cmd.OutOrStdout(), res.Chat[len(res.Chat)-2:])
		return nil
	},
}
