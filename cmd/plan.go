package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/abhisek/studyplan/internal/config"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <profile.json|->",
	Short: "Generate a study plan from a profile file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := readProfile(args[0], cmd.InOrStdin())
		if err != nil {
			return err
		}

		client := newAPIClient(clientBaseURL(cmd))
		res, err := client.generate(cmd.Context(), profile)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, renderMeta(res.PlanID, res.StudentID))
		// The first turn is the generated prompt.
		if len(res.Chat) > 1 {
			printTranscript(out, res.Chat[1:])
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{planCmd, chatCmd} {
		c.Flags().String("api", "", "API base URL (overrides STUDYPLAN_API_BASE_URL)")
	}
}

func readProfile(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read profile from stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return b, nil
}

func clientBaseURL(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("api"); u != "" {
		return u
	}
	_ = config.LoadDotEnv()
	return config.Load().APIBaseURL
}
