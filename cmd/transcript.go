package cmd

import (
	"fmt"
	"io"

	"github.com/abhisek/studyplan/internal/api"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

func renderMeta(planID, studentID int) string {
	return theme.Title.Render(fmt.Sprintf("Study plan #%d", planID)) + "  " +
		theme.Meta.Render(fmt.Sprintf("student %d · continue with: studyplan chat %d \"<message>\"", studentID, planID))
}

// printTranscript writes each turn under a role label. Assistant replies
// are printed as-is so markdown stays copyable.
func printTranscript(w io.Writer, turns []api.Turn) {
	for _, t := range turns {
		switch t.Role {
		case "user":
			fmt.Fprintln(w, theme.UserLabel.Render("You"))
			fmt.Fprintln(w, theme.UserCard.Render(t.Content))
		default:
			fmt.Fprintln(w, theme.AssistantLabel.Render("Planner"))
			fmt.Fprintln(w, t.Content)
		}
		fmt.Fprintln(w)
	}
}
