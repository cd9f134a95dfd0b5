package prompt

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// planWeeks is how far ahead of the start date holidays are considered.
const planWeeks = 12

const dateLayout = "2006-01-02"

const calendarPlaceholder = "## CALENDAR\nDetailed calendar information could not be derived; plan with regular weeks."

// Calendar is the shape of calendar.json.
type Calendar struct {
	Holidays []Holiday `json:"holidays"`
}

// Holiday is a non-study day.
type Holiday struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

// calendarSection renders the holidays falling in the plan window.
func calendarSection(cal Calendar, start time.Time) (string, error) {
	if start.IsZero() {
		return "", fmt.Errorf("no start date")
	}
	end := start.AddDate(0, 0, planWeeks*7)

	type dated struct {
		day  time.Time
		name string
	}
	var inWindow []dated
	for _, h := range cal.Holidays {
		day, err := time.Parse(dateLayout, h.Date)
		if err != nil {
			return "", fmt.Errorf("holiday %q: %w", h.Name, err)
		}
		if !day.Before(start) && day.Before(end) {
			inWindow = append(inWindow, dated{day: day, name: h.Name})
		}
	}
	sort.Slice(inWindow, func(i, j int) bool { return inWindow[i].day.Before(inWindow[j].day) })

	var b strings.Builder
	b.WriteString("## CALENDAR\n")
	fmt.Fprintf(&b, "Plan window: %s to %s (%d weeks).\n",
		start.Format(dateLayout), end.AddDate(0, 0, -1).Format(dateLayout), planWeeks)
	if len(inWindow) == 0 {
		b.WriteString("No holidays fall in this period.")
		return b.String(), nil
	}
	b.WriteString("Holidays in this period (no study sessions):\n")
	for i, h := range inWindow {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s (%s): %s", h.day.Format(dateLayout), h.day.Weekday(), h.name)
	}
	return b.String(), nil
}
