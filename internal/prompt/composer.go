// Package prompt composes the instruction text sent to the LLM for a new
// study plan.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/studyplan/internal/content"
	"github.com/abhisek/studyplan/internal/logger"
)

const taskInstructions = `## TASK
Using the information below, write a personalized study plan for the student.
The plan must include:

1. A short personalized introduction addressed to the student
2. A week-by-week distribution of the course content
3. A time estimate for every activity
4. Progress milestones and small, reachable goals

Respect the student's available hours per day and current knowledge level.
Do not schedule study sessions on holidays.`

const noneInformed = "None informed"

// Composer builds plan-generation prompts from static content and a
// learner profile.
type Composer struct {
	loader *content.Loader
	log    *logger.Logger
}

// NewComposer returns a Composer reading static files through loader.
func NewComposer(loader *content.Loader, log *logger.Logger) *Composer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Composer{loader: loader, log: log}
}

// Check verifies that every static file loads. It is meant to run at
// startup so a broken deployment fails before serving traffic.
func (c *Composer) Check() error {
	_, err := c.loadStatic()
	return err
}

type staticContent struct {
	course     any
	guidelines string
	calendar   Calendar
	calErr     error
}

func (c *Composer) loadStatic() (*staticContent, error) {
	course, err := c.loader.Load(content.FileCourseContent)
	if err != nil {
		return nil, &ConfigError{File: content.FileCourseContent, Err: err}
	}
	guidelines, err := c.loader.Text(content.FileGuidelines)
	if err != nil {
		return nil, &ConfigError{File: content.FileGuidelines, Err: err}
	}
	if _, err := c.loader.Load(content.FileCalendar); err != nil {
		return nil, &ConfigError{File: content.FileCalendar, Err: err}
	}

	sc := &staticContent{course: course, guidelines: strings.TrimSpace(guidelines)}
	// The file is valid JSON at this point; a shape mismatch only costs
	// the calendar section.
	sc.calErr = c.loader.DecodeJSON(content.FileCalendar, &sc.calendar)
	return sc, nil
}

// Compose returns the full prompt for p. Sections appear in a fixed
// order: task, guidelines, course content, calendar, profile.
func (c *Composer) Compose(p Profile) (string, error) {
	sc, err := c.loadStatic()
	if err != nil {
		return "", err
	}

	course, err := json.MarshalIndent(sc.course, "", "  ")
	if err != nil {
		return "", &ConfigError{File: content.FileCourseContent, Err: err}
	}

	calendar := calendarPlaceholder
	if sc.calErr != nil {
		c.log.Warn("calendar data unusable, using placeholder", "error", sc.calErr)
	} else if section, err := calendarSection(sc.calendar, p.StartDate); err != nil {
		c.log.Warn("calendar info unavailable, using placeholder", "error", err)
	} else {
		calendar = section
	}

	sections := []string{
		taskInstructions,
		"## GUIDELINES\nFollow these guidelines when building the plan:\n\n" + sc.guidelines,
		"## COURSE CONTENT\nThe course contains the following material:\n\n" + string(course),
		calendar,
		profileSection(p),
	}
	return strings.Join(sections, "\n\n"), nil
}

func profileSection(p Profile) string {
	var b strings.Builder

	b.WriteString("## STUDENT PROFILE\n")
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	if !p.StartDate.IsZero() {
		fmt.Fprintf(&b, "Start date: %s\n", p.StartDate.Format(dateLayout))
	}

	b.WriteString("\n### Weekly availability\n")
	wrote := false
	for _, day := range Weekdays {
		if h := p.Availability[day]; h > 0 {
			fmt.Fprintf(&b, "- %s: %d %s\n", titleCase(day), h, plural(h, "hour", "hours"))
			wrote = true
		}
	}
	if !wrote {
		b.WriteString("- No hours informed\n")
	}

	b.WriteString("\n### Knowledge level\n")
	fmt.Fprintf(&b, "- Python: %s\n", p.Skills.Python)
	fmt.Fprintf(&b, "- SQL: %s\n", p.Skills.SQL)
	fmt.Fprintf(&b, "- Cloud: %s\n", p.Skills.Cloud)

	b.WriteString("\n### Tool experience\n")
	fmt.Fprintf(&b, "- Git/GitHub: %s\n", yesNo(p.UsedGit))
	fmt.Fprintf(&b, "- Docker: %s\n", yesNo(p.UsedDocker))

	b.WriteString("\n### Additional interests\n")
	if len(p.Interests) > 0 {
		b.WriteString(strings.Join(p.Interests, ", "))
	} else {
		b.WriteString(noneInformed)
	}

	b.WriteString("\n\n### Current challenge\n")
	if ch := strings.TrimSpace(p.MainChallenge); ch != "" {
		b.WriteString(ch)
	} else {
		b.WriteString(noneInformed)
	}

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
