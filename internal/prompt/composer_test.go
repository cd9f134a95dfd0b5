package prompt

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/abhisek/studyplan/internal/content"
)

func staticFS() fstest.MapFS {
	return fstest.MapFS{
		content.FileCourseContent: {Data: []byte(`{"modules":[{"title":"Python for Data"}]}`)},
		content.FileGuidelines:    {Data: []byte("Sessions of at most 2 hours.\n")},
		content.FileCalendar: {Data: []byte(`{"holidays":[
			{"date":"2025-04-18","name":"Good Friday"},
			{"date":"2025-03-04","name":"Carnival"},
			{"date":"2025-12-25","name":"Christmas"}
		]}`)},
	}
}

func testProfile() Profile {
	return Profile{
		Name:         "Ana",
		StartDate:    time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		Availability: map[string]int{"monday": 2, "tuesday": 0, "saturday": 1},
		Skills:       Skills{Python: LevelBeginner, SQL: LevelNone, Cloud: LevelIntermediate},
		UsedGit:      true,
	}
}

func TestCompose_SectionOrder(t *testing.T) {
	c := NewComposer(content.NewLoader(staticFS()), nil)

	out, err := c.Compose(testProfile())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	headers := []string{"## TASK", "## GUIDELINES", "## COURSE CONTENT", "## CALENDAR", "## STUDENT PROFILE"}
	last := -1
	for _, h := range headers {
		idx := strings.Index(out, h)
		if idx < 0 {
			t.Fatalf("missing section %q", h)
		}
		if idx <= last {
			t.Errorf("section %q out of order", h)
		}
		last = idx
	}
}

func TestCompose_ProfileSection(t *testing.T) {
	c := NewComposer(content.NewLoader(staticFS()), nil)

	out, err := c.Compose(testProfile())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}

	for _, want := range []string{
		"Name: Ana",
		"Start date: 2025-03-03",
		"- Monday: 2 hours",
		"- Saturday: 1 hour",
		"- Python: beginner",
		"- Git/GitHub: Yes",
		"- Docker: No",
		"### Additional interests\nNone informed",
		"### Current challenge\nNone informed",
		"Sessions of at most 2 hours.",
		"Python for Data",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(out, "Tuesday") {
		t.Error("days with zero hours must be omitted")
	}
}

func TestCompose_CalendarWindow(t *testing.T) {
	c := NewComposer(content.NewLoader(staticFS()), nil)

	out, err := c.Compose(testProfile())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(out, "(12 weeks)") {
		t.Error("missing week count")
	}
	carnival := strings.Index(out, "Carnival")
	goodFriday := strings.Index(out, "Good Friday")
	if carnival < 0 || goodFriday < 0 || carnival > goodFriday {
		t.Error("holidays in window should be listed in date order")
	}
	if strings.Contains(out, "Christmas") {
		t.Error("holiday outside the window listed")
	}
}

func TestCompose_CalendarPlaceholder(t *testing.T) {
	fsys := staticFS()
	fsys[content.FileCalendar] = &fstest.MapFile{Data: []byte(`{"holidays":[{"date":"not-a-date","name":"x"}]}`)}
	c := NewComposer(content.NewLoader(fsys), nil)

	out, err := c.Compose(testProfile())
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(out, calendarPlaceholder) {
		t.Error("expected calendar placeholder")
	}
}

func TestCompose_MissingGuidelines(t *testing.T) {
	fsys := staticFS()
	delete(fsys, content.FileGuidelines)
	c := NewComposer(content.NewLoader(fsys), nil)

	_, err := c.Compose(testProfile())
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.File != content.FileGuidelines {
		t.Errorf("file = %q", cfgErr.File)
	}
	if !errors.Is(err, content.ErrNotFound) {
		t.Error("ConfigError should wrap ErrNotFound")
	}
	if err := c.Check(); err == nil {
		t.Error("Check should fail too")
	}
}

func TestCompose_EmptyOrMalformedStatic(t *testing.T) {
	tests := map[string]fstest.MapFile{
		content.FileCourseContent: {Data: []byte(`[]`)},
		content.FileCalendar:      {Data: []byte(`{"holidays":`)},
	}
	for file, data := range tests {
		fsys := staticFS()
		d := data
		fsys[file] = &d
		c := NewComposer(content.NewLoader(fsys), nil)

		_, err := c.Compose(testProfile())
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) || cfgErr.File != file {
			t.Errorf("%s: expected ConfigError, got %v", file, err)
		}
	}
}

func TestCompose_InterestsAndChallenge(t *testing.T) {
	c := NewComposer(content.NewLoader(staticFS()), nil)
	p := testProfile()
	p.Interests = []string{"airflow", "dbt"}
	p.MainChallenge = "  finding time  "

	out, err := c.Compose(p)
	if err != nil {
		t.Fatalf("compose: %v", err)
	}
	if !strings.Contains(out, "airflow, dbt") {
		t.Error("missing interests")
	}
	if !strings.Contains(out, "### Current challenge\nfinding time") {
		t.Error("missing trimmed challenge")
	}
}
