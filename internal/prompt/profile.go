package prompt

import "time"

// Weekdays lists the availability keys in calendar order.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Skill levels accepted for each skill area.
const (
	LevelNone         = "none"
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Skills holds the self-reported level per skill area.
type Skills struct {
	Python string
	SQL    string
	Cloud  string
}

// Profile is the learner information a prompt is built from. It never
// carries the learner's email.
type Profile struct {
	Name          string
	StartDate     time.Time
	Availability  map[string]int
	Skills        Skills
	UsedGit       bool
	UsedDocker    bool
	Interests     []string
	MainChallenge string
}
