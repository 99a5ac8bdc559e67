package activity

import "time"

// DefaultOwner is the GitHub account whose repositories are tracked.
const DefaultOwner = "MrTimedying"

// unknownFallback is used for projects without a documented default.
const unknownFallback = 2

// Project is a tracked repository and the commit count assumed for it when
// the activity source cannot be reached.
type Project struct {
	ID       string `json:"id"`
	Owner    string `json:"owner"`
	Repo     string `json:"repo"`
	Fallback int    `json:"fallback"`
}

// Record is the sampled activity of one project.
type Record struct {
	ProjectID      string    `json:"project_id"`
	CommitsPerWeek int       `json:"commits_per_week"`
	Fallback       bool      `json:"fallback"`
	SampledAt      time.Time `json:"sampled_at"`
}

// BPM is the heart rate derived from the record's commit count.
func (r Record) BPM() int { return HeartRate(r.CommitsPerWeek) }

// Zone is the display zone of the record's heart rate.
func (r Record) Zone() Zone { return ZoneFor(r.BPM()) }

// knownFallbacks are the commit counts assumed for the portfolio's own
// repositories when the activity source is unreachable.
var knownFallbacks = map[string]int{
	"fulcrum":        3,
	"cornea":         7,
	"auditor_helper": 1,
}

var defaultRepos = []string{"fulcrum", "cornea", "auditor_helper"}

// DefaultProjects returns the projects shown on the portfolio, owned by owner.
func DefaultProjects(owner string) []Project {
	return Projects(owner, defaultRepos)
}

// Projects builds tracked projects for owner's repos, in order. An empty
// list yields the default projects.
func Projects(owner string, repos []string) []Project {
	if owner == "" {
		owner = DefaultOwner
	}
	if len(repos) == 0 {
		return DefaultProjects(owner)
	}
	projects := make([]Project, 0, len(repos))
	for _, repo := range repos {
		projects = append(projects, Project{ID: repo, Owner: owner, Repo: repo, Fallback: FallbackFor(repo)})
	}
	return projects
}

// FallbackFor returns the documented default commit count for repo.
func FallbackFor(repo string) int {
	if n, ok := knownFallbacks[repo]; ok {
		return n
	}
	return unknownFallback
}
