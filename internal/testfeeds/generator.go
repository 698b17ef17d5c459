package testfeeds

import (
	"fmt"
	"math/rand"
	"time"
)

// Column headers matching the production feeds.
var (
	reportHeader      = []string{"Activity Code", "Completion Date", "Score", "Student ID", "Status"}
	completionsHeader = []string{"ActivityCode", "CompletionDate", "Score", "Student Email", "Student Username", "Status"}
)

var firstNames = []string{
	"alex", "casey", "drew", "erin", "jordan", "kelly", "morgan", "pat",
	"quinn", "riley", "sam", "taylor",
}

var lastNames = []string{
	"baker", "chen", "diaz", "fisher", "garcia", "hall", "kim", "lopez",
	"murphy", "nguyen", "ortiz", "park",
}

const (
	feedDateLayout = "2006-01-02"

	// maxFeedAgeDays keeps most generated dates inside the recency window.
	maxFeedAgeDays = 18

	scoreFloor = 60
	scoreSpan  = 41

	notCompletedEvery = 10
)

// Generator produces feed rows. Not safe for concurrent use.
type Generator struct {
	cfg *Config
	rng *rand.Rand
	now time.Time
}

// NewGenerator creates a Generator seeded from cfg.Seed.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // sample data
		now: time.Now(),
	}
}

// ReportRows generates the spreadsheet feed: identities are emails, no
// employee id column.
func (g *Generator) ReportRows() [][]string {
	rows := make([][]string, 0, g.cfg.ReportRows)
	for i := 0; i < g.cfg.ReportRows; i++ {
		if g.dup(rows) {
			rows = append(rows, rows[len(rows)-1])
			continue
		}
		rows = append(rows, []string{
			g.activity(false),
			g.date(),
			g.score(),
			g.email(),
			g.status(i),
		})
	}
	return rows
}

// CompletionRows generates the delimited completion feed: a blank-email
// fraction carries only the employee id, leaving identity resolution to the
// roster.
func (g *Generator) CompletionRows() [][]string {
	rows := make([][]string, 0, g.cfg.CompletionRows)
	for i := 0; i < g.cfg.CompletionRows; i++ {
		if g.dup(rows) {
			rows = append(rows, rows[len(rows)-1])
			continue
		}
		email := g.email()
		if g.rng.Float64() < g.cfg.BlankRatio {
			email = ""
		}
		rows = append(rows, []string{
			g.activity(true),
			g.date(),
			g.score(),
			email,
			g.employeeID(),
			g.status(i),
		})
	}
	return rows
}

func (g *Generator) dup(rows [][]string) bool {
	return len(rows) > 0 && g.rng.Float64() < g.cfg.DuplicateRatio
}

func (g *Generator) activity(allowUnknown bool) string {
	if allowUnknown && g.rng.Float64() < g.cfg.UnknownRatio {
		return fmt.Sprintf("RETIRED%03d", g.rng.Intn(1000))
	}
	return g.cfg.Activities[g.rng.Intn(len(g.cfg.Activities))]
}

func (g *Generator) date() string {
	daysAgo := g.rng.Intn(maxFeedAgeDays + 1)
	return g.now.AddDate(0, 0, -daysAgo).Format(feedDateLayout)
}

func (g *Generator) score() string {
	return fmt.Sprintf("%d", scoreFloor+g.rng.Intn(scoreSpan))
}

func (g *Generator) email() string {
	first := firstNames[g.rng.Intn(len(firstNames))]
	last := lastNames[g.rng.Intn(len(lastNames))]
	return fmt.Sprintf("%s.%s@example.gov", first, last)
}

func (g *Generator) employeeID() string {
	return fmt.Sprintf("%d", 10000+g.rng.Intn(90000))
}

// status marks every n-th row as not completed so the normalizer has
// something to drop.
func (g *Generator) status(i int) string {
	if i > 0 && i%notCompletedEvery == 0 {
		return "0"
	}
	return "4"
}
