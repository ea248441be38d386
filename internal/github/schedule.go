package github

import (
	"time"

	"github.com/gorhill/cronexpr"
)

// Milestone is a milestone to create: a title and a due date.
type Milestone struct {
	Title string
	Due   time.Time
}

var (
	// every Tuesday at midnight
	tuesdays = cronexpr.MustParse("0 0 * * 2")

	// the last day of every month at midnight
	monthEnds = cronexpr.MustParse("0 0 L * *")
)

// ReleaseMilestones returns one "Deploy on mm/dd" milestone for every
// Tuesday of year.
func ReleaseMilestones(year int, loc *time.Location) []Milestone {
	return occurrences(tuesdays, year, loc, func(t time.Time) string {
		return "Deploy on " + t.Format("01/02")
	})
}

// MonthMilestones returns one "January 2025" milestone per month of year,
// due on the last day of the month.
func MonthMilestones(year int, loc *time.Location) []Milestone {
	return occurrences(monthEnds, year, loc, func(t time.Time) string {
		return t.Format("January 2006")
	})
}

func occurrences(expr *cronexpr.Expression, year int, loc *time.Location, title func(time.Time) string) []Milestone {
	if loc == nil {
		loc = time.Local
	}
	// Next is exclusive, so start just before midnight on January 1st.
	t := time.Date(year, time.January, 1, 0, 0, 0, 0, loc).Add(-time.Second)

	var out []Milestone
	for {
		t = expr.Next(t)
		if t.IsZero() || t.Year() != year {
			return out
		}
		out = append(out, Milestone{Title: title(t), Due: t})
	}
}
