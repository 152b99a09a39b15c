package domain

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// Period is an inclusive date range. A nil bound leaves that side open,
// so the zero Period means all time.
type Period struct {
	Start *civil.Date
	End   *civil.Date
}

// AllTime is the unbounded period.
var AllTime = Period{}

// Between builds a closed period.
func Between(start, end civil.Date) Period {
	return Period{Start: &start, End: &end}
}

// Contains reports whether an ISO date string falls inside the period.
// Comparison is lexicographic on YYYY-MM-DD strings, which orders the same
// way as the dates themselves.
func (p Period) Contains(isoDate string) bool {
	d := strings.TrimSpace(isoDate)
	if p.Start != nil && d < p.Start.String() {
		return false
	}
	if p.End != nil && d > p.End.String() {
		return false
	}
	return true
}

// String renders the period for logs and report headers.
func (p Period) String() string {
	start, end := "", ""
	if p.Start != nil {
		start = p.Start.String()
	}
	if p.End != nil {
		end = p.End.String()
	}
	if p.Start == nil && p.End == nil {
		return "all time"
	}
	return fmt.Sprintf("%s..%s", start, end)
}
