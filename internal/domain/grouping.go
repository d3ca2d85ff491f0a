package domain

import (
	"slices"
	"time"
)

// DayHeaderLayout formats the day a group of lists was created on.
const DayHeaderLayout = "Monday, January 2, 2006"

// DayGroup holds the lists created on one local calendar day.
type DayGroup struct {
	Day   time.Time    // local midnight
	Lists []PromptList // newest first
}

// Label renders the group header.
func (g DayGroup) Label() string {
	return g.Day.Format(DayHeaderLayout)
}

// GroupByDay sorts lists newest first and groups them by creation day in loc.
// A nil loc uses time.Local.
func GroupByDay(lists []PromptList, loc *time.Location) []DayGroup {
	if len(lists) == 0 {
		return []DayGroup{}
	}
	if loc == nil {
		loc = time.Local
	}

	sorted := slices.Clone(lists)
	slices.SortStableFunc(sorted, func(a, b PromptList) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	var groups []DayGroup
	for _, l := range sorted {
		day := startOfDay(l.CreatedAt, loc)
		if n := len(groups); n > 0 && groups[n-1].Day.Equal(day) {
			groups[n-1].Lists = append(groups[n-1].Lists, l)
			continue
		}
		groups = append(groups, DayGroup{Day: day, Lists: []PromptList{l}})
	}
	return groups
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
