package domain

import (
	"testing"
	"time"
)

func TestGroupByDay(t *testing.T) {
	loc := time.UTC
	mk := func(id string, ts time.Time) PromptList {
		return PromptList{ID: id, Name: id, AllPrompts: []string{"x"}, CreatedAt: ts}
	}

	lists := []PromptList{
		mk("old", time.Date(2026, 2, 1, 23, 59, 0, 0, loc)),
		mk("morning", time.Date(2026, 2, 3, 8, 0, 0, 0, loc)),
		mk("evening", time.Date(2026, 2, 3, 20, 0, 0, 0, loc)),
	}

	groups := GroupByDay(lists, loc)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}

	if got := groups[0].Label(); got != "Tuesday, February 3, 2026" {
		t.Errorf("groups[0].Label() = %q", got)
	}
	if len(groups[0].Lists) != 2 || groups[0].Lists[0].ID != "evening" || groups[0].Lists[1].ID != "morning" {
		t.Errorf("groups[0] = %+v, want evening then morning", groups[0].Lists)
	}
	if groups[1].Lists[0].ID != "old" {
		t.Errorf("groups[1] = %+v, want old", groups[1].Lists)
	}
}

func TestGroupByDayUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on the 1st is already the 2nd in Tokyo.
	l := PromptList{ID: "a", CreatedAt: time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)}

	groups := GroupByDay([]PromptList{l}, tokyo)
	if got := groups[0].Day.Day(); got != 2 {
		t.Errorf("Day = %d, want 2", got)
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if got := GroupByDay(nil, nil); len(got) != 0 {
		t.Errorf("GroupByDay(nil) = %v, want empty", got)
	}
}
