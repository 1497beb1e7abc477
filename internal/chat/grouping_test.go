package chat

import (
	"testing"
	"time"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGroupByDayBucketBoundary(t *testing.T) {
	msgs := []Message{
		{ID: "1", Timestamp: at("2024-05-01T10:00")},
		{ID: "2", Timestamp: at("2024-05-01T23:59")},
		{ID: "3", Timestamp: at("2024-05-02T00:01")},
	}
	groups := GroupByDay(msgs, at("2024-06-10T12:00"))

	if len(groups) != 2 {
		t.Fatalf("got %d headers, want 2", len(groups))
	}
	if groups[0].Label != "May 1, 2024" || len(groups[0].Messages) != 2 {
		t.Errorf("group 0 = %q with %d messages, want May 1, 2024 with 2", groups[0].Label, len(groups[0].Messages))
	}
	if groups[1].Label != "May 2, 2024" || len(groups[1].Messages) != 1 {
		t.Errorf("group 1 = %q with %d messages, want May 2, 2024 with 1", groups[1].Label, len(groups[1].Messages))
	}
}

func TestGroupByDayRelativeLabels(t *testing.T) {
	now := at("2024-05-03T09:00")
	msgs := []Message{
		{ID: "1", Timestamp: at("2024-04-30T08:00")},
		{ID: "2", Timestamp: at("2024-05-02T08:00")},
		{ID: "3", Timestamp: at("2024-05-03T00:00")},
		{ID: "4", Timestamp: at("2024-05-03T08:59")},
	}
	groups := GroupByDay(msgs, now)

	want := []string{"April 30, 2024", LabelYesterday, LabelToday}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, label := range want {
		if groups[i].Label != label {
			t.Errorf("group %d label = %q, want %q", i, groups[i].Label, label)
		}
	}
}

func TestGroupByDayUsesLocalDate(t *testing.T) {
	// 23:30 UTC on May 1 is already May 2 in UTC+2.
	loc := time.FixedZone("UTC+2", 2*60*60)
	msgs := []Message{
		{ID: "1", Timestamp: at("2024-05-01T21:00")},
		{ID: "2", Timestamp: at("2024-05-01T23:30")},
	}
	groups := GroupByDay(msgs, at("2024-06-01T00:00").In(loc))
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[1].Label != "May 2, 2024" {
		t.Errorf("second label = %q, want May 2, 2024", groups[1].Label)
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if groups := GroupByDay(nil, time.Now()); len(groups) != 0 {
		t.Errorf("got %d groups for no messages", len(groups))
	}
}
