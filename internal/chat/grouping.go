package chat

import "time"

const (
	LabelToday     = "Today"
	LabelYesterday = "Yesterday"
	dateLayout     = "January 2, 2006"
)

// DayGroup is a run of consecutive messages sharing a local calendar date.
type DayGroup struct {
	Label    string
	Day      time.Time // local midnight of the bucket
	Messages []Message
}

// GroupByDay partitions msgs, in their given order, into runs of the same
// calendar date in now's location. A new group (and so a date header) starts
// before the first message and whenever the date changes between neighbours.
func GroupByDay(msgs []Message, now time.Time) []DayGroup {
	loc := now.Location()
	today := midnight(now, loc)
	yesterday := today.AddDate(0, 0, -1)

	var groups []DayGroup
	for _, m := range msgs {
		day := midnight(m.Timestamp, loc)
		if n := len(groups); n > 0 && groups[n-1].Day.Equal(day) {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, DayGroup{
			Label:    dayLabel(day, today, yesterday),
			Day:      day,
			Messages: []Message{m},
		})
	}
	return groups
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func dayLabel(day, today, yesterday time.Time) string {
	switch {
	case day.Equal(today):
		return LabelToday
	case day.Equal(yesterday):
		return LabelYesterday
	default:
		return day.Format(dateLayout)
	}
}
