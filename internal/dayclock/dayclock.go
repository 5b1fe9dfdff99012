// Package dayclock maps absolute instants onto a user's civil days.
//
// A civil day starts at a configurable wall-clock hour instead of midnight, so an
// entry logged at 02:00 with a 06:00 day start belongs to the previous date.
package dayclock

import "time"

// DateLayout is the sortable key format of a civil day.
const DateLayout = "2006-01-02"

// Day is the nominal length of one bucket.
const Day = 24 * time.Hour

// Clock buckets instants into civil days starting at StartHour in Loc.
type Clock struct {
	StartHour int
	Loc       *time.Location
}

// New returns a Clock for startHour in loc. A nil loc means time.Local.
func New(startHour int, loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return Clock{StartHour: startHour, Loc: loc}
}

func (c Clock) loc() *time.Location {
	if c.Loc == nil {
		return time.Local
	}
	return c.Loc
}

// BucketStart returns the most recent instant at or before t whose wall-clock
// hour equals StartHour.
func (c Clock) BucketStart(t time.Time) time.Time {
	lt := t.In(c.loc())
	b := c.at(lt.Year(), lt.Month(), lt.Day())
	if lt.Before(b) {
		b = c.at(lt.Year(), lt.Month(), lt.Day()-1)
	}
	return b
}

// Bucket returns the date key of the civil day containing t.
func (c Clock) Bucket(t time.Time) string {
	return c.BucketStart(t).Format(DateLayout)
}

// TodayStart is the start of the civil day containing now.
func (c Clock) TodayStart(now time.Time) time.Time {
	return c.BucketStart(now)
}

// YesterdayStart is the start of the civil day before the one containing now.
func (c Clock) YesterdayStart(now time.Time) time.Time {
	return c.AddDays(c.TodayStart(now), -1)
}

// AddDays moves a bucket start by n civil days, keeping the wall-clock hour
// across DST transitions.
func (c Clock) AddDays(start time.Time, n int) time.Time {
	lt := start.In(c.loc())
	return c.at(lt.Year(), lt.Month(), lt.Day()+n)
}

// DayStart returns the bucket start for a date key.
func (c Clock) DayStart(key string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, key, c.loc())
	if err != nil {
		return time.Time{}, err
	}
	return c.at(d.Year(), d.Month(), d.Day()), nil
}

// WeekStart returns the start of the week containing now, anchored on the most
// recent Sunday, shifted by offset weeks (negative = past).
func (c Clock) WeekStart(now time.Time, offset int) time.Time {
	today := c.TodayStart(now)
	sunday := c.AddDays(today, -int(today.In(c.loc()).Weekday()))
	return c.AddDays(sunday, 7*offset)
}

// MonthRange returns the [start, end) bucket bounds of a zero-based month.
func (c Clock) MonthRange(year, month0 int) (time.Time, time.Time) {
	start := c.at(year, time.Month(month0+1), 1)
	end := c.at(year, time.Month(month0+2), 1)
	return start, end
}

func (c Clock) at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, c.StartHour, 0, 0, 0, c.loc())
}

// Within reports whether t falls in the 24h bucket starting at bucketStart.
func Within(t, bucketStart time.Time) bool {
	return !t.Before(bucketStart) && t.Before(bucketStart.Add(Day))
}

// BucketMillis buckets an epoch-millisecond timestamp.
func BucketMillis(ms int64, dayStartHour int, loc *time.Location) string {
	return New(dayStartHour, loc).Bucket(time.UnixMilli(ms))
}

// DaysInMonth returns the number of calendar days in a zero-based month.
func DaysInMonth(year, month0 int) int {
	return time.Date(year, time.Month(month0+2), 0, 0, 0, 0, 0, time.UTC).Day()
}
