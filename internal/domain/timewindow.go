package domain

import "time"

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewTimeWindow(start, end time.Time) TimeWindow {
	return TimeWindow{Start: start.UTC(), End: end.UTC()}
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Windows that only touch at a boundary do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// DurationHours returns the fractional number of hours between start and end.
func DurationHours(start, end time.Time) float64 {
	return end.Sub(start).Hours()
}

// IsFuture reports whether instant is strictly after now, compared in UTC.
func IsFuture(instant, now time.Time) bool {
	return instant.UTC().After(now.UTC())
}

func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return Overlaps(w.Start, w.End, other.Start, other.End)
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

func (w TimeWindow) IsEmpty() bool {
	return !w.End.After(w.Start)
}

func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Slice cuts the window into consecutive pieces of exactly size.
// A trailing piece shorter than size is dropped.
func (w TimeWindow) Slice(size time.Duration) []TimeWindow {
	if size <= 0 {
		return nil
	}
	var out []TimeWindow
	for cur := w.Start; !cur.Add(size).After(w.End); cur = cur.Add(size) {
		out = append(out, TimeWindow{Start: cur, End: cur.Add(size)})
	}
	return out
}
