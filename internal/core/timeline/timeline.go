// Package timeline compiles a parsed subject record into a dense sequence of
// steps, each holding a full snapshot of every known variable as of that step
//
// Compilation runs two passes. The forward pass walks entries in file order,
// carrying labs, vitals, event flags and the daily dose table forward and
// recomputing derived indices. The reverse pass walks back from the last entry
// and fills baselines and future-event categories, which depend on what
// happens later in the record.
package timeline

import (
	"chartline/internal/core/record"
	"chartline/internal/core/vars"
)

// Snapshot maps a variable name to its latest known value
type Snapshot map[string]float64

// Get returns the value and whether it is known
func (s Snapshot) Get(name string) (float64, bool) {
	v, ok := s[name]
	return v, ok
}

// Has reports whether name is known
func (s Snapshot) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s)+8)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Step is one compiled point in time
type Step struct {
	Index  int
	Day    int
	Hour   int
	Minute int
	Values Snapshot
}

// AbsHours is the step time in hours since the subject epoch
func (s Step) AbsHours() int { return s.Day*24 + s.Hour }

// Timeline is the compiled form of one subject
type Timeline struct {
	Subject *record.Subject
	Steps   []Step

	// StepOf maps an entry ordinal to the step it landed on; -1 when the
	// entry attached to the base snapshot before any step existed
	StepOf []int

	// Base holds demographics and the values of entries seen before the first step
	Base Snapshot
}

// Len is the number of steps
func (t *Timeline) Len() int { return len(t.Steps) }

// LastDay is the day of the final step, or -1 for an empty timeline
func (t *Timeline) LastDay() int {
	if len(t.Steps) == 0 {
		return -1
	}
	return t.Steps[len(t.Steps)-1].Day
}

// StepForEntry returns the step an entry landed on
func (t *Timeline) StepForEntry(ordinal int) (int, bool) {
	if ordinal < 0 || ordinal >= len(t.StepOf) || t.StepOf[ordinal] < 0 {
		return 0, false
	}
	return t.StepOf[ordinal], true
}

// Compile runs both passes over sub. Unknown measurement names are ignored;
// values are clipped to the bounds in reg.
func Compile(sub *record.Subject, reg *vars.Registry) *Timeline {
	tl := &Timeline{
		Subject: sub,
		StepOf:  make([]int, len(sub.Entries)),
		Base:    baseSnapshot(sub),
	}
	for i := range tl.StepOf {
		tl.StepOf[i] = -1
	}

	fw := newForward(tl, reg)
	for i := range sub.Entries {
		fw.entry(&sub.Entries[i])
	}

	rv := newReverse(tl, fw.admitOf, fw.firstDx)
	for i := len(sub.Entries) - 1; i >= 0; i-- {
		rv.entry(&sub.Entries[i])
	}
	return tl
}

func baseSnapshot(sub *record.Subject) Snapshot {
	s := Snapshot{
		"IsMale":             0,
		"IsCaucasian":        0,
		"DiedInpt":           0,
		"DiedIn12Mos":        0,
		"ReadmitIn30Days":    0,
		"PreexistingMyeloma": 0,
		"DiagMyeloma":        0,
	}
	if sub.IsMale {
		s["IsMale"] = 1
	}
	if sub.IsCaucasian() {
		s["IsCaucasian"] = 1
	}
	if sub.WeightKg > 0 {
		s["WtKg"] = sub.WeightKg
	}
	return s
}

// Category buckets the days between currentDay and targetDay into one of the
// 14 future-event categories; a negative targetDay means no known occurrence
func Category(currentDay, targetDay int) int {
	if targetDay < 0 {
		return vars.NumFutureCategories - 1
	}
	delta := targetDay - currentDay
	if delta <= 0 {
		return 0
	}
	for i, limit := range categoryLimits {
		if delta <= limit {
			return i + 1
		}
	}
	return vars.NumFutureCategories - 1
}

var categoryLimits = [...]int{1, 3, 7, 14, 30, 90, 180, 365, 730, 1095, 1825, 3650}
