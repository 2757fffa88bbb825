// Package window locates start/stop bounded ranges of a compiled timeline
package window

import (
	"strings"

	"chartline/internal/core/record"
	"chartline/internal/core/timeline"
	perr "chartline/internal/platform/errors"
)

// Predicate matches event entries by class and an optional value allow-list
type Predicate struct {
	Class  string   `json:"class"`
	Values []string `json:"values,omitempty"`
}

// AnyPredicate matches every position
var AnyPredicate = Predicate{}

// Any reports whether the predicate matches every position
func (p Predicate) Any() bool {
	return p.Class == "" || strings.EqualFold(p.Class, "any")
}

// Match reports whether e satisfies the predicate. Only events match; class
// and value comparisons ignore case.
func (p Predicate) Match(e *record.Entry) bool {
	if p.Any() {
		return true
	}
	if e.Kind != record.KindEvent || !strings.EqualFold(e.Class, p.Class) {
		return false
	}
	if len(p.Values) == 0 {
		return true
	}
	for _, v := range p.Values {
		if strings.EqualFold(v, e.Value) {
			return true
		}
	}
	return false
}

// ParsePredicate reads "Class" or "Class:v1|v2"; "" and "any" match everything
func ParsePredicate(s string) (Predicate, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "any") {
		return AnyPredicate, nil
	}
	class, rest, found := strings.Cut(s, ":")
	class = strings.TrimSpace(class)
	if class == "" {
		return Predicate{}, perr.InvalidArgf("window: predicate %q has no class", s)
	}
	p := Predicate{Class: class}
	if found {
		for _, v := range strings.Split(rest, "|") {
			if v = strings.TrimSpace(v); v != "" {
				p.Values = append(p.Values, v)
			}
		}
	}
	return p, nil
}

// Window is a located range: entry ordinals and the inclusive step bounds they cover
type Window struct {
	FirstEntry int
	LastEntry  int
	FirstStep  int
	LastStep   int
}

// Locator walks the windows of one timeline
type Locator struct {
	tl    *timeline.Timeline
	start Predicate
	stop  Predicate
}

// New builds a locator over tl
func New(tl *timeline.Timeline, start, stop Predicate) *Locator {
	return &Locator{tl: tl, start: start, stop: stop}
}

// Whole is the window covering every step of tl
func Whole(tl *timeline.Timeline) (Window, bool) {
	return New(tl, AnyPredicate, AnyPredicate).First()
}

// First finds the first window
func (l *Locator) First() (Window, bool) {
	n := len(l.tl.Subject.Entries)
	if n == 0 || l.tl.Len() == 0 {
		return Window{}, false
	}
	start := 0
	if !l.start.Any() {
		var ok bool
		if start, ok = l.find(l.start, 0); !ok {
			return Window{}, false
		}
	}
	stop := n - 1
	if !l.stop.Any() {
		var ok bool
		if stop, ok = l.find(l.stop, start); !ok {
			return Window{}, false
		}
	}
	return l.bound(start, stop)
}

// Next finds the window after prev. An any-stop window runs to the end of the
// record, so it has no successor.
func (l *Locator) Next(prev Window) (Window, bool) {
	if l.stop.Any() {
		return Window{}, false
	}
	start := prev.FirstEntry + 1
	if !l.start.Any() {
		var ok bool
		if start, ok = l.find(l.start, prev.FirstEntry+1); !ok {
			return Window{}, false
		}
	}
	if start >= len(l.tl.Subject.Entries) {
		return Window{}, false
	}
	stop, ok := l.find(l.stop, prev.LastEntry+1)
	if ok && stop < start {
		stop, ok = l.find(l.stop, start)
	}
	if !ok {
		return Window{}, false
	}
	return l.bound(start, stop)
}

// All collects every window in order
func (l *Locator) All() []Window {
	var out []Window
	w, ok := l.First()
	for ok {
		out = append(out, w)
		w, ok = l.Next(w)
	}
	return out
}

func (l *Locator) find(p Predicate, from int) (int, bool) {
	entries := l.tl.Subject.Entries
	for i := from; i < len(entries); i++ {
		if p.Match(&entries[i]) {
			return i, true
		}
	}
	return 0, false
}

// bound maps entry ordinals to step bounds, skipping entries that never
// landed on a step
func (l *Locator) bound(start, stop int) (Window, bool) {
	first, last := -1, -1
	for i := start; i < len(l.tl.StepOf); i++ {
		if s := l.tl.StepOf[i]; s >= 0 {
			first = s
			break
		}
	}
	for i := stop; i >= 0; i-- {
		if s := l.tl.StepOf[i]; s >= 0 {
			last = s
			break
		}
	}
	if first < 0 || last < first {
		return Window{}, false
	}
	return Window{FirstEntry: start, LastEntry: stop, FirstStep: first, LastStep: last}, true
}
