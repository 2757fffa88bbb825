// Package extract turns windows of a compiled timeline into aligned numeric samples
package extract

import (
	"strings"

	"chartline/internal/core/timeline"
	"chartline/internal/core/vars"
	"chartline/internal/core/window"
	perr "chartline/internal/platform/errors"
)

// window-relative virtual variables
const (
	VarDaysSinceStart = "DaysSinceStart"
	VarDaysUntilStop  = "DaysUntilStop"
)

// Spec is an uncompiled extraction request
type Spec struct {
	Inputs  []string
	Target  string
	Filters string
	Norm    vars.NormMode

	// MinIntervalHours collapses qualifying steps closer than this to the
	// previous emitted row into that row; 0 keeps every step
	MinIntervalHours int
}

// Extractor is a compiled Spec
type Extractor struct {
	inputs      []vars.Ref
	target      vars.Ref
	filters     []Filter
	norm        vars.NormMode
	minInterval int
}

// Result holds the samples of one window, trimmed to Count rows
type Result struct {
	Count   int
	Inputs  [][]float64
	Targets []float64
	// Steps is the timeline step each row was taken from
	Steps []int
}

// Compile resolves every name in spec up front
func Compile(reg *vars.Registry, spec Spec) (*Extractor, error) {
	if len(spec.Inputs) == 0 {
		return nil, perr.InvalidArgf("extract: no input variables")
	}
	if strings.TrimSpace(spec.Target) == "" {
		return nil, perr.InvalidArgf("extract: no target variable")
	}
	inputs, err := reg.ResolveAll(spec.Inputs)
	if err != nil {
		return nil, err
	}
	target, err := reg.Resolve(spec.Target)
	if err != nil {
		return nil, err
	}
	filters, err := ParseFilters(reg, spec.Filters)
	if err != nil {
		return nil, err
	}
	norm := spec.Norm
	if norm == "" {
		norm = vars.NormFraction
	}
	if spec.MinIntervalHours < 0 {
		return nil, perr.InvalidArgf("extract: negative minimum interval")
	}
	return &Extractor{
		inputs:      inputs,
		target:      target,
		filters:     filters,
		norm:        norm,
		minInterval: spec.MinIntervalHours,
	}, nil
}

// Inputs lists the resolved input references
func (x *Extractor) Inputs() []vars.Ref { return x.inputs }

// Target is the resolved target reference
func (x *Extractor) Target() vars.Ref { return x.target }

// NumClasses is the class count of the target
func (x *Extractor) NumClasses() int { return x.target.Desc.NumClasses() }

// ResultClass buckets a target value for priority ordering and histograms
func (x *Extractor) ResultClass(v float64) int { return x.target.Desc.ResultClass(v) }

// Window extracts every qualifying step of w
func (x *Extractor) Window(tl *timeline.Timeline, w window.Window) Result {
	first, last, ok := x.bounds(tl, w)
	if !ok {
		return Result{}
	}

	var res Result
	lastHour := -1
	for i := first; i <= last; i++ {
		row, ok := x.row(tl, w, i)
		if !ok || !x.pass(tl, w, i) {
			continue
		}
		tv, ok := lookup(tl, w, i, x.target)
		if !ok {
			continue
		}
		h := tl.Steps[i].AbsHours()
		if x.minInterval > 0 && res.Count > 0 && h < lastHour+x.minInterval {
			res.Inputs[res.Count-1] = row
			res.Targets[res.Count-1] = tv
			res.Steps[res.Count-1] = i
			continue
		}
		res.Inputs = append(res.Inputs, row)
		res.Targets = append(res.Targets, tv)
		res.Steps = append(res.Steps, i)
		res.Count++
		lastHour = h
	}
	return res
}

func (x *Extractor) row(tl *timeline.Timeline, w window.Window, i int) ([]float64, bool) {
	row := make([]float64, len(x.inputs))
	for k, ref := range x.inputs {
		v, ok := lookup(tl, w, i, ref)
		if !ok {
			return nil, false
		}
		row[k] = vars.Normalize(v, ref.Desc, x.norm)
	}
	return row, true
}

func (x *Extractor) pass(tl *timeline.Timeline, w window.Window, i int) bool {
	for _, f := range x.filters {
		v, ok := lookup(tl, w, i, f.Ref)
		if !ok || !f.Match(v) {
			return false
		}
	}
	return true
}

// bounds clips the window for targets that need future knowledge: the last
// usable step must lie at least FutureDays before the latest step carrying
// the target's signal
func (x *Extractor) bounds(tl *timeline.Timeline, w window.Window) (int, int, bool) {
	first, last := w.FirstStep, w.LastStep
	if first < 0 || last >= tl.Len() || last < first {
		return 0, 0, false
	}
	d := x.target.Desc
	if !d.NeedsLookahead() {
		return first, last, true
	}

	signal := d.Signal()
	futureDay := -1
	for i := tl.Len() - 1; i >= first; i-- {
		if tl.Steps[i].Values.Has(signal) {
			futureDay = tl.Steps[i].Day
			break
		}
	}
	if futureDay < 0 {
		return 0, 0, false
	}
	for last >= first && futureDay < tl.Steps[last].Day+d.FutureDays {
		last--
	}
	return first, last, last >= first
}

// lookup resolves ref at step i, following its day offset within the search bounds
func lookup(tl *timeline.Timeline, w window.Window, i int, ref vars.Ref) (float64, bool) {
	j, ok := offsetStep(tl, i, ref.Offset, ref.Name)
	if !ok {
		return 0, false
	}
	switch ref.Name {
	case VarDaysSinceStart:
		return float64(tl.Steps[j].Day - tl.Steps[w.FirstStep].Day), true
	case VarDaysUntilStop:
		return float64(tl.Steps[w.LastStep].Day - tl.Steps[j].Day), true
	}
	return tl.Steps[j].Values.Get(ref.Name)
}

// carries reports whether step j can answer name; window-relative names
// are answerable everywhere
func carries(tl *timeline.Timeline, j int, name string) bool {
	switch name {
	case VarDaysSinceStart, VarDaysUntilStop:
		return true
	}
	return tl.Steps[j].Values.Has(name)
}

// offsetStep finds the step nearest to day(i)+offset that carries name:
// backward for negative offsets and forward for positive ones, skipping
// steps without the value and abandoning the search once it strays past
// the slack allowed for that direction
func offsetStep(tl *timeline.Timeline, i, offset int, name string) (int, bool) {
	if offset == 0 {
		return i, true
	}
	want := tl.Steps[i].Day + offset
	if offset < 0 {
		for j := i - 1; j >= 0; j-- {
			d := tl.Steps[j].Day
			if want-d >= vars.MaxPastSlackDays {
				return 0, false
			}
			if d <= want && carries(tl, j, name) {
				return j, true
			}
		}
		return 0, false
	}
	for j := i + 1; j < tl.Len(); j++ {
		d := tl.Steps[j].Day
		if d-want >= vars.MaxFutureSlackDays {
			return 0, false
		}
		if d >= want && carries(tl, j, name) {
			return j, true
		}
	}
	return 0, false
}
