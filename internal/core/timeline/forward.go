package timeline

import (
	"strconv"
	"strings"

	"chartline/internal/core/record"
	"chartline/internal/core/vars"
)

// forward carries the live snapshot and per-day dose state through file order
type forward struct {
	tl  *Timeline
	reg *vars.Registry

	live Snapshot
	cur  int // index of the current step, -1 before the first

	// daily is the committed dose table; pending collects the current day's orders
	daily    map[string]float64
	pending  map[string]float64
	lastHour map[string]int

	admitDay int
	admitOf  map[int]int // discharge ordinal -> admit day
	firstDx  map[string]int
	lastCKD5 int
}

func newForward(tl *Timeline, reg *vars.Registry) *forward {
	f := &forward{
		tl:       tl,
		reg:      reg,
		live:     tl.Base,
		cur:      -1,
		daily:    map[string]float64{},
		pending:  map[string]float64{},
		lastHour: map[string]int{},
		admitDay: -1,
		admitOf:  map[int]int{},
		firstDx:  map[string]int{},
		lastCKD5: -1,
	}
	for _, n := range vars.CarriedDoses {
		f.daily[n] = 0
	}
	return f
}

func (f *forward) entry(e *record.Entry) {
	if e.Kind == record.KindOutcome && !e.HasStamp {
		if f.cur >= 0 {
			f.tl.StepOf[e.Ordinal] = f.cur
		}
		f.outcome(e)
		return
	}

	if !f.reuse(e) {
		f.newStep(e.Stamp.Days, e.Stamp.Hours, e.Stamp.Minutes)
	}
	f.tl.StepOf[e.Ordinal] = f.cur

	day := e.Stamp.Days
	switch e.Kind {
	case record.KindEvent:
		f.event(e)
	case record.KindMeasurement:
		f.measurement(e)
	case record.KindOutcome:
		f.outcome(e)
	}
	f.derive(day)
	f.dialysisCounter(day)
}

// reuse reports whether e lands on the current step. Exact matches always
// do; outcomes, diagnoses and events also attach to a same-day step whose
// hour is at or after their own.
func (f *forward) reuse(e *record.Entry) bool {
	if f.cur < 0 {
		return false
	}
	st := f.tl.Steps[f.cur]
	if st.Day == e.Stamp.Days && st.Hour == e.Stamp.Hours && st.Minute == e.Stamp.Minutes {
		return true
	}
	loose := e.Kind == record.KindOutcome ||
		e.Kind == record.KindEvent ||
		(e.Kind == record.KindMeasurement && e.Class == record.ClassDiagnosis)
	return loose && st.Day == e.Stamp.Days && st.Hour >= e.Stamp.Hours
}

func (f *forward) newStep(day, hour, minute int) {
	first := f.cur < 0
	prevDay := -1
	if !first {
		prevDay = f.tl.Steps[f.cur].Day
	}

	f.live = f.live.clone()
	f.tl.Steps = append(f.tl.Steps, Step{
		Index:  len(f.tl.Steps),
		Day:    day,
		Hour:   hour,
		Minute: minute,
		Values: f.live,
	})
	f.cur = len(f.tl.Steps) - 1

	if first || day != prevDay {
		f.startDay()
	}
}

// startDay commits the previous day's orders and restarts the daily counters
func (f *forward) startDay() {
	for k, v := range f.pending {
		f.daily[k] = v
	}
	for k, v := range f.daily {
		f.live[k] = v
	}
	f.pending = map[string]float64{}
	f.lastHour = map[string]int{}
	for _, n := range vars.DailyCounters {
		f.pending[n] = 0
	}
}

func (f *forward) event(e *record.Entry) {
	day := e.Stamp.Days
	switch e.Class {
	case "Admit":
		f.live["InHospital"] = 1
		f.admitDay = day
	case "Discharge":
		f.live["InHospital"] = 0
		f.admitOf[e.Ordinal] = f.admitDay
		f.admitDay = -1
		for _, n := range []string{"DiedInpt", "DiedIn12Mos", "ReadmitIn30Days", "DiagMyeloma"} {
			f.live[n] = 0
		}
	case "Transfer":
		if strings.HasPrefix(e.Value, "ICU") {
			f.live["InICU"] = 1
		} else {
			f.live["InICU"] = 0
		}
	case "RapidResponse":
		f.live["MostRecentRapidResponseDate"] = float64(day)
	case "Proc":
		switch e.Value {
		case "proc/Dialysis":
			f.live["MostRecentDialysisDate"] = float64(day)
			f.lastCKD5 = day
		case "proc/CardiacCath":
			f.live["MostRecentCardiacCathDate"] = float64(day)
		case "proc/Intubation":
			f.live["MostRecentIntubationDate"] = float64(day)
		case "proc/PEG":
			f.live["MostRecentPEGDate"] = float64(day)
		}
	case "Surg":
		if e.Value == "Major/Cardiac/CABG" {
			f.live["MostRecentCABGDate"] = float64(day)
		} else if strings.HasPrefix(e.Value, "Major") {
			f.live["MostRecentMajorSurgeryDate"] = float64(day)
		}
	case "Med":
		f.med(e)
	}
}

// med records an order into the pending table. Orders without a dose are
// pharmacist-to-dose placeholders and are skipped.
func (f *forward) med(e *record.Entry) {
	m, ok := vars.LookupMed(e.Value)
	if !ok {
		return
	}
	dose, err := strconv.ParseFloat(strings.TrimSpace(e.Detail), 64)
	if err != nil {
		return
	}
	hour := e.Stamp.Hours

	if m.Var != "" {
		if m.Accumulate {
			last, seen := f.lastHour[m.Var]
			if !seen || last < hour {
				f.lastHour[m.Var] = hour
				f.pending[m.Var] += dose
			}
		} else {
			f.pending[m.Var] = dose
		}
	}
	if m.AM != "" {
		if hour <= 12 {
			f.pending[m.AM] = dose
		} else {
			f.pending[m.PM] = dose
		}
	}
}

func (f *forward) measurement(e *record.Entry) {
	if e.Class == record.ClassDiagnosis {
		for _, d := range e.Diagnoses {
			if _, seen := f.firstDx[d]; !seen {
				f.firstDx[d] = e.Stamp.Days
			}
		}
		return
	}
	if e.Class != record.ClassLab && e.Class != record.ClassVital {
		return
	}
	for _, p := range e.Pairs {
		v, ok := parseValue(p.Value)
		if !ok {
			continue
		}
		d, known := f.reg.Lookup(p.Name)
		if !known {
			continue
		}
		if v < 0 || v >= 2*d.Max {
			continue
		}
		f.live[p.Name] = d.Clip(v)
	}
}

// parseValue reads a lab value, accepting censored forms like ">8" and "<0.1"
func parseValue(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	s = strings.NewReplacer(">", "", "<", "").Replace(s)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

var outcomeFlags = []string{"DiedInpt", "DiedIn12Mos", "ReadmitIn30Days", "PreexistingMyeloma", "DiagMyeloma"}

func (f *forward) outcome(e *record.Entry) {
	for _, n := range outcomeFlags {
		if e.Flags[n] {
			f.live[n] = 1
		}
	}
}

func (f *forward) dialysisCounter(day int) {
	if st, ok := f.live["CKDStage"]; ok && st >= 5 {
		f.lastCKD5 = day
	}
	if f.lastCKD5 > 0 {
		f.live["DaysSinceDialysis"] = float64(day - f.lastCKD5)
	} else {
		f.live["DaysSinceDialysis"] = -1
	}
}
