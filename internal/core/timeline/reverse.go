package timeline

import (
	"strings"

	"chartline/internal/core/record"
)

// tracked next-occurrence dates
const (
	nextAdmission = iota
	nextDischarge
	nextDeath
	nextTransferOut
	nextTransferIn
	nextRapidResponse
	nextDialysis
	nextIntubation
	nextAKI
	nextBaselineCr
	nextCKD5
	nextCKD4
	nextCKD3
	nextCKD1
	nextMELD40
	nextMELD30
	nextMELD20
	nextMELD10
	numNext
)

// AKIDeltaCr is the creatinine rise over baseline that marks an acute injury
const AKIDeltaCr = 0.3

type reverse struct {
	tl      *Timeline
	admitOf map[int]int
	firstDx map[string]int

	next [numNext]int

	baseGFR  float64
	baseCr   float64
	baseMELD float64
	los      int
}

func newReverse(tl *Timeline, admitOf map[int]int, firstDx map[string]int) *reverse {
	r := &reverse{
		tl:       tl,
		admitOf:  admitOf,
		firstDx:  firstDx,
		baseGFR:  -1,
		baseCr:   -1,
		baseMELD: -1,
		los:      -1,
	}
	for i := range r.next {
		r.next[i] = -1
	}
	return r
}

func (r *reverse) entry(e *record.Entry) {
	if e.Kind == record.KindOutcome {
		return
	}
	idx := r.tl.StepOf[e.Ordinal]
	if idx < 0 {
		return
	}
	day := e.Stamp.Days
	switch e.Kind {
	case record.KindEvent:
		r.event(e, day)
	case record.KindMeasurement:
		r.measurement(r.tl.Steps[idx].Values, day)
	}
}

func (r *reverse) event(e *record.Entry, day int) {
	switch e.Class {
	case "Admit":
		r.next[nextAdmission] = day
		r.los = -1
	case "Discharge":
		r.next[nextDischarge] = day
		if admit, ok := r.admitOf[e.Ordinal]; ok && admit > 0 {
			r.los = day - admit
		}
		if e.DiedInpt {
			r.next[nextDeath] = day
		}
	case "Transfer":
		if e.Value == "Ward" || e.Value == "Prog" {
			r.next[nextTransferOut] = day
		} else if strings.HasPrefix(e.Value, "ICU") {
			r.next[nextTransferIn] = day
		}
	case "RapidResponse":
		r.next[nextRapidResponse] = day
	case "Proc":
		switch e.Value {
		case "proc/Dialysis":
			r.next[nextDialysis] = day
		case "proc/Intubation":
			r.next[nextIntubation] = day
		}
	}
}

// measurement folds the step's values into the baselines and writes the
// baseline, staging and future-category variables back into the step
func (r *reverse) measurement(s Snapshot, day int) {
	if gfr, ok := s.Get("GFR"); ok && gfr > 0 && (r.baseGFR < 0 || gfr > r.baseGFR) {
		r.baseGFR = gfr
	}
	s["BaselineGFR"] = r.baseGFR

	cr := -1.0
	if v, ok := s.Get("Cr"); ok {
		cr = v
	}
	if cr > 0 && (r.baseCr < 0 || cr < r.baseCr) {
		r.baseCr = cr
	}
	s["BaselineCr"] = r.baseCr

	stage := ckdStage(r.baseGFR)
	s["CKDStage"] = float64(stage)

	inAKI := r.baseCr > 0 && cr > 0 && cr-r.baseCr > AKIDeltaCr
	if inAKI {
		s["inAKI"] = 1
		r.next[nextAKI] = day
	} else {
		s["inAKI"] = 0
		r.next[nextBaselineCr] = day
	}
	s["Future_AKI"] = float64(Category(day, r.next[nextAKI]))
	s["Future_AKIResolution"] = float64(Category(day, r.next[nextBaselineCr]))

	switch stage {
	case 5:
		r.next[nextCKD5] = day
	case 4:
		r.next[nextCKD4] = day
	case 3:
		r.next[nextCKD3] = day
	case 1:
		r.next[nextCKD1] = day
	}
	r.category(s, day, "Future_CKD5", nextCKD5)
	r.category(s, day, "Future_CKD4", nextCKD4)
	r.category(s, day, "Future_CKD3", nextCKD3)

	meld := -1.0
	if v, ok := s.Get("MELD"); ok {
		meld = v
	}
	if meld > 0 && (r.baseMELD < 0 || meld < r.baseMELD) {
		r.baseMELD = meld
	}
	s["BaselineMELD"] = r.baseMELD
	if meld > 0 {
		switch {
		case meld >= 40:
			r.next[nextMELD40] = day
		case meld >= 30:
			r.next[nextMELD30] = day
		case meld >= 20:
			r.next[nextMELD20] = day
		case meld >= 10:
			r.next[nextMELD10] = day
		}
	}
	r.category(s, day, "Future_MELD40", nextMELD40)
	r.category(s, day, "Future_MELD30", nextMELD30)
	r.category(s, day, "Future_MELD20", nextMELD20)
	r.category(s, day, "Future_MELD10", nextMELD10)

	r.category(s, day, "Future_Admission", nextAdmission)
	r.category(s, day, "Future_Discharge", nextDischarge)
	r.category(s, day, "Future_Death", nextDeath)
	r.category(s, day, "Future_TransferOutOfICU", nextTransferOut)
	r.category(s, day, "Future_TransferIntoICU", nextTransferIn)
	r.category(s, day, "Future_RapidResponse", nextRapidResponse)
	r.category(s, day, "Future_Dialysis", nextDialysis)
	r.category(s, day, "Future_Intubation", nextIntubation)

	s["Future_Cirrhosis"] = float64(Category(day, r.diagnosisDay("Cirrhosis")))
	s["Future_ESLD"] = float64(Category(day, r.diagnosisDay("ESLD")))

	if r.los > 0 {
		s["LengthOfStay"] = float64(r.los)
	}
}

func (r *reverse) category(s Snapshot, day int, name string, which int) {
	s[name] = float64(Category(day, r.next[which]))
}

func (r *reverse) diagnosisDay(name string) int {
	if d, ok := r.firstDx[name]; ok {
		return d
	}
	return -1
}

// ckdStage maps a baseline filtration rate to a chronic kidney disease stage;
// an unknown baseline counts as stage 1
func ckdStage(baseGFR float64) int {
	switch {
	case baseGFR >= 60 || baseGFR <= 0:
		return 1
	case baseGFR >= 30:
		return 3
	case baseGFR >= 15:
		return 4
	}
	return 5
}
