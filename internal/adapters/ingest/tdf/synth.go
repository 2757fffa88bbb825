package tdf

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"chartline/internal/core/timestamp"
)

// SynthOptions sizes a synthetic file
type SynthOptions struct {
	Subjects int
	Seed     uint64
	// MaxAdmissions per subject; 0 means 3
	MaxAdmissions int
}

// Synth writes a deterministic synthetic file: every subject gets one or
// more admissions with daily labs, some medication orders and an outcome
func Synth(w *Writer, opt SynthOptions) error {
	if opt.MaxAdmissions <= 0 {
		opt.MaxAdmissions = 3
	}
	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed^0x9e3779b97f4a7c15))

	w.Header(Header{
		Description: "synthetic timelines",
		DataSource:  "chartline synth seed " + strconv.FormatUint(opt.Seed, 10),
		Keywords:    "synthetic",
	})
	for i := 0; i < opt.Subjects; i++ {
		synthSubject(w, rng, i+1, opt.MaxAdmissions)
	}
	return w.Close()
}

var synthRaces = []string{"C", "W", "B", "A", "H"}

func synthSubject(w *Writer, rng *rand.Rand, id, maxAdmits int) {
	gender := "F"
	if rng.IntN(2) == 0 {
		gender = "M"
	}
	w.StartSubject(SubjectHeader{
		ID:       strconv.Itoa(id),
		Gender:   gender,
		Race:     synthRaces[rng.IntN(len(synthRaces))],
		WeightKg: float64(50 + rng.IntN(60)),
	})

	day := 1 + rng.IntN(30)
	cr := 0.7 + rng.Float64()*0.6
	died := false
	for a, n := 0, 1+rng.IntN(maxAdmits); a < n && !died; a++ {
		los := 1 + rng.IntN(6)
		w.Event("Admit", timestamp.At(day, 2, rng.IntN(60)), "", "")
		if rng.IntN(5) == 0 {
			w.Event("Transfer", timestamp.At(day, 3, 0), "ICU/MICU", "")
		}
		if rng.IntN(8) == 0 {
			w.Data("D", timestamp.At(day, 4, 0), "Cirrhosis")
		}
		for k := 0; k <= los; k++ {
			// an AKI bump on day two of some stays
			if k == 2 && rng.IntN(3) == 0 {
				cr += 0.4 + rng.Float64()
			} else if cr > 1.3 {
				cr -= 0.2
			}
			w.Data("L", timestamp.At(day+k, 6, 0),
				"Cr="+fmt.Sprintf("%.2f", cr),
				"K="+fmt.Sprintf("%.1f", 3.5+rng.Float64()*1.5),
				"Na="+strconv.Itoa(133+rng.IntN(10)),
				"Cl="+strconv.Itoa(98+rng.IntN(8)),
				"CO2="+strconv.Itoa(20+rng.IntN(8)),
				"BUN="+strconv.Itoa(8+rng.IntN(30)),
				"Glc="+strconv.Itoa(80+rng.IntN(120)),
				"Hgb="+fmt.Sprintf("%.1f", 9+rng.Float64()*5),
			)
			if k == los {
				break
			}
			vanc := rng.IntN(3) == 0
			if vanc {
				w.Event("Med", timestamp.At(day+k, 9, 0), "vanc", "1000")
			}
			if rng.IntN(4) == 0 {
				w.Event("Med", timestamp.At(day+k, 18, 0), "warfarin", strconv.Itoa(2+rng.IntN(6)))
			}
			if vanc {
				w.Event("Med", timestamp.At(day+k, 21, 0), "vanc", "1000")
			}
		}
		died = rng.IntN(20) == 0
		w.Event("Discharge", timestamp.At(day+los, 14, 0), "", "")
		day += los + 10 + rng.IntN(120)
	}
	w.Outcome("Admit", map[string]bool{
		"DiedInpt":        died,
		"DiedIn12Mos":     died || rng.IntN(10) == 0,
		"ReadmitIn30Days": rng.IntN(6) == 0,
	})
	w.EndSubject()
}
