package timeline

import "math"

// derive recomputes the derived indices from the live snapshot. Each formula
// writes only when all of its inputs are present; the order is fixed because
// later formulas read earlier results.
func (f *forward) derive(day int) {
	s := f.live
	s["AgeInYrs"] = float64(day / 365)
	s["AgeInDays"] = float64(day)

	f.gfr(s)

	if na, cl, co2, ok := get3(s, "Na", "Cl", "CO2"); ok {
		s["AnionGap"] = na - (cl + co2)
	}
	if una, uk, ucl, ok := get3(s, "UNa", "UK", "UCl"); ok && s.Has("Na") {
		s["UrineAnionGap"] = (una + uk) - ucl
	}

	if v, ok := s.Get("UPEPAlb"); ok {
		s["UACR"] = v
	} else if alb, ucr, ok := get2(s, "UAlb", "UCr"); ok && ucr > 0 {
		s["UACR"] = alb / ucr
	}

	if cr, una, na, ucr, ok := get4(s, "Cr", "UNa", "Na", "UCr"); ok && na > 0 && ucr > 0 {
		s["FENa"] = round(100*(cr*una)/(na*ucr), 1)
	}
	if cr, uun, bun, ucr, ok := get4(s, "Cr", "UUN", "BUN", "UCr"); ok && bun > 0 && ucr > 0 {
		s["FEUrea"] = round(100*(cr*uun)/(bun*ucr), 1)
	}

	if ca, ok := s.Get("Ca"); ok {
		if alb, ok := s.Get("Alb"); ok {
			s["AdjustCa"] = round(ca+0.8*(4-alb), 1)
		} else {
			s["AdjustCa"] = ca
		}
	}

	if v, ok := s.Get("UPEPTProt"); ok {
		s["UPCR"] = v
	} else if !s.Has("UPCR") {
		if prot, ucr, ok := get2(s, "UProt", "UCr"); ok && ucr > 0 {
			s["UPCR"] = prot / ucr
		}
	}

	if tp, alb, ok := get2(s, "TProt", "Alb"); ok {
		s["ProtGap"] = tp - alb
	}
	if k, l, ok := get2(s, "FLCKappa", "FLCLambda"); ok && l > 0 {
		s["KappaLambdaRatio"] = k / l
	}

	if cr, bili, inr, ok := get3(s, "Cr", "Tbili", "INR"); ok && cr > 0 && bili > 0 && inr > 0 {
		s["MELD"] = 10*(0.957*math.Log(cr)+0.378*math.Log(bili)+1.12*math.Log(inr)) + 6.43
	}
}

// gfr is the Cockcroft-Gault estimate; missing weight falls back to 70 kg
func (f *forward) gfr(s Snapshot) {
	age, cr, ok := get2(s, "AgeInYrs", "Cr")
	if !ok || age < 0 || cr <= 0 {
		return
	}
	wt := f.tl.Subject.WeightKg
	if wt <= 0 {
		wt = 70
	}
	v := ((140 - age) * wt) / (cr * 72)
	if !f.tl.Subject.IsMale {
		v *= 0.85
	}
	v = round(v, 2)
	if v < 2 {
		return
	}
	s["GFR"] = v
}

func get2(s Snapshot, a, b string) (float64, float64, bool) {
	x, ok1 := s[a]
	y, ok2 := s[b]
	return x, y, ok1 && ok2
}

func get3(s Snapshot, a, b, c string) (float64, float64, float64, bool) {
	x, y, ok := get2(s, a, b)
	z, ok3 := s[c]
	return x, y, z, ok && ok3
}

func get4(s Snapshot, a, b, c, d string) (float64, float64, float64, float64, bool) {
	x, y, z, ok := get3(s, a, b, c)
	w, ok4 := s[d]
	return x, y, z, w, ok && ok4
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
