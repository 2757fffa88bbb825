package vars

// MaxPastSlackDays bounds how far back a negative offset may search
const MaxPastSlackDays = 365

// MaxFutureSlackDays bounds how far forward a positive offset may search
const MaxFutureSlackDays = 60

func fl(name string, lo, hi float64) Descriptor {
	return Descriptor{Name: name, Min: lo, Max: hi, Type: TypeFloat}
}

func in(name string, lo, hi float64) Descriptor {
	return Descriptor{Name: name, Min: lo, Max: hi, Type: TypeInt}
}

func flag(name string, derived bool, futureDays int) Descriptor {
	return Descriptor{Name: name, Min: 0, Max: 1, Type: TypeBool, Derived: derived, FutureDays: futureDays}
}

func derived(d Descriptor) Descriptor {
	d.Derived = true
	return d
}

func future(name string, days int, predicts string) Descriptor {
	return Descriptor{
		Name:       name,
		Min:        0,
		Max:        NumFutureCategories - 1,
		Type:       TypeFuture,
		Derived:    true,
		FutureDays: days,
		Predicts:   predicts,
	}
}

func timeVar(name string, lo, hi float64, futureDays int) Descriptor {
	d := derived(in(name, lo, hi))
	d.FutureDays = futureDays
	return d
}

func floats(lo, hi float64, names ...string) []Descriptor {
	out := make([]Descriptor, 0, len(names))
	for _, n := range names {
		out = append(out, fl(n, lo, hi))
	}
	return out
}

// builtin is the clinical variable table
func builtin() []Descriptor {
	var ds []Descriptor
	add := func(more ...Descriptor) { ds = append(ds, more...) }

	// CBC
	add(fl("Hgb", 2, 17), fl("WBC", 1, 25), fl("Plt", 30, 500), fl("MCV", 60, 110))

	// BMP
	add(
		fl("Na", 115, 155), fl("K", 2, 7), fl("Cl", 80, 120), fl("CO2", 10, 35),
		fl("BUN", 5, 100), fl("Cr", 0.3, 8), fl("Glc", 50, 300), fl("Ca", 6, 13),
		fl("iCal", 1, 6), fl("Phos", 1, 8), fl("Mg", 1, 3),
	)

	// LFT
	add(
		fl("ALT", 10, 150), fl("AST", 10, 150), fl("ALP", 30, 200),
		fl("Tbili", 0.5, 20), fl("TProt", 1, 8), fl("Alb", 1, 5),
	)

	// urine
	add(floats(1, 100, "UProt", "UAlb", "UNa", "UUN", "UCr", "UCl", "UK", "UCO2")...)
	add(floats(1, 200, "UNa24hr", "UCl24hr", "UK24hr")...)
	add(floats(0.1, 100, "UPEPAlb", "UPEPTProt", "UPEPTProt2", "UCr24hr", "UUN24hr")...)

	// myeloma
	add(fl("FLCKappa", 0.1, 100), fl("FLCLambda", 0.1, 100))

	// misc labs
	add(
		fl("Lac", 0.1, 10), fl("PT", 0.1, 100), fl("PTT", 0.1, 100), fl("INR", 1, 7),
		fl("TropHS", 1, 100), fl("Trop", 0.1, 10), fl("NTBNP", 50, 200), fl("BNP", 50, 200),
		fl("A1c", 5, 15), fl("Procal", 0.01, 2), fl("CRP", 1, 20), fl("Lipase", 1, 50),
	)

	// blood gas
	add(fl("PO2", 20, 200), fl("PCO2", 20, 200), fl("BGSpO2", 50, 100))

	// drug levels
	add(floats(0.1, 100, "VancLvl", "Sirolimus", "GentLvl", "AmikLvl", "CycLvl", "EveroLvl", "DigLvl", "GabapLvl")...)
	add(fl("TacLvl", 0.1, 52), fl("TobLvl", 0.1, 30), fl("MTXLvl", 0.5, 26), fl("VoriLvl", 0.1, 12))

	// derived values
	add(
		derived(fl("GFR", 1, 90)), derived(fl("UPCR", 0.1, 10)), derived(fl("UACR", 0.01, 5)),
		derived(fl("FENa", 0.01, 2)), derived(fl("FEUrea", 5, 50)), derived(fl("AdjustCa", 6, 13)),
		derived(fl("ProtGap", 1, 7)), derived(fl("AnionGap", 5, 20)), derived(fl("UrineAnionGap", -10, 10)),
		derived(fl("KappaLambdaRatio", 0.1, 8)), derived(fl("UPEPInterp", 1, 10)), derived(fl("SPEPInterp", 1, 10)),
	)

	// chronic disease state
	add(
		derived(in("MELD", 1, 50)), derived(in("CKDStage", 1, 5)), derived(fl("BaselineCr", 0.3, 8)),
		derived(in("BaselineGFR", 1, 90)), derived(in("BaselineMELD", 1, 90)), flag("inAKI", true, 0),
	)

	// vitals
	add(
		fl("TF", 95, 105), in("SBP", 50, 180), in("DBP", 30, 120), in("HR", 30, 160),
		fl("SPO2", 70, 100), fl("WtKg", 30, 200), fl("BMI", 15, 50),
	)

	// medication doses
	add(
		fl("WarfarinDose", 1, 9), fl("CycDose", 50, 750), fl("CycDoseAM", 50, 750), fl("CycDosePM", 50, 750),
		fl("MTXDose", 5, 50), fl("TacroDoseAM", 1, 10), fl("TacroDosePM", 1, 10),
		fl("VancDose", 150, 2000), fl("TobraDose", 50, 200), fl("VoriDose", 100, 600),
	)

	// outcomes
	add(
		flag("DiedInpt", true, 0), flag("DiedIn12Mos", true, 60), flag("ReadmitIn30Days", true, 30),
		flag("PreexistingMyeloma", false, 0), flag("DiagMyeloma", false, 0),
		flag("InHospital", false, 0), flag("InICU", false, 0), flag("IsMale", false, 0), flag("IsCaucasian", false, 0),
	)

	// future categories
	add(
		future("Future_Death", 90, PredictsAny),
		future("Future_Admission", 90, PredictsAny),
		future("Future_Discharge", 7, PredictsAny),
		future("Future_RapidResponse", 14, PredictsAny),
		future("Future_TransferIntoICU", 14, PredictsAny),
		future("Future_TransferOutOfICU", 14, PredictsAny),
		future("Future_Dialysis", 60, PredictsAny),
		future("Future_Intubation", 10, PredictsAny),
		future("Future_CKD5", 180, "CKDStage"),
		future("Future_CKD4", 180, "CKDStage"),
		future("Future_CKD3", 180, "CKDStage"),
		future("Future_MELD10", 180, "MELD"),
		future("Future_MELD20", 180, "MELD"),
		future("Future_MELD30", 180, "MELD"),
		future("Future_MELD40", 180, "MELD"),
		future("Future_Cirrhosis", 180, PredictsAny),
		future("Future_ESLD", -1, PredictsAny),
		future("Future_AKI", -1, "Cr"),
		future("Future_AKIResolution", 60, "Cr"),
	)

	// time
	add(
		timeVar("AgeInYrs", 18, 90, 0),
		timeVar("AgeInDays", 6570, 32850, 0),
		timeVar("DaysSinceDialysis", -1, 32850, -1),
		timeVar("LengthOfStay", 0, 32850, -1),
		timeVar("DaysSinceStart", 0, 32850, 0),
		timeVar("DaysUntilStop", 0, 32850, -1),
	)

	// most recent event dates
	for _, n := range []string{
		"MostRecentDialysisDate", "MostRecentCardiacCathDate", "MostRecentIntubationDate",
		"MostRecentPEGDate", "MostRecentCABGDate", "MostRecentMajorSurgeryDate",
		"MostRecentRapidResponseDate",
	} {
		add(timeVar(n, 6570, 32850, 0))
	}

	add(flag("NewLabs", false, 0))
	return ds
}
