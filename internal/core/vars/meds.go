package vars

import "strings"

// DosePrefix is the reserved stem prefix for medication quantities, e.g. Dose/Warfarin
const DosePrefix = "Dose/"

// Med describes how order events for one medication feed the daily dose table
type Med struct {
	// Var receives the dose; for split AM/PM meds it is the whole-day total
	Var string
	// AM and PM receive the morning (hour 0-12) and evening doses when set
	AM, PM string
	// Accumulate sums a day's orders instead of keeping the last one
	Accumulate bool
}

var meds = map[string]Med{
	"warfarin":     {Var: "WarfarinDose"},
	"coumadin":     {Var: "WarfarinDose"},
	"coum":         {Var: "WarfarinDose"},
	"mtx":          {Var: "MTXDose"},
	"methotrexate": {Var: "MTXDose"},
	"tac":          {AM: "TacroDoseAM", PM: "TacroDosePM"},
	"tacrolimus":   {AM: "TacroDoseAM", PM: "TacroDosePM"},
	"vanc":         {Var: "VancDose", Accumulate: true},
	"vancomycin":   {Var: "VancDose", Accumulate: true},
	"vori":         {Var: "VoriDose", Accumulate: true},
	"voriconazole": {Var: "VoriDose", Accumulate: true},
	"tob":          {Var: "TobraDose", Accumulate: true},
	"tobramycin":   {Var: "TobraDose", Accumulate: true},
	"csa":          {Var: "CycDose", AM: "CycDoseAM", PM: "CycDosePM", Accumulate: true},
	"cyclosporine": {Var: "CycDose", AM: "CycDoseAM", PM: "CycDosePM", Accumulate: true},
}

// LookupMed finds a medication by order name, case-insensitively
func LookupMed(name string) (Med, bool) {
	m, ok := meds[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// MedDose maps a medication name to the variable that carries its dose.
// Split meds resolve to their AM variable.
func MedDose(name string) (string, bool) {
	m, ok := LookupMed(name)
	if !ok {
		return "", false
	}
	if m.Var != "" {
		return m.Var, true
	}
	return m.AM, true
}

// CarriedDoses are committed into every new day's snapshot; they persist
// until a later order changes them
var CarriedDoses = []string{"WarfarinDose", "MTXDose", "TacroDoseAM", "TacroDosePM", "VoriDose"}

// DailyCounters restart at zero every day and sum that day's orders
var DailyCounters = []string{"VancDose", "TobraDose", "VoriDose", "CycDose"}
