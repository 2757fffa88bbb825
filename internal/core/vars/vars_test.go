package vars

import (
	"math"
	"testing"

	perr "chartline/internal/platform/errors"
	kit "chartline/internal/platform/testkit"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	if r != Default() {
		t.Fatalf("Default should be built once")
	}
	for _, name := range []string{"Cr", "GFR", "Future_Death", "inAKI", "VancDose", "NewLabs", "MostRecentPEGDate"} {
		if _, ok := r.Lookup(name); !ok {
			t.Fatalf("missing %s", name)
		}
	}
	names := r.Names()
	if len(names) != r.Len() || len(r.All()) != r.Len() {
		t.Fatalf("names/all/len disagree: %d %d %d", len(names), len(r.All()), r.Len())
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted at %d: %q %q", i, names[i-1], names[i])
		}
	}
	names[0] = "mutated"
	if r.Names()[0] == "mutated" {
		t.Fatalf("Names must return a copy")
	}
}

func TestDescriptorShapes(t *testing.T) {
	r := Default()
	cases := []struct {
		name      string
		typ       Type
		min, max  float64
		predicts  string
		lookahead bool
	}{
		{"Cr", TypeFloat, 0.3, 8, "", false},
		{"UPEPAlb", TypeFloat, 0.1, 100, "", false},
		{"inAKI", TypeBool, 0, 1, "", false},
		{"MELD", TypeInt, 1, 50, "", false},
		{"Future_CKD5", TypeFuture, 0, 13, "CKDStage", true},
		{"Future_Death", TypeFuture, 0, 13, PredictsAny, true},
		{"UrineAnionGap", TypeFloat, -10, 10, "", false},
	}
	for _, c := range cases {
		d, err := r.Get(c.name)
		if err != nil {
			t.Fatalf("get %s: %v", c.name, err)
		}
		if d.Type != c.typ || d.Min != c.min || d.Max != c.max || d.Predicts != c.predicts {
			t.Fatalf("%s: got %+v", c.name, d)
		}
		if d.NeedsLookahead() != c.lookahead {
			t.Fatalf("%s: lookahead=%v", c.name, d.NeedsLookahead())
		}
	}

	d, _ := r.Get("Future_Death")
	if d.Signal() != "Future_Death" {
		t.Fatalf("ANY signal should be the variable itself, got %q", d.Signal())
	}
	d, _ = r.Get("Future_AKI")
	if d.Signal() != "Cr" || d.FutureDays != -1 {
		t.Fatalf("Future_AKI: %+v", d)
	}
}

func TestNewRejects(t *testing.T) {
	cases := map[string][]Descriptor{
		"empty name": {{Name: "", Min: 0, Max: 1}},
		"duplicate":  {{Name: "A", Max: 1}, {Name: "A", Max: 2}},
		"inverted":   {{Name: "B", Min: 5, Max: 1}},
	}
	for name, ds := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := New(ds); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
				t.Fatalf("err=%v", err)
			}
		})
	}
}

func TestGetUnknown(t *testing.T) {
	_, err := Default().Get("NoSuchLab")
	if !perr.IsCode(err, perr.ErrorCodeUnknownVariable) {
		t.Fatalf("err=%v", err)
	}
	kit.MustContain(t, err.Error(), "NoSuchLab")
}

func TestParseRef(t *testing.T) {
	cases := []struct {
		in   string
		name string
		off  int
		bad  bool
	}{
		{"Cr", "Cr", 0, false},
		{" Cr[-3] ", "Cr", -3, false},
		{"Cr[+2]", "Cr", 2, false},
		{"Cr[0]", "Cr", 0, false},
		{"", "", 0, true},
		{"[3]", "", 0, true},
		{"Cr[3", "", 0, true},
		{"Cr]", "", 0, true},
		{"Cr[x]", "", 0, true},
	}
	for _, c := range cases {
		name, off, err := ParseRef(c.in)
		if c.bad {
			if err == nil {
				t.Fatalf("ParseRef(%q) expected error", c.in)
			}
			continue
		}
		if err != nil || name != c.name || off != c.off {
			t.Fatalf("ParseRef(%q)=%q,%d,%v", c.in, name, off, err)
		}
	}
}

func TestResolveDoseAlias(t *testing.T) {
	r := Default()
	ref, err := r.Resolve("Dose/Coumadin[-1]")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.Name != "WarfarinDose" || ref.Offset != -1 || ref.Raw != "Dose/Coumadin[-1]" {
		t.Fatalf("ref=%+v", ref)
	}
	if _, err := r.Resolve("Dose/Aspirin"); !perr.IsCode(err, perr.ErrorCodeUnknownVariable) {
		t.Fatalf("unknown med err=%v", err)
	}
	if _, err := r.ResolveAll([]string{"Cr", "Bogus"}); err == nil {
		t.Fatalf("ResolveAll should fail on Bogus")
	}
}

func TestMeds(t *testing.T) {
	for _, c := range []struct{ med, want string }{
		{"warfarin", "WarfarinDose"},
		{"COUM", "WarfarinDose"},
		{"tacrolimus", "TacroDoseAM"},
		{"csa", "CycDose"},
		{"Vancomycin", "VancDose"},
	} {
		got, ok := MedDose(c.med)
		if !ok || got != c.want {
			t.Fatalf("MedDose(%q)=%q,%v", c.med, got, ok)
		}
	}
	m, _ := LookupMed("cyclosporine")
	if !m.Accumulate || m.AM != "CycDoseAM" || m.PM != "CycDosePM" {
		t.Fatalf("cyclosporine rule: %+v", m)
	}
	for _, n := range append(append([]string{}, CarriedDoses...), DailyCounters...) {
		if _, ok := Default().Lookup(n); !ok {
			t.Fatalf("dose variable %s not registered", n)
		}
	}
}

func TestNormalize(t *testing.T) {
	cr, _ := Default().Get("Cr")
	kit.MustEqualFloat(t, "min", Normalize(0.1, cr, NormFraction), 0, kit.Tolerance)
	kit.MustEqualFloat(t, "max", Normalize(99, cr, NormFraction), 1, kit.Tolerance)
	kit.MustEqualFloat(t, "mid", Normalize(4.15, cr, NormFraction), 0.5, kit.Tolerance)
	kit.MustEqualFloat(t, "int", Normalize(4.15, cr, NormInt100), 50, kit.Tolerance)

	flat := Descriptor{Name: "flat", Min: 3, Max: 3}
	kit.MustEqualFloat(t, "flat", Normalize(7, flat, NormFraction), 0, kit.Tolerance)

	for in, want := range map[string]NormMode{"": NormFraction, "NormInt0-100": NormInt100, "normfraction": NormFraction} {
		got, err := ParseNorm(in)
		if err != nil || got != want {
			t.Fatalf("ParseNorm(%q)=%q,%v", in, got, err)
		}
	}
	if _, err := ParseNorm("zscore"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResultClass(t *testing.T) {
	r := Default()
	cases := []struct {
		name string
		v    float64
		want int
	}{
		{"inAKI", 1, 1},
		{"inAKI", 0, 0},
		{"Future_Death", 7, 7},
		{"Future_Death", 40, 13},
		{"Future_Death", -2, 0},
		{"Cr", 0.3, 0},
		{"Cr", 8, 19},
		{"Cr", 4.2, 10},
		{"Cr[-2]", 8, 19},
		{"Cr", math.NaN(), 0},
	}
	for _, c := range cases {
		got, err := r.ResultClass(c.name, c.v)
		if err != nil || got != c.want {
			t.Fatalf("ResultClass(%s,%v)=%d,%v want %d", c.name, c.v, got, err, c.want)
		}
	}
	for name, want := range map[string]int{"inAKI": 2, "Future_MELD10": 14, "Cr[+1]": 1} {
		got, err := r.NumClasses(name)
		if err != nil || got != want {
			t.Fatalf("NumClasses(%s)=%d,%v", name, got, err)
		}
	}
}

func TestTypeText(t *testing.T) {
	b, _ := TypeFuture.MarshalText()
	if string(b) != "future" || Type(99).String() != "unknown" {
		t.Fatalf("type text: %s", b)
	}
	var back Type
	if err := back.UnmarshalText(b); err != nil || back != TypeFuture {
		t.Fatalf("unmarshal: %v %v", back, err)
	}
	if err := back.UnmarshalText([]byte("text")); err == nil {
		t.Fatalf("expected an error for an unknown type")
	}
}
