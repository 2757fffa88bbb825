package timestamp

import (
	"testing"

	perr "chartline/internal/platform/errors"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		d, h, m int
		want    string
	}{
		{0, 0, 0, "00:00:00"},
		{5, 7, 9, "05:07:09"},
		{18506, 23, 59, "18506:23:59"},
		{100, 10, 5, "100:10:05"},
	}
	for _, c := range cases {
		if got := Format(c.d, c.h, c.m); got != c.want {
			t.Fatalf("Format(%d,%d,%d)=%q want %q", c.d, c.h, c.m, got, c.want)
		}
	}
	if got := FormatSeconds(1, 2, 3, 4); got != "01:02:03:04" {
		t.Fatalf("FormatSeconds got %q", got)
	}
	if got := FormatSeconds(1, 2, 3, -1); got != "01:02:03" {
		t.Fatalf("FormatSeconds without seconds got %q", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for d := 0; d < 400; d += 37 {
		for h := 0; h < 24; h += 5 {
			for m := 0; m < 60; m += 13 {
				st, err := Parse(Format(d, h, m))
				if err != nil {
					t.Fatalf("parse %d:%d:%d: %v", d, h, m, err)
				}
				if st.Days != d || st.Hours != h || st.Minutes != m || st.HasSeconds() {
					t.Fatalf("round trip mismatch: got %+v want %d:%d:%d", st, d, h, m)
				}
			}
		}
	}

	st, err := Parse("12:01:02:03")
	if err != nil {
		t.Fatalf("parse with seconds: %v", err)
	}
	if st.Seconds != 3 || st.String() != "12:01:02:03" {
		t.Fatalf("seconds round trip: %+v", st)
	}
}

func TestParseRejects(t *testing.T) {
	bad := []string{
		"",
		"1:02:03",
		"01:02",
		"01:02:03:04:05",
		"aa:02:03",
		"01:-2:03",
		"01:+2:03",
		"01::03",
	}
	for _, s := range bad {
		_, err := Parse(s)
		if err == nil {
			t.Fatalf("Parse(%q) expected error", s)
		}
		if !perr.IsCode(err, perr.ErrorCodeMalformed) {
			t.Fatalf("Parse(%q) code=%v want malformed", s, perr.CodeOf(err))
		}
	}
}

func TestSecondsAndHours(t *testing.T) {
	st := Stamp{Days: 2, Hours: 3, Minutes: 4, Seconds: -1}
	if got := st.ToSeconds(); got != 2*86400+3*3600+4*60 {
		t.Fatalf("ToSeconds=%d", got)
	}
	st.Seconds = 9
	if got := st.ToSeconds(); got != 2*86400+3*3600+4*60+9 {
		t.Fatalf("ToSeconds with seconds=%d", got)
	}
	if st.AbsHours() != 51 {
		t.Fatalf("AbsHours=%d", st.AbsHours())
	}
}

func TestAt(t *testing.T) {
	st := At(10, 8, 5)
	if st.HasSeconds() || st.String() != "10:08:05" {
		t.Fatalf("At=%+v %q", st, st.String())
	}
}
