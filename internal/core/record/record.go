// Package record parses one subject block of a timeline file into an ordered entry list
package record

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"

	"chartline/internal/core/timestamp"
	perr "chartline/internal/platform/errors"
)

// Kind separates the three entry shapes of a subject block
type Kind int

const (
	// KindEvent is an E element: admit, discharge, transfer, procedure, medication
	KindEvent Kind = iota
	// KindMeasurement is a D element: labs, vitals or diagnoses sampled together
	KindMeasurement
	// KindOutcome is an OC element carrying named booleans
	KindOutcome
)

func (k Kind) String() string {
	switch k {
	case KindEvent:
		return "event"
	case KindMeasurement:
		return "measurement"
	case KindOutcome:
		return "outcome"
	}
	return "unknown"
}

// measurement classes
const (
	ClassLab       = "L"
	ClassVital     = "V"
	ClassDiagnosis = "D"
)

// Pair is one name=value item of a measurement body; Value stays raw text
type Pair struct {
	Name  string
	Value string
}

// Entry is one parsed element of a subject block
type Entry struct {
	Ordinal int
	Kind    Kind

	// Class is the C attribute; the Scope attribute for outcomes
	Class    string
	Value    string
	Detail   string
	Priority string

	Stamp    timestamp.Stamp
	HasStamp bool

	Pairs     []Pair
	Diagnoses []string
	Flags     map[string]bool

	// DiedInpt is the optional death flag on discharge events
	DiedInpt bool
}

// Subject is one parsed subject record
type Subject struct {
	ID       string
	IsMale   bool
	Race     string
	WeightKg float64
	Entries  []Entry

	// Skipped counts child elements dropped for a malformed stamp
	Skipped int
}

// IsCaucasian reports the race code used by the demographic flags
func (s *Subject) IsCaucasian() bool {
	return s.Race == "C"
}

type rawNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
}

func (n rawNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Parse reads a <Patient>...</Patient> block. Entries with a bad stamp are
// dropped and counted; a block that is not well-formed XML is an error.
func Parse(text []byte) (*Subject, error) {
	dec := xml.NewDecoder(bytes.NewReader(text))

	var sub *Subject
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeMalformed, "record: bad block")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if sub == nil {
				if t.Name.Local != "Patient" {
					return nil, perr.Malformedf("record: block opens with <%s>, want <Patient>", t.Name.Local)
				}
				sub = newSubject(t.Attr)
				depth = 1
				continue
			}
			var n rawNode
			if err := dec.DecodeElement(&n, &t); err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeMalformed, "record: subject %s: bad <%s>", sub.ID, t.Name.Local)
			}
			sub.add(n)
		case xml.EndElement:
			if sub != nil {
				depth--
			}
		}
		if sub != nil && depth == 0 {
			break
		}
	}
	if sub == nil {
		return nil, perr.Malformedf("record: no <Patient> element")
	}
	if depth != 0 {
		return nil, perr.Malformedf("record: subject %s is not closed", sub.ID)
	}
	return sub, nil
}

func newSubject(attrs []xml.Attr) *Subject {
	s := &Subject{Race: "C", WeightKg: -1}
	for _, a := range attrs {
		switch a.Name.Local {
		case "id":
			s.ID = a.Value
		case "gender":
			s.IsMale = a.Value == "M"
		case "race":
			if a.Value != "" {
				s.Race = a.Value
			}
		case "wt":
			if w, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64); err == nil {
				s.WeightKg = w
			}
		}
	}
	return s
}

func (s *Subject) add(n rawNode) {
	var e Entry
	var ok bool
	switch n.XMLName.Local {
	case "E":
		e, ok = parseEvent(n)
	case "D":
		e, ok = parseMeasurement(n)
	case "OC":
		e, ok = parseOutcome(n)
	default:
		return
	}
	if !ok {
		s.Skipped++
		return
	}
	e.Ordinal = len(s.Entries)
	s.Entries = append(s.Entries, e)
}

func stampOf(n rawNode, required bool) (timestamp.Stamp, bool, bool) {
	raw, present := n.attr("T")
	if !present || strings.TrimSpace(raw) == "" {
		return timestamp.Stamp{}, false, !required
	}
	st, err := timestamp.Parse(raw)
	if err != nil {
		return timestamp.Stamp{}, false, false
	}
	return st, true, true
}

func parseEvent(n rawNode) (Entry, bool) {
	st, has, ok := stampOf(n, true)
	if !ok {
		return Entry{}, false
	}
	e := Entry{Kind: KindEvent, Stamp: st, HasStamp: has}
	e.Class, _ = n.attr("C")
	e.Value, _ = n.attr("V")
	e.Detail, _ = n.attr("D")
	e.Priority, _ = n.attr("P")
	if v, _ := n.attr("DiedInpt"); v == "T" {
		e.DiedInpt = true
	}
	return e, true
}

func parseMeasurement(n rawNode) (Entry, bool) {
	st, has, ok := stampOf(n, true)
	if !ok {
		return Entry{}, false
	}
	e := Entry{Kind: KindMeasurement, Stamp: st, HasStamp: has}
	e.Class, _ = n.attr("C")
	body := strings.TrimSpace(n.Text)
	if e.Class == ClassDiagnosis {
		for _, d := range strings.Split(body, ",") {
			if d = strings.TrimSpace(d); d != "" {
				e.Diagnoses = append(e.Diagnoses, d)
			}
		}
		return e, true
	}
	e.Pairs = splitPairs(body)
	return e, true
}

func parseOutcome(n rawNode) (Entry, bool) {
	st, has, ok := stampOf(n, false)
	if !ok {
		return Entry{}, false
	}
	e := Entry{Kind: KindOutcome, Stamp: st, HasStamp: has, Flags: map[string]bool{}}
	for _, a := range n.Attrs {
		switch a.Name.Local {
		case "scope":
			e.Class = a.Value
		case "T":
		default:
			e.Flags[a.Name.Local] = a.Value == "T"
		}
	}
	for _, p := range flagPairs(n.Text) {
		e.Flags[p.Name] = p.Value == "T"
	}
	return e, true
}

// flagPairs reads outcome bodies written either as `A=T,B=F` or as
// space separated quoted pairs `A="T" B="F"`
func flagPairs(body string) []Pair {
	var out []Pair
	fields := strings.FieldsFunc(body, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	for _, f := range fields {
		name, val, found := strings.Cut(f, "=")
		if !found || name == "" {
			continue
		}
		out = append(out, Pair{Name: name, Value: strings.Trim(val, `"'`)})
	}
	return out
}

func splitPairs(body string) []Pair {
	if body == "" {
		return nil
	}
	var out []Pair
	for _, item := range strings.Split(body, ",") {
		name, val, found := strings.Cut(item, "=")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Pair{Name: name, Value: strings.TrimSpace(val)})
	}
	return out
}
