package tdf

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"chartline/internal/core/timestamp"
	perr "chartline/internal/platform/errors"
)

// Header is the descriptive block at the top of a file
type Header struct {
	Description string
	DataSource  string
	Keywords    string
	Created     time.Time
}

// SubjectHeader holds the attributes of a <Patient> element; WeightKg <= 0 is omitted
type SubjectHeader struct {
	ID       string
	Gender   string
	Race     string
	WeightKg float64
}

// Writer emits a file one element at a time. Errors are sticky: after the
// first failure every call is a no-op and Close reports it.
type Writer struct {
	bw     *bufio.Writer
	closer io.Closer
	err    error
	open   bool
}

// Create truncates path and writes to it
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, perr.IOf(err, "tdf: create %s", path)
	}
	w := NewWriter(f)
	w.closer = f
	return w, nil
}

// NewWriter writes to w; Close flushes but does not close w
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

func (w *Writer) printf(format string, a ...any) {
	if w.err != nil {
		return
	}
	if _, err := fmt.Fprintf(w.bw, format, a...); err != nil {
		w.err = perr.IOf(err, "tdf: write")
	}
}

// Header writes the XML prolog, the Head block and opens the patient list
func (w *Writer) Header(h Header) {
	created := h.Created
	if created.IsZero() {
		created = time.Now()
	}
	w.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	w.printf("<TDF version=\"1.0\">\n\n")
	w.printf("<Head>\n")
	w.printf("    <Vocab>Medicine</Vocab>\n")
	w.printf("    <Description>%s</Description>\n", clean(h.Description))
	w.printf("    <DataSource>%s</DataSource>\n", clean(h.DataSource))
	w.printf("    <Created>%s</Created>\n", created.Format("Jan-02-2006 15:04"))
	w.printf("    <Keywords>%s</Keywords>\n", clean(h.Keywords))
	w.printf("</Head>\n\n")
	w.printf("<PatientList>\n")
}

// StartSubject opens a <Patient> element
func (w *Writer) StartSubject(s SubjectHeader) {
	if w.err == nil && w.open {
		w.err = perr.InvalidArgf("tdf: subject %s started inside another subject", s.ID)
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n\n<Patient id=\"%s\"", clean(s.ID))
	if s.Gender != "" {
		fmt.Fprintf(&b, " gender=\"%s\"", clean(s.Gender))
	}
	if s.Race != "" {
		fmt.Fprintf(&b, " race=\"%s\"", clean(s.Race))
	}
	if s.WeightKg > 0 {
		fmt.Fprintf(&b, " wt=\"%s\"", strconv.FormatFloat(s.WeightKg, 'f', -1, 64))
	}
	b.WriteString(">\n")
	w.printf("%s", b.String())
	w.open = true
}

// Event writes an E element; empty value and detail are omitted
func (w *Writer) Event(class string, at timestamp.Stamp, value, detail string) {
	var b strings.Builder
	fmt.Fprintf(&b, "    <E C=\"%s\" T=\"%s\"", clean(class), at.String())
	if value != "" {
		fmt.Fprintf(&b, " V=\"%s\"", clean(value))
	}
	if detail != "" {
		fmt.Fprintf(&b, " D=\"%s\"", clean(detail))
	}
	b.WriteString(" />\n")
	w.element(b.String())
}

// Data writes a D element; values are name=value pairs in the order given
func (w *Writer) Data(class string, at timestamp.Stamp, pairs ...string) {
	w.element(fmt.Sprintf("    <D C=\"%s\" T=\"%s\">%s</D>\n", clean(class), at.String(), clean(strings.Join(pairs, ","))))
}

// Outcome writes an OC element with its flags as T/F attributes in name order
func (w *Writer) Outcome(scope string, flags map[string]bool) {
	names := make([]string, 0, len(flags))
	for n := range flags {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "    <OC scope=\"%s\"", clean(scope))
	for _, n := range names {
		v := "F"
		if flags[n] {
			v = "T"
		}
		fmt.Fprintf(&b, " %s=\"%s\"", clean(n), v)
	}
	b.WriteString(" />\n")
	w.element(b.String())
}

func (w *Writer) element(s string) {
	if w.err == nil && !w.open {
		w.err = perr.InvalidArgf("tdf: element outside a subject")
		return
	}
	w.printf("%s", s)
}

// EndSubject closes the current <Patient>
func (w *Writer) EndSubject() {
	w.element("</Patient>\n")
	w.open = false
}

// Close writes the footer, flushes and closes a file opened by Create
func (w *Writer) Close() error {
	if w.err == nil && w.open {
		w.err = perr.InvalidArgf("tdf: close with an open subject")
	}
	w.printf("\n</PatientList>\n\n</TDF>\n\n")
	if w.err == nil {
		if err := w.bw.Flush(); err != nil {
			w.err = perr.IOf(err, "tdf: flush")
		}
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil && w.err == nil {
			w.err = perr.IOf(err, "tdf: close")
		}
	}
	return w.err
}

// cleaner drops the characters that would break the line oriented layout
var cleaner = strings.NewReplacer("<", "", ">", "", "\"", "", "\n", " ", "\r", "")

func clean(s string) string { return cleaner.Replace(s) }
