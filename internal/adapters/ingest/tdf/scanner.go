package tdf

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"

	perr "chartline/internal/platform/errors"
	"chartline/internal/platform/logger"
)

const (
	readBufSize  = 256 * 1024
	sampleRawMax = 256 // max bytes of an undecodable line to log
)

// Range is a half open byte range [Start, End) of the file
type Range struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Len is the range size in bytes
func (r Range) Len() int64 { return r.End - r.Start }

// Located is the outcome of one locate call. Found and EOF are independent:
// a partition that ends before the file does returns neither.
type Located struct {
	Found bool
	EOF   bool
	Range Range
	// Text is the folded record text, one line per source line
	Text []byte
}

// Stats are running scanner counters
type Stats struct {
	Lines        int
	Records      int
	DecodeErrors int
	Bytes        int64
}

// Scanner finds subject records inside a byte partition of a file
// a Scanner is not safe for concurrent use; open one per worker
type Scanner struct {
	r       io.ReadSeeker
	br      *bufio.Reader
	pos     int64
	stats   Stats
	sampled bool
	log     *logger.Logger
}

// Open opens path for scanning
func Open(path string) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.IOf(err, "tdf: open %s", path)
	}
	return NewScanner(f), nil
}

// NewScanner scans r; Close closes r when it is an io.Closer
func NewScanner(r io.ReadSeeker) *Scanner {
	return &Scanner{
		r:   r,
		br:  bufio.NewReaderSize(r, readBufSize),
		log: logger.Named("tdf"),
	}
}

// Close releases the underlying file
func (s *Scanner) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Stats returns the counters so far
func (s *Scanner) Stats() Stats { return s.stats }

// LocateFirst positions the scanner at start and returns the first record
// whose opening line starts before stop. At start 0 the file header is
// skipped; elsewhere a partial line at start is discarded. stop <= 0 means
// the partition runs to the end of the file.
func (s *Scanner) LocateFirst(start, stop int64) (Located, error) {
	if start < 0 {
		return Located{}, perr.InvalidArgf("tdf: negative start %d", start)
	}
	if start == 0 {
		if err := s.seek(0); err != nil {
			return Located{}, err
		}
		return s.afterHeader(stop)
	}

	// a line starting exactly at start belongs to this partition
	if err := s.seek(start - 1); err != nil {
		return Located{}, err
	}
	prev, err := s.br.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Located{EOF: true}, nil
		}
		return Located{}, perr.IOf(err, "tdf: read at %d", start-1)
	}
	s.pos++
	s.stats.Bytes++
	if prev != '\n' {
		line, err := s.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return Located{}, err
		}
		if len(line) == 0 && errors.Is(err, io.EOF) {
			return Located{EOF: true}, nil
		}
	}
	return s.LocateNext(stop)
}

// LocateNext returns the next record whose opening line starts before stop.
// The record itself may run past stop.
func (s *Scanner) LocateNext(stop int64) (Located, error) {
	var (
		buf      []byte
		started  bool
		recStart int64
	)
	for {
		if stop > 0 && !started && s.pos >= stop {
			return Located{}, nil
		}
		lineStart := s.pos
		raw, err := s.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return Located{}, err
		}
		if len(raw) == 0 {
			if started {
				s.log.Warn().Int64("offset", recStart).Msg("tdf: unterminated record at end of file")
			}
			return Located{EOF: true}, nil
		}
		s.stats.Lines++

		line, ok := s.decode(raw, lineStart)
		if ok {
			tok := bytes.ToLower(bytes.TrimSpace(line))
			if !started && isOpen(tok) {
				started = true
				recStart = lineStart
			}
			if started {
				buf = append(buf, bytes.ReplaceAll(line, []byte("=<"), nil)...)
				if bytes.HasSuffix(tok, []byte("</patient>")) {
					s.stats.Records++
					return Located{Found: true, Range: Range{Start: recStart, End: s.pos}, Text: buf}, nil
				}
			}
		}
		if errors.Is(err, io.EOF) {
			if started {
				s.log.Warn().Int64("offset", recStart).Msg("tdf: unterminated record at end of file")
			}
			return Located{EOF: true}, nil
		}
	}
}

// afterHeader skips to just past <PatientList>, or past </Head> when the list
// marker is missing. A record that opens before either marker is taken as is.
func (s *Scanner) afterHeader(stop int64) (Located, error) {
	for {
		if stop > 0 && s.pos >= stop {
			return Located{}, nil
		}
		lineStart := s.pos
		raw, err := s.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return Located{}, err
		}
		if len(raw) == 0 {
			return Located{EOF: true}, nil
		}
		s.stats.Lines++
		tok := bytes.ToLower(bytes.TrimSpace(raw))
		switch {
		case bytes.Equal(tok, []byte("<patientlist>")), bytes.Equal(tok, []byte("</head>")):
			if errors.Is(err, io.EOF) {
				return Located{EOF: true}, nil
			}
			return s.LocateNext(stop)
		case isOpen(tok):
			// rewind so LocateNext sees the opening line
			if err := s.seek(lineStart); err != nil {
				return Located{}, err
			}
			s.stats.Lines--
			s.stats.Bytes -= int64(len(raw))
			return s.LocateNext(stop)
		}
		if errors.Is(err, io.EOF) {
			return Located{EOF: true}, nil
		}
	}
}

func (s *Scanner) seek(off int64) error {
	if _, err := s.r.Seek(off, io.SeekStart); err != nil {
		return perr.IOf(err, "tdf: seek %d", off)
	}
	s.br.Reset(s.r)
	s.pos = off
	return nil
}

// readLine returns the next line including its newline; a final line
// without one comes back with io.EOF
func (s *Scanner) readLine() ([]byte, error) {
	line, err := s.br.ReadBytes('\n')
	s.pos += int64(len(line))
	s.stats.Bytes += int64(len(line))
	if err != nil && !errors.Is(err, io.EOF) {
		return line, perr.IOf(err, "tdf: read at %d", s.pos)
	}
	return line, err
}

func (s *Scanner) decode(raw []byte, offset int64) ([]byte, bool) {
	line, ok := foldASCII(raw)
	if ok {
		return line, true
	}
	s.stats.DecodeErrors++
	if !s.sampled {
		s.sampled = true
		s.log.Warn().
			Int64("offset", offset).
			Str("sample_raw", truncate(raw, sampleRawMax)).
			Msg("tdf: skipping line that is not valid UTF-8")
		return nil, false
	}
	s.log.Debug().Int64("offset", offset).Msg("tdf: skipping line that is not valid UTF-8")
	return nil, false
}

// isOpen reports a <Patient ...> opening line; tok is trimmed and lower cased
func isOpen(tok []byte) bool {
	const open = "<patient"
	if !bytes.HasPrefix(tok, []byte(open)) || len(tok) == len(open) {
		return false
	}
	switch tok[len(open)] {
	case '>', ' ', '\t':
		return true
	}
	return false
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(bytes.ToValidUTF8(b, []byte("?")))
	}
	return string(bytes.ToValidUTF8(b[:max], []byte("?"))) + "..."
}
