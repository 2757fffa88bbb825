package tdf

import (
	"sync"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// pool of fresh fold chains; a chain rejects invalid UTF-8 and reduces the rest to ASCII
var foldPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			encoding.UTF8Validator,
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
		)
	},
}

// foldASCII returns line reduced to ASCII, or false when it is not valid UTF-8
func foldASCII(line []byte) ([]byte, bool) {
	if isASCII(line) {
		return line, true
	}
	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.Bytes(tr, line)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		return nil, false
	}
	return out, true
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c > unicode.MaxASCII {
			return false
		}
	}
	return true
}
