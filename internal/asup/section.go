package asup

import (
	"regexp"
	"unicode/utf8"
)

// Locator describes how to find one section of a report. The body starts
// right after a Start match and ends at the earliest following match of any
// End alternative, or at end of text when AllowEOF is set.
type Locator struct {
	Start    *regexp.Regexp
	Ends     []*regexp.Regexp
	AllowEOF bool
}

// Span is a located section body. Key holds the first capture group of the
// start marker when it has one.
type Span struct {
	Start int
	End   int
	Key   string
}

// Body returns the section text for s
func (s Span) Body(text string) string {
	return text[s.Start:s.End]
}

// section builds a Locator from pattern strings
func section(start string, allowEOF bool, ends ...string) Locator {
	l := Locator{
		Start:    regexp.MustCompile(start),
		AllowEOF: allowEOF,
	}
	for _, e := range ends {
		l.Ends = append(l.Ends, regexp.MustCompile(e))
	}
	return l
}

// Find returns the first section in text. A start marker without a
// matching end is skipped in favour of a later start marker.
func (l Locator) Find(text string) (Span, bool) {
	return l.findFrom(text, 0)
}

// FindAll returns every non-overlapping section in text
func (l Locator) FindAll(text string) []Span {
	var spans []Span
	pos := 0
	for pos <= len(text) {
		span, ok := l.findFrom(text, pos)
		if !ok {
			break
		}
		spans = append(spans, span)
		if span.End <= pos {
			break
		}
		pos = span.End
	}
	return spans
}

func (l Locator) findFrom(text string, from int) (Span, bool) {
	pos := from
	for pos <= len(text) {
		m := l.Start.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			return Span{}, false
		}
		bodyStart := pos + m[1]
		if end, ok := l.endAfter(text, bodyStart); ok {
			span := Span{Start: bodyStart, End: end}
			if len(m) >= 4 && m[2] >= 0 {
				span.Key = text[pos+m[2] : pos+m[3]]
			}
			return span, true
		}

		// No terminator for this start marker; retry from the next rune.
		next := pos + m[0]
		if next >= len(text) {
			return Span{}, false
		}
		_, width := utf8.DecodeRuneInString(text[next:])
		pos = next + width
	}
	return Span{}, false
}

func (l Locator) endAfter(text string, from int) (int, bool) {
	best := -1
	for _, re := range l.Ends {
		loc := re.FindStringIndex(text[from:])
		if loc == nil {
			continue
		}
		if best < 0 || from+loc[0] < best {
			best = from + loc[0]
		}
	}
	if best >= 0 {
		return best, true
	}
	if l.AllowEOF {
		return len(text), true
	}
	return 0, false
}
